package tagging

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"quill/internal/logging"
	"quill/internal/message"
	"quill/internal/services/llm"
)

// Completer is the slice of the LLM client the AI pass needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Input carries everything known about a message at tagging time. Enrichment
// outputs are optional; empty fields simply contribute nothing.
type Input struct {
	Record     message.Record
	Variant    message.Variant
	OCRText    string
	Transcript string
	Summary    string
}

// Tagger combines the deterministic rule pass with an optional AI pass.
type Tagger struct {
	rules   []compiledRule
	ai      Completer
	maxTags int
	logger  *slog.Logger
}

// New builds a Tagger. ai may be nil to disable the AI pass.
func New(rules []Rule, ai Completer, maxTags int, logger *slog.Logger) *Tagger {
	log := logging.NewComponentLogger(logger, "tagging")
	return &Tagger{
		rules:   compileRules(rules, log),
		ai:      ai,
		maxTags: maxTags,
		logger:  log,
	}
}

const aiTagPrompt = "You generate hashtags for archived chat messages. " +
	"Respond with JSON of the form {\"tags\": [\"#example\"]}. " +
	"Produce at most five short lowercase hashtags describing the topic. " +
	"Do not invent facts not present in the content."

// Generate returns the sorted, deduplicated tag list for one message.
// An AI pass failure is logged and swallowed; the deterministic tags still
// apply.
func (t *Tagger) Generate(ctx context.Context, in Input) []string {
	seen := make(map[string]struct{})

	combined := strings.ToLower(strings.Join(contentParts(in), " "))
	for _, rule := range t.rules {
		if rule.pattern.MatchString(combined) {
			addTag(seen, rule.tag)
		}
	}

	for _, tag := range typeTags(in) {
		addTag(seen, tag)
	}
	if in.Transcript != "" {
		addTag(seen, "#transcription")
	}
	if in.OCRText != "" {
		addTag(seen, "#ocr")
	}
	if in.Summary != "" {
		addTag(seen, "#summarized")
	}

	if t.ai != nil && combined != "" {
		for _, tag := range t.aiTags(ctx, combined) {
			addTag(seen, tag)
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	if t.maxTags > 0 && len(tags) > t.maxTags {
		tags = tags[:t.maxTags]
	}
	return tags
}

func (t *Tagger) aiTags(ctx context.Context, content string) []string {
	const maxContent = 2000
	if len(content) > maxContent {
		content = content[:maxContent]
	}
	raw, err := t.ai.CompleteJSON(ctx, aiTagPrompt, content)
	if err != nil {
		t.logger.Warn("ai tagging failed", logging.Error(err))
		return nil
	}
	var parsed struct {
		Tags []string `json:"tags"`
	}
	if err := llm.DecodeLLMJSON(raw, &parsed); err != nil {
		t.logger.Warn("ai tagging returned unparseable payload", logging.Error(err))
		return nil
	}
	return parsed.Tags
}

func contentParts(in Input) []string {
	var parts []string
	for _, s := range []string{in.Record.Text, in.Record.Caption, in.OCRText, in.Summary} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func typeTags(in Input) []string {
	var tags []string
	switch in.Record.Kind {
	case message.KindImage:
		tags = append(tags, "#image")
	case message.KindVideo, message.KindVideoNote:
		tags = append(tags, "#video")
	case message.KindAudio:
		tags = append(tags, "#audio")
	case message.KindVoice:
		tags = append(tags, "#voice")
	case message.KindDocument:
		tags = append(tags, "#document")
	case message.KindLink:
		tags = append(tags, "#link")
	}
	if in.Variant == message.VariantYouTubeLink {
		tags = append(tags, "#link", "#youtube")
	}
	return tags
}

// addTag normalizes before inserting: tags are lowercase, single-token, and
// always carry the leading hash.
func addTag(seen map[string]struct{}, tag string) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = strings.TrimPrefix(tag, "#")
	tag = strings.Join(strings.Fields(tag), "-")
	if tag == "" {
		return
	}
	seen["#"+tag] = struct{}{}
}
