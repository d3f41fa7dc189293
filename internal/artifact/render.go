package artifact

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"quill/internal/enrich"
	"quill/internal/message"
	"quill/internal/textutil"
)

// Renderer turns an enriched unit into its processed markdown note. The
// whole note is rewritten on every pass; nothing is patched in place.
type Renderer struct {
	location *time.Location
	caser    cases.Caser
}

// NewRenderer builds a Renderer. A nil location falls back to time.Local.
func NewRenderer(location *time.Location) *Renderer {
	if location == nil {
		location = time.Local
	}
	return &Renderer{
		location: location,
		caser:    cases.Title(language.English),
	}
}

// Render produces the full markdown document for one unit.
func (r *Renderer) Render(result *enrich.UnitResult) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", result.UnitKey)
	fmt.Fprintf(&b, "Contact: %s\n", result.Contact)
	fmt.Fprintf(&b, "Messages: %d\n\n", len(result.Records))

	for i, rec := range result.Records {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		r.renderRecord(&b, rec)
	}
	return []byte(b.String())
}

func (r *Renderer) renderRecord(b *strings.Builder, rec enrich.Record) {
	clock := textutil.FormatClock(rec.Source.Timestamp, r.location)
	fmt.Fprintf(b, "## %s - %s\n\n", clock, r.variantLabel(rec.Variant))

	if text := rec.Source.Text; text != "" {
		fmt.Fprintf(b, "%s\n\n", text)
	}
	if rec.Source.MediaPath != "" {
		r.renderMedia(b, rec)
	}
	if caption := rec.Source.Caption; caption != "" {
		fmt.Fprintf(b, "Caption: %s\n\n", caption)
	}
	if rec.Video != nil {
		r.renderVideo(b, rec)
	}
	if rec.LinkMeta != nil && rec.LinkMeta.Title != "" {
		fmt.Fprintf(b, "**%s**", rec.LinkMeta.Title)
		if rec.LinkMeta.SiteName != "" {
			fmt.Fprintf(b, " (%s)", rec.LinkMeta.SiteName)
		}
		b.WriteString("\n\n")
		if rec.LinkMeta.Description != "" {
			fmt.Fprintf(b, "%s\n\n", rec.LinkMeta.Description)
		}
	}
	if rec.OCRText != "" {
		fmt.Fprintf(b, "**Extracted Text:**\n\n%s\n\n", rec.OCRText)
	}
	if rec.Transcript != "" {
		fmt.Fprintf(b, "**Transcript:**\n\n%s\n\n", rec.Transcript)
	}
	if rec.Summary != "" {
		fmt.Fprintf(b, "**Summary:**\n\n%s\n\n", rec.Summary)
	}
	for _, note := range rec.Provenance {
		if note.Status == enrich.StageFailed {
			fmt.Fprintf(b, "*%s failed: %s*\n\n", note.Stage, note.Detail)
		}
	}
	if len(rec.Tags) > 0 {
		fmt.Fprintf(b, "Tags: %s\n", strings.Join(rec.Tags, " "))
	}
}

func (r *Renderer) renderMedia(b *strings.Builder, rec enrich.Record) {
	path := rec.Source.MediaPath
	switch rec.Source.Kind {
	case message.KindImage:
		fmt.Fprintf(b, "![Image](%s)\n\n", path)
	case message.KindVideo, message.KindVideoNote:
		fmt.Fprintf(b, "[Video](%s)", path)
		r.renderMediaDetails(b, rec)
	case message.KindAudio, message.KindVoice:
		fmt.Fprintf(b, "[Audio](%s)", path)
		r.renderMediaDetails(b, rec)
	default:
		fmt.Fprintf(b, "[Attachment](%s)", path)
		r.renderMediaDetails(b, rec)
	}
}

func (r *Renderer) renderMediaDetails(b *strings.Builder, rec enrich.Record) {
	var details []string
	if rec.Source.Duration > 0 {
		details = append(details, textutil.FormatDuration(rec.Source.Duration))
	}
	if rec.Source.SizeBytes > 0 {
		details = append(details, humanize.Bytes(uint64(rec.Source.SizeBytes)))
	}
	if len(details) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(details, ", "))
	}
	b.WriteString("\n\n")
}

func (r *Renderer) renderVideo(b *strings.Builder, rec enrich.Record) {
	fmt.Fprintf(b, "**%s**", rec.Video.Title)
	var details []string
	if rec.Video.Channel != "" {
		details = append(details, rec.Video.Channel)
	}
	if rec.Video.Duration > 0 {
		details = append(details, textutil.FormatDuration(rec.Video.Duration))
	}
	if len(details) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(details, ", "))
	}
	b.WriteString("\n\n")
}

func (r *Renderer) variantLabel(variant message.Variant) string {
	switch variant {
	case message.VariantAudioVideo:
		return "Audio/Video"
	case message.VariantYouTubeLink:
		return "YouTube"
	default:
		return r.caser.String(string(variant))
	}
}
