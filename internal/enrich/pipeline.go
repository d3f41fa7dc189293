package enrich

import (
	"context"
	"log/slog"
	"time"

	"quill/internal/enrichcache"
	"quill/internal/logging"
	"quill/internal/message"
	"quill/internal/services/linkmeta"
	"quill/internal/services/youtube"
	"quill/internal/state"
	"quill/internal/tagging"
)

// Stage names as recorded in provenance.
const (
	StageLinkExtraction  = "link-extraction"
	StageMetadataFetch   = "metadata-fetch"
	StageTranscriptFetch = "transcript-fetch"
	StageTranscription   = "transcription"
	StageOCR             = "ocr"
	StageSummarization   = "summarization"
	StageTagging         = "tagging"
)

// StageStatus describes how a stage ended for one record.
type StageStatus string

const (
	StageRan     StageStatus = "ran"
	StageSkipped StageStatus = "skipped"
	StageFailed  StageStatus = "failed"
)

// StageNote is one provenance entry on an enriched record.
type StageNote struct {
	Stage  string
	Status StageStatus
	Detail string
}

// Record is one staged message after enrichment.
type Record struct {
	Source     message.Record
	Variant    message.Variant
	Links      []string
	LinkMeta   *linkmeta.Metadata
	Video      *youtube.Video
	Transcript string
	OCRText    string
	Summary    string
	Tags       []string
	Provenance []StageNote
}

// UnitResult is the enrichment output for one staged unit, ready for the
// artifact renderer.
type UnitResult struct {
	Contact string
	UnitKey string
	Records []Record
	Totals  state.StageTotals
}

// Backend interfaces, one call each. A nil backend disables its stage.
type (
	// Transcriber turns a media file into text.
	Transcriber interface {
		Transcribe(ctx context.Context, mediaPath string) (string, error)
	}
	// TextExtractor runs OCR over an image file.
	TextExtractor interface {
		ExtractText(ctx context.Context, imagePath string) (string, error)
	}
	// Summarizer condenses long text.
	Summarizer interface {
		Summarize(ctx context.Context, text string) (string, error)
	}
	// LinkResolver fetches page metadata for a URL.
	LinkResolver interface {
		Fetch(ctx context.Context, pageURL string) (linkmeta.Metadata, error)
	}
	// VideoResolver resolves YouTube metadata and caption transcripts.
	VideoResolver interface {
		Lookup(ctx context.Context, videoURL string) (youtube.Video, error)
		Transcript(ctx context.Context, videoID string) (string, error)
	}
	// TagGenerator produces the final tag set for a record.
	TagGenerator interface {
		Generate(ctx context.Context, in tagging.Input) []string
	}
)

// Backends bundles the pluggable enrichment services.
type Backends struct {
	Transcriber Transcriber
	OCR         TextExtractor
	Summarizer  Summarizer
	Links       LinkResolver
	YouTube     VideoResolver
	Tagger      TagGenerator
}

// Skip holds the per-stage skip flags.
type Skip struct {
	Transcription bool
	OCR           bool
	Summarization bool
	Links         bool
	Tagging       bool
}

// Timeouts bounds each external call. Zero means no extra bound beyond the
// backend's own client timeout.
type Timeouts struct {
	Transcription time.Duration
	OCR           time.Duration
	Summarization time.Duration
	Links         time.Duration
	YouTube       time.Duration
}

// Pipeline applies the per-variant stage tables to staged records.
type Pipeline struct {
	backends Backends
	skip     Skip
	timeouts Timeouts
	cache    *enrichcache.Cache
	logger   *slog.Logger
}

// New builds a Pipeline. cache may be nil to disable caching.
func New(backends Backends, skip Skip, timeouts Timeouts, cache *enrichcache.Cache, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		backends: backends,
		skip:     skip,
		timeouts: timeouts,
		cache:    cache,
		logger:   logging.NewComponentLogger(logger, "enrich"),
	}
}

// stagePlan is the fixed, ordered stage table per variant. Classification
// happens before this table is consulted; tagging terminates every row.
var stagePlan = map[message.Variant][]string{
	message.VariantText:        {StageLinkExtraction, StageTagging},
	message.VariantImage:       {StageOCR, StageTagging},
	message.VariantAudioVideo:  {StageTranscription, StageSummarization, StageTagging},
	message.VariantLink:        {StageLinkExtraction, StageMetadataFetch, StageSummarization, StageTagging},
	message.VariantYouTubeLink: {StageLinkExtraction, StageTranscriptFetch, StageSummarization, StageTagging},
	message.VariantDocument:    {StageTagging},
	message.VariantOther:       {StageTagging},
}

// EnrichUnit runs the pipeline over every record of one staged unit. Stage
// failures are recorded in provenance and never abort the unit; the only
// error returned is context cancellation between records.
func (p *Pipeline) EnrichUnit(ctx context.Context, contact, unitKey string, records []message.Record) (*UnitResult, error) {
	result := &UnitResult{Contact: contact, UnitKey: unitKey}

	for _, src := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		enriched := p.enrichRecord(ctx, src, &result.Totals)
		result.Records = append(result.Records, enriched)
	}
	return result, nil
}

func (p *Pipeline) enrichRecord(ctx context.Context, src message.Record, totals *state.StageTotals) Record {
	rec := Record{
		Source:  src,
		Variant: message.Classify(src),
	}
	for _, stage := range stagePlan[rec.Variant] {
		p.runStage(ctx, stage, &rec, totals)
	}
	return rec
}

func (p *Pipeline) runStage(ctx context.Context, stage string, rec *Record, totals *state.StageTotals) {
	switch stage {
	case StageLinkExtraction:
		p.extractLinks(rec, totals)
	case StageMetadataFetch:
		p.fetchLinkMetadata(ctx, rec)
	case StageTranscriptFetch:
		p.fetchVideoTranscript(ctx, rec, totals)
	case StageTranscription:
		p.transcribe(ctx, rec, totals)
	case StageOCR:
		p.extractText(ctx, rec, totals)
	case StageSummarization:
		p.summarize(ctx, rec, totals)
	case StageTagging:
		p.tag(ctx, rec, totals)
	}
}

func (p *Pipeline) note(rec *Record, stage string, status StageStatus, detail string) {
	rec.Provenance = append(rec.Provenance, StageNote{Stage: stage, Status: status, Detail: detail})
	if status == StageFailed {
		p.logger.Warn("stage failed",
			logging.String(logging.FieldStage, stage),
			logging.String(logging.FieldContact, rec.Source.Contact),
			logging.Int64("message_id", rec.Source.ID),
			logging.String("detail", detail))
	}
}

func (p *Pipeline) stageCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
