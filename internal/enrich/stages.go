package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quill/internal/checksum"
	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/services/linkmeta"
	"quill/internal/state"
	"quill/internal/tagging"
	"quill/internal/textutil"
)

func (p *Pipeline) extractLinks(rec *Record, totals *state.StageTotals) {
	urls := textutil.ExtractURLs(rec.Source.Content())
	rec.Links = urls
	totals.Links += len(urls)
	p.note(rec, StageLinkExtraction, StageRan, fmt.Sprintf("%d urls", len(urls)))
}

func (p *Pipeline) fetchLinkMetadata(ctx context.Context, rec *Record) {
	if p.skip.Links {
		p.note(rec, StageMetadataFetch, StageSkipped, "disabled")
		return
	}
	if p.backends.Links == nil {
		p.note(rec, StageMetadataFetch, StageSkipped, "backend not configured")
		return
	}
	pageURL := firstArticleURL(rec.Links)
	if pageURL == "" {
		p.note(rec, StageMetadataFetch, StageSkipped, "no article url")
		return
	}

	key := checksum.Sum([]byte(pageURL))
	if cached, ok := p.cacheGet(ctx, StageMetadataFetch, key); ok {
		var meta linkmeta.Metadata
		if err := json.Unmarshal([]byte(cached), &meta); err == nil {
			rec.LinkMeta = &meta
			p.note(rec, StageMetadataFetch, StageRan, "cached")
			return
		}
	}

	stageCtx, cancel := p.stageCtx(ctx, p.timeouts.Links)
	defer cancel()
	meta, err := p.backends.Links.Fetch(stageCtx, pageURL)
	if err != nil {
		p.note(rec, StageMetadataFetch, StageFailed, services.Details(err))
		return
	}
	rec.LinkMeta = &meta
	p.cachePut(ctx, StageMetadataFetch, key, meta)
	p.note(rec, StageMetadataFetch, StageRan, "")
}

func (p *Pipeline) fetchVideoTranscript(ctx context.Context, rec *Record, totals *state.StageTotals) {
	if p.skip.Transcription {
		p.note(rec, StageTranscriptFetch, StageSkipped, "disabled")
		return
	}
	if p.backends.YouTube == nil {
		p.note(rec, StageTranscriptFetch, StageSkipped, "backend not configured")
		return
	}
	videoURL := firstYouTubeURL(rec.Links)
	if videoURL == "" {
		videoURL = rec.Source.Content()
	}

	stageCtx, cancel := p.stageCtx(ctx, p.timeouts.YouTube)
	defer cancel()

	video, err := p.backends.YouTube.Lookup(stageCtx, videoURL)
	if err != nil {
		p.note(rec, StageTranscriptFetch, StageFailed, services.Details(err))
		return
	}
	rec.Video = &video

	key := checksum.Sum([]byte(video.ID))
	if cached, ok := p.cacheGet(ctx, StageTranscriptFetch, key); ok {
		rec.Transcript = cached
		totals.Transcriptions++
		p.note(rec, StageTranscriptFetch, StageRan, "cached")
		return
	}

	transcript, err := p.backends.YouTube.Transcript(stageCtx, video.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			p.note(rec, StageTranscriptFetch, StageSkipped, "no caption track")
			return
		}
		p.note(rec, StageTranscriptFetch, StageFailed, services.Details(err))
		return
	}
	rec.Transcript = transcript
	totals.Transcriptions++
	p.cachePut(ctx, StageTranscriptFetch, key, transcript)
	p.note(rec, StageTranscriptFetch, StageRan, "")
}

func (p *Pipeline) transcribe(ctx context.Context, rec *Record, totals *state.StageTotals) {
	if p.skip.Transcription {
		p.note(rec, StageTranscription, StageSkipped, "disabled")
		return
	}
	if p.backends.Transcriber == nil {
		p.note(rec, StageTranscription, StageSkipped, "backend not configured")
		return
	}
	if !rec.Source.HasMedia() {
		p.note(rec, StageTranscription, StageSkipped, "no media file")
		return
	}

	key, err := checksum.SumFile(rec.Source.MediaPath)
	if err != nil {
		p.note(rec, StageTranscription, StageFailed, "media file unreadable")
		return
	}
	if cached, ok := p.cacheGet(ctx, StageTranscription, key); ok {
		rec.Transcript = cached
		totals.Transcriptions++
		p.note(rec, StageTranscription, StageRan, "cached")
		return
	}

	stageCtx, cancel := p.stageCtx(ctx, p.timeouts.Transcription)
	defer cancel()
	transcript, err := p.backends.Transcriber.Transcribe(stageCtx, rec.Source.MediaPath)
	if err != nil {
		p.note(rec, StageTranscription, StageFailed, services.Details(err))
		return
	}
	rec.Transcript = transcript
	totals.Transcriptions++
	p.cachePut(ctx, StageTranscription, key, transcript)
	p.note(rec, StageTranscription, StageRan, "")
}

func (p *Pipeline) extractText(ctx context.Context, rec *Record, totals *state.StageTotals) {
	if p.skip.OCR {
		p.note(rec, StageOCR, StageSkipped, "disabled")
		return
	}
	if p.backends.OCR == nil {
		p.note(rec, StageOCR, StageSkipped, "backend not configured")
		return
	}
	if !rec.Source.HasMedia() {
		p.note(rec, StageOCR, StageSkipped, "no media file")
		return
	}

	key, err := checksum.SumFile(rec.Source.MediaPath)
	if err != nil {
		p.note(rec, StageOCR, StageFailed, "media file unreadable")
		return
	}
	if cached, ok := p.cacheGet(ctx, StageOCR, key); ok {
		rec.OCRText = cached
		totals.OCRRuns++
		p.note(rec, StageOCR, StageRan, "cached")
		return
	}

	stageCtx, cancel := p.stageCtx(ctx, p.timeouts.OCR)
	defer cancel()
	text, err := p.backends.OCR.ExtractText(stageCtx, rec.Source.MediaPath)
	if err != nil {
		p.note(rec, StageOCR, StageFailed, services.Details(err))
		return
	}
	rec.OCRText = text
	totals.OCRRuns++
	p.cachePut(ctx, StageOCR, key, text)
	p.note(rec, StageOCR, StageRan, "")
}

func (p *Pipeline) summarize(ctx context.Context, rec *Record, totals *state.StageTotals) {
	if p.skip.Summarization {
		p.note(rec, StageSummarization, StageSkipped, "disabled")
		return
	}
	if p.backends.Summarizer == nil {
		p.note(rec, StageSummarization, StageSkipped, "backend not configured")
		return
	}
	input := summaryInput(rec)
	if input == "" {
		p.note(rec, StageSummarization, StageSkipped, "no input")
		return
	}

	key := checksum.Sum([]byte(input))
	if cached, ok := p.cacheGet(ctx, StageSummarization, key); ok {
		rec.Summary = cached
		totals.Summaries++
		p.note(rec, StageSummarization, StageRan, "cached")
		return
	}

	stageCtx, cancel := p.stageCtx(ctx, p.timeouts.Summarization)
	defer cancel()
	summary, err := p.backends.Summarizer.Summarize(stageCtx, input)
	if err != nil {
		p.note(rec, StageSummarization, StageFailed, services.Details(err))
		return
	}
	if summary == "" {
		p.note(rec, StageSummarization, StageSkipped, "input below summary threshold")
		return
	}
	rec.Summary = summary
	totals.Summaries++
	p.cachePut(ctx, StageSummarization, key, summary)
	p.note(rec, StageSummarization, StageRan, "")
}

func (p *Pipeline) tag(ctx context.Context, rec *Record, totals *state.StageTotals) {
	if p.skip.Tagging {
		p.note(rec, StageTagging, StageSkipped, "disabled")
		return
	}
	if p.backends.Tagger == nil {
		p.note(rec, StageTagging, StageSkipped, "backend not configured")
		return
	}
	rec.Tags = p.backends.Tagger.Generate(ctx, tagging.Input{
		Record:     rec.Source,
		Variant:    rec.Variant,
		OCRText:    rec.OCRText,
		Transcript: rec.Transcript,
		Summary:    rec.Summary,
	})
	totals.Tags += len(rec.Tags)
	p.note(rec, StageTagging, StageRan, fmt.Sprintf("%d tags", len(rec.Tags)))
}

// summaryInput picks what the summarizer reads: a transcript when one
// exists, otherwise the fetched page description for link records.
func summaryInput(rec *Record) string {
	if rec.Transcript != "" {
		return rec.Transcript
	}
	if rec.LinkMeta != nil && rec.LinkMeta.Description != "" {
		return rec.LinkMeta.Description
	}
	return ""
}

func firstArticleURL(urls []string) string {
	for _, u := range urls {
		if !textutil.IsYouTubeURL(u) {
			return u
		}
	}
	return ""
}

func firstYouTubeURL(urls []string) string {
	for _, u := range urls {
		if textutil.IsYouTubeURL(u) {
			return u
		}
	}
	return ""
}

func (p *Pipeline) cacheGet(ctx context.Context, stage string, key checksum.Digest) (string, bool) {
	if p.cache == nil {
		return "", false
	}
	value, ok, err := p.cache.Get(ctx, stage, key)
	if err != nil {
		p.logger.Warn("cache read failed", logging.Error(err))
		return "", false
	}
	return value, ok
}

func (p *Pipeline) cachePut(ctx context.Context, stage string, key checksum.Digest, value any) {
	if p.cache == nil {
		return
	}
	var payload string
	switch v := value.(type) {
	case string:
		payload = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return
		}
		payload = string(encoded)
	}
	if err := p.cache.Put(ctx, stage, key, payload); err != nil {
		p.logger.Warn("cache write failed", logging.Error(err))
	}
}
