// Package tagging generates hashtags for enriched messages.
//
// Tags come from three sources. A rule pass matches case-insensitive regex
// patterns from a YAML rules file against the combined text, caption, OCR
// output, and summary. A type pass maps the message kind to a fixed tag
// (#image, #video, #voice, and so on). A feature pass records which
// enrichments actually ran (#transcription, #ocr, #summarized). An optional
// AI pass asks the LLM for topical hashtags; its failures never block the
// deterministic tags.
//
// The final list is deduplicated, sorted, and capped by the configured
// maximum.
package tagging
