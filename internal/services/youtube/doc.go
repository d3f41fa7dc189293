// Package youtube resolves metadata and caption transcripts for YouTube
// links.
//
// With an API key configured, lookups go through the Data API v3 and carry
// title, channel, and duration. Without one, the public oEmbed endpoint
// supplies title and channel only. Transcripts come from the timedtext
// caption endpoint; videos without an English caption track report a
// not-found error so the pipeline can fall back to summarizing the
// description instead.
package youtube
