// Package whisper transcribes audio and video files through a local
// Whisper-compatible HTTP server.
//
// The client speaks the OpenAI audio transcription API shape: a multipart
// POST of the media file to /v1/audio/transcriptions returning {"text": ...}.
// Any server implementing that contract works, including faster-whisper
// wrappers.
//
// Failures are classified through the services markers so callers can tell
// a dead server (transient) from a missing media file (not found).
package whisper
