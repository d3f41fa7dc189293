// Package llm provides an OpenRouter-compatible chat client for AI features.
//
// This package is used by:
//   - Summarization stage: condense long texts, articles, and transcripts
//   - Tagging stage: optional AI tag generation pass
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive plain text.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately.
//
// # Fallback
//
// If the LLM is unavailable or returns an error, callers record a provenance
// note and continue; AI output is always an enrichment, never a requirement.
package llm
