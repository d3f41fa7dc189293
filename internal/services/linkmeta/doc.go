// Package linkmeta fetches web pages and extracts the metadata that goes
// into enriched link messages: title, description, and site name.
//
// OpenGraph tags take precedence over the plain <title> and description
// meta tags. Bodies are capped at 2 MiB and non-HTML responses are skipped
// rather than treated as failures.
package linkmeta
