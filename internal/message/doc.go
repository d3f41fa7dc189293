// Package message defines the staged message record and the variant
// classifier that routes each record to its enrichment stage table.
package message
