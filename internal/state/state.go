package state

import (
	"time"

	"quill/internal/checksum"
)

// SchemaVersion identifies the persisted state layout.
const SchemaVersion = "2.0"

// FetchState tracks phase-one progress for a contact. It is mutated only by
// the fetch side; the processing orchestrator treats it as read-only.
type FetchState struct {
	LastMessageID int64      `json:"last_message_id,omitempty"`
	LastFetchTime *time.Time `json:"last_fetch_time,omitempty"`
	TotalFetched  int64      `json:"total_messages_fetched"`
}

// ProcessState tracks phase-two progress for a contact: which staged units
// are awaiting work and the digest each unit carried when it was last fully
// enriched.
type ProcessState struct {
	LastProcessedKey string                     `json:"last_processed_key,omitempty"`
	LastProcessTime  *time.Time                 `json:"last_process_time,omitempty"`
	TotalProcessed   int64                      `json:"total_messages_processed"`
	UnitDigests      map[string]checksum.Digest `json:"unit_digests"`
	PendingUnits     []string                   `json:"pending_units"`
}

// Contact is a discovered correspondent owning an independent progress
// stream. Contacts accumulate; they are never deleted.
type Contact struct {
	ChatID    int64        `json:"chat_id,omitempty"`
	FirstSeen *time.Time   `json:"first_seen,omitempty"`
	LastSeen  *time.Time   `json:"last_seen,omitempty"`
	Fetch     FetchState   `json:"fetch_state"`
	Process   ProcessState `json:"process_state"`
}

// Statistics aggregates lifetime totals across all contacts.
type Statistics struct {
	TotalContacts       int   `json:"total_contacts"`
	TotalFetched        int64 `json:"total_messages_fetched"`
	TotalProcessed      int64 `json:"total_messages_processed"`
	TotalTranscriptions int64 `json:"total_transcriptions"`
	TotalSummaries      int64 `json:"total_summaries"`
	TotalOCR            int64 `json:"total_ocr"`
	TotalTags           int64 `json:"total_tags"`
	TotalLinks          int64 `json:"total_links_extracted"`
}

// State is the full persisted document.
type State struct {
	Version     string              `json:"version"`
	LastUpdated time.Time           `json:"last_updated"`
	Contacts    map[string]*Contact `json:"contacts"`
	Statistics  Statistics          `json:"statistics"`
}

func newState() *State {
	return &State{
		Version:  SchemaVersion,
		Contacts: make(map[string]*Contact),
	}
}

// StageTotals carries the per-stage counters a single unit commit adds to
// the global statistics.
type StageTotals struct {
	Transcriptions int
	Summaries      int
	OCRRuns        int
	Tags           int
	Links          int
}

func (p *ProcessState) pendingIndex(unitKey string) int {
	for i, key := range p.PendingUnits {
		if key == unitKey {
			return i
		}
	}
	return -1
}

func (p *ProcessState) removePending(unitKey string) bool {
	idx := p.pendingIndex(unitKey)
	if idx < 0 {
		return false
	}
	p.PendingUnits = append(p.PendingUnits[:idx], p.PendingUnits[idx+1:]...)
	return true
}

// clone produces a deep copy used to roll back a failed commit.
func (p ProcessState) clone() ProcessState {
	cp := p
	cp.UnitDigests = make(map[string]checksum.Digest, len(p.UnitDigests))
	for k, v := range p.UnitDigests {
		cp.UnitDigests[k] = v
	}
	cp.PendingUnits = append([]string(nil), p.PendingUnits...)
	return cp
}
