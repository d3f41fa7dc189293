package message

import "time"

// Kind is the raw message type recorded by the fetch phase.
type Kind string

const (
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindVideo     Kind = "video"
	KindVideoNote Kind = "video_note"
	KindAudio     Kind = "audio"
	KindVoice     Kind = "voice"
	KindDocument  Kind = "document"
	KindLink      Kind = "link"
)

// Record is one staged message parsed out of a daily staging file.
type Record struct {
	// ID is synthesized from the timestamp and entry index; staging files
	// do not carry original message identifiers.
	ID        int64
	Contact   string
	Timestamp time.Time
	Kind      Kind
	Text      string
	Caption   string
	// MediaPath points at the staged attachment, when one exists.
	MediaPath string
	// Duration is the attachment length for audio and video, when known.
	Duration time.Duration
	// SizeBytes is the attachment size, when known.
	SizeBytes int64
}

// HasMedia reports whether the record carries a staged attachment.
func (r Record) HasMedia() bool {
	return r.MediaPath != ""
}

// Content returns the text the enrichment stages should analyze: the body
// for text records, the caption for media records.
func (r Record) Content() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Caption
}
