package staging

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"quill/internal/logging"
	"quill/internal/message"
)

const entrySeparator = "\n---\n"

var (
	headerPattern   = regexp.MustCompile(`^##\s+(\d{1,2}:\d{2})\s+-\s+(.+)$`)
	captionPattern  = regexp.MustCompile(`Caption:\s*(.+)`)
	imageEmbed      = regexp.MustCompile(`!\[.*?\]\((.*?)\)`)
	videoEmbed      = regexp.MustCompile(`\[Video\]\((.*?)\)`)
	audioEmbed      = regexp.MustCompile(`\[Audio\]\((.*?)\)`)
	documentEmbed   = regexp.MustCompile(`(?i)\[.*?\]\((.*?\.pdf)\)`)
	previewKindList = []struct {
		indicator string
		kind      message.Kind
	}{
		{"[Image]", message.KindImage},
		{"[Video Note]", message.KindVideoNote},
		{"[Video]", message.KindVideo},
		{"[Audio]", message.KindAudio},
		{"[Voice Message]", message.KindVoice},
		{"[Document]", message.KindDocument},
	}
)

// Reader parses staged unit files into message records.
type Reader struct {
	location *time.Location
	logger   *slog.Logger
}

// NewReader creates a Reader. Timestamps parse in loc; nil means local time.
func NewReader(loc *time.Location, logger *slog.Logger) *Reader {
	if loc == nil {
		loc = time.Local
	}
	return &Reader{
		location: loc,
		logger:   logging.NewComponentLogger(logger, "staging"),
	}
}

// ParseUnit parses one staged unit into its records. The unit key carries the
// date; each entry header carries the time of day. Entries that fail to parse
// are skipped so one malformed message never blocks a whole day.
//
// The staging writer emits media links relative to the unit file, so unitPath
// anchors them; relative links stay untouched when it is empty.
func (r *Reader) ParseUnit(content []byte, contact, unitKey, unitPath string) ([]message.Record, error) {
	day, err := time.ParseInLocation("2006-01-02", unitKey, r.location)
	if err != nil {
		return nil, fmt.Errorf("unit key %q is not a date: %w", unitKey, err)
	}

	entries := strings.Split(string(content), entrySeparator)
	records := make([]message.Record, 0, len(entries))
	for i, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		record, ok := r.parseEntry(entry, contact, day, i)
		if !ok {
			r.logger.Warn("skipping unparseable staged entry",
				logging.String(logging.FieldContact, contact),
				logging.String(logging.FieldUnit, unitKey),
				logging.Int("entry", i))
			continue
		}
		record.MediaPath = resolveMediaPath(record.MediaPath, unitPath)
		records = append(records, record)
	}
	return records, nil
}

func resolveMediaPath(mediaPath, unitPath string) string {
	if mediaPath == "" || unitPath == "" || filepath.IsAbs(mediaPath) {
		return mediaPath
	}
	return filepath.Join(filepath.Dir(unitPath), mediaPath)
}

func (r *Reader) parseEntry(entry, contact string, day time.Time, index int) (message.Record, bool) {
	header, body, _ := strings.Cut(entry, "\n")
	body = strings.TrimSpace(body)

	match := headerPattern.FindStringSubmatch(strings.TrimSpace(header))
	if match == nil {
		return message.Record{}, false
	}
	clock, err := time.Parse("15:04", match[1])
	if err != nil {
		return message.Record{}, false
	}
	preview := match[2]

	ts := time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0, r.location)

	record := message.Record{
		// Staging files carry no original message IDs; synthesize a
		// stable-enough one from the timestamp and entry position.
		ID:        ts.UnixMilli() + int64(index),
		Contact:   contact,
		Timestamp: ts,
	}
	record.Kind, record.Text, record.Caption, record.MediaPath = parseContent(preview, body)
	return record, true
}

// parseContent determines the record kind from the preview indicator, falling
// back to embedded markdown media, then links, then plain text.
func parseContent(preview, body string) (message.Kind, string, string, string) {
	for _, pk := range previewKindList {
		if strings.HasPrefix(preview, pk.indicator) {
			return pk.kind, "", extractCaption(body), extractMediaPath(body)
		}
	}

	if m := imageEmbed.FindStringSubmatch(body); m != nil {
		return message.KindImage, "", extractCaption(body), m[1]
	}
	if m := videoEmbed.FindStringSubmatch(body); m != nil {
		return message.KindVideo, "", extractCaption(body), m[1]
	}
	if m := audioEmbed.FindStringSubmatch(body); m != nil {
		return message.KindAudio, "", "", m[1]
	}
	if m := documentEmbed.FindStringSubmatch(body); m != nil {
		return message.KindDocument, "", "", m[1]
	}

	if strings.Contains(body, "http://") || strings.Contains(body, "https://") {
		return message.KindLink, body, "", ""
	}

	return message.KindText, body, "", ""
}

func extractCaption(body string) string {
	match := captionPattern.FindStringSubmatch(body)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func extractMediaPath(body string) string {
	for _, pattern := range []*regexp.Regexp{imageEmbed, videoEmbed, audioEmbed, documentEmbed} {
		if m := pattern.FindStringSubmatch(body); m != nil {
			return m[1]
		}
	}
	return ""
}
