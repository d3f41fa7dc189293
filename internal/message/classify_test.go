package message

import "testing"

func TestClassifyFirstMatchWins(t *testing.T) {
	cases := []struct {
		name   string
		record Record
		want   Variant
	}{
		{
			name:   "plain text",
			record: Record{Kind: KindText, Text: "hello there"},
			want:   VariantText,
		},
		{
			name:   "text with generic url",
			record: Record{Kind: KindText, Text: "read https://example.com/article"},
			want:   VariantLink,
		},
		{
			name:   "youtube beats generic link",
			record: Record{Kind: KindLink, Text: "https://youtu.be/dQw4w9WgXcQ and https://example.com"},
			want:   VariantYouTubeLink,
		},
		{
			name:   "link kind without youtube",
			record: Record{Kind: KindLink, Text: "https://example.com/post"},
			want:   VariantLink,
		},
		{
			name:   "image",
			record: Record{Kind: KindImage, MediaPath: "media/img.jpg", Caption: "see https://example.com"},
			want:   VariantImage,
		},
		{
			name:   "voice message",
			record: Record{Kind: KindVoice, MediaPath: "media/voice.ogg"},
			want:   VariantAudioVideo,
		},
		{
			name:   "video note",
			record: Record{Kind: KindVideoNote, MediaPath: "media/note.mp4"},
			want:   VariantAudioVideo,
		},
		{
			name:   "document",
			record: Record{Kind: KindDocument, MediaPath: "media/paper.pdf"},
			want:   VariantDocument,
		},
		{
			name:   "empty text falls through to other",
			record: Record{Kind: KindText},
			want:   VariantOther,
		},
		{
			name:   "unknown kind",
			record: Record{Kind: Kind("sticker")},
			want:   VariantOther,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.record); got != tc.want {
				t.Fatalf("Classify = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClassifyAlwaysYieldsVariant(t *testing.T) {
	// Every record classifies, including the zero value; nothing falls out
	// of the pipeline unrouted.
	records := []Record{
		{},
		{Kind: KindText},
		{Kind: Kind("unknown"), Caption: "caption only"},
	}
	for _, r := range records {
		if got := Classify(r); got != VariantOther {
			t.Fatalf("Classify(%+v) = %s, want %s", r, got, VariantOther)
		}
	}
}

func TestContentPrefersTextOverCaption(t *testing.T) {
	r := Record{Text: "body", Caption: "caption"}
	if r.Content() != "body" {
		t.Fatalf("Content = %q", r.Content())
	}
	r = Record{Caption: "caption"}
	if r.Content() != "caption" {
		t.Fatalf("Content = %q", r.Content())
	}
}
