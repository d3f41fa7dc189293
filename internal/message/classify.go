package message

import "quill/internal/textutil"

// Variant selects which enrichment stage table applies to a record.
type Variant string

const (
	VariantText        Variant = "text"
	VariantImage       Variant = "image"
	VariantAudioVideo  Variant = "audio-video"
	VariantLink        Variant = "link"
	VariantYouTubeLink Variant = "youtube-link"
	VariantDocument    Variant = "document"
	VariantOther       Variant = "other"
)

func (v Variant) String() string { return string(v) }

// classifiers run in order; the first match wins. YouTube links must be
// checked before generic links or they would never be reached.
var classifiers = []struct {
	variant Variant
	matches func(Record) bool
}{
	{VariantYouTubeLink, isYouTubeLink},
	{VariantLink, isLink},
	{VariantImage, isImage},
	{VariantAudioVideo, isAudioVideo},
	{VariantDocument, isDocument},
	{VariantText, isText},
}

// Classify routes a record to its variant. Records no classifier claims
// fall through to VariantOther and are carried to the artifact verbatim.
func Classify(r Record) Variant {
	for _, c := range classifiers {
		if c.matches(r) {
			return c.variant
		}
	}
	return VariantOther
}

func isYouTubeLink(r Record) bool {
	if r.Kind != KindLink && r.Kind != KindText {
		return false
	}
	for _, url := range textutil.ExtractURLs(r.Text) {
		if textutil.IsYouTubeURL(url) {
			return true
		}
	}
	return false
}

func isLink(r Record) bool {
	if r.Kind != KindLink && r.Kind != KindText {
		return false
	}
	return len(textutil.ExtractURLs(r.Text)) > 0
}

func isImage(r Record) bool {
	return r.Kind == KindImage
}

func isAudioVideo(r Record) bool {
	switch r.Kind {
	case KindVideo, KindVideoNote, KindAudio, KindVoice:
		return true
	}
	return false
}

func isDocument(r Record) bool {
	return r.Kind == KindDocument
}

func isText(r Record) bool {
	return r.Kind == KindText && r.Text != ""
}
