package textutil

import "regexp"

var (
	urlPattern     = regexp.MustCompile(`https?://[a-zA-Z0-9$\-_@.&+!*(),%/?=#~:;]+`)
	youtubePattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)`)
	videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([a-zA-Z0-9_-]{11})`)
)

// ExtractURLs returns every http(s) URL found in text, in order of appearance.
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// IsYouTubeURL reports whether url points at a YouTube video.
func IsYouTubeURL(url string) bool {
	return youtubePattern.MatchString(url)
}

// YouTubeVideoID extracts the 11-character video ID from a YouTube URL.
func YouTubeVideoID(url string) (string, bool) {
	match := videoIDPattern.FindStringSubmatch(url)
	if match == nil {
		return "", false
	}
	return match[1], true
}
