package domain

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// MaxTitleLength caps sanitized titles, in runes
	MaxTitleLength = 120
	// DefaultTitle replaces titles that sanitize to nothing
	DefaultTitle = "video"
)

var (
	youtubeHostRe = regexp.MustCompile(`^(?i:https?://)?(?i:[a-z0-9-]+\.)*(?i:youtube\.com|youtube-nocookie\.com|youtu\.be)(?:[/?#]|$)`)
	videoIDRe     = regexp.MustCompile(`(?:youtu\.be/|/v/|/u/\w/|/embed/|/shorts/|/live/|[?&]v=)([0-9A-Za-z_-]{11})(?:[#&?/]|$)`)
)

// IsVideoURL reports whether input points at a YouTube host
func IsVideoURL(input string) bool {
	return youtubeHostRe.MatchString(strings.TrimSpace(input))
}

// ExtractVideoID returns the video ID of a recognized URL shape: short
// links, embed links and watch-query links.
func ExtractVideoID(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if !IsVideoURL(input) {
		return "", false
	}
	m := videoIDRe.FindStringSubmatch(input)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

var titleReplacer = strings.NewReplacer(
	"/", "_",
	"'", "",
	`"`, "",
	":", "_",
	`\`, "_",
	"?", "",
	"*", "",
	"|", "-",
	"<", "",
	">", "",
	"~", "-",
)

// SanitizeTitle makes a remote title safe to use as a file name. It is
// idempotent and never yields any of / \ : * ? " < > |.
func SanitizeTitle(title string) string {
	s := titleReplacer.Replace(title)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '_'
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			return -1
		}
		return r
	}, s)
	s = strings.Trim(s, ".")
	if runes := []rune(s); len(runes) > MaxTitleLength {
		s = strings.Trim(string(runes[:MaxTitleLength]), ".")
	}
	if s == "" {
		return DefaultTitle
	}
	return s
}
