package domain

import (
	"strings"
	"testing"
	"testing/quick"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID_URLShapes(t *testing.T) {
	const id = "dQw4w9WgXcQ"
	watchID, ok := ExtractVideoID("https://www.youtube.com/watch?v=" + id)
	require.True(t, ok)
	require.Equal(t, id, watchID)

	shapes := []string{
		"https://youtu.be/dQw4w9WgXcQ",
		"http://youtu.be/dQw4w9WgXcQ?si=Lw8xK3",
		"youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ?autoplay=1",
		"https://www.youtube.com/v/dQw4w9WgXcQ?version=3",
		"https://www.youtube.com/user/someone#p/u/1/dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s",
		"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://music.youtube.com/watch?v=dQw4w9WgXcQ&list=RDAMVM",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"https://www.youtube.com/live/dQw4w9WgXcQ?feature=shared",
		"  https://youtu.be/dQw4w9WgXcQ  ",
	}

	for _, shape := range shapes {
		t.Run(shape, func(t *testing.T) {
			got, ok := ExtractVideoID(shape)
			assert.True(t, ok)
			assert.Equal(t, watchID, got)
		})
	}
}

func TestExtractVideoID_Rejects(t *testing.T) {
	inputs := []string{
		"",
		"never gonna give you up",
		"programming",
		"https://example.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/",
		"https://www.youtube.com/watch?v=short",
		"https://www.youtube.com/playlist?list=PL590L5WQmH8fJ54F369BLDSqIwcs-TCfs",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, ok := ExtractVideoID(input)
			assert.False(t, ok)
		})
	}
}

func TestIsVideoURL(t *testing.T) {
	assert.True(t, IsVideoURL("https://www.youtube.com/feed/trending"))
	assert.True(t, IsVideoURL("youtu.be/x"))
	assert.False(t, IsVideoURL("notyoutube.com.example.org/watch"))
	assert.False(t, IsVideoURL("lofi hip hop youtube.com mix"))
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Rick Astley - Never Gonna Give You Up (Official Music Video)", "Rick_Astley_-_Never_Gonna_Give_You_Up_(Official_Music_Video)"},
		{`AC/DC: "Back in Black" | Live`, "AC_DC__Back_in_Black_-_Live"},
		{"What's up? <3 *sparkles* ~", "Whats_up_3_sparkles_-"},
		{`C:\Users\me`, "C__Users_me"},
		{"tab\tand\nnewline", "tab_and_newline"},
		{"...hidden.", "hidden"},
		{"???", DefaultTitle},
		{"", DefaultTitle},
		{"日本語 タイトル", "日本語_タイトル"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTitle(tt.title))
		})
	}
}

func TestSanitizeTitle_Truncates(t *testing.T) {
	got := SanitizeTitle(strings.Repeat("a", 500))
	assert.Equal(t, MaxTitleLength, utf8.RuneCountInString(got))
}

func TestSanitizeTitle_Properties(t *testing.T) {
	const forbidden = `/\:*?"<>|`

	property := func(title string) bool {
		once := SanitizeTitle(title)
		if SanitizeTitle(once) != once {
			return false
		}
		if strings.ContainsAny(once, forbidden) {
			return false
		}
		return once != ""
	}

	require.NoError(t, quick.Check(property, &quick.Config{MaxCount: 2000}))

	// quick rarely generates the interesting characters on its own
	for _, title := range []string{forbidden, ". /.", "a~b|c", "\x00\x1f\x7f", "\uFFFD.", strings.Repeat(". ", 200)} {
		assert.True(t, property(title), "title %q", title)
	}
}

func TestPathsFor(t *testing.T) {
	paths := PathsFor("/music", "Some_Title", "mp3")

	assert.Equal(t, "/music/Some_Title.mp3", paths.Output)
	assert.Equal(t, "/music/Some_Title-temp.mp3", paths.Temp)
	assert.Equal(t, "/music/Some_Title.vtt", paths.Subtitle)
	assert.NotEqual(t, paths.Output, paths.Temp)
}

func TestFormats(t *testing.T) {
	assert.True(t, ValidateFormat("MP4"))
	assert.True(t, ValidateFormat(".mp3"))
	assert.False(t, ValidateFormat("exe"))
	assert.True(t, IsAudioOnlyFormat("flac"))
	assert.False(t, IsAudioOnlyFormat("mov"))
}

func TestSubtitlesFor(t *testing.T) {
	assert.Equal(t, PlainConversion{}, SubtitlesFor(""))
	assert.Equal(t, Embedded{Path: "/tmp/a.vtt"}, SubtitlesFor("/tmp/a.vtt"))
}
