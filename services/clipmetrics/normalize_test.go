package clipmetrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTikTok(t *testing.T) {
	key, ok := Normalize("https://www.tiktok.com/@creator/video/7312345678901234567?lang=en")
	require.True(t, ok)
	require.Equal(t, NormalizedKey{Platform: PlatformTikTok, ID: "7312345678901234567"}, key)

	// query string, trailing slash and host variant do not change identity
	variant, ok := Normalize("https://TIKTOK.com/@creator/video/7312345678901234567/")
	require.True(t, ok)
	require.Equal(t, key, variant)
}

func TestNormalizeTikTokShortLink(t *testing.T) {
	key, ok := Normalize("https://vm.tiktok.com/ZM8example/")
	require.True(t, ok)
	require.Equal(t, NormalizedKey{Platform: PlatformTikTok, ID: "vm.tiktok.com/zm8example"}, key)

	again, ok := Normalize("https://vm.tiktok.com/ZM8example")
	require.True(t, ok)
	require.Equal(t, key, again)

	// the same code on the other short host is a different video
	other, ok := Normalize("https://vt.tiktok.com/ZM8example")
	require.True(t, ok)
	require.NotEqual(t, key, other)
	require.Equal(t, "vt.tiktok.com/zm8example", other.ID)
}

func TestNormalizeInstagram(t *testing.T) {
	forms := []string{
		"https://www.instagram.com/p/Cxy123abc/",
		"https://www.instagram.com/reel/Cxy123abc",
		"https://www.instagram.com/reels/Cxy123abc/?igsh=xyz",
		"https://instagram.com/someuser/reel/Cxy123abc",
	}

	want := NormalizedKey{Platform: PlatformInstagram, ID: "cxy123abc"}
	for _, form := range forms {
		key, ok := Normalize(form)
		require.True(t, ok, form)
		require.Equal(t, want, key, form)
	}
}

func TestNormalizeYouTube(t *testing.T) {
	forms := []string{
		"https://www.youtube.com/watch?v=dqw4w9wgxcq",
		"https://www.youtube.com/watch?list=pl123&v=dqw4w9wgxcq",
		"https://www.youtube.com/shorts/dqw4w9wgxcq",
		"https://youtu.be/dqw4w9wgxcq?t=42",
	}

	want := NormalizedKey{Platform: PlatformYouTube, ID: "dqw4w9wgxcq"}
	for _, form := range forms {
		key, ok := Normalize(form)
		require.True(t, ok, form)
		require.Equal(t, want, key, form)
	}
}

func TestNormalizeUnmatchable(t *testing.T) {
	cases := []string{
		"",
		"not a url",
		"https://example.com/video/123",
		"https://www.tiktok.com/@creator",
		"https://www.youtube.com/channel/UC123",
		"https://www.instagram.com/someuser/",
	}

	for _, raw := range cases {
		_, ok := Normalize(raw)
		require.False(t, ok, raw)
	}
}

func TestNormalizeDeterminism(t *testing.T) {
	raw := "https://www.tiktok.com/@a/video/123456789?lang=en"

	first, ok := Normalize(raw)
	require.True(t, ok)
	second, ok := Normalize(raw)
	require.True(t, ok)
	require.Equal(t, first, second)
}
