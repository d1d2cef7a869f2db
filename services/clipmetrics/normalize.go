package clipmetrics

import (
	"regexp"
	"strings"
)

var (
	tiktokVideoRe     = regexp.MustCompile(`/video/(\d+)`)
	tiktokShortRe     = regexp.MustCompile(`((?:vm|vt)\.tiktok\.com)/([a-z0-9_-]+)`)
	instagramPostRe   = regexp.MustCompile(`instagram\.com/(?:[a-z0-9_.]+/)?(?:p|reel|reels)/([a-z0-9_-]+)`)
	youtubeWatchRe    = regexp.MustCompile(`[?&]v=([a-z0-9_-]{11})`)
	youtubeShortsRe   = regexp.MustCompile(`/shorts/([a-z0-9_-]{11})`)
	youtubeShortURLRe = regexp.MustCompile(`youtu\.be/([a-z0-9_-]{11})`)
)

// Normalize canonicalizes a raw social-media URL into a platform-scoped
// identity key. It is pure and total: any input yields either a valid key
// or ok=false, never an error. Query string, fragment, trailing slash and
// host casing do not affect the result.
func Normalize(rawLink string) (NormalizedKey, bool) {
	link := strings.ToLower(strings.TrimSpace(rawLink))
	if link == "" {
		return NormalizedKey{}, false
	}

	// drop fragment up front; the query string survives until after the
	// youtube watch pattern has had a chance to match v=
	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[:i]
	}

	switch {
	case strings.Contains(link, "tiktok.com"):
		return normalizeTikTok(link)
	case strings.Contains(link, "instagram.com"):
		return normalizeInstagram(link)
	case strings.Contains(link, "youtube.com"), strings.Contains(link, "youtu.be"):
		return normalizeYouTube(link)
	default:
		return NormalizedKey{}, false
	}
}

func normalizeTikTok(link string) (NormalizedKey, bool) {
	path := stripQuery(link)
	if m := tiktokVideoRe.FindStringSubmatch(path); m != nil {
		return NormalizedKey{Platform: PlatformTikTok, ID: m[1]}, true
	}

	// short links carry no numeric id; host plus share code is the best
	// stable identity we have, so keep it as an opaque key. The host stays
	// in the key because vm and vt codes are separate namespaces.
	if m := tiktokShortRe.FindStringSubmatch(path); m != nil {
		return NormalizedKey{Platform: PlatformTikTok, ID: m[1] + "/" + m[2]}, true
	}

	return NormalizedKey{}, false
}

func normalizeInstagram(link string) (NormalizedKey, bool) {
	path := stripQuery(link)
	if m := instagramPostRe.FindStringSubmatch(path); m != nil {
		return NormalizedKey{Platform: PlatformInstagram, ID: m[1]}, true
	}
	return NormalizedKey{}, false
}

func normalizeYouTube(link string) (NormalizedKey, bool) {
	if m := youtubeWatchRe.FindStringSubmatch(link); m != nil {
		return NormalizedKey{Platform: PlatformYouTube, ID: m[1]}, true
	}

	path := stripQuery(link)
	if m := youtubeShortsRe.FindStringSubmatch(path); m != nil {
		return NormalizedKey{Platform: PlatformYouTube, ID: m[1]}, true
	}
	if m := youtubeShortURLRe.FindStringSubmatch(path); m != nil {
		return NormalizedKey{Platform: PlatformYouTube, ID: m[1]}, true
	}

	return NormalizedKey{}, false
}

func stripQuery(link string) string {
	if i := strings.IndexByte(link, '?'); i >= 0 {
		link = link[:i]
	}
	return strings.TrimSuffix(link, "/")
}
