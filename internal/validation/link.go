package validation

import "strings"

// Link policy for the supported platform. Both checks are plain substring
// matches; tighten them here rather than in the handlers.
const (
	instagramHost = "instagram.com"
	reelPath      = "instagram.com/reel/"
)

// IsInstagramLink reports whether link may be handed to the conversion
// endpoint.
func IsInstagramLink(link string) bool {
	return strings.Contains(link, instagramHost)
}

// IsReelLink reports whether a chat message looks like a reel share link.
func IsReelLink(text string) bool {
	return strings.Contains(text, reelPath)
}
