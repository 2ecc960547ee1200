package models

import (
	"fmt"
	"strings"
)

// Platform identifies a third-party advertising platform an organization can connect.
type Platform string

const (
	PlatformGoogle   Platform = "google"
	PlatformFacebook Platform = "facebook"
	PlatformLinkedIn Platform = "linkedin"
	PlatformTikTok   Platform = "tiktok"
)

// Platforms lists every connectable platform in display order.
var Platforms = []Platform{PlatformGoogle, PlatformFacebook, PlatformLinkedIn, PlatformTikTok}

var platformDisplayNames = map[Platform]string{
	PlatformGoogle:   "Google",
	PlatformFacebook: "Facebook",
	PlatformLinkedIn: "LinkedIn",
	PlatformTikTok:   "TikTok",
}

// ParsePlatform converts a route or config value into a Platform. "meta" is accepted as an alias for facebook.
func ParsePlatform(value string) (Platform, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "meta" {
		return PlatformFacebook, nil
	}

	for _, p := range Platforms {
		if string(p) == normalized {
			return p, nil
		}
	}

	return "", fmt.Errorf("unsupported platform: %q", value)
}

// DisplayName returns the human-readable platform name.
func (p Platform) DisplayName() string {
	if name, ok := platformDisplayNames[p]; ok {
		return name
	}

	return string(p)
}

// BrandName is the name users know the platform's accounts by. Facebook accounts are Meta accounts.
func (p Platform) BrandName() string {
	if p == PlatformFacebook {
		return "Meta"
	}

	return p.DisplayName()
}

// DefaultAccountName is shown when the provider returns no display name for the connected account.
func (p Platform) DefaultAccountName() string {
	return p.DisplayName() + " User"
}

// StateCookieName is the single-use CSRF cookie set before redirecting to the provider.
func (p Platform) StateCookieName() string {
	return string(p) + "_csrf_state"
}
