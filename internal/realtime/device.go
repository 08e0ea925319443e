package realtime

import (
	"strings"

	"github.com/mssola/useragent"
)

// DeviceLabel turns a User-Agent header into a display name such as
// "Chrome on Intel Mac OS X 10_15_7".
func DeviceLabel(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "Unknown Device"
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	platform := ua.OS()
	if ua.Mobile() && ua.Platform() != "" {
		platform = ua.Platform()
	}
	if platform == "" {
		platform = "Unknown OS"
	}
	return browser + " on " + platform
}
