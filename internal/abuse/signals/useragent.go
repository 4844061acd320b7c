package signals

import (
	"strings"

	"github.com/mssola/useragent"
)

var nonBrowserMarkers = []string{
	"bot", "crawler", "spider", "scraper",
	"curl", "wget", "python-requests", "python-urllib", "httpclient", "go-http-client",
	"okhttp", "axios", "node-fetch", "postman", "java/", "libwww", "headless",
}

// UserAgent flags requests that do not look like they come from a browser.
// It returns a reason when flagged. This is a weak signal and never blocks.
func UserAgent(raw string) (suspicious bool, reason string) {
	ua := strings.TrimSpace(raw)
	if ua == "" {
		return true, "ua_missing"
	}

	lower := strings.ToLower(ua)
	for _, marker := range nonBrowserMarkers {
		if strings.Contains(lower, marker) {
			return true, "ua_" + strings.Trim(marker, "/-")
		}
	}

	parsed := useragent.New(ua)
	if parsed.Bot() {
		return true, "ua_bot"
	}
	if name, _ := parsed.Browser(); name == "" {
		return true, "ua_unrecognized"
	}
	return false, ""
}
