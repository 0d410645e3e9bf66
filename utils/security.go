// solforum/utils/security.go
package utils

import (
	"net"
	"net/http"
	"regexp"
	"strings"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

// GetIPAddress extracts the real IP address from a request, trusting X-Real-IP from a reverse proxy.
func GetIPAddress(r *http.Request) string {
	if cf := r.Header.Get("CF-Connecting-IP"); cf != "" {
		return cf
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ValidUsername reports whether a username is 3-30 characters of letters,
// digits, underscores, and hyphens.
func ValidUsername(name string) bool {
	return usernameRe.MatchString(name)
}

// SanitizeCustomCSS strips constructs that would allow script execution
// through admin-supplied stylesheet text.
func SanitizeCustomCSS(css string) string {
	reExpr := regexp.MustCompile(`(?i)expression\s*\(`)
	reJS := regexp.MustCompile(`(?i)javascript\s*:`)
	reImport := regexp.MustCompile(`(?i)@import`)

	css = reExpr.ReplaceAllString(css, "")
	css = reJS.ReplaceAllString(css, "")
	css = reImport.ReplaceAllString(css, "/* @import blocked */")
	return css
}
