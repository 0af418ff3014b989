package integrations

import (
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single HTTP exchange. Model calls can take a while
// on large image sets, so this is well above a typical API timeout.
const DefaultTimeout = 120 * time.Second

// NewHTTPClient creates an HTTP client with the given timeout.
// A non-positive timeout means [DefaultTimeout].
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// JoinURL joins a base URL and a path with exactly one slash between them.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// snippet shortens a response body for use in an error message.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if r := []rune(s); len(r) > 200 {
		s = string(r[:200]) + "..."
	}
	return s
}
