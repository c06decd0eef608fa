package backend

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultOrigin = "http://localhost:8000"
	apiPrefix     = "/api"
)

// ResolveBaseURL returns the base URL all backend paths are appended to.
// In production the backend sits behind the /api prefix of the configured origin.
// Otherwise the configured origin is used, with /api appended if missing.
func ResolveBaseURL(production bool, origin string) (string, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		origin = DefaultOrigin
	}

	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parse backend origin [%s]: %w", origin, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("backend origin [%s]: unsupported scheme [%s]", origin, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("backend origin [%s]: missing host", origin)
	}

	if production {
		return u.Scheme + "://" + u.Host + apiPrefix, nil
	}

	base := strings.TrimRight(u.Scheme+"://"+u.Host+u.Path, "/")
	if !strings.HasSuffix(base, apiPrefix) {
		base += apiPrefix
	}
	return base, nil
}
