package session

import (
	"net/http"
	"strings"

	"github.com/2beens/rebuildweb/internal/backend"
	"github.com/2beens/rebuildweb/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var skippedPathPrefixes = []string{"/static/", "/health", "/metrics"}

// Middleware loads the identity of every page request from the browser cookies.
// A failed check is not an error for the page, the visitor is just anonymous.
func Middleware(fetcher userFetcher, ownCookies ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipIdentity(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.identity")

			identity := NewIdentity(fetcher, backend.SessionFromRequest(r, ownCookies...))
			if err := identity.Refresh(ctx); err != nil {
				if backend.IsUnauthorized(err) {
					log.Tracef("[identity] anonymous request => %s", r.URL.Path)
				} else {
					log.Warnf("[identity] failed to load current user => %s: %s", r.URL.Path, err)
				}
			}
			span.SetAttributes(attribute.Bool("identity.logged_in", identity.LoggedIn()))
			if user := identity.User(); user != nil {
				span.SetAttributes(attribute.Int("identity.user_id", user.ID))
			}
			span.End()

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), identity)))
		})
	}
}

func skipIdentity(path string) bool {
	for _, prefix := range skippedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
