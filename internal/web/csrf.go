package web

import (
	"net/http"

	"github.com/gorilla/csrf"
	log "github.com/sirupsen/logrus"
)

const CSRFCookieName = "rebuild_csrf"

// CSRFMiddleware protects every form post with a gorilla/csrf token. When secure is
// false the site is served over plain HTTP, which gorilla/csrf has to be told about.
func CSRFMiddleware(authKey []byte, secure bool) func(next http.Handler) http.Handler {
	protect := csrf.Protect(
		authKey,
		csrf.CookieName(CSRFCookieName),
		csrf.Path("/"),
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if secure {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	log.Warnf("csrf check failed => %s %s: %s", r.Method, r.URL.Path, csrf.FailureReason(r))
	http.Error(w, "Forbidden - invalid form token, reload the page and try again", http.StatusForbidden)
}
