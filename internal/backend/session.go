package backend

import (
	"net/http"
	"slices"
)

// Session is the backend issued credential, carried as cookies on every call.
type Session struct {
	Cookies []*http.Cookie
}

// SessionFromRequest collects the cookies of an incoming browser request,
// skipping the ones owned by this server.
func SessionFromRequest(r *http.Request, skip ...string) Session {
	var cookies []*http.Cookie
	for _, c := range r.Cookies() {
		if slices.Contains(skip, c.Name) {
			continue
		}
		cookies = append(cookies, c)
	}
	return Session{Cookies: cookies}
}

func (s Session) IsZero() bool {
	return len(s.Cookies) == 0
}

func (s Session) apply(req *http.Request) {
	for _, c := range s.Cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
}
