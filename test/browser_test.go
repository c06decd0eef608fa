package test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var csrfTokenRegex = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

// browser keeps cookies between requests and never follows redirects,
// so the tests can assert on every 303.
type browser struct {
	t      *testing.T
	client *http.Client
}

func newBrowser(t *testing.T) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t: t,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// get returns the status code, the Location header and the body.
func (b *browser) get(ctx context.Context, path string) (int, string, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverEndpoint+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

// post submits the form with a csrf token taken from the page at tokenPage.
func (b *browser) post(ctx context.Context, tokenPage, path string, form url.Values) (int, string, string) {
	form.Set("gorilla.csrf.Token", b.csrfToken(ctx, tokenPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverEndpoint+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) csrfToken(ctx context.Context, page string) string {
	_, _, body := b.get(ctx, page)
	matches := csrfTokenRegex.FindStringSubmatch(body)
	require.Len(b.t, matches, 2, "no csrf token on %s", page)
	return matches[1]
}

func (b *browser) do(req *http.Request) (int, string, string) {
	req.Header.Set("User-Agent", "test-agent")
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}
