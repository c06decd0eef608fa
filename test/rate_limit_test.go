package test

import (
	"context"
	"net/http"
	"net/url"
)

func (s *IntegrationTestSuite) TestAuthRateLimiting() {
	ctx := context.Background()
	b := newBrowser(s.T())

	require := s.Require()
	require.NoError(s.redisDataCleanup(ctx))
	defer func() {
		require.NoError(s.redisDataCleanup(ctx))
	}()

	// simulate a login brute force attack
	form := url.Values{"username": {"test-user"}, "password": {"test-pass"}}
	for i := 1; i <= authAllowedPerMin+2; i++ {
		status, _, _ := b.post(ctx, "/login", "/login", form)
		if i <= authAllowedPerMin {
			s.Equal(http.StatusUnauthorized, status, "attempt %d", i)
		} else {
			s.Equal(http.StatusTooManyRequests, status, "attempt %d", i)
		}
	}

	// registration shares the auth limit
	status, _, _ := b.post(ctx, "/register", "/register", url.Values{
		"username": {"late-user"},
		"email":    {"late@rebuild.example"},
		"password": {"secret"},
	})
	s.Equal(http.StatusTooManyRequests, status)

	require.NoError(s.redisDataCleanup(ctx))
	status, _, _ = b.post(ctx, "/login", "/login", form)
	s.Equal(http.StatusUnauthorized, status)
}
