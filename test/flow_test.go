package test

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/brianvoe/gofakeit/v6"
)

func (s *IntegrationTestSuite) TestExerciseFlow() {
	ctx := context.Background()
	t := s.T()
	require := s.Require()
	b := newBrowser(t)

	username := gofakeit.Username()
	password := gofakeit.Password(true, true, true, false, false, 12)

	status, _, body := b.get(ctx, "/")
	require.Equal(http.StatusOK, status)
	s.Contains(body, "Get started")

	status, location, _ := b.post(ctx, "/register", "/register", url.Values{
		"username": {username},
		"email":    {gofakeit.Email()},
		"password": {password},
		"weight":   {"72.5"},
	})
	require.Equal(http.StatusSeeOther, status)
	require.Equal("/login?registered=1", location)

	status, _, body = b.get(ctx, location)
	require.Equal(http.StatusOK, status)
	s.Contains(body, "Registration successful! Please log in.")

	status, location, _ = b.post(ctx, "/login", "/login", url.Values{
		"username": {username},
		"password": {password},
	})
	require.Equal(http.StatusSeeOther, status)
	require.Equal("/", location)

	status, _, body = b.get(ctx, "/")
	require.Equal(http.StatusOK, status)
	s.Contains(body, "Hello, "+username+"!")

	for _, ex := range []url.Values{
		{"name": {"Bench press"}, "group": {"chest"}, "date": {"2024-03-05"}},
		{"name": {"Squat"}, "group": {"legs"}, "date": {"2024-03-05"}},
	} {
		status, location, _ = b.post(ctx, "/", "/exercises", ex)
		require.Equal(http.StatusSeeOther, status)
		require.Equal("/", location)
	}

	exercises := s.backend.Exercises(username)
	require.Len(exercises, 2)

	// invalid exercise is rejected before reaching the backend
	status, _, body = b.post(ctx, "/", "/exercises", url.Values{"name": {""}, "group": {"chest"}, "date": {"2024-03-05"}})
	s.Equal(http.StatusUnprocessableEntity, status)
	s.Contains(body, "Add New Exercise")
	s.Len(s.backend.Exercises(username), 2)

	calendarPath := "/calendar?month=2024-03&day=2024-03-05"
	status, _, body = b.get(ctx, calendarPath)
	require.Equal(http.StatusOK, status)
	s.Contains(body, "March 2024")
	s.Contains(body, "Tuesday, March 5, 2024")
	s.Contains(body, "Bench press")
	s.Contains(body, "Squat")

	toggle := url.Values{"completed": {"true"}, "return_to": {calendarPath}}
	status, location, _ = b.post(ctx, calendarPath, "/exercises/"+strconv.Itoa(exercises[0].ID)+"/complete", toggle)
	require.Equal(http.StatusSeeOther, status)
	require.Equal(calendarPath, location)

	exercises = s.backend.Exercises(username)
	require.NotNil(exercises[0].IsCompleted)
	s.True(*exercises[0].IsCompleted)

	status, _, body = b.get(ctx, location)
	require.Equal(http.StatusOK, status)
	s.Contains(body, `class="dot done"`)
	s.Contains(body, "Undo")

	status, _, body = b.get(ctx, "/statistics")
	require.Equal(http.StatusOK, status)
	s.Contains(body, `<span class="value">2</span>`)
	s.Contains(body, "Chest")
	s.Contains(body, "Legs")

	status, location, _ = b.post(ctx, "/", "/logout", url.Values{})
	require.Equal(http.StatusSeeOther, status)
	require.Equal("/login", location)

	status, _, body = b.get(ctx, "/statistics")
	require.Equal(http.StatusOK, status)
	s.Contains(body, "Please log in")
}

func (s *IntegrationTestSuite) TestLoginFailure() {
	ctx := context.Background()
	b := newBrowser(s.T())
	s.Require().NoError(s.redisDataCleanup(ctx))

	status, _, body := b.post(ctx, "/login", "/login", url.Values{
		"username": {"nobody"},
		"password": {"wrong"},
	})
	s.Equal(http.StatusUnauthorized, status)
	s.Contains(body, "Invalid username or password")
	s.Contains(body, `value="nobody"`)
}
