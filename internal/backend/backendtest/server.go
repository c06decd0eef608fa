// Package backendtest provides an in-memory ReBuild backend for tests.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/2beens/rebuildweb/pkg"

	"github.com/gorilla/mux"
)

const SessionCookieName = "session_id"

type Exercise struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Group       string `json:"group"`
	Date        string `json:"date"`
	IsCompleted *bool  `json:"is_completed,omitempty"`
}

type user struct {
	ID        int         `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Exercises []*Exercise `json:"exercises"`

	password string
}

type override struct {
	statusCode int
	body       string
}

// Server mimics the backend surface consumed by the web tier, mounted under /api.
type Server struct {
	*httptest.Server

	// OmitCompletion makes the server behave like a v1 backend, without is_completed.
	OmitCompletion bool

	mu             sync.Mutex
	users          map[string]*user
	sessions       map[string]*user
	overrides      map[string]override
	calls          map[string]int
	nextUserID     int
	nextExerciseID int
}

func NewServer() *Server {
	s := &Server{
		users:          map[string]*user{},
		sessions:       map[string]*user{},
		overrides:      map[string]override{},
		calls:          map[string]int{},
		nextUserID:     1,
		nextExerciseID: 1,
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/me", s.withUser(s.handleMe)).Methods(http.MethodGet)
	api.HandleFunc("/exercises", s.withUser(s.handleCreateExercise)).Methods(http.MethodPost)
	api.HandleFunc("/exercises/{id}", s.withUser(s.handleUpdateExercise)).Methods(http.MethodPatch)
	api.HandleFunc("/stats/total_exercises", s.withUser(s.handleStatsTotal)).Methods(http.MethodGet)
	api.HandleFunc("/stats/exercises_per_day", s.withUser(s.handleStatsPerDay)).Methods(http.MethodGet)
	api.HandleFunc("/stats/exercises_per_group", s.withUser(s.handleStatsPerGroup)).Methods(http.MethodGet)
	api.Use(s.countAndOverride)

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL is the URL the backend client should be configured with.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// AddUser registers a user and returns its id.
func (s *Server) AddUser(username, email, password string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, email, password).ID
}

// Login opens a session for an existing user and returns its cookie.
func (s *Server) Login(username string) *http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		panic("backendtest: unknown user " + username)
	}
	return s.newSessionLocked(u)
}

// AddExercise adds an exercise for the user directly, bypassing the API.
func (s *Server) AddExercise(username, name, group, date string, completed bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		panic("backendtest: unknown user " + username)
	}
	ex := &Exercise{ID: s.nextExerciseID, Name: name, Group: group, Date: date, IsCompleted: &completed}
	s.nextExerciseID++
	u.Exercises = append(u.Exercises, ex)
	return ex.ID
}

// Exercises returns a copy of the user's exercises.
func (s *Server) Exercises(username string) []Exercise {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil
	}
	exercises := make([]Exercise, 0, len(u.Exercises))
	for _, ex := range u.Exercises {
		exercises = append(exercises, *ex)
	}
	return exercises
}

// Override makes the route answer with the given status and raw body, e.g. Override("GET", "/me", 500, "{}").
func (s *Server) Override(method, path string, statusCode int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[method+" /api"+path] = override{statusCode: statusCode, body: body}
}

// ClearOverrides makes every route answer normally again.
func (s *Server) ClearOverrides() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = map[string]override{}
}

// Calls returns how many requests hit the route, e.g. Calls("POST", "/exercises").
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" /api"+path]
}

func (s *Server) countAndOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		o, overridden := s.overrides[key]
		s.mu.Unlock()

		if overridden {
			pkg.WriteResponse(w, pkg.ContentType.JSON, o.body, o.statusCode)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withUser(next func(http.ResponseWriter, *http.Request, *user)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		s.mu.Lock()
		u, ok := s.sessions[cookie.Value]
		s.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Session expired")
			return
		}

		next(w, r, u)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSONResponseOK(w, `{"status":"ok"}`)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid form")
			return
		}
		creds.Username = r.PostForm.Get("username")
		creds.Password = r.PostForm.Get("password")
	} else if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	s.mu.Lock()
	u, ok := s.users[creds.Username]
	if !ok || u.password != creds.Password {
		s.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	cookie := s.newSessionLocked(u)
	s.mu.Unlock()

	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful", "token": cookie.Value})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string   `json:"username"`
		Email    string   `json:"email"`
		Password string   `json:"password"`
		Weight   *float64 `json:"weight"`
		Height   *float64 `json:"height"`
		Age      *int     `json:"age"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Username]; exists {
		writeDetail(w, http.StatusBadRequest, "Username already registered")
		return
	}
	s.addUserLocked(req.Username, req.Email, req.Password)

	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, u *user) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.userViewLocked(u))
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request, u *user) {
	var req struct {
		Name  string `json:"name"`
		Group string `json:"group"`
		Date  string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}
	if req.Name == "" || req.Group == "" || req.Date == "" {
		// plain string detail, the way request validation errors come back
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "name, group and date are required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	completed := false
	ex := &Exercise{ID: s.nextExerciseID, Name: req.Name, Group: req.Group, Date: req.Date, IsCompleted: &completed}
	s.nextExerciseID++
	u.Exercises = append(u.Exercises, ex)

	writeJSON(w, http.StatusCreated, s.exerciseViewLocked(ex))
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request, u *user) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid exercise id")
		return
	}

	var req struct {
		IsCompleted *bool `json:"is_completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsCompleted == nil {
		writeDetail(w, http.StatusBadRequest, "is_completed is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range u.Exercises {
		if ex.ID == id {
			completed := *req.IsCompleted
			ex.IsCompleted = &completed
			writeJSON(w, http.StatusOK, map[string]any{
				"message":  "Exercise updated",
				"exercise": s.exerciseViewLocked(ex),
			})
			return
		}
	}

	writeDetail(w, http.StatusNotFound, "Exercise not found")
}

func (s *Server) handleStatsTotal(w http.ResponseWriter, _ *http.Request, u *user) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"total": len(u.Exercises)})
}

func (s *Server) handleStatsPerDay(w http.ResponseWriter, _ *http.Request, u *user) {
	s.mu.Lock()
	counts := map[string]int{}
	for _, ex := range u.Exercises {
		counts[ex.Date]++
	}
	s.mu.Unlock()

	type dayCount struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}
	perDay := make([]dayCount, 0, len(counts))
	for date, count := range counts {
		perDay = append(perDay, dayCount{Date: date, Count: count})
	}
	sort.Slice(perDay, func(i, j int) bool { return perDay[i].Date < perDay[j].Date })

	writeJSON(w, http.StatusOK, perDay)
}

func (s *Server) handleStatsPerGroup(w http.ResponseWriter, _ *http.Request, u *user) {
	s.mu.Lock()
	counts := map[string]int{}
	for _, ex := range u.Exercises {
		counts[ex.Group]++
	}
	s.mu.Unlock()

	type groupCount struct {
		Group string `json:"group"`
		Count int    `json:"count"`
	}
	perGroup := make([]groupCount, 0, len(counts))
	for group, count := range counts {
		perGroup = append(perGroup, groupCount{Group: group, Count: count})
	}
	sort.Slice(perGroup, func(i, j int) bool { return perGroup[i].Group < perGroup[j].Group })

	writeJSON(w, http.StatusOK, perGroup)
}

func (s *Server) addUserLocked(username, email, password string) *user {
	u := &user{ID: s.nextUserID, Username: username, Email: email, password: password}
	s.nextUserID++
	s.users[username] = u
	return u
}

func (s *Server) newSessionLocked(u *user) *http.Cookie {
	random, err := pkg.GenerateRandomString(16)
	if err != nil {
		panic(fmt.Sprintf("backendtest: generate session token: %s", err))
	}
	token := fmt.Sprintf("sess-%d-%s", u.ID, random)
	s.sessions[token] = u
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	}
}

func (s *Server) exerciseViewLocked(ex *Exercise) Exercise {
	view := *ex
	if s.OmitCompletion {
		view.IsCompleted = nil
	}
	return view
}

func (s *Server) userViewLocked(u *user) map[string]any {
	exercises := make([]Exercise, 0, len(u.Exercises))
	for _, ex := range u.Exercises {
		exercises = append(exercises, s.exerciseViewLocked(ex))
	}
	return map[string]any{
		"id":        u.ID,
		"username":  u.Username,
		"email":     u.Email,
		"exercises": exercises,
	}
}

func writeDetail(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{"detail": map[string]string{"message": message}})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, b, statusCode)
}
