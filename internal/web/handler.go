package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/2beens/rebuildweb/internal/backend"
	"github.com/2beens/rebuildweb/internal/middleware"
	"github.com/2beens/rebuildweb/internal/session"
	"github.com/2beens/rebuildweb/internal/telemetry/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=web_test

type backendAPI interface {
	CurrentUser(ctx context.Context, session backend.Session) (*backend.User, error)
	Login(ctx context.Context, credentials backend.Credentials) (*backend.LoginResult, error)
	Register(ctx context.Context, profile backend.RegisterProfile) (string, error)
	CreateExercise(ctx context.Context, session backend.Session, fields backend.ExerciseFields) (*backend.Exercise, error)
	UpdateExerciseCompletion(ctx context.Context, session backend.Session, id int, completed bool) (*backend.Exercise, error)
	Stats(ctx context.Context, session backend.Session) (*backend.Stats, error)
	Health(ctx context.Context) error
}

type Handler struct {
	api         backendAPI
	templates   *Templates
	redisClient *redis.Client
	location    *time.Location
	now         func() time.Time
}

func NewHandler(
	api backendAPI,
	templates *Templates,
	redisClient *redis.Client,
	location *time.Location,
) *Handler {
	if location == nil {
		location = time.Local
	}
	return &Handler{
		api:         api,
		templates:   templates,
		redisClient: redisClient,
		location:    location,
		now:         time.Now,
	}
}

// SetupRoutes registers the pages on mainRouter. Login and register posts are rate
// limited per client when rateLimiter is set.
func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	authAllowedPerMin int,
) {
	mainRouter.Use(session.Middleware(handler.api, CSRFCookieName))

	mainRouter.PathPrefix("/static/").Handler(http.FileServer(http.FS(staticFS))).Methods("GET").Name("static")
	mainRouter.HandleFunc("/health", handler.handleHealth).Methods("GET").Name("health")

	mainRouter.HandleFunc("/", handler.handleHome).Methods("GET").Name("home")
	mainRouter.HandleFunc("/exercises", handler.handleCreateExercise).Methods("POST").Name("create-exercise")
	mainRouter.HandleFunc("/exercises/{id:[0-9]+}/complete", handler.handleCompleteExercise).Methods("POST").Name("complete-exercise")
	mainRouter.HandleFunc("/calendar", handler.handleCalendar).Methods("GET").Name("calendar")
	mainRouter.HandleFunc("/statistics", handler.handleStatistics).Methods("GET").Name("statistics")

	mainRouter.HandleFunc("/login", handler.handleLoginPage).Methods("GET").Name("login-page")
	mainRouter.HandleFunc("/register", handler.handleRegisterPage).Methods("GET").Name("register-page")
	mainRouter.HandleFunc("/logout", handler.handleLogout).Methods("POST").Name("logout")

	authSubrouter := mainRouter.Methods("POST").Subrouter()
	authSubrouter.HandleFunc("/login", handler.handleLogin).Name("login")
	authSubrouter.HandleFunc("/register", handler.handleRegister).Name("register")

	// rate limit the credential posts to slow down password guessing
	if rateLimiter != nil {
		authSubrouter.Use(middleware.RateLimit(rateLimiter, "auth", authAllowedPerMin, metricsManager))
	}
}

type pageData struct {
	Title     string
	User      *backend.User
	CSRFField template.HTML
	Error     string
	Notice    string
	Body      any
}

func (handler *Handler) newPage(r *http.Request, title string) pageData {
	return pageData{
		Title:     title,
		User:      session.FromContext(r.Context()).User(),
		CSRFField: csrf.TemplateField(r),
	}
}

func (handler *Handler) render(w http.ResponseWriter, statusCode int, page string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	rw := &deferredWriter{w: w, statusCode: statusCode}
	if err := handler.templates.Render(rw, page, data); err != nil {
		log.Errorf("render page [%s]: %s", page, err)
		if !rw.written {
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// deferredWriter holds back the status code until the first byte is written.
type deferredWriter struct {
	w          http.ResponseWriter
	statusCode int
	written    bool
}

func (d *deferredWriter) Write(p []byte) (int, error) {
	if !d.written {
		d.written = true
		d.w.WriteHeader(d.statusCode)
	}
	return d.w.Write(p)
}

func (handler *Handler) today() time.Time {
	return handler.now().In(handler.location)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// statusFor maps a failed backend call to the status of the re-rendered page.
func statusFor(err error) int {
	var validationErr *backend.ValidationError
	var authErr *backend.AuthError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &authErr):
		if authErr.StatusCode >= 400 && authErr.StatusCode < 500 {
			return authErr.StatusCode
		}
		return http.StatusBadGateway
	case backend.IsUnauthorized(err):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}
