package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/2beens/rebuildweb/internal/backend"
	"github.com/2beens/rebuildweb/internal/session"
	"github.com/2beens/rebuildweb/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

const registeredNotice = "Registration successful! Please log in."

type loginForm struct {
	Username string
}

type registerForm struct {
	Username string
	Email    string
	Weight   string
	Height   string
	Age      string
}

func (handler *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).LoggedIn() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := handler.newPage(r, "Login")
	data.Body = loginForm{}
	if r.URL.Query().Get("registered") == "1" {
		data.Notice = registeredNotice
	}
	handler.render(w, http.StatusOK, "login", data)
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "webHandler.login")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := loginForm{Username: strings.TrimSpace(r.PostFormValue("username"))}
	result, err := handler.api.Login(ctx, backend.Credentials{
		Username: form.Username,
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		log.Debugf("login [%s]: %s", form.Username, err)
		span.SetStatus(codes.Error, err.Error())

		data := handler.newPage(r, "Login")
		data.Body = form
		data.Error = backend.Message(err)
		handler.render(w, statusFor(err), "login", data)
		return
	}

	for _, c := range result.Session.Cookies {
		http.SetCookie(w, relayCookie(c))
	}
	log.Debugf("user [%s] logged in", form.Username)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// relayCookie re-issues a backend cookie for this host.
func relayCookie(c *http.Cookie) *http.Cookie {
	relayed := *c
	relayed.Domain = ""
	relayed.Raw = ""
	relayed.Unparsed = nil
	if relayed.Path == "" {
		relayed.Path = "/"
	}
	return &relayed
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	for _, c := range backend.SessionFromRequest(r, CSRFCookieName).Cookies {
		http.SetCookie(w, &http.Cookie{
			Name:     c.Name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (handler *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).LoggedIn() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := handler.newPage(r, "Register")
	data.Body = registerForm{}
	handler.render(w, http.StatusOK, "register", data)
}

func (handler *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "webHandler.register")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := registerForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Weight:   strings.TrimSpace(r.PostFormValue("weight")),
		Height:   strings.TrimSpace(r.PostFormValue("height")),
		Age:      strings.TrimSpace(r.PostFormValue("age")),
	}

	renderFailure := func(err error) {
		span.SetStatus(codes.Error, err.Error())
		data := handler.newPage(r, "Register")
		data.Body = form
		data.Error = backend.Message(err)
		handler.render(w, statusFor(err), "register", data)
	}

	profile, err := form.profile(r.PostFormValue("password"))
	if err != nil {
		renderFailure(err)
		return
	}

	if _, err := handler.api.Register(ctx, profile); err != nil {
		log.Debugf("register [%s]: %s", form.Username, err)
		renderFailure(err)
		return
	}
	log.Debugf("user [%s] registered", form.Username)

	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

// profile converts the form into a register profile. Blank optional fields stay unset.
func (f registerForm) profile(password string) (backend.RegisterProfile, error) {
	profile := backend.RegisterProfile{
		Username: f.Username,
		Email:    f.Email,
		Password: password,
	}

	var err error
	if profile.Weight, err = optionalFloat("weight", f.Weight); err != nil {
		return profile, err
	}
	if profile.Height, err = optionalFloat("height", f.Height); err != nil {
		return profile, err
	}
	if f.Age != "" {
		age, err := strconv.Atoi(f.Age)
		if err != nil {
			return profile, &backend.ValidationError{Field: "age", Message: "age must be a whole number"}
		}
		profile.Age = &age
	}

	return profile, nil
}

func optionalFloat(field, value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, &backend.ValidationError{Field: field, Message: field + " must be a number"}
	}
	return &f, nil
}
