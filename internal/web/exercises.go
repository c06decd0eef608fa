package web

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/2beens/rebuildweb/internal/backend"
	"github.com/2beens/rebuildweb/internal/calendar"
	"github.com/2beens/rebuildweb/internal/session"
	"github.com/2beens/rebuildweb/internal/telemetry/tracing"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type exerciseForm struct {
	Name  string
	Group string
	Date  string
}

type homeBody struct {
	Groups    []string
	Form      exerciseForm
	Exercises []backend.Exercise
}

func (handler *Handler) homePage(r *http.Request, form exerciseForm) pageData {
	data := handler.newPage(r, "Home")
	if form.Date == "" {
		form.Date = calendar.DateKey(handler.today())
	}

	groups := backend.Groups
	if form.Group != "" && !backend.IsKnownGroup(form.Group) {
		groups = append(slices.Clone(groups), form.Group)
	}

	body := homeBody{
		Groups: groups,
		Form:   form,
	}
	if data.User != nil {
		body.Exercises = data.User.Exercises
	}
	data.Body = body

	return data
}

func (handler *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	handler.render(w, http.StatusOK, "home", handler.homePage(r, exerciseForm{}))
}

func (handler *Handler) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "webHandler.createExercise")
	defer span.End()

	identity := session.FromContext(ctx)
	if identity.Session().IsZero() {
		redirectToLogin(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := exerciseForm{
		Name:  r.PostFormValue("name"),
		Group: r.PostFormValue("group"),
		Date:  r.PostFormValue("date"),
	}

	_, err := handler.api.CreateExercise(ctx, identity.Session(), backend.ExerciseFields{
		Name:  form.Name,
		Group: form.Group,
		Date:  form.Date,
	})
	if err != nil {
		if backend.IsUnauthorized(err) {
			redirectToLogin(w, r)
			return
		}
		log.Debugf("create exercise: %s", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		data := handler.homePage(r, form)
		data.Error = backend.Message(err)
		handler.render(w, statusFor(err), "home", data)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (handler *Handler) handleCompleteExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "webHandler.completeExercise")
	defer span.End()

	identity := session.FromContext(ctx)
	if identity.Session().IsZero() {
		redirectToLogin(w, r)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid exercise id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	completed, err := strconv.ParseBool(r.PostFormValue("completed"))
	if err != nil {
		http.Error(w, "invalid completed value", http.StatusBadRequest)
		return
	}
	returnTo := safeReturnPath(r.PostFormValue("return_to"))

	span.SetAttributes(
		attribute.Int("exercise.id", id),
		attribute.Bool("exercise.completed", completed),
	)

	if _, err := handler.api.UpdateExerciseCompletion(ctx, identity.Session(), id, completed); err != nil {
		if backend.IsUnauthorized(err) {
			redirectToLogin(w, r)
			return
		}
		log.Debugf("update exercise [%d] completion: %s", id, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handler.renderReturnPage(w, r, returnTo, statusFor(err), backend.Message(err))
		return
	}

	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

// renderReturnPage shows the page a toggle was posted from, with the error inline.
func (handler *Handler) renderReturnPage(w http.ResponseWriter, r *http.Request, returnTo string, statusCode int, message string) {
	u, _ := url.Parse(returnTo)
	if u != nil && u.Path == "/calendar" {
		view, err := calendar.ParseView(u.Query().Get("month"), u.Query().Get("day"), handler.today())
		if err != nil {
			view = calendar.NewView(handler.today())
		}
		data := handler.calendarPage(r, view)
		data.Error = message
		handler.render(w, statusCode, "calendar", data)
		return
	}

	data := handler.homePage(r, exerciseForm{})
	data.Error = message
	handler.render(w, statusCode, "home", data)
}

// safeReturnPath keeps only local paths, anything else falls back to the home page.
func safeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return "/"
	}
	u, err := url.Parse(p)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return u.RequestURI()
}
