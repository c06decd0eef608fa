package web

import (
	"encoding/json"
	"net/http"

	"github.com/2beens/rebuildweb/internal/backend"
	"github.com/2beens/rebuildweb/internal/calendar"
	"github.com/2beens/rebuildweb/internal/session"
	"github.com/2beens/rebuildweb/internal/stats"
	"github.com/2beens/rebuildweb/internal/telemetry/tracing"
	"github.com/2beens/rebuildweb/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type dayCell struct {
	Placeholder bool
	Day         int
	IsToday     bool
	IsSelected  bool
	Href        string
	Dots        []backend.Exercise
	Overflow    int
}

type selectedDay struct {
	Label     string
	Exercises []backend.Exercise
}

type calendarBody struct {
	MonthLabel string
	PrevHref   string
	NextHref   string
	TodayHref  string
	Weekdays   []string
	Weeks      [][]dayCell
	Selected   *selectedDay
	// ReturnTo brings a completion toggle back to this exact view.
	ReturnTo string
}

func (handler *Handler) calendarPage(r *http.Request, view calendar.View) pageData {
	data := handler.newPage(r, "Calendar")
	if data.User == nil {
		return data
	}

	now := handler.today()
	exercises := data.User.Exercises

	body := calendarBody{
		MonthLabel: view.Month.Format("January 2006"),
		PrevHref:   calendarHref(view.Prev()),
		NextHref:   calendarHref(view.Next()),
		TodayHref:  calendarHref(calendar.Today(now)),
		Weekdays:   weekdays,
		ReturnTo:   calendarHref(view),
	}

	for _, week := range calendar.Weeks(view.Cells()) {
		row := make([]dayCell, 0, len(week))
		for _, cell := range week {
			if cell.IsPlaceholder() {
				row = append(row, dayCell{Placeholder: true})
				continue
			}
			dots, overflow := calendar.Marks(calendar.ExercisesOn(exercises, cell.Date))
			row = append(row, dayCell{
				Day:        cell.Date.Day(),
				IsToday:    calendar.IsToday(cell.Date, now),
				IsSelected: calendar.IsSelected(cell.Date, view.Selected),
				Href:       calendarHref(view.Select(cell.Date)),
				Dots:       dots,
				Overflow:   overflow,
			})
		}
		body.Weeks = append(body.Weeks, row)
	}

	if view.Selected != nil {
		body.Selected = &selectedDay{
			Label:     view.Selected.Format("Monday, January 2, 2006"),
			Exercises: calendar.ExercisesOn(exercises, *view.Selected),
		}
	}

	data.Body = body
	return data
}

func calendarHref(view calendar.View) string {
	return "/calendar?" + view.Query()
}

func (handler *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := calendar.ParseView(q.Get("month"), q.Get("day"), handler.today())
	if err != nil {
		data := handler.calendarPage(r, calendar.NewView(handler.today()))
		data.Error = "Invalid date in the calendar link"
		handler.render(w, http.StatusBadRequest, "calendar", data)
		return
	}

	handler.render(w, http.StatusOK, "calendar", handler.calendarPage(r, view))
}

func (handler *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "webHandler.statistics")
	defer span.End()

	data := handler.newPage(r, "Statistics")
	identity := session.FromContext(ctx)
	if !identity.LoggedIn() {
		handler.render(w, http.StatusOK, "statistics", data)
		return
	}

	s, err := handler.api.Stats(ctx, identity.Session())
	if err != nil {
		// panels stay empty, the page itself still renders
		log.Warnf("fetch statistics for user [%d]: %s", identity.User().ID, err)
		span.SetStatus(codes.Error, err.Error())
		data.Error = backend.Message(err)
	}
	data.Body = stats.Build(s)

	handler.render(w, http.StatusOK, "statistics", data)
}

type healthStatus struct {
	Redis   string `json:"redis"`
	Backend string `json:"backend"`
}

func (handler *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "webHandler.health")
	defer span.End()

	status := healthStatus{Redis: "ok", Backend: "ok"}
	statusCode := http.StatusOK

	if handler.redisClient == nil {
		status.Redis = "disabled"
	} else if err := handler.redisClient.Ping(ctx).Err(); err != nil {
		log.Errorf("health, ping redis: %s", err)
		status.Redis = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	if err := handler.api.Health(ctx); err != nil {
		log.Errorf("health, backend: %s", err)
		status.Backend = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	resp, err := json.Marshal(status)
	if err != nil {
		log.Errorf("marshal health status: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if statusCode != http.StatusOK {
		span.SetStatus(codes.Error, "unhealthy")
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resp, statusCode)
}
