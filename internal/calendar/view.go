package calendar

import (
	"fmt"
	"net/url"
	"time"

	"github.com/2beens/rebuildweb/internal/backend"
)

// MaxDots is how many exercise markers a day cell shows before collapsing into "+N".
const MaxDots = 3

// View is the displayed month and the optionally selected day within it.
type View struct {
	Month    time.Time
	Selected *time.Time
}

func NewView(ref time.Time) View {
	return View{Month: firstOfMonth(ref)}
}

// Prev moves one month back and clears the selection.
func (v View) Prev() View {
	return View{Month: firstOfMonth(v.Month).AddDate(0, -1, 0)}
}

// Next moves one month forward and clears the selection.
func (v View) Next() View {
	return View{Month: firstOfMonth(v.Month).AddDate(0, 1, 0)}
}

// Today shows the current month with today selected.
func Today(now time.Time) View {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return View{Month: firstOfMonth(now), Selected: &today}
}

// Select returns the view with day selected. Days outside the displayed month are ignored.
func (v View) Select(day time.Time) View {
	if day.Year() != v.Month.Year() || day.Month() != v.Month.Month() {
		return View{Month: v.Month}
	}
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, v.Month.Location())
	return View{Month: v.Month, Selected: &d}
}

func (v View) Cells() []Cell {
	return Month(v.Month)
}

// Query serializes the view as ?month=2024-03&day=2024-03-05 parameters.
func (v View) Query() string {
	q := url.Values{}
	q.Set("month", v.Month.Format(MonthKeyLayout))
	if v.Selected != nil {
		q.Set("day", DateKey(*v.Selected))
	}
	return q.Encode()
}

// ParseView restores a view from query parameters, in now's location. An empty month
// means the current one. A day outside the month is dropped.
func ParseView(month, day string, now time.Time) (View, error) {
	loc := now.Location()
	view := NewView(now)

	if month != "" {
		m, err := time.ParseInLocation(MonthKeyLayout, month, loc)
		if err != nil {
			return View{}, fmt.Errorf("invalid month [%s]: %w", month, err)
		}
		view = NewView(m)
	}

	if day != "" {
		d, err := time.ParseInLocation(DateKeyLayout, day, loc)
		if err != nil {
			return View{}, fmt.Errorf("invalid day [%s]: %w", day, err)
		}
		if month == "" {
			view = NewView(d)
		}
		view = view.Select(d)
	}

	return view, nil
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Marks splits a day's exercises into the shown dots and the hidden overflow count.
func Marks(exercises []backend.Exercise) ([]backend.Exercise, int) {
	if len(exercises) <= MaxDots {
		return exercises, 0
	}
	return exercises[:MaxDots], len(exercises) - MaxDots
}
