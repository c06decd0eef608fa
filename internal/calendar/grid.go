// Package calendar builds the Sunday-first month grid and the per-day exercise lists.
// Days are compared by year, month and day only.
package calendar

import (
	"time"

	"github.com/2beens/rebuildweb/internal/backend"
)

const (
	DateKeyLayout  = "2006-01-02"
	MonthKeyLayout = "2006-01"
	DaysInWeek     = 7
)

// Cell is one slot of the month grid. A zero Date is a leading or trailing placeholder.
type Cell struct {
	Date time.Time
}

func (c Cell) IsPlaceholder() bool {
	return c.Date.IsZero()
}

// Month returns the cells for the month containing ref: one placeholder per weekday
// before day 1 (Sunday = 0), then one cell per day. Trailing padding is left to Weeks.
func Month(ref time.Time) []Cell {
	loc := ref.Location()
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
	// day 0 of the next month is the last day of this one
	lastDay := time.Date(ref.Year(), ref.Month()+1, 0, 0, 0, 0, 0, loc).Day()
	leading := int(first.Weekday())

	cells := make([]Cell, 0, leading+lastDay)
	for i := 0; i < leading; i++ {
		cells = append(cells, Cell{})
	}
	for day := 1; day <= lastDay; day++ {
		cells = append(cells, Cell{Date: time.Date(ref.Year(), ref.Month(), day, 0, 0, 0, 0, loc)})
	}

	return cells
}

// Weeks pads cells with trailing placeholders to a multiple of 7 and splits them into rows.
func Weeks(cells []Cell) [][]Cell {
	padded := append([]Cell(nil), cells...)
	for len(padded)%DaysInWeek != 0 {
		padded = append(padded, Cell{})
	}

	weeks := make([][]Cell, 0, len(padded)/DaysInWeek)
	for i := 0; i < len(padded); i += DaysInWeek {
		weeks = append(weeks, padded[i:i+DaysInWeek])
	}
	return weeks
}

// DateKey formats t as YYYY-MM-DD in its own location, never converting to UTC first.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func IsToday(d, now time.Time) bool {
	return SameDay(d, now)
}

func IsSelected(d time.Time, selected *time.Time) bool {
	return selected != nil && SameDay(d, *selected)
}

// ExercisesOn returns the exercises dated on the given day, keeping their order.
func ExercisesOn(exercises []backend.Exercise, day time.Time) []backend.Exercise {
	key := DateKey(day)
	var onDay []backend.Exercise
	for _, ex := range exercises {
		if ex.Date == key {
			onDay = append(onDay, ex)
		}
	}
	return onDay
}
