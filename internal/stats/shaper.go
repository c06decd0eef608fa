// Package stats shapes the backend aggregates into display ready bars.
// Nothing here counts raw exercises, the backend numbers are taken as they are.
package stats

import (
	"time"

	"github.com/2beens/rebuildweb/internal/backend"
)

const (
	// DayCeiling is the count that fills a per-day bar. It is fixed, so bars compare
	// absolute effort across date ranges.
	DayCeiling = 10
	// RecentDays is how many of the latest per-day entries are shown.
	RecentDays = 10

	dayLabelLayout = "01/02/2006"
)

type Bar struct {
	Label string
	Count int
	// Width in percent, 0 to 100.
	Width float64
}

// DayWidth scales count against the fixed ceiling, clamped to 100.
func DayWidth(count int) float64 {
	return clampPercent(float64(count) * 100 / DayCeiling)
}

// GroupWidth scales count against the largest count of the set, clamped to 100.
func GroupWidth(count, maxCount int) float64 {
	if maxCount <= 0 {
		return 0
	}
	return clampPercent(float64(count) * 100 / float64(maxCount))
}

// DayBars shapes the last RecentDays entries of perDay, in the order the backend sent them.
func DayBars(perDay []backend.DayCount) []Bar {
	if len(perDay) > RecentDays {
		perDay = perDay[len(perDay)-RecentDays:]
	}

	bars := make([]Bar, 0, len(perDay))
	for _, d := range perDay {
		bars = append(bars, Bar{
			Label: dayLabel(d.Date),
			Count: d.Count,
			Width: DayWidth(d.Count),
		})
	}
	return bars
}

// GroupBars shapes perGroup relative to its largest count.
func GroupBars(perGroup []backend.GroupCount) []Bar {
	maxCount := 0
	for _, g := range perGroup {
		maxCount = max(maxCount, g.Count)
	}

	bars := make([]Bar, 0, len(perGroup))
	for _, g := range perGroup {
		bars = append(bars, Bar{
			Label: g.Group,
			Count: g.Count,
			Width: GroupWidth(g.Count, maxCount),
		})
	}
	return bars
}

type Summary struct {
	Total      int
	ActiveDays int
	Groups     int
}

func Summarize(s *backend.Stats) Summary {
	if s == nil {
		return Summary{}
	}
	return Summary{
		Total:      s.Total,
		ActiveDays: len(s.PerDay),
		Groups:     len(s.PerGroup),
	}
}

// Shape is everything the statistics page renders.
type Shape struct {
	Summary   Summary
	DayBars   []Bar
	GroupBars []Bar
}

// Build shapes stats for rendering. Nil stats give empty panels.
func Build(s *backend.Stats) Shape {
	if s == nil {
		return Shape{}
	}
	return Shape{
		Summary:   Summarize(s),
		DayBars:   DayBars(s.PerDay),
		GroupBars: GroupBars(s.PerGroup),
	}
}

func dayLabel(date string) string {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return d.Format(dayLabelLayout)
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
