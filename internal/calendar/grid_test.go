package calendar

import (
	"testing"
	"time"

	"github.com/2beens/rebuildweb/internal/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestMonth_LeadingPlaceholdersAndDays(t *testing.T) {
	// every month of a few years, including leap years
	for year := 2023; year <= 2025; year++ {
		for month := time.January; month <= time.December; month++ {
			ref := time.Date(year, month, 17, 15, 30, 0, 0, time.UTC)
			cells := Month(ref)

			first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
			leading := int(first.Weekday())

			require.Len(t, cells, leading+daysInMonth)
			for i := 0; i < leading; i++ {
				assert.True(t, cells[i].IsPlaceholder())
			}
			for day := 1; day <= daysInMonth; day++ {
				cell := cells[leading+day-1]
				assert.False(t, cell.IsPlaceholder())
				assert.Equal(t, day, cell.Date.Day())
				assert.Equal(t, month, cell.Date.Month())
			}
		}
	}
}

func TestMonth_KnownMonths(t *testing.T) {
	// March 2024 starts on a Friday
	cells := Month(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local))
	assert.Len(t, cells, 5+31)
	assert.True(t, cells[4].IsPlaceholder())
	assert.Equal(t, 1, cells[5].Date.Day())

	// February 2024 is a leap month, starts on a Thursday
	cells = Month(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.Local))
	assert.Len(t, cells, 4+29)

	// September 2024 starts on a Sunday: no placeholders
	cells = Month(time.Date(2024, time.September, 30, 0, 0, 0, 0, time.Local))
	assert.Len(t, cells, 30)
	assert.False(t, cells[0].IsPlaceholder())
}

func TestMonth_KeepsLocation(t *testing.T) {
	loc := mustLoc(t, "America/Los_Angeles")
	cells := Month(time.Date(2024, time.March, 1, 23, 0, 0, 0, loc))
	for _, c := range cells {
		if !c.IsPlaceholder() {
			assert.Equal(t, loc, c.Date.Location())
		}
	}
	assert.Equal(t, "2024-03-10", DateKey(cells[5+9].Date))
}

func TestWeeks(t *testing.T) {
	cells := Month(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	weeks := Weeks(cells)
	require.Len(t, weeks, 6)
	for _, w := range weeks {
		assert.Len(t, w, DaysInWeek)
	}
	// input untouched
	assert.Len(t, cells, 36)
	assert.True(t, weeks[5][6].IsPlaceholder())
	assert.Equal(t, 31, weeks[5][0].Date.Day())

	// February 2015 fits exactly in four weeks
	weeks = Weeks(Month(time.Date(2015, time.February, 1, 0, 0, 0, 0, time.UTC)))
	assert.Len(t, weeks, 4)

	assert.Empty(t, Weeks(nil))
}

func TestDateKey_UsesLocalDay(t *testing.T) {
	tokyo := mustLoc(t, "Asia/Tokyo")
	// 00:30 in Tokyo is still the previous day in UTC
	d := time.Date(2024, time.March, 5, 0, 30, 0, 0, tokyo)
	assert.Equal(t, "2024-03-05", DateKey(d))
	assert.Equal(t, "2024-03-04", DateKey(d.UTC()))
}

func TestSameDay_IgnoresTimeOfDay(t *testing.T) {
	newYork := mustLoc(t, "America/New_York")
	tokyo := mustLoc(t, "Asia/Tokyo")

	assert.True(t, SameDay(
		time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 5, 23, 59, 59, 999, time.UTC),
	))
	assert.True(t, SameDay(
		time.Date(2024, time.March, 5, 1, 0, 0, 0, newYork),
		time.Date(2024, time.March, 5, 22, 0, 0, 0, tokyo),
	))
	assert.False(t, SameDay(
		time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC),
	))
	assert.False(t, SameDay(
		time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.March, 5, 0, 0, 0, 0, time.UTC),
	))

	now := time.Date(2024, time.March, 5, 18, 45, 0, 0, newYork)
	assert.True(t, IsToday(time.Date(2024, time.March, 5, 0, 0, 0, 0, newYork), now))
	assert.False(t, IsToday(time.Date(2024, time.March, 4, 0, 0, 0, 0, newYork), now))

	selected := time.Date(2024, time.March, 15, 9, 0, 0, 0, tokyo)
	assert.True(t, IsSelected(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), &selected))
	assert.False(t, IsSelected(time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC), &selected))
	assert.False(t, IsSelected(selected, nil))
}

func TestExercisesOn(t *testing.T) {
	exercises := []backend.Exercise{
		{ID: 1, Name: "Squat", Group: "legs", Date: "2024-03-05"},
		{ID: 2, Name: "Run", Group: "cardio", Date: "2024-03-15"},
	}

	for day := 1; day <= 31; day++ {
		d := time.Date(2024, time.March, day, 12, 0, 0, 0, time.Local)
		onDay := ExercisesOn(exercises, d)
		switch day {
		case 5:
			require.Len(t, onDay, 1)
			assert.Equal(t, 1, onDay[0].ID)
		case 15:
			require.Len(t, onDay, 1)
			assert.Equal(t, 2, onDay[0].ID)
		default:
			assert.Empty(t, onDay)
		}
	}

	assert.Empty(t, ExercisesOn(nil, time.Now()))
}
