package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pscal/internal/schedule"
)

func collect(t *testing.T, cal *schedule.Calendar, end schedule.Date) []schedule.Date {
	t.Helper()

	var out []schedule.Date
	for date := range cal.Events().All() {
		if date.After(end) {
			break
		}
		out = append(out, date)
	}
	return out
}

func TestRecurrenceMatchesRuleEngine(t *testing.T) {
	t.Parallel()

	cal := schedule.Default()
	rec, err := NewRecurrence(cal)
	require.NoError(t, err)
	require.Len(t, rec.Rules, 2)

	end := schedule.NewDate(2045, time.December, 31)
	require.Equal(t, collect(t, cal, end), rec.Between(cal.Epoch(), end))
}

func TestRecurrenceRules(t *testing.T) {
	t.Parallel()

	rec, err := NewRecurrence(schedule.Default())
	require.NoError(t, err)

	feb, other := rec.Rules[0], rec.Rules[1]
	require.Equal(t, "february", feb.Name)
	require.Equal(t, schedule.NewDate(2006, time.February, 16), feb.Start)
	require.Equal(t, "FREQ=YEARLY;BYMONTH=2;BYMONTHDAY=11,12,13,14,15,16,17;BYDAY=TH", feb.RRule())
	require.Len(t, feb.ExDates, 4)

	require.Equal(t, schedule.Epoch, other.Start)
	require.Contains(t, other.RRule(), "BYMONTHDAY=12,13,14,15,16,17,18")
	require.Len(t, other.ExDates, 50)
	require.Equal(t, schedule.NewDate(2020, time.March, 12), other.ExDates[0])
}

func TestRecurrenceOpenHiatus(t *testing.T) {
	t.Parallel()

	end := schedule.NewDate(2024, time.August, 31)
	cal, err := schedule.NewCalendar(schedule.Epoch, []schedule.Hiatus{
		{Start: schedule.NewDate(2020, time.February, 14), End: &end},
		{Start: schedule.NewDate(2025, time.March, 1)},
	})
	require.NoError(t, err)

	rec, err := NewRecurrence(cal)
	require.NoError(t, err)

	limit := schedule.NewDate(2040, time.January, 1)
	got := rec.Between(cal.Epoch(), limit)
	require.Equal(t, collect(t, cal, limit), got)
	require.Equal(t, schedule.NewDate(2025, time.February, 13), got[len(got)-1])
	require.Contains(t, rec.Rules[0].RRule(), "COUNT=")
}
