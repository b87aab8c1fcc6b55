package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	hiatusStart = NewDate(2020, time.February, 14)
	hiatusEnd   = NewDate(2024, time.August, 31)
)

func TestEventsStartAtEpoch(t *testing.T) {
	t.Parallel()

	got := Default().Events().Take(3)
	require.Equal(t, []Date{
		NewDate(2005, time.December, 15),
		NewDate(2006, time.January, 12),
		NewDate(2006, time.February, 16),
	}, got)
}

func TestEventsAreMonotonic(t *testing.T) {
	t.Parallel()

	dates := Default().EventsFrom(NewDate(1990, time.January, 1), true).Take(12 * 200)
	for i := 1; i < len(dates); i++ {
		prev, cur := dates[i-1], dates[i]
		require.True(t, prev.Before(cur))

		gap := prev.DaysUntil(cur)
		require.GreaterOrEqual(t, gap, 28, "%s -> %s", prev, cur)
		require.LessOrEqual(t, gap, 35, "%s -> %s", prev, cur)
		require.Zero(t, gap%7)
		require.Equal(t, prev.nextMonth().Month, cur.Month)
	}
}

func TestEventsSkipHiatus(t *testing.T) {
	t.Parallel()

	var last Date
	for date := range Default().Events().All() {
		require.False(t, !date.Before(hiatusStart) && !date.After(hiatusEnd), "%s inside hiatus", date)
		if date.Year > 2025 {
			break
		}
		last = date
	}
	require.Equal(t, NewDate(2025, time.December, 18), last)

	seq := Default().EventsFrom(NewDate(2020, time.January, 20), false)
	first, ok := seq.Next()
	require.True(t, ok)
	require.Equal(t, NewDate(2020, time.February, 13), first)

	second, ok := seq.Next()
	require.True(t, ok)
	require.Equal(t, NewDate(2024, time.September, 12), second)
}

func TestEventsIgnoringHiatuses(t *testing.T) {
	t.Parallel()

	got := Default().EventsFrom(NewDate(2020, time.March, 1), true).Take(2)
	require.Equal(t, []Date{NewDate(2020, time.March, 12), NewDate(2020, time.April, 16)}, got)
}

func TestEventsFromNormalizesStart(t *testing.T) {
	t.Parallel()

	c := Default()

	next, ok := c.EventsFrom(NewDate(2026, time.October, 15), false).Next()
	require.True(t, ok)
	require.Equal(t, NewDate(2026, time.October, 15), next)

	next, ok = c.EventsFrom(NewDate(2026, time.October, 16), false).Next()
	require.True(t, ok)
	require.Equal(t, NewDate(2026, time.November, 12), next)

	next, ok = c.EventsFrom(NewDate(2026, time.December, 31), false).Next()
	require.True(t, ok)
	require.Equal(t, NewDate(2027, time.January, 14), next)
}

func TestEventsDeterministic(t *testing.T) {
	t.Parallel()

	c := Default()
	require.Equal(t, c.Events().Take(300), c.Events().Take(300))
}

func TestEventsStopAtOpenEndedHiatus(t *testing.T) {
	t.Parallel()

	end := hiatusEnd
	c, err := NewCalendar(Epoch, []Hiatus{
		{Start: hiatusStart, End: &end},
		{Start: NewDate(2025, time.March, 1)},
	})
	require.NoError(t, err)

	var dates []Date
	for date := range c.Events().All() {
		dates = append(dates, date)
	}
	require.NotEmpty(t, dates)
	require.Equal(t, NewDate(2025, time.February, 13), dates[len(dates)-1])

	seq := c.EventsFrom(NewDate(2025, time.June, 1), false)
	_, ok := seq.Next()
	require.False(t, ok)
	_, ok = seq.Next()
	require.False(t, ok)

	require.Len(t, c.EventsFrom(NewDate(2025, time.June, 1), true).Take(5), 5)
}

func TestSequenceEarlyStop(t *testing.T) {
	t.Parallel()

	seq := Default().Events()
	for range seq.All() {
		break
	}

	next, ok := seq.Next()
	require.True(t, ok)
	require.Equal(t, NewDate(2006, time.January, 12), next)
}
