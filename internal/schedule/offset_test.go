package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOffsetFromDateKnownValues(t *testing.T) {
	t.Parallel()

	c := Default()
	cases := []struct {
		date Date
		want int
	}{
		{Epoch, 1},
		{NewDate(2006, time.January, 12), 2},
		{NewDate(2014, time.March, 13), 100},
		{NewDate(2020, time.January, 16), 170},
		{NewDate(2020, time.February, 13), 171},
		{NewDate(2024, time.September, 12), 172},
		{NewDate(2024, time.October, 17), 173},
		{NewDate(2027, time.January, 14), 200},
	}
	for _, tc := range cases {
		got, err := c.OffsetFromDate(tc.date)
		require.NoError(t, err, tc.date.String())
		require.Equal(t, tc.want, got, tc.date.String())
	}
}

func TestOffsetFromDateErrors(t *testing.T) {
	t.Parallel()

	c := Default()

	_, err := c.OffsetFromDate(NewDate(2005, time.November, 17))
	require.ErrorIs(t, err, ErrBeforeEpoch)

	_, err = c.OffsetFromDate(NewDate(2024, time.September, 13))
	require.ErrorIs(t, err, ErrNotEventDate)

	_, err = c.OffsetFromDate(NewDate(2022, time.June, 16))
	require.ErrorIs(t, err, ErrInHiatus)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOffsetFromDateRejectsEveryHiatusEvent(t *testing.T) {
	t.Parallel()

	c := Default()
	seq := c.EventsFrom(hiatusStart, true)
	for date := range seq.All() {
		if date.After(hiatusEnd) {
			break
		}
		_, err := c.OffsetFromDate(date)
		require.ErrorIs(t, err, ErrInHiatus, date.String())
	}
}

func TestPostHiatusContinuity(t *testing.T) {
	t.Parallel()

	c := Default()
	first, ok := c.NextEventAfter(hiatusEnd.AddDays(1))
	require.True(t, ok)

	skipped, err := c.CountEventsInRange(hiatusStart, hiatusEnd, true)
	require.NoError(t, err)
	require.Equal(t, 54, skipped)

	months := (first.Year-Epoch.Year)*12 + int(first.Month) - int(Epoch.Month)

	got, err := c.OffsetFromDate(first)
	require.NoError(t, err)
	require.Equal(t, months-skipped+1, got)
}

func TestDateFromOffset(t *testing.T) {
	t.Parallel()

	c := Default()
	cases := map[int]Date{
		1:   Epoch,
		2:   NewDate(2006, time.January, 12),
		100: NewDate(2014, time.March, 13),
		171: NewDate(2020, time.February, 13),
		172: NewDate(2024, time.September, 12),
		200: NewDate(2027, time.January, 14),
	}
	for n, want := range cases {
		got, ok, err := c.DateFromOffset(n)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, got, "offset %d", n)
	}

	for _, n := range []int{0, -1} {
		_, _, err := c.DateFromOffset(n)
		require.ErrorIs(t, err, ErrNonPositiveOffset)
	}
}

func TestDateFromOffsetBeyondOpenHiatus(t *testing.T) {
	t.Parallel()

	c, err := NewCalendar(Epoch, []Hiatus{{Start: NewDate(2006, time.March, 1)}})
	require.NoError(t, err)

	got, ok, err := c.DateFromOffset(3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, NewDate(2006, time.February, 16), got)

	_, ok, err = c.DateFromOffset(4)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	c := Default()
	for i, date := range c.Events().Take(400) {
		n, err := c.OffsetFromDate(date)
		require.NoError(t, err)
		require.Equal(t, i+1, n)

		back, ok, err := c.DateFromOffset(n)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, date, back)
	}
}

func TestCountEventsInRange(t *testing.T) {
	t.Parallel()

	c := Default()

	n, err := c.CountEventsInRange(Epoch, Epoch, false)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = c.CountEventsInRange(NewDate(2025, time.January, 1), NewDate(2025, time.December, 31), false)
	require.NoError(t, err)
	require.Equal(t, 12, n)

	n, err = c.CountEventsInRange(hiatusStart, hiatusEnd, false)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = c.CountEventsInRange(NewDate(2025, time.January, 2), NewDate(2025, time.January, 1), false)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestEventsBetween(t *testing.T) {
	t.Parallel()

	got, err := Default().EventsBetween(NewDate(2024, time.August, 1), NewDate(2024, time.November, 30))
	require.NoError(t, err)
	require.Equal(t, []Date{
		NewDate(2024, time.September, 12),
		NewDate(2024, time.October, 17),
		NewDate(2024, time.November, 14),
	}, got)
}

func TestNextEventAfter(t *testing.T) {
	t.Parallel()

	c := Default()

	next, ok := c.NextEventAfter(NewDate(2026, time.October, 19))
	require.True(t, ok)
	require.Equal(t, NewDate(2026, time.November, 12), next)

	next, ok = c.NextEventAfter(NewDate(2020, time.May, 1))
	require.True(t, ok)
	require.Equal(t, NewDate(2024, time.September, 12), next)

	open, err := NewCalendar(Epoch, []Hiatus{{Start: NewDate(2025, time.March, 1)}})
	require.NoError(t, err)

	_, ok = open.NextEventAfter(NewDate(2026, time.October, 19))
	require.False(t, ok)
}

func TestInHiatus(t *testing.T) {
	t.Parallel()

	cal := Default()

	h, ok := cal.InHiatus(NewDate(2021, time.June, 17))
	require.True(t, ok)
	require.Equal(t, NewDate(2020, time.February, 14), h.Start)

	_, ok = cal.InHiatus(NewDate(2024, time.September, 12))
	require.False(t, ok)
}
