package schedule

// CountEventsInRange counts events between start and end inclusive.
func (c *Calendar) CountEventsInRange(start, end Date, ignoreHiatuses bool) (int, error) {
	if start.After(end) {
		return 0, argumentError(ErrInvalidRange, "start %s is after end %s", start, end)
	}

	count := 0
	for date := range c.EventsFrom(start, ignoreHiatuses).All() {
		if date.After(end) {
			break
		}
		count++
	}
	return count, nil
}

// EventsBetween returns the events between start and end inclusive.
func (c *Calendar) EventsBetween(start, end Date) ([]Date, error) {
	if start.After(end) {
		return nil, argumentError(ErrInvalidRange, "start %s is after end %s", start, end)
	}

	var out []Date
	for date := range c.EventsFrom(start, false).All() {
		if date.After(end) {
			break
		}
		out = append(out, date)
	}
	return out, nil
}

// OffsetFromDate returns the 1-based number of the event held on date.
func (c *Calendar) OffsetFromDate(date Date) (int, error) {
	if date.Before(c.epoch) {
		return 0, argumentError(ErrBeforeEpoch, "%s is before %s", date, c.epoch)
	}
	if !IsEventDay(date) {
		return 0, argumentError(ErrNotEventDate, "%s (the event that month is on %s)",
			date, EventDateIn(date.Year, date.Month))
	}

	offset := (date.Year-c.epoch.Year)*12 + int(date.Month) - int(c.epoch.Month)

	for _, h := range c.hiatuses {
		if date.Before(h.Start) {
			continue
		}
		if h.Contains(date) {
			return 0, argumentError(ErrInHiatus, "%s is in hiatus %s", date, h)
		}

		skipped, err := c.CountEventsInRange(h.Start, *h.End, true)
		if err != nil {
			return 0, err
		}
		offset -= skipped
	}

	return offset + 1, nil
}

// DateFromOffset returns the date of event number n. It returns false when
// the event lies beyond an open-ended hiatus and so has no known date.
func (c *Calendar) DateFromOffset(n int) (Date, bool, error) {
	if n < 1 {
		return Date{}, false, argumentError(ErrNonPositiveOffset, "offset %d", n)
	}

	seq := c.Events()
	for i := 1; ; i++ {
		date, ok := seq.Next()
		if !ok {
			return Date{}, false, nil
		}
		if i == n {
			return date, true, nil
		}
	}
}

// NextEventAfter returns the first event on or after today. It returns false
// when today is inside an open-ended hiatus.
func (c *Calendar) NextEventAfter(today Date) (Date, bool) {
	return c.EventsFrom(today, false).Next()
}
