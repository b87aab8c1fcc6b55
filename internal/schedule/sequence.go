package schedule

import "iter"

// Sequence lazily produces event dates in chronological order. Each value is
// computed on demand by Next. A Sequence is single-use and not safe for
// concurrent use.
type Sequence struct {
	hiatuses       []Hiatus
	ignoreHiatuses bool
	cursor         Date
	done           bool
}

// Events returns the sequence of all events from the epoch, hiatuses respected.
func (c *Calendar) Events() *Sequence {
	return c.EventsFrom(c.epoch, false)
}

// EventsFrom returns the sequence of events on or after start. Unless
// ignoreHiatuses is set, events inside a hiatus are skipped and the sequence
// ends when it reaches an open-ended hiatus.
func (c *Calendar) EventsFrom(start Date, ignoreHiatuses bool) *Sequence {
	cursor := start
	if start.Day > MiddleThursday(start.Year, start.Month) {
		cursor = start.nextMonth()
	}
	return &Sequence{
		hiatuses:       c.hiatuses,
		ignoreHiatuses: ignoreHiatuses,
		cursor:         cursor,
	}
}

// Next returns the next event date. It returns false once the sequence has
// reached an open-ended hiatus; every later call also returns false.
func (s *Sequence) Next() (Date, bool) {
	for !s.done {
		date := EventDateIn(s.cursor.Year, s.cursor.Month)
		s.cursor = s.cursor.nextMonth()

		if s.ignoreHiatuses {
			return date, true
		}

		switch s.hiatusAction(date) {
		case emit:
			return date, true
		case skip:
			continue
		case stop:
			s.done = true
		}
	}
	return Date{}, false
}

// All adapts the sequence to a range-over-func iterator. Breaking out of
// the loop stops production.
func (s *Sequence) All() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for {
			date, ok := s.Next()
			if !ok || !yield(date) {
				return
			}
		}
	}
}

// Take returns at most n further values.
func (s *Sequence) Take(n int) []Date {
	out := make([]Date, 0, max(n, 0))
	for len(out) < n {
		date, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, date)
	}
	return out
}

type action int

const (
	emit action = iota
	skip
	stop
)

// hiatusAction scans hiatuses in list order and acts on the first one whose
// start is not after date.
func (s *Sequence) hiatusAction(date Date) action {
	for _, h := range s.hiatuses {
		if date.Before(h.Start) {
			continue
		}
		if h.End == nil {
			return stop
		}
		if !date.After(*h.End) {
			return skip
		}
	}
	return emit
}
