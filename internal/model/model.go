package model

import (
	"fmt"

	"pscal/internal/schedule"
)

// Details describes the event independent of any single occurrence.
type Details struct {
	Name     string
	Location string
	URL      string
}

// Event is a single numbered occurrence of the monthly event.
type Event struct {
	// Number is the 1-based event offset from the epoch.
	Number int `json:"number"`
	// Date is the calendar day of the event; events are all-day.
	Date schedule.Date `json:"date"`

	Summary  string `json:"summary"`
	Location string `json:"location,omitempty"`
	URL      string `json:"url,omitempty"`
}

// NewEvent builds the Event numbered n on date.
func NewEvent(n int, date schedule.Date, d Details) Event {
	return Event{
		Number:   n,
		Date:     date,
		Summary:  fmt.Sprintf("%s #%d", d.Name, n),
		Location: d.Location,
		URL:      d.URL,
	}
}

// Window returns up to past events before today followed by up to future
// events on or after today, numbered from the calendar's epoch. The future
// part is shorter when the calendar ends at an open-ended hiatus.
func Window(cal *schedule.Calendar, today schedule.Date, past, future int, d Details) []Event {
	var (
		before []Event
		after  []Event
	)

	n := 0
	for date := range cal.Events().All() {
		n++
		if date.Before(today) {
			if past <= 0 {
				continue
			}
			if len(before) == past {
				before = before[1:]
			}
			before = append(before, NewEvent(n, date, d))
			continue
		}
		if len(after) >= future {
			break
		}
		after = append(after, NewEvent(n, date, d))
	}

	return append(before, after...)
}
