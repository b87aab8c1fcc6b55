package ics

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "pscal/internal/log"
	"pscal/internal/model"
	"pscal/internal/schedule"
)

const icalDateLayout = "20060102"

// summaryNumber matches the trailing "#<n>" of an event summary.
var summaryNumber = regexp.MustCompile(`#(\d+)\s*$`)

// ParseFeed reads the numbered events of an iCalendar feed. Recurring
// master events carry no number and are skipped.
func ParseFeed(r io.Reader) ([]model.Event, error) {
	feed, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("ics: parse feed: %w", err)
	}

	events := make([]model.Event, 0)
	for _, ve := range feed.Events() {
		if ve.GetProperty(ical.ComponentPropertyRrule) != nil {
			appLog.Debug("ics: skipping recurring event", "uid", ve.Id())
			continue
		}

		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Error("ics vevent parse failed", perr, "uid", ve.Id())
			return nil, perr
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	start := ve.GetProperty(ical.ComponentPropertyDtStart)
	if start == nil {
		return out, fmt.Errorf("ics: event %q has no DTSTART", ve.Id())
	}
	date, err := parseICSDate(start.Value)
	if err != nil {
		return out, fmt.Errorf("ics: event %q: %w", ve.Id(), err)
	}
	out.Date = date

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyUrl); p != nil {
		out.URL = p.Value
	}

	// Prefer the explicit number; fall back to the summary suffix.
	raw := ""
	if p := ve.GetProperty(PropertyEventNumber); p != nil {
		raw = strings.TrimSpace(p.Value)
	} else if m := summaryNumber.FindStringSubmatch(out.Summary); m != nil {
		raw = m[1]
	}
	if raw == "" {
		return out, fmt.Errorf("ics: event %q has no event number", ve.Id())
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return out, fmt.Errorf("ics: event %q: bad event number %q", ve.Id(), raw)
	}
	out.Number = n

	return out, nil
}

// parseICSDate accepts DATE (20240912) and DATE-TIME (20240912T190000[Z])
// values and keeps only the calendar date.
func parseICSDate(v string) (schedule.Date, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return schedule.Date{}, errors.New("empty date value")
	}
	if i := strings.IndexByte(v, 'T'); i >= 0 {
		v = v[:i]
	}
	t, err := time.Parse(icalDateLayout, v)
	if err != nil {
		return schedule.Date{}, err
	}
	return schedule.DateOf(t), nil
}

// Mismatch describes a feed event that disagrees with the calendar.
type Mismatch struct {
	Event  model.Event
	Reason string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s #%d: %s", m.Event.Date, m.Event.Number, m.Reason)
}

// VerifyFeed checks each event's date and number against cal.
func VerifyFeed(cal *schedule.Calendar, events []model.Event) []Mismatch {
	var out []Mismatch
	for _, ev := range events {
		n, err := cal.OffsetFromDate(ev.Date)
		switch {
		case err != nil:
			out = append(out, Mismatch{Event: ev, Reason: err.Error()})
		case n != ev.Number:
			out = append(out, Mismatch{Event: ev, Reason: fmt.Sprintf("calendar numbers this event %d", n)})
		}
	}
	return out
}
