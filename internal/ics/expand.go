package ics

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "pscal/internal/log"
	"pscal/internal/model"
	"pscal/internal/schedule"
)

const defaultMaxOccurrencesPerRule = 5000

// ExpandConfig bounds recurrence expansion.
type ExpandConfig struct {
	// RangeStart / RangeEnd define the inclusive date window for occurrences.
	RangeStart schedule.Date
	RangeEnd   schedule.Date

	// MaxOccurrencesPerRule caps a single master's expansion. Zero means
	// defaultMaxOccurrencesPerRule.
	MaxOccurrencesPerRule int
}

// ExpandResult holds the dates produced by a feed's recurring events.
type ExpandResult struct {
	// Dates is sorted and free of duplicates.
	Dates []schedule.Date
	// Masters is the number of recurring events expanded.
	Masters int
	// TruncatedUIDs records masters that hit MaxOccurrencesPerRule.
	TruncatedUIDs []string
}

// ExpandFeed expands every RRULE master of an iCalendar feed into dates
// within cfg's range, honoring EXDATE. Events without RRULE are ignored;
// ParseFeed reads those.
func ExpandFeed(r io.Reader, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("ics: expand: range end is before range start")
	}
	if cfg.MaxOccurrencesPerRule <= 0 {
		cfg.MaxOccurrencesPerRule = defaultMaxOccurrencesPerRule
	}

	feed, err := ical.ParseCalendar(r)
	if err != nil {
		return result, fmt.Errorf("ics: parse feed: %w", err)
	}

	for _, ve := range feed.Events() {
		if ve.GetProperty(ical.ComponentPropertyRrule) == nil {
			continue
		}
		dates, hitCap, err := expandMaster(ve, cfg)
		if err != nil {
			appLog.Error("ics: expand failed", err, "uid", ve.Id())
			return result, err
		}
		if hitCap {
			result.TruncatedUIDs = append(result.TruncatedUIDs, ve.Id())
			appLog.Warn("ics: truncated occurrences due to cap", "uid", ve.Id(), "cap", cfg.MaxOccurrencesPerRule)
		}
		result.Masters++
		result.Dates = append(result.Dates, dates...)
	}

	slices.SortFunc(result.Dates, schedule.Date.Compare)
	result.Dates = slices.Compact(result.Dates)
	return result, nil
}

func expandMaster(ve *ical.VEvent, cfg ExpandConfig) ([]schedule.Date, bool, error) {
	start := ve.GetProperty(ical.ComponentPropertyDtStart)
	if start == nil {
		return nil, false, fmt.Errorf("ics: event %q has no DTSTART", ve.Id())
	}
	dtstart, err := parseICSDate(start.Value)
	if err != nil {
		return nil, false, fmt.Errorf("ics: event %q: %w", ve.Id(), err)
	}

	r, err := rrule.StrToRRule(ve.GetProperty(ical.ComponentPropertyRrule).Value)
	if err != nil {
		return nil, false, fmt.Errorf("ics: event %q: parse RRULE: %w", ve.Id(), err)
	}
	r.DTStart(dtstart.Time())

	var set rrule.Set
	set.RRule(r)

	// EXDATE may repeat and may hold a comma-separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, v := range strings.Split(p.Value, ",") {
			ex, err := parseICSDate(v)
			if err != nil {
				return nil, false, fmt.Errorf("ics: event %q: bad EXDATE %q: %w", ve.Id(), v, err)
			}
			set.ExDate(ex.Time())
		}
	}

	times := set.Between(cfg.RangeStart.Time(), cfg.RangeEnd.Time(), true)

	hitCap := false
	if len(times) > cfg.MaxOccurrencesPerRule {
		times = times[:cfg.MaxOccurrencesPerRule]
		hitCap = true
	}

	out := make([]schedule.Date, 0, len(times))
	for _, t := range times {
		out = append(out, schedule.DateOf(t))
	}
	return out, hitCap, nil
}

// VerifyDates compares expanded feed dates with the calendar's events in
// [start, end]. Dates the calendar does not hold and calendar events the
// feed lacks are both reported.
func VerifyDates(cal *schedule.Calendar, dates []schedule.Date, start, end schedule.Date) ([]Mismatch, error) {
	want, err := cal.EventsBetween(start, end)
	if err != nil {
		return nil, err
	}

	var out []Mismatch
	for _, d := range dates {
		if slices.Contains(want, d) {
			continue
		}
		n, err := cal.OffsetFromDate(d)
		reason := "not a calendar event"
		if err != nil {
			reason = err.Error()
		}
		out = append(out, Mismatch{Event: model.Event{Number: n, Date: d}, Reason: reason})
	}
	for _, d := range want {
		if slices.Contains(dates, d) {
			continue
		}
		n, _ := cal.OffsetFromDate(d)
		out = append(out, Mismatch{Event: model.Event{Number: n, Date: d}, Reason: "missing from feed"})
	}

	slices.SortFunc(out, func(a, b Mismatch) int { return a.Event.Date.Compare(b.Event.Date) })
	return out, nil
}
