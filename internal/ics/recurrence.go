package ics

import (
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	"pscal/internal/schedule"
)

// The middle Thursday lies within three days of day days/2, which is 14 in
// February and 15 in every other month. Two yearly rules cover the year.
var ruleTemplates = []struct {
	name      string
	months    []int
	monthDays []int
}{
	{name: "february", months: []int{2}, monthDays: []int{11, 12, 13, 14, 15, 16, 17}},
	{name: "other-months", months: []int{1, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, monthDays: []int{12, 13, 14, 15, 16, 17, 18}},
}

// Rule is one RFC 5545 recurrence rule with the dates it excludes.
type Rule struct {
	Name    string
	Start   schedule.Date
	ExDates []schedule.Date

	set *rrule.Set
}

// RRule returns the RRULE value, without the "RRULE:" prefix.
func (r Rule) RRule() string {
	return r.set.GetRRule().OrigOptions.RRuleString()
}

// Recurrence expresses a calendar's event dates as recurrence rules.
type Recurrence struct {
	Rules []Rule
}

// NewRecurrence builds the rules for cal. Closed hiatuses become EXDATEs; an
// open-ended hiatus caps the rules with COUNT.
func NewRecurrence(cal *schedule.Calendar) (*Recurrence, error) {
	var (
		hiatuses = cal.Hiatuses()
		openAt   *schedule.Date
	)
	if n := len(hiatuses); n > 0 && hiatuses[n-1].OpenEnded() {
		start := hiatuses[n-1].Start
		openAt = &start
	}

	rec := &Recurrence{}
	for _, tmpl := range ruleTemplates {
		start, count, ok := firstAndCount(cal, tmpl.months, openAt)
		if !ok {
			continue
		}

		r, err := rrule.NewRRule(rrule.ROption{
			Freq:       rrule.YEARLY,
			Dtstart:    start.Time(),
			Count:      count,
			Bymonth:    tmpl.months,
			Bymonthday: tmpl.monthDays,
			Byweekday:  []rrule.Weekday{rrule.TH},
		})
		if err != nil {
			return nil, fmt.Errorf("ics: build %s rule: %w", tmpl.name, err)
		}

		set := &rrule.Set{}
		set.RRule(r)

		rule := Rule{Name: tmpl.name, Start: start, set: set}
		for _, h := range hiatuses {
			if h.OpenEnded() {
				continue
			}
			for date := range cal.EventsFrom(h.Start, true).All() {
				if date.After(*h.End) {
					break
				}
				if slices.Contains(tmpl.months, int(date.Month)) {
					rule.ExDates = append(rule.ExDates, date)
					set.ExDate(date.Time())
				}
			}
		}
		rec.Rules = append(rec.Rules, rule)
	}
	return rec, nil
}

// Between returns every date produced by the rules within [start, end].
func (r *Recurrence) Between(start, end schedule.Date) []schedule.Date {
	var out []schedule.Date
	for _, rule := range r.Rules {
		for _, t := range rule.set.Between(start.Time(), end.Time(), true) {
			out = append(out, schedule.DateOf(t.In(time.UTC)))
		}
	}
	slices.SortFunc(out, schedule.Date.Compare)
	return out
}

// firstAndCount finds the first event on or after the epoch in one of
// months and, when the calendar ends at openAt, how many rule instances
// precede it. A zero count means unbounded.
func firstAndCount(cal *schedule.Calendar, months []int, openAt *schedule.Date) (schedule.Date, int, bool) {
	var (
		first schedule.Date
		count int
	)
	for date := range cal.EventsFrom(cal.Epoch(), true).All() {
		if openAt != nil && !date.Before(*openAt) {
			break
		}
		if !slices.Contains(months, int(date.Month)) {
			continue
		}
		if first.IsZero() {
			first = date
			if openAt == nil {
				return first, 0, true
			}
		}
		count++
	}
	return first, count, !first.IsZero()
}
