package ics

import (
	"fmt"
	"io"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "pscal/internal/log"
	"pscal/internal/model"
	"pscal/internal/schedule"
)

// PropertyEventNumber carries the event offset on each expanded VEVENT.
const PropertyEventNumber = ical.ComponentProperty("X-PSCAL-NUMBER")

const productID = "-//pscal//Middle Thursday Calendar//EN"

// uidNamespace scopes the deterministic per-date event UIDs.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("pscal"))

// FeedOptions controls feed generation.
type FeedOptions struct {
	Details model.Details

	// Recurring emits RRULE-based master events instead of one VEVENT
	// per occurrence.
	Recurring bool

	// Now stamps DTSTAMP. Zero means time.Now.
	Now time.Time
}

// EventUID returns the stable UID of the event on date.
func EventUID(date schedule.Date) string {
	return uuid.NewSHA1(uidNamespace, []byte(date.String())).String() + "@pscal"
}

// BuildFeed returns an iCalendar with one all-day VEVENT per event, or the
// recurrence rules for cal when opts.Recurring is set.
func BuildFeed(cal *schedule.Calendar, events []model.Event, opts FeedOptions) (*ical.Calendar, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	feed := ical.NewCalendar()
	feed.SetProductId(productID)
	feed.SetMethod(ical.MethodPublish)
	feed.SetXWRCalName(opts.Details.Name)
	feed.SetRefreshInterval("P1D")

	if opts.Recurring {
		rec, err := NewRecurrence(cal)
		if err != nil {
			return nil, err
		}
		for _, rule := range rec.Rules {
			ev := feed.AddEvent(fmt.Sprintf("%s-%s@pscal", rule.Name, rule.Start))
			ev.SetDtStampTime(now)
			setAllDay(ev, rule.Start)
			ev.SetSummary(opts.Details.Name)
			setDetails(ev, opts.Details)
			ev.AddRrule(rule.RRule())
			for _, ex := range rule.ExDates {
				ev.AddExdate(ex.Time().Format(icalDateLayout), ical.WithValue(string(ical.ValueDataTypeDate)))
			}
		}
		appLog.Debug("ics recurring feed built", "rules", len(rec.Rules))
		return feed, nil
	}

	for _, e := range events {
		ev := feed.AddEvent(EventUID(e.Date))
		ev.SetDtStampTime(now)
		setAllDay(ev, e.Date)
		ev.SetSummary(e.Summary)
		ev.SetDescription(fmt.Sprintf("%s number %d", opts.Details.Name, e.Number))
		ev.SetProperty(PropertyEventNumber, strconv.Itoa(e.Number))
		setDetails(ev, model.Details{Location: e.Location, URL: e.URL})
	}
	appLog.Debug("ics feed built", "events", len(events))
	return feed, nil
}

// WriteFeed serializes the feed built by BuildFeed to w.
func WriteFeed(w io.Writer, cal *schedule.Calendar, events []model.Event, opts FeedOptions) error {
	feed, err := BuildFeed(cal, events, opts)
	if err != nil {
		return err
	}
	return feed.SerializeTo(w)
}

func setAllDay(ev *ical.VEvent, date schedule.Date) {
	ev.SetAllDayStartAt(date.Time())
	ev.SetAllDayEndAt(date.AddDays(1).Time())
}

func setDetails(ev *ical.VEvent, d model.Details) {
	if d.Location != "" {
		ev.SetLocation(d.Location)
	}
	if d.URL != "" {
		ev.SetURL(d.URL)
	}
}
