// Package reminder keeps the next event current on a cron schedule and
// announces event days.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "pscal/internal/log"
	"pscal/internal/model"
	"pscal/internal/schedule"
)

// Announcer is told about the next event each time the schedule fires.
// daysUntil is 0 on the event day itself.
type Announcer interface {
	Announce(ctx context.Context, ev model.Event, daysUntil int) error
}

// LogAnnouncer writes announcements to the application log.
type LogAnnouncer struct{}

func (LogAnnouncer) Announce(_ context.Context, ev model.Event, daysUntil int) error {
	if daysUntil == 0 {
		appLog.Info("event today", "summary", ev.Summary, "date", ev.Date, "number", ev.Number)
		return nil
	}
	appLog.Info("next event", "summary", ev.Summary, "date", ev.Date, "number", ev.Number, "days_until", daysUntil)
	return nil
}

// Options configures a Scheduler.
type Options struct {
	// Spec is a standard 5-field cron expression.
	Spec string
	// Location decides what "today" is and when Spec fires. Nil means time.Local.
	Location  *time.Location
	Details   model.Details
	Announcer Announcer
}

// Scheduler recomputes the next event whenever its cron schedule fires.
type Scheduler struct {
	cal       *schedule.Calendar
	loc       *time.Location
	details   model.Details
	announcer Announcer
	cron      *cron.Cron
	now       func() time.Time

	mu      sync.RWMutex
	next    model.Event
	hasNext bool
}

// New validates opts and returns a stopped Scheduler.
func New(cal *schedule.Calendar, opts Options) (*Scheduler, error) {
	if cal == nil {
		return nil, errors.New("reminder: nil calendar")
	}
	sched, err := cron.ParseStandard(opts.Spec)
	if err != nil {
		return nil, fmt.Errorf("reminder: parse schedule %q: %w", opts.Spec, err)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Announcer == nil {
		opts.Announcer = LogAnnouncer{}
	}

	s := &Scheduler{
		cal:       cal,
		loc:       opts.Location,
		details:   opts.Details,
		announcer: opts.Announcer,
		cron:      cron.New(cron.WithLocation(opts.Location)),
		now:       time.Now,
	}
	s.cron.Schedule(sched, cron.FuncJob(func() { s.Refresh(context.Background()) }))
	return s, nil
}

// Run refreshes once, then on every tick until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	s.Refresh(ctx)
	s.cron.Start()
	appLog.Info("reminder scheduler started", "location", s.loc.String())

	<-ctx.Done()

	<-s.cron.Stop().Done()
	appLog.Info("reminder scheduler stopped")
}

// Today returns the current calendar date in the scheduler's location.
func (s *Scheduler) Today() schedule.Date {
	return schedule.DateOf(s.now().In(s.loc))
}

// Refresh recomputes the next event and announces it.
func (s *Scheduler) Refresh(ctx context.Context) {
	today := s.Today()

	date, ok := s.cal.NextEventAfter(today)
	if !ok {
		s.store(model.Event{}, false)
		appLog.Info("no upcoming event; calendar is in an open-ended hiatus", "today", today)
		return
	}

	n, err := s.cal.OffsetFromDate(date)
	if err != nil {
		appLog.Error("reminder: number next event", err, "date", date)
		return
	}

	ev := model.NewEvent(n, date, s.details)
	s.store(ev, true)

	if err := s.announcer.Announce(ctx, ev, today.DaysUntil(date)); err != nil {
		appLog.Error("reminder: announce failed", err, "date", date)
	}
}

// Next returns the event computed by the last Refresh.
func (s *Scheduler) Next() (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.next, s.hasNext
}

func (s *Scheduler) store(ev model.Event, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = ev
	s.hasNext = ok
}
