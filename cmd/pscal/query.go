package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pscal/internal/model"
	"pscal/internal/schedule"
)

// errNoDate is returned when the answer lies beyond an open-ended hiatus.
var errNoDate = errors.New("no known date: the calendar is in an open-ended hiatus")

func newNextCmd(a *app) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next event on or after today (or --from)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := a.dateFlag(from)
			if err != nil {
				return err
			}

			date, ok := a.cal.NextEventAfter(start)
			if !ok {
				return errNoDate
			}
			n, err := a.cal.OffsetFromDate(date)
			if err != nil {
				return err
			}

			ev := model.NewEvent(n, date, a.details())
			return a.print(cmd.OutOrStdout(), ev, formatEvent(ev))
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD); defaults to today")
	return cmd
}

func newOffsetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "offset DATE",
		Short: "Show the number of the event held on DATE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := schedule.ParseDate(args[0])
			if err != nil {
				return err
			}

			n, err := a.cal.OffsetFromDate(date)
			if err != nil {
				if h, ok := a.cal.InHiatus(date); ok {
					return fmt.Errorf("%w (no events were held %s)", err, h)
				}
				return err
			}

			ev := model.NewEvent(n, date, a.details())
			return a.print(cmd.OutOrStdout(), ev, strconv.Itoa(n))
		},
	}
}

func newDateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "date N",
		Short: "Show the date of event number N",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("event number must be an integer: %w", err)
			}

			date, ok, err := a.cal.DateFromOffset(n)
			if err != nil {
				return err
			}
			if !ok {
				return a.print(cmd.OutOrStdout(), map[string]any{"number": n, "date": nil}, "unknown")
			}

			ev := model.NewEvent(n, date, a.details())
			return a.print(cmd.OutOrStdout(), ev, date.String())
		},
	}
}

func newCountCmd(a *app) *cobra.Command {
	var ignoreHiatuses bool

	cmd := &cobra.Command{
		Use:   "count START END",
		Short: "Count the events between two dates, inclusive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := schedule.ParseDate(args[0])
			if err != nil {
				return err
			}
			end, err := schedule.ParseDate(args[1])
			if err != nil {
				return err
			}

			n, err := a.cal.CountEventsInRange(start, end, ignoreHiatuses)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), map[string]any{
				"start":           start,
				"end":             end,
				"ignore_hiatuses": ignoreHiatuses,
				"count":           n,
			}, strconv.Itoa(n))
		},
	}
	cmd.Flags().BoolVar(&ignoreHiatuses, "ignore-hiatuses", false, "count events that hiatuses suppressed")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		from           string
		count          int
		ignoreHiatuses bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := a.dateFlag(from)
			if err != nil {
				return err
			}

			var events []model.Event
			if ignoreHiatuses {
				// Suppressed events have no number.
				for _, date := range a.cal.EventsFrom(start, true).Take(count) {
					events = append(events, model.Event{Date: date, Summary: a.cfg.EventName})
				}
			} else {
				events = model.Window(a.cal, start, 0, count, a.details())
			}

			lines := make([]string, 0, len(events))
			for _, ev := range events {
				lines = append(lines, formatEvent(ev))
			}
			if len(events) < count && !ignoreHiatuses {
				lines = append(lines, "(no further dates: open-ended hiatus)")
			}
			return a.print(cmd.OutOrStdout(), events, strings.Join(lines, "\n"))
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD); defaults to today")
	cmd.Flags().IntVarP(&count, "count", "n", 12, "number of events")
	cmd.Flags().BoolVar(&ignoreHiatuses, "ignore-hiatuses", false, "include dates suppressed by hiatuses")
	return cmd
}
