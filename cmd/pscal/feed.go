package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pscal/internal/ics"
	appLog "pscal/internal/log"
	"pscal/internal/model"
)

func newICSCmd(a *app) *cobra.Command {
	var (
		out       string
		recurring bool
	)

	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Write the iCalendar feed around today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			events := model.Window(a.cal, a.today(), a.cfg.Feed.Past, a.cfg.Feed.Future, a.details())
			opts := ics.FeedOptions{
				Details:   a.details(),
				Recurring: recurring || a.cfg.Feed.Recurring,
				Now:       a.now(),
			}

			if out == "" || out == "-" {
				return ics.WriteFeed(cmd.OutOrStdout(), a.cal, events, opts)
			}
			return writeFeedFile(out, func(w io.Writer) error {
				return ics.WriteFeed(w, a.cal, events, opts)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file; defaults to stdout")
	cmd.Flags().BoolVar(&recurring, "recurring", false, "emit RRULE master events instead of one event per date")
	return cmd
}

// writeFeedFile writes through a temp file and renames it into place.
func writeFeedFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".pscal-*.ics")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	appLog.Info("wrote calendar feed", "path", path)
	return nil
}

// recurringHorizon is how far past today a recurring feed is expanded.
const recurringHorizon = 2 * 366

func newCheckFeedCmd(a *app) *cobra.Command {
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "check-feed FILE|URL",
		Short: "Verify the dates and numbers of an iCalendar file or published feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readFeed(cmd.Context(), args[0], cacheDir)
			if err != nil {
				return err
			}

			events, err := ics.ParseFeed(bytes.NewReader(body))
			if err != nil {
				return err
			}
			mismatches := ics.VerifyFeed(a.cal, events)

			start, end := a.cal.Epoch(), a.today().AddDays(recurringHorizon)
			expanded, err := ics.ExpandFeed(bytes.NewReader(body), ics.ExpandConfig{RangeStart: start, RangeEnd: end})
			if err != nil {
				return err
			}
			if expanded.Masters > 0 {
				dateMismatches, err := ics.VerifyDates(a.cal, expanded.Dates, start, end)
				if err != nil {
					return err
				}
				mismatches = append(mismatches, dateMismatches...)
			}

			checked := len(events) + len(expanded.Dates)
			w := cmd.OutOrStdout()
			if a.asJSON {
				if err := a.print(w, map[string]any{
					"events":     len(events),
					"recurring":  expanded.Masters,
					"expanded":   len(expanded.Dates),
					"mismatches": mismatches,
				}, ""); err != nil {
					return err
				}
			} else {
				for _, m := range mismatches {
					fmt.Fprintln(w, m)
				}
				if expanded.Masters > 0 {
					fmt.Fprintf(w, "%d recurring events expanded to %d dates\n", expanded.Masters, len(expanded.Dates))
				}
				fmt.Fprintf(w, "%d events checked, %d mismatches\n", checked, len(mismatches))
			}

			if len(mismatches) > 0 {
				return fmt.Errorf("%s: %d of %d events disagree with the calendar", args[0], len(mismatches), checked)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "cache directory for fetched feeds; defaults to the user cache dir")
	return cmd
}

// readFeed reads a local file, or fetches src when it is an http(s) URL.
func readFeed(ctx context.Context, src, cacheDir string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		res, err := ics.NewFetcher(cacheDir).Fetch(ctx, src)
		if err != nil {
			return nil, err
		}
		return res.Body, nil
	}
	return os.ReadFile(src)
}
