package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pscal/internal/config"
	appLog "pscal/internal/log"
	"pscal/internal/model"
	"pscal/internal/schedule"
)

// app carries the state shared by every subcommand once the root's
// PersistentPreRunE has loaded the configuration.
type app struct {
	configPath string
	logLevel   string
	asJSON     bool

	cfg *config.Config
	cal *schedule.Calendar
	loc *time.Location
	now func() time.Time
}

// newRootCmd builds the command tree. now is the clock used for "today".
func newRootCmd(now func() time.Time) *cobra.Command {
	a := &app{now: now}

	root := &cobra.Command{
		Use:   "pscal",
		Short: "Dates and numbers of the monthly middle-Thursday meetup",
		Long: `pscal computes when the monthly meetup happens (the Thursday of the week
containing the middle day of the month), numbers every event from the first
one, and skips the hiatuses during which no events were held.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "path to config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print JSON instead of text")

	root.AddCommand(
		newNextCmd(a),
		newOffsetCmd(a),
		newDateCmd(a),
		newCountCmd(a),
		newListCmd(a),
		newICSCmd(a),
		newCheckFeedCmd(a),
		newServeCmd(a),
	)
	return root
}

// init loads the config. A missing file at the default path is not created;
// the built-in defaults are used instead.
func (a *app) init(cmd *cobra.Command) error {
	explicit := cmd.Flags().Changed("config")

	var err error
	if _, statErr := os.Stat(a.configPath); !explicit && errors.Is(statErr, fs.ErrNotExist) {
		a.cfg = config.DefaultConfig()
	} else if a.cfg, err = config.Load(a.configPath); err != nil {
		appLog.Error("failed to load config", err, "config_path", a.configPath)
		return err
	}

	levelName := a.cfg.LogLevel
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, ok := appLog.ParseLevel(levelName)
	if !ok {
		return fmt.Errorf("unknown log level %q", levelName)
	}
	appLog.SetLevel(level)

	if a.cal, err = a.cfg.Calendar(); err != nil {
		return err
	}

	a.loc, err = time.LoadLocation(a.cfg.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", a.cfg.Timezone)
		a.loc = time.Local
	}

	appLog.Debug("effective config",
		"config_path", a.configPath,
		"epoch", a.cfg.Epoch,
		"hiatus_count", len(a.cfg.Hiatuses),
		"timezone", a.loc.String(),
	)
	return nil
}

func (a *app) today() schedule.Date {
	return schedule.DateOf(a.now().In(a.loc))
}

func (a *app) details() model.Details {
	return model.Details{Name: a.cfg.EventName, Location: a.cfg.Location, URL: a.cfg.URL}
}

// dateFlag parses an optional YYYY-MM-DD flag value, defaulting to today.
func (a *app) dateFlag(v string) (schedule.Date, error) {
	if v == "" {
		return a.today(), nil
	}
	return schedule.ParseDate(v)
}

// print writes v as indented JSON with --json, or its text form otherwise.
func (a *app) print(w io.Writer, v any, text string) error {
	if !a.asJSON {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatEvent(ev model.Event) string {
	return fmt.Sprintf("%s  %s", ev.Date, ev.Summary)
}
