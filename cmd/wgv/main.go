// wgv is a terminal week calendar with mouse-driven create, move and resize.
//
// It stores events in a local SQLite database, watches it for changes made
// by other processes and lays overlapping events out side by side.
//
// Usage:
//
//	wgv                          # Open the current week
//	wgv --week 2025-03-10        # Open the week containing a date
//	wgv --db <path>              # Use a specific database
//	wgv --json                   # Dump the week as JSON and exit
//	wgv import calendar.ics      # Import timed events from iCalendar
//	wgv export [out.ics]         # Export every event to iCalendar
//	wgv version                  # Print version and exit
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/daviddao/weekgrid/internal/config"
	"github.com/daviddao/weekgrid/internal/datasource"
	"github.com/daviddao/weekgrid/internal/ics"
	appLog "github.com/daviddao/weekgrid/internal/log"
	"github.com/daviddao/weekgrid/internal/snapshot"
	"github.com/daviddao/weekgrid/internal/store"
)

// Version is set via ldflags at build time (e.g. -X main.Version=v0.1.0).
var Version = "dev"

// options are the persistent flags shared by every command.
type options struct {
	dbPath     string
	configPath string
	week       string
	logPath    string
	jsonMode   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wgv: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "wgv",
		Short:         "Terminal week calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		Example: strings.TrimSpace(`
  # Start the interactive week grid
  wgv

  # Print the week of March 10th as JSON
  wgv --week 2025-03-10 --json
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.jsonMode {
				return runJSON(cmd.Context(), cmd.OutOrStdout(), opts)
			}
			return runTUI(opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.dbPath, "db", "", "path to weekgrid.db (default: $"+datasource.EnvDB+", config, then auto-discover)")
	pf.StringVar(&opts.configPath, "config", "", "path to config.yaml (default: ~/.weekgrid/config.yaml)")
	pf.StringVar(&opts.week, "week", "", "show the week containing this date (YYYY-MM-DD)")
	pf.StringVar(&opts.logPath, "log", "", "log file for the TUI (default: ~/.weekgrid/wgv.log)")
	cmd.Flags().BoolVar(&opts.jsonMode, "json", false, "dump the week as JSON and exit (no TUI)")

	cmd.AddCommand(newImportCmd(opts), newExportCmd(opts), newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wgv %s\n", Version)
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.ics>",
		Short: "Import timed events from an iCalendar file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			st, _, err := openStore(ctx, opts, cfg, true)
			if err != nil {
				return err
			}
			defer st.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := ics.Parse(f, cfg.Mapper().SlotDuration(), time.Local)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			for _, ev := range res.Events {
				if _, err := st.Update(ctx, ev); err != nil {
					return fmt.Errorf("import %s: %w", ev.ID, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d events (%d skipped)\n", len(res.Events), res.Skipped)
			return nil
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.ics]",
		Short: "Export every event to iCalendar (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			st, _, err := openStore(ctx, opts, cfg, false)
			if err != nil {
				return err
			}
			defer st.Close()

			events, err := st.All(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return ics.Write(w, events, time.Now())
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func loadConfig(opts *options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// openStore resolves the database path: --db, then $WEEKGRID_DB, then the
// config file, then discovery. With create set, a missing database is
// initialised instead of reported.
func openStore(ctx context.Context, opts *options, cfg *config.Config, create bool) (*store.Store, string, error) {
	path := opts.dbPath
	if path == "" && os.Getenv(datasource.EnvDB) == "" {
		path = cfg.DB
	}
	if path != "" {
		if !create {
			if _, err := os.Stat(path); err != nil {
				return nil, "", fmt.Errorf("open %s: %w", path, err)
			}
		}
		st, err := store.Open(ctx, path)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", path, err)
		}
		return st, path, nil
	}
	if create {
		return datasource.OpenOrInit()
	}
	return datasource.Open()
}

// parseWeek returns the start of the week to show first.
func parseWeek(s string, first time.Weekday, now time.Time) (time.Time, error) {
	if s == "" {
		return snapshot.WeekStart(now, first), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--week %q: want YYYY-MM-DD", s)
	}
	return snapshot.WeekStart(t, first), nil
}

// --- JSON output ---

type jsonOutput struct {
	WeekStart string    `json:"week_start"`
	Days      []jsonDay `json:"days"`
	Stats     jsonStats `json:"stats"`
}

type jsonDay struct {
	Date   string      `json:"date"`
	Events []jsonEvent `json:"events"`
}

type jsonEvent struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	LaneIndex int    `json:"lane_index"`
	LaneCount int    `json:"lane_count"`
}

type jsonStats struct {
	WeekEvents  int `json:"week_events"`
	TotalEvents int `json:"total_events"`
}

// buildJSONOutput converts a snapshot into the JSON output structure.
func buildJSONOutput(snap *snapshot.WeekSnapshot) jsonOutput {
	out := jsonOutput{
		WeekStart: snap.WeekStart.Format(time.DateOnly),
		Days:      make([]jsonDay, len(snap.Days)),
		Stats:     jsonStats{WeekEvents: snap.WeekEvents, TotalEvents: snap.TotalEvents},
	}
	for i, d := range snap.Days {
		day := jsonDay{Date: d.Date.Format(time.DateOnly), Events: make([]jsonEvent, len(d.Events))}
		for j, e := range d.Events {
			day.Events[j] = jsonEvent{
				ID:        e.ID,
				Title:     e.Title,
				Start:     e.Start.Format(time.RFC3339),
				End:       e.End.Format(time.RFC3339),
				LaneIndex: e.LaneIndex,
				LaneCount: e.LaneCount,
			}
		}
		out.Days[i] = day
	}
	return out
}

func runJSON(ctx context.Context, w io.Writer, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	week, err := parseWeek(opts.week, cfg.FirstWeekday(), time.Now())
	if err != nil {
		return err
	}
	st, _, err := openStore(ctx, opts, cfg, false)
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := snapshot.Build(ctx, st, week)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(buildJSONOutput(snap)); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	return nil
}

// --- TUI ---

func defaultLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".weekgrid", "wgv.log"), nil
}

func runTUI(opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	week, err := parseWeek(opts.week, cfg.FirstWeekday(), time.Now())
	if err != nil {
		return err
	}

	logPath := opts.logPath
	if logPath == "" {
		if logPath, err = defaultLogPath(); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	logFile, err := appLog.OpenFile(logPath)
	if err != nil {
		return fmt.Errorf("log %s: %w", logPath, err)
	}
	defer logFile.Close()

	ctx := context.Background()
	st, path, err := openStore(ctx, opts, cfg, true)
	if err != nil {
		return err
	}
	defer st.Close()
	appLog.Info("store opened", "path", path)

	w, err := datasource.NewWatcher(path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	snap, err := snapshot.Build(ctx, st, week)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	m := newModel(st, w, cfg, snap, path)
	defer m.zones.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Feed DB change events into the TUI.
	go func() {
		for range w.Changes() {
			p.Send(dbChangedMsg{})
		}
	}()
	go func() {
		for err := range w.Errors() {
			appLog.Error("watcher", err, "path", path)
		}
	}()

	// Scheduled refresh in case fsnotify misses a write.
	schedule, err := cfg.Schedule()
	if err != nil {
		return fmt.Errorf("refresh schedule %q: %w", cfg.RefreshCron, err)
	}
	sched := cron.New()
	sched.Schedule(schedule, cron.FuncJob(func() { p.Send(dbChangedMsg{}) }))
	sched.Start()
	defer sched.Stop()

	_, err = p.Run()
	return err
}
