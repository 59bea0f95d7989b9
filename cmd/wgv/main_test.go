package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/daviddao/weekgrid/internal/config"
	"github.com/daviddao/weekgrid/internal/datasource"
	"github.com/daviddao/weekgrid/internal/ics"
	"github.com/daviddao/weekgrid/internal/model"
)

// runRoot executes the root command with args and returns its stdout.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != "wgv dev\n" {
		t.Errorf("version output = %q", out)
	}
}

func TestImportJSONExport(t *testing.T) {
	t.Setenv(datasource.EnvDB, "")
	dir := t.TempDir()
	db := filepath.Join(dir, "weekgrid.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	icsPath := filepath.Join(dir, "in.ics")

	events := []model.Event{
		{ID: "standup@example.com", Title: "Standup", Start: at(0, 9, 0), End: at(0, 10, 0)},
		{ID: "review@example.com", Title: "Review", Start: at(0, 9, 15), End: at(0, 10, 0)},
		{ID: "later@example.com", Title: "Later", Start: at(9, 9, 0), End: at(9, 10, 0)},
	}
	f, err := os.Create(icsPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := ics.Write(f, events, at(0, 0, 0)); err != nil {
		t.Fatalf("ics.Write: %v", err)
	}
	f.Close()

	out, err := runRoot(t, "import", icsPath, "--db", db, "--config", cfgPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if out != "imported 3 events (0 skipped)\n" {
		t.Errorf("import output = %q", out)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Errorf("default config not written: %v", err)
	}

	out, err = runRoot(t, "--json", "--week", "2025-03-12", "--db", db, "--config", cfgPath)
	if err != nil {
		t.Fatalf("--json: %v", err)
	}
	var got jsonOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.WeekStart != "2025-03-10" || len(got.Days) != 7 {
		t.Fatalf("week_start = %s, %d days", got.WeekStart, len(got.Days))
	}
	if got.Stats.WeekEvents != 2 || got.Stats.TotalEvents != 3 {
		t.Errorf("stats = %+v, want 2 this week of 3", got.Stats)
	}
	mon := got.Days[0]
	if len(mon.Events) != 2 {
		t.Fatalf("monday has %d events, want 2", len(mon.Events))
	}
	lanes := map[string][2]int{}
	for _, e := range mon.Events {
		lanes[e.Title] = [2]int{e.LaneIndex, e.LaneCount}
	}
	if lanes["Standup"] != [2]int{0, 1} || lanes["Review"] != [2]int{1, 1} {
		t.Errorf("lanes = %v", lanes)
	}

	out, err = runRoot(t, "export", "--db", db, "--config", cfgPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, want := range []string{"BEGIN:VCALENDAR", "SUMMARY:Standup", "UID:later@example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q", want)
		}
	}

	outFile := filepath.Join(dir, "out.ics")
	if _, err := runRoot(t, "export", outFile, "--db", db, "--config", cfgPath); err != nil {
		t.Fatalf("export to file: %v", err)
	}
	rf, err := os.Open(outFile)
	if err != nil {
		t.Fatal(err)
	}
	defer rf.Close()
	res, err := ics.Parse(rf, 15*time.Minute, time.Local)
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if len(res.Events) != 3 {
		t.Errorf("exported %d events, want 3", len(res.Events))
	}
}

func TestCommandErrors(t *testing.T) {
	t.Setenv(datasource.EnvDB, "")
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	missing := filepath.Join(dir, "missing.db")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"export missing db", []string{"export", "--db", missing, "--config", cfgPath}, "open"},
		{"json missing db", []string{"--json", "--db", missing, "--config", cfgPath}, "open"},
		{"bad week", []string{"--json", "--week", "10/03/2025", "--config", cfgPath}, "want YYYY-MM-DD"},
		{"import missing file", []string{"import", filepath.Join(dir, "nope.ics"), "--db", filepath.Join(dir, "w.db"), "--config", cfgPath}, "nope.ics"},
		{"stray argument", []string{"extra", "--config", cfgPath}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runRoot(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("read-only command created the database")
	}
}

func TestParseWeek(t *testing.T) {
	wed := time.Date(2025, 3, 12, 15, 0, 0, 0, time.Local)
	tests := []struct {
		in      string
		first   time.Weekday
		want    time.Time
		wantErr bool
	}{
		{"", time.Monday, monday, false},
		{"2025-03-16", time.Monday, monday, false},
		{"2025-03-16", time.Sunday, time.Date(2025, 3, 16, 0, 0, 0, 0, time.Local), false},
		{"2025-03-10", time.Monday, monday, false},
		{"16/03/2025", time.Monday, time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := parseWeek(tt.in, tt.first, wed)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseWeek(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseWeek(%q, %s) = %v, want %v", tt.in, tt.first, got, tt.want)
		}
	}
}

func TestOpenStorePrecedence(t *testing.T) {
	dir := t.TempDir()
	flagDB := filepath.Join(dir, "flag.db")
	envDB := filepath.Join(dir, "env.db")
	cfgDB := filepath.Join(dir, "cfg.db")

	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag wins", flagDB, envDB, flagDB},
		{"env beats config", "", envDB, envDB},
		{"config last", "", "", cfgDB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(datasource.EnvDB, tt.env)
			cfg := config.DefaultConfig()
			cfg.DB = cfgDB
			st, path, err := openStore(context.Background(), &options{dbPath: tt.flag}, cfg, true)
			if err != nil {
				t.Fatalf("openStore: %v", err)
			}
			defer st.Close()
			if path != tt.want {
				t.Errorf("path = %s, want %s", path, tt.want)
			}
			if _, err := st.Count(context.Background()); err != nil {
				t.Errorf("Count: %v", err)
			}
		})
	}
}
