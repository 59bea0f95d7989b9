// Package datasource discovers and connects to the weekgrid SQLite database.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/daviddao/weekgrid/internal/store"
)

const (
	// EnvDB overrides discovery with an explicit database path.
	EnvDB = "WEEKGRID_DB"

	defaultDir = ".weekgrid"
	defaultDB  = ".weekgrid/weekgrid.db"
)

// Discover finds the weekgrid database path.
// Priority: WEEKGRID_DB env var > .weekgrid/weekgrid.db in CWD > walk up parents.
func Discover() (string, error) {
	if env := os.Getenv(EnvDB); env != "" {
		if _, err := os.Stat(env); err == nil {
			return env, nil
		}
		return "", fmt.Errorf("%s=%q: %w", EnvDB, env, os.ErrNotExist)
	}

	if _, err := os.Stat(defaultDB); err == nil {
		abs, err := filepath.Abs(defaultDB)
		if err != nil {
			return "", fmt.Errorf("resolve absolute path for %s: %w", defaultDB, err)
		}
		return abs, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, defaultDB)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no weekgrid database found (looked for %s): %w", defaultDB, os.ErrNotExist)
}

// Open discovers and opens the weekgrid store.
func Open() (*store.Store, string, error) {
	path, err := Discover()
	if err != nil {
		return nil, "", err
	}
	s, err := store.New(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	return s, path, nil
}

// OpenOrInit opens the discovered store, or creates .weekgrid/weekgrid.db
// in the working directory when none exists yet. An explicit WEEKGRID_DB
// path is created if missing.
func OpenOrInit() (*store.Store, string, error) {
	path, err := Discover()
	if err != nil {
		path = os.Getenv(EnvDB)
		if path == "" {
			path, err = filepath.Abs(defaultDB)
			if err != nil {
				return nil, "", fmt.Errorf("resolve absolute path for %s: %w", defaultDB, err)
			}
		}
	}
	s, err := store.New(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	return s, path, nil
}
