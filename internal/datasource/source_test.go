package datasource

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/daviddao/weekgrid/internal/store"
)

// makeDB creates an empty weekgrid database at path.
func makeDB(t *testing.T, path string) {
	t.Helper()
	s, err := store.New(path)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	s.Close()
}

// inDir runs the test from dir with WEEKGRID_DB cleared.
func inDir(t *testing.T, dir string) {
	t.Helper()
	t.Setenv(EnvDB, "")
	t.Chdir(dir)
}

func TestDiscoverFromEnvVar(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "custom.db")
	makeDB(t, dbPath)
	t.Setenv(EnvDB, dbPath)

	path, err := Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if path != dbPath {
		t.Errorf("Discover() = %q, want %q", path, dbPath)
	}
}

func TestDiscoverEnvVarMissing(t *testing.T) {
	t.Setenv(EnvDB, "/nonexistent/path/weekgrid.db")

	_, err := Discover()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Discover err = %v, want ErrNotExist", err)
	}
}

func TestDiscoverFromCWD(t *testing.T) {
	dir := t.TempDir()
	makeDB(t, filepath.Join(dir, defaultDB))
	inDir(t, dir)

	path, err := Discover()
	if err != nil {
		t.Fatalf("Discover from CWD: %v", err)
	}
	if filepath.Base(filepath.Dir(path)) != defaultDir {
		t.Errorf("expected path in %s/, got %q", defaultDir, path)
	}
}

func TestDiscoverFromParentDir(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, defaultDB)
	makeDB(t, dbPath)

	child := filepath.Join(dir, "sub", "deep")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatalf("MkdirAll child: %v", err)
	}
	inDir(t, child)

	path, err := Discover()
	if err != nil {
		t.Fatalf("Discover from parent: %v", err)
	}
	// Resolve symlinks for comparison (macOS /var -> /private/var).
	resolvedPath, _ := filepath.EvalSymlinks(path)
	resolvedExpect, _ := filepath.EvalSymlinks(dbPath)
	if resolvedPath != resolvedExpect {
		t.Errorf("Discover() = %q, want %q", path, dbPath)
	}
}

func TestDiscoverNoDB(t *testing.T) {
	inDir(t, t.TempDir())

	if _, err := Discover(); err == nil {
		t.Error("Discover should fail when no database exists")
	}
	if _, _, err := Open(); err == nil {
		t.Error("Open should fail when no database exists")
	}
}

func TestOpenSuccess(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	makeDB(t, dbPath)
	t.Setenv(EnvDB, dbPath)

	st, path, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	if path != dbPath {
		t.Errorf("Open path = %q, want %q", path, dbPath)
	}
}

func TestOpenOrInitCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	inDir(t, dir)

	st, path, err := OpenOrInit()
	if err != nil {
		t.Fatalf("OpenOrInit: %v", err)
	}
	defer st.Close()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database not created at %s: %v", path, err)
	}
	if filepath.Base(path) != "weekgrid.db" {
		t.Errorf("OpenOrInit path = %q", path)
	}
}

func TestOpenOrInitCreatesEnvPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh", "events.db")
	t.Setenv(EnvDB, dbPath)

	st, path, err := OpenOrInit()
	if err != nil {
		t.Fatalf("OpenOrInit: %v", err)
	}
	defer st.Close()
	if path != dbPath {
		t.Errorf("OpenOrInit path = %q, want %q", path, dbPath)
	}
}
