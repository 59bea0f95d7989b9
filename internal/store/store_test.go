package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/daviddao/weekgrid/internal/model"
)

// newTestStore creates a temporary store for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "weekgrid.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)

func makeEvent(id string, startH, endH int) model.Event {
	return model.Event{
		ID:    id,
		Title: "title " + id,
		Start: base.Add(time.Duration(startH) * time.Hour),
		End:   base.Add(time.Duration(endH) * time.Hour),
	}
}

func TestUpdateCreatesAndReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ev := makeEvent("a", 9, 10)
	if _, err := s.Update(ctx, ev); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != ev.Title || !got.Start.Equal(ev.Start) || !got.End.Equal(ev.End) {
		t.Errorf("Get = %+v, want %+v", got, ev)
	}

	ev.Start = ev.Start.Add(2 * time.Hour)
	ev.End = ev.End.Add(2 * time.Hour)
	ev.Title = "moved"
	if _, err := s.Update(ctx, ev); err != nil {
		t.Fatalf("Update replace: %v", err)
	}
	got, _ = s.Get(ctx, "a")
	if got.Title != "moved" || !got.Start.Equal(ev.Start) {
		t.Errorf("after replace Get = %+v", got)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestUpdateRejectsDegenerate(t *testing.T) {
	s := newTestStore(t)
	ev := makeEvent("a", 9, 9)
	_, err := s.Update(context.Background(), ev)
	if !errors.Is(err, model.ErrDegenerateInterval) {
		t.Errorf("Update(start==end) err = %v, want ErrDegenerateInterval", err)
	}
	ev.ID = ""
	ev.End = ev.End.Add(time.Hour)
	if _, err := s.Update(context.Background(), ev); !errors.Is(err, model.ErrMissingID) {
		t.Errorf("Update(no id) err = %v, want ErrMissingID", err)
	}
}

func TestListRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, ev := range []model.Event{
		makeEvent("before", -5, -3),
		makeEvent("overnight", -1, 2),
		makeEvent("morning", 9, 10),
		makeEvent("long", 9, 12),
		makeEvent("next-day", 25, 26),
		makeEvent("touching", 24, 25),
	} {
		if _, err := s.Update(ctx, ev); err != nil {
			t.Fatalf("Update %s: %v", ev.ID, err)
		}
	}

	got, err := s.List(ctx, base, base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, ev := range got {
		ids = append(ids, ev.ID)
	}
	want := []string{"overnight", "long", "morning"}
	if len(ids) != len(want) {
		t.Fatalf("List ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("List[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Update(ctx, makeEvent("a", 1, 2))
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestAllAndReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "weekgrid.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Update(context.Background(), makeEvent("b", 3, 4))
	s.Update(context.Background(), makeEvent("a", 1, 2))
	s.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	all, err := s2.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "b" {
		t.Errorf("All = %+v", all)
	}
	if s2.Path() != path {
		t.Errorf("Path = %q, want %q", s2.Path(), path)
	}
}
