package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/runger/nlfind/internal/query"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	s, err := NewStore(dbPath, 0)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	s, err := NewStore(dbPath, 100)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "deeper", "history.db")
	s, err := NewStore(dbPath, 100)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("Database directory was not created")
	}
}

func TestNewStore_EmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := NewStore("", 100); err == nil {
		t.Error("NewStore(\"\") should return error")
	}
}

func TestStore_RecordAndList(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	minSize := int64(1024)
	first := &Entry{
		Timestamp: time.UnixMilli(1000),
		RawInput:  "python files over 1kb",
		Query: &query.SearchQuery{
			Extensions: []string{".py"},
			MinSize:    &minSize,
		},
		Backend:     "fd",
		ResultCount: 3,
		TotalCount:  3,
		ElapsedMs:   42,
	}
	second := &Entry{
		Timestamp:   time.UnixMilli(2000),
		RawInput:    "recent notes",
		Backend:     "walk",
		ResultCount: 1,
		TotalCount:  9,
		ElapsedMs:   7,
	}

	if err := s.Record(ctx, first); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := s.Record(ctx, second); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(entries))
	}

	// Newest first.
	if entries[0].RawInput != "recent notes" {
		t.Errorf("entries[0].RawInput = %q, want %q", entries[0].RawInput, "recent notes")
	}
	if entries[1].RawInput != "python files over 1kb" {
		t.Errorf("entries[1].RawInput = %q, want %q", entries[1].RawInput, "python files over 1kb")
	}

	got := entries[1]
	if got.ID != first.ID {
		t.Errorf("ID = %q, want %q", got.ID, first.ID)
	}
	if !got.Timestamp.Equal(first.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, first.Timestamp)
	}
	if got.Backend != "fd" {
		t.Errorf("Backend = %q, want %q", got.Backend, "fd")
	}
	if got.ResultCount != 3 || got.TotalCount != 3 || got.ElapsedMs != 42 {
		t.Errorf("counts = %d/%d/%d, want 3/3/42", got.ResultCount, got.TotalCount, got.ElapsedMs)
	}
	if got.Query == nil {
		t.Fatal("Query = nil, want round-tripped query")
	}
	if len(got.Query.Extensions) != 1 || got.Query.Extensions[0] != ".py" {
		t.Errorf("Query.Extensions = %v, want [.py]", got.Query.Extensions)
	}
	if got.Query.MinSize == nil || *got.Query.MinSize != 1024 {
		t.Errorf("Query.MinSize = %v, want 1024", got.Query.MinSize)
	}
}

func TestStore_Record_FillsDefaults(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	e := &Entry{RawInput: "anything"}
	if err := s.Record(context.Background(), e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if e.ID == "" {
		t.Error("Record() did not assign an ID")
	}
	if e.Timestamp.IsZero() {
		t.Error("Record() did not assign a timestamp")
	}
}

func TestStore_Record_RequiresRawInput(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	if err := s.Record(context.Background(), &Entry{}); err == nil {
		t.Error("Record() should reject empty raw input")
	}
	if err := s.Record(context.Background(), nil); err == nil {
		t.Error("Record() should reject nil entry")
	}
}

func TestStore_Record_DuplicateID(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	e := &Entry{ID: "fixed-id", RawInput: "first"}
	if err := s.Record(ctx, e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	dup := &Entry{ID: "fixed-id", RawInput: "second"}
	if err := s.Record(ctx, dup); err == nil {
		t.Error("Record() should reject duplicate ID")
	}
}

func TestStore_List_Limit(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := &Entry{
			Timestamp: time.UnixMilli(int64(1000 + i)),
			RawInput:  fmt.Sprintf("search %d", i),
		}
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	entries, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(entries))
	}
	if entries[0].RawInput != "search 4" || entries[1].RawInput != "search 3" {
		t.Errorf("List() = [%q, %q], want newest two", entries[0].RawInput, entries[1].RawInput)
	}
}

func TestStore_List_Empty(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	entries, err := s.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("List() returned %d entries, want 0", len(entries))
	}
}

func TestStore_Prune(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	s, err := NewStore(dbPath, 3)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := &Entry{
			Timestamp: time.UnixMilli(int64(1000 + i)),
			RawInput:  fmt.Sprintf("search %d", i),
		}
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3 after pruning", n)
	}

	entries, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"search 4", "search 3", "search 2"}
	if len(entries) != len(want) {
		t.Fatalf("List() returned %d entries, want %d", len(entries), len(want))
	}
	for i, w := range want {
		if entries[i].RawInput != w {
			t.Errorf("entries[%d].RawInput = %q, want %q", i, entries[i].RawInput, w)
		}
	}
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, &Entry{RawInput: "doomed"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d after Clear, want 0", n)
	}
}

func TestStore_Persistence(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := NewStore(dbPath, 0)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := s.Record(ctx, &Entry{RawInput: "durable"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewStore(dbPath, 0)
	if err != nil {
		t.Fatalf("NewStore() reopen error = %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 || entries[0].RawInput != "durable" {
		t.Errorf("List() after reopen = %+v, want the recorded entry", entries)
	}
}

func TestStore_Close_Idempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
