package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"misa/internal/history"
	"misa/internal/testsupport"
)

func TestRecordAndList(t *testing.T) {
	store := testsupport.MustOpenHistory(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 2, 6, 0, 0, 0, time.UTC)

	entries := []history.Entry{
		{RunID: "run-1", Date: "2025-03-02", Stage: "extract_base", Status: history.StatusCompleted, StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)},
		{RunID: "run-1", Date: "2025-03-02", Stage: "inject_prayers", Status: history.StatusSkipped, Reason: "all prayers present", StartedAt: start, FinishedAt: start},
		{RunID: "run-2", Date: "2025-03-03", Stage: "extract_base", Status: history.StatusFailed, ErrorKind: "not_found", ErrorMessage: "no pdf", StartedAt: start, FinishedAt: start},
	}
	for _, e := range entries {
		if _, err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := store.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].RunID != "run-2" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	day, err := store.List(ctx, history.Filter{Date: "2025-03-02"})
	if err != nil {
		t.Fatalf("List by date: %v", err)
	}
	if len(day) != 2 {
		t.Fatalf("expected 2 entries for date, got %d", len(day))
	}
	extract := day[1]
	if extract.Duration != 1500*time.Millisecond || !extract.StartedAt.Equal(start) || extract.Reason != "" {
		t.Fatalf("unexpected extract entry %+v", extract)
	}
	if day[0].Reason != "all prayers present" {
		t.Fatalf("unexpected reason %q", day[0].Reason)
	}

	limited, err := store.List(ctx, history.Filter{RunID: "run-1", Limit: 1})
	if err != nil || len(limited) != 1 || limited[0].Stage != "inject_prayers" {
		t.Fatalf("unexpected limited result %+v (%v)", limited, err)
	}
}

func TestRecordRequiresKeys(t *testing.T) {
	store := testsupport.MustOpenHistory(t)
	if _, err := store.Record(context.Background(), history.Entry{Stage: "x"}); err == nil {
		t.Fatal("expected error for incomplete entry")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Record(context.Background(), history.Entry{RunID: "r", Date: "2025-03-02", Stage: "s", Status: history.StatusCompleted}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.List(context.Background(), history.Filter{})
	if err != nil || len(got) != 1 {
		t.Fatalf("expected persisted entry, got %+v (%v)", got, err)
	}
}
