package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"favsync/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestRecordAndListRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	first := history.Record{
		StartedAt:  base,
		FinishedAt: base.Add(time.Minute),
		Status:     history.StatusCompleted,
		Favorited:  40,
		Transcoded: 5,
		Deleted:    2,
		Skipped:    35,
		Covers:     3,
	}
	if _, err := store.RecordRun(ctx, first); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	second := history.Record{
		StartedAt:  base.Add(time.Hour),
		FinishedAt: base.Add(time.Hour + time.Minute),
		Status:     history.StatusPartial,
		Favorited:  41,
		Transcoded: 1,
		Failures: []history.FailureRecord{
			{Kind: "transcode", Subject: "/src/bad.flac", Detail: "exit status 1"},
		},
	}
	id, err := store.RecordRun(ctx, second)
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated run ID")
	}

	records, err := store.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != id {
		t.Fatalf("expected newest run first, got %+v", records[0])
	}
	if records[0].Status != history.StatusPartial {
		t.Fatalf("unexpected status %q", records[0].Status)
	}
	if len(records[0].Failures) != 1 || records[0].Failures[0].Kind != "transcode" {
		t.Fatalf("unexpected failures %+v", records[0].Failures)
	}
	if records[1].Transcoded != 5 || records[1].Skipped != 35 {
		t.Fatalf("unexpected counts %+v", records[1])
	}
	if !records[1].StartedAt.Equal(base) {
		t.Fatalf("timestamp round trip failed: %v", records[1].StartedAt)
	}
}

func TestListRecentHonorsLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		rec := history.Record{
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + 30*time.Second),
			Status:     history.StatusCompleted,
		}
		if _, err := store.RecordRun(ctx, rec); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	records, err := store.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 2; i++ {
		store, err := history.Open(path)
		if err != nil {
			t.Fatalf("Open #%d: %v", i+1, err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("Close #%d: %v", i+1, err)
		}
	}
}
