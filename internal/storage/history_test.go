package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	repo, err := New(context.Background(), dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestInsertAndListRecent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	state := 1
	records := []OutcomeRecord{
		{Family: "smartlock", DeviceID: "1", Action: "lock.lock", Outcome: "succeeded", Success: true, MessageKey: "goal-reached", State: &state, PollAttempts: 3},
		{Family: "opener", DeviceID: "9", Action: "opener.rto.activate", Outcome: "failed-unreachable", Success: false, MessageKey: "device-unreachable", PollAttempts: 4},
	}
	for _, rec := range records {
		if err := repo.InsertOutcome(ctx, rec); err != nil {
			t.Fatalf("InsertOutcome returned error: %v", err)
		}
	}

	got, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Newest first.
	if got[0].Action != "opener.rto.activate" {
		t.Fatalf("got[0].Action = %q, want newest row first", got[0].Action)
	}
	if got[1].State == nil || *got[1].State != 1 {
		t.Fatalf("got[1].State = %v, want 1", got[1].State)
	}
	if got[0].State != nil {
		t.Fatalf("got[0].State = %v, want nil for unreachable outcome", got[0].State)
	}
	if got[0].CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not persisted")
	}
}

func TestListRecentHonorsLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.InsertOutcome(ctx, OutcomeRecord{Family: "smartlock", DeviceID: "1", Action: "lock.lock", Outcome: "succeeded", Success: true, MessageKey: "goal-reached"}); err != nil {
			t.Fatalf("InsertOutcome returned error: %v", err)
		}
	}
	got, err := repo.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecent returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestPruneKeepsNewestRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := repo.InsertOutcome(ctx, OutcomeRecord{Family: "smartlock", DeviceID: "1", Action: "lock.lock", Outcome: "succeeded", Success: true, MessageKey: "goal-reached"}); err != nil {
			t.Fatalf("InsertOutcome returned error: %v", err)
		}
	}
	if err := repo.Prune(ctx, 4); err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	got, err := repo.ListRecent(ctx, 100)
	if err != nil {
		t.Fatalf("ListRecent returned error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4 after prune", len(got))
	}
}
