package jobs_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	dbembed "github.com/garnizeh/worklog/db"
	"github.com/garnizeh/worklog/internal/db"
	"github.com/garnizeh/worklog/internal/jobs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRepo(t *testing.T) *jobs.Repository {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	database, err := db.New(ctx, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.Migrate(ctx, database, dbembed.Migrations, dbembed.SeedFiles); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return jobs.NewRepository(database)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEnqueueAndFetchByPriority(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	past := time.Now().Add(-time.Minute)
	lowID, err := repo.Enqueue(ctx, &jobs.Job{Type: jobs.TypeDedupCleanup, Priority: 50, ScheduledAt: past})
	if err != nil {
		t.Fatalf("enqueue low: %v", err)
	}
	highID, err := repo.Enqueue(ctx, &jobs.Job{Type: jobs.TypeImportFile, Priority: 10, ScheduledAt: past})
	if err != nil {
		t.Fatalf("enqueue high: %v", err)
	}

	j, err := repo.FetchNext(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if j == nil || j.ID != highID {
		t.Fatalf("lower priority value should win, got %+v want id %d", j, highID)
	}
	if j.MaxAttempts != 5 {
		t.Errorf("default max attempts = %d, want 5", j.MaxAttempts)
	}

	// mark it done so the other job surfaces
	j.Status = "done"
	if err := repo.UpdateJob(ctx, j); err != nil {
		t.Fatalf("update: %v", err)
	}
	j, err = repo.FetchNext(ctx)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if j == nil || j.ID != lowID {
		t.Fatalf("expected the remaining job %d, got %+v", lowID, j)
	}
}

func TestFetchNextRespectsSchedule(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.Enqueue(ctx, &jobs.Job{Type: jobs.TypeKPIRecalculate, ScheduledAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	j, err := repo.FetchNext(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if j != nil {
		t.Errorf("future-scheduled job should stay hidden, got %+v", j)
	}
}

func TestWorkerProcessesJob(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	var ran atomic.Int32
	handlers := map[string]jobs.Handler{
		jobs.TypeValidationScan: func(ctx context.Context, j *jobs.Job) error {
			ran.Add(1)
			return nil
		},
	}
	pool := jobs.NewWorkerPool(repo, handlers, nil, 1)
	pool.Start(ctx)
	defer pool.Stop()

	id, err := pool.Enqueue(ctx, jobs.TypeValidationScan, jobs.RangePayload{From: "2026-03-01", To: "2026-03-02"}, 10, 3)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, "job completion", func() bool {
		j, err := repo.GetJob(ctx, id)
		return err == nil && j != nil && j.Status == "done"
	})
	if ran.Load() != 1 {
		t.Errorf("handler ran %d times, want 1", ran.Load())
	}
}

func TestWorkerMovesExhaustedJobToDeadLetter(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	handlers := map[string]jobs.Handler{
		jobs.TypeImportFile: func(ctx context.Context, j *jobs.Job) error {
			return fmt.Errorf("file is gone")
		},
	}
	pool := jobs.NewWorkerPool(repo, handlers, nil, 1)
	pool.Start(ctx)
	defer pool.Stop()

	id, err := pool.Enqueue(ctx, jobs.TypeImportFile, jobs.ImportFilePayload{Path: "/tmp/nope.csv"}, 10, 1)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, "dead-letter move", func() bool {
		j, err := repo.GetJob(ctx, id)
		return err == nil && j == nil
	})
}

func TestWorkerDeadLettersUnknownType(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	pool := jobs.NewWorkerPool(repo, map[string]jobs.Handler{}, nil, 1)
	pool.Start(ctx)
	defer pool.Stop()

	id, err := pool.Enqueue(ctx, "no.such.type", nil, 10, 3)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, "dead-letter move", func() bool {
		j, err := repo.GetJob(ctx, id)
		return err == nil && j == nil
	})
}

func TestBackoffDuration(t *testing.T) {
	if d := jobs.BackoffDuration(0); d != time.Second {
		t.Errorf("attempt 0 = %v, want 1s", d)
	}
	if d := jobs.BackoffDuration(2); d != 4*time.Second {
		t.Errorf("attempt 2 = %v, want 4s", d)
	}
	if d := jobs.BackoffDuration(30); d != 5*time.Minute {
		t.Errorf("attempt 30 = %v, want the 5m cap", d)
	}
}
