package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/handlers"
	"github.com/pdfpipe/server/internal/jobkind"
	"github.com/pdfpipe/server/internal/queue"
	"github.com/pdfpipe/server/internal/tempstore"
)

func newTestManager(t *testing.T) *queue.Manager {
	t.Helper()
	base := t.TempDir()
	store, err := tempstore.New(filepath.Join(base, "uploads"), filepath.Join(base, "downloads"))
	if err != nil {
		t.Fatal(err)
	}
	return queue.NewManager(queue.Config{Concurrency: 2, MaxPerUser: 2}, store, zerolog.Nop())
}

func waitForTerminal(t *testing.T, m *queue.Manager, id string) jobkind.Record {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec, ok := m.Get(id)
		if ok && rec.Status.Terminal() {
			return rec
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return jobkind.Record{}
}

func TestRunOne_PanickingHandlerSurfacesAsInternal(t *testing.T) {
	m := newTestManager(t)
	registry := handlers.Registry{
		jobkind.Merge: func(ctx context.Context, deps *handlers.Deps, jobID string, payload jobkind.Payload) (handlers.Result, *apperr.Coded) {
			panic("boom")
		},
	}
	pool := NewPool(m, registry, &handlers.Deps{}, 1, time.Second, time.Second, zerolog.Nop())

	rec := m.Enqueue(jobkind.Merge, jobkind.NewMergePayload("alice", []string{"a.pdf"}))
	dispatched, ok := m.Dispatch()
	if !ok {
		t.Fatal("expected dispatch to succeed")
	}
	pool.runOne(0, dispatched)

	got := waitForTerminal(t, m, rec.ID)
	if got.Status != jobkind.StatusFailed || got.ErrorCode != apperr.Internal {
		t.Fatalf("expected a panicking handler to finish as Internal failure, got status=%s code=%s", got.Status, got.ErrorCode)
	}
}

func TestRunOne_DeadlineExceededMapsToJobTimeout(t *testing.T) {
	m := newTestManager(t)
	registry := handlers.Registry{
		jobkind.Merge: func(ctx context.Context, deps *handlers.Deps, jobID string, payload jobkind.Payload) (handlers.Result, *apperr.Coded) {
			<-ctx.Done()
			return handlers.Result{}, nil
		},
	}
	pool := NewPool(m, registry, &handlers.Deps{}, 1, 20*time.Millisecond, time.Second, zerolog.Nop())

	rec := m.Enqueue(jobkind.Merge, jobkind.NewMergePayload("alice", []string{"a.pdf"}))
	dispatched, ok := m.Dispatch()
	if !ok {
		t.Fatal("expected dispatch to succeed")
	}
	pool.runOne(0, dispatched)

	got := waitForTerminal(t, m, rec.ID)
	if got.Status != jobkind.StatusFailed || got.ErrorCode != apperr.JobTimeout {
		t.Fatalf("expected a deadline-exceeded handler to finish as JobTimeout, got status=%s code=%s", got.Status, got.ErrorCode)
	}
}

func TestRunOne_SuccessPropagatesResult(t *testing.T) {
	m := newTestManager(t)
	registry := handlers.Registry{
		jobkind.Merge: func(ctx context.Context, deps *handlers.Deps, jobID string, payload jobkind.Payload) (handlers.Result, *apperr.Coded) {
			return handlers.Result{OutputPath: "merged.pdf"}, nil
		},
	}
	pool := NewPool(m, registry, &handlers.Deps{}, 1, time.Second, time.Second, zerolog.Nop())

	rec := m.Enqueue(jobkind.Merge, jobkind.NewMergePayload("alice", []string{"a.pdf"}))
	dispatched, ok := m.Dispatch()
	if !ok {
		t.Fatal("expected dispatch to succeed")
	}
	pool.runOne(0, dispatched)

	got := waitForTerminal(t, m, rec.ID)
	if got.Status != jobkind.StatusSucceeded || got.OutputPath != "merged.pdf" {
		t.Fatalf("expected success with output path, got %+v", got)
	}
}

func TestRunOne_UnregisteredKindFailsAsInternal(t *testing.T) {
	m := newTestManager(t)
	pool := NewPool(m, handlers.Registry{}, &handlers.Deps{}, 1, time.Second, time.Second, zerolog.Nop())

	rec := m.Enqueue(jobkind.Merge, jobkind.NewMergePayload("alice", []string{"a.pdf"}))
	dispatched, ok := m.Dispatch()
	if !ok {
		t.Fatal("expected dispatch to succeed")
	}
	pool.runOne(0, dispatched)

	got := waitForTerminal(t, m, rec.ID)
	if got.Status != jobkind.StatusFailed || got.ErrorCode != apperr.Internal {
		t.Fatalf("expected an unregistered kind to fail as Internal, got status=%s code=%s", got.Status, got.ErrorCode)
	}
}
