package queue

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdfpipe/server/internal/jobkind"
	"github.com/pdfpipe/server/internal/tempstore"
)

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	base := t.TempDir()
	store, err := tempstore.New(filepath.Join(base, "uploads"), filepath.Join(base, "downloads"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 2
	}
	if cfg.MaxPerUser == 0 {
		cfg.MaxPerUser = 1
	}
	return NewManager(cfg, store, zerolog.Nop())
}

func mergePayload(key string) *jobkind.MergePayload {
	return jobkind.NewMergePayload(key, []string{"a.pdf", "b.pdf"})
}

func TestEnqueueDispatchFinish_HappyPath(t *testing.T) {
	m := newTestManager(t, Config{})
	rec := m.Enqueue(jobkind.Merge, mergePayload("alice"))

	got, ok := m.Get(rec.ID)
	if !ok || got.Status != jobkind.StatusQueued {
		t.Fatalf("expected freshly enqueued job to be queued, got %v ok=%v", got.Status, ok)
	}

	dispatched, ok := m.Dispatch()
	if !ok || dispatched.ID != rec.ID {
		t.Fatalf("expected to dispatch %s, got %v ok=%v", rec.ID, dispatched, ok)
	}
	if got, _ := m.Get(rec.ID); got.Status != jobkind.StatusRunning {
		t.Fatalf("expected running after dispatch, got %s", got.Status)
	}

	m.Finish(rec.ID, Outcome{Status: jobkind.StatusSucceeded, OutputPath: "out.pdf"})
	got, _ = m.Get(rec.ID)
	if got.Status != jobkind.StatusSucceeded || got.OutputPath != "out.pdf" {
		t.Fatalf("expected succeeded with output path, got %+v", got)
	}
}

func TestDispatch_RespectsGlobalConcurrency(t *testing.T) {
	m := newTestManager(t, Config{Concurrency: 1, MaxPerUser: 5})
	rec1 := m.Enqueue(jobkind.Merge, mergePayload("alice"))
	m.Enqueue(jobkind.Merge, mergePayload("bob"))

	d1, ok := m.Dispatch()
	if !ok || d1.ID != rec1.ID {
		t.Fatalf("expected first dispatch to return rec1, got %v ok=%v", d1, ok)
	}

	done := make(chan *jobkind.Record, 1)
	go func() {
		rec, ok := m.Dispatch()
		if ok {
			done <- rec
		}
	}()

	select {
	case <-done:
		t.Fatal("second dispatch returned before capacity freed")
	case <-time.After(100 * time.Millisecond):
	}

	m.Finish(rec1.ID, Outcome{Status: jobkind.StatusSucceeded})

	select {
	case rec := <-done:
		if rec == nil {
			t.Fatal("expected a dispatched record")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second dispatch never unblocked after capacity freed")
	}
}

func TestDispatch_RequeuesSaturatedKeyToTail(t *testing.T) {
	m := newTestManager(t, Config{Concurrency: 2, MaxPerUser: 1})
	recA1 := m.Enqueue(jobkind.Merge, mergePayload("alice"))
	recA2 := m.Enqueue(jobkind.Merge, mergePayload("alice"))
	recB1 := m.Enqueue(jobkind.Merge, mergePayload("bob"))

	first, ok := m.Dispatch()
	if !ok || first.ID != recA1.ID {
		t.Fatalf("expected first dispatch to be alice's first job, got %v", first)
	}

	// alice is now saturated (running_by_key[alice] == MaxPerUser); the
	// second dispatch must skip recA2 and pick recB1 instead, re-queuing
	// recA2 to the tail rather than dropping it.
	second, ok := m.Dispatch()
	if !ok || second.ID != recB1.ID {
		t.Fatalf("expected second dispatch to skip saturated alice and pick bob, got %v", second)
	}

	m.Finish(first.ID, Outcome{Status: jobkind.StatusSucceeded})

	third, ok := m.Dispatch()
	if !ok || third.ID != recA2.ID {
		t.Fatalf("expected alice's re-queued second job to dispatch once capacity freed, got %v", third)
	}
}

func TestStop_UnblocksDispatch(t *testing.T) {
	m := newTestManager(t, Config{})
	m.Stop()

	done := make(chan bool, 1)
	go func() {
		_, ok := m.Dispatch()
		done <- ok
	}()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected Dispatch to report ok=false after Stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch did not unblock after Stop")
	}
}

func TestFinish_CancelledPreservesStatus(t *testing.T) {
	m := newTestManager(t, Config{})
	rec := m.Enqueue(jobkind.Merge, mergePayload("alice"))
	if _, ok := m.Dispatch(); !ok {
		t.Fatal("expected dispatch to succeed")
	}

	m.Finish(rec.ID, Outcome{Status: jobkind.StatusCancelled, Error: "client disconnected"})
	got, _ := m.Get(rec.ID)
	if got.Status != jobkind.StatusCancelled {
		t.Fatalf("expected cancelled status to be preserved, got %s", got.Status)
	}
}
