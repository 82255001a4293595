package jobkind

import (
	"testing"
	"time"
)

func TestTransition_MonotonicHappyPath(t *testing.T) {
	now := time.Now()
	rec := New("job1", Merge, NewMergePayload("anon", []string{"a.pdf", "b.pdf"}), now)

	if rec.Status != StatusQueued {
		t.Fatalf("new record status = %s, want queued", rec.Status)
	}

	if err := rec.Transition(StatusRunning, now.Add(time.Second)); err != nil {
		t.Fatalf("queued -> running: %v", err)
	}
	if rec.StartedAt == nil {
		t.Fatal("expected StartedAt to be set on transition to running")
	}

	if err := rec.Transition(StatusSucceeded, now.Add(2*time.Second)); err != nil {
		t.Fatalf("running -> succeeded: %v", err)
	}
	if rec.FinishedAt == nil {
		t.Fatal("expected FinishedAt to be set on transition to succeeded")
	}
	if !rec.Status.Terminal() {
		t.Fatal("succeeded should be terminal")
	}
}

func TestTransition_RejectsIllegalJumps(t *testing.T) {
	now := time.Now()
	rec := New("job1", Merge, NewMergePayload("anon", []string{"a.pdf", "b.pdf"}), now)

	if err := rec.Transition(StatusSucceeded, now); err == nil {
		t.Fatal("expected queued -> succeeded to be rejected")
	}

	if err := rec.Transition(StatusRunning, now); err != nil {
		t.Fatalf("queued -> running: %v", err)
	}
	if err := rec.Transition(StatusQueued, now); err == nil {
		t.Fatal("expected running -> queued to be rejected (not monotonic)")
	}

	if err := rec.Transition(StatusFailed, now); err != nil {
		t.Fatalf("running -> failed: %v", err)
	}
	if err := rec.Transition(StatusRunning, now); err == nil {
		t.Fatal("expected a terminal state to reject any further transition")
	}
}

func TestTransition_SameStateIsNoop(t *testing.T) {
	now := time.Now()
	rec := New("job1", Merge, NewMergePayload("anon", []string{"a.pdf", "b.pdf"}), now)
	if err := rec.Transition(StatusQueued, now); err != nil {
		t.Fatalf("transitioning to the current state should be a no-op: %v", err)
	}
}

func TestSnapshot_IsIndependentCopy(t *testing.T) {
	now := time.Now()
	rec := New("job1", Merge, NewMergePayload("anon", []string{"a.pdf", "b.pdf"}), now)
	snap := rec.Snapshot()

	_ = rec.Transition(StatusRunning, now)
	if snap.Status != StatusQueued {
		t.Fatalf("snapshot mutated after later transition: %s", snap.Status)
	}
}

func TestValid(t *testing.T) {
	if !Valid(Merge) {
		t.Fatal("expected Merge to be a valid kind")
	}
	if Valid(Kind("not-a-real-kind")) {
		t.Fatal("expected an unknown kind to be invalid")
	}
}
