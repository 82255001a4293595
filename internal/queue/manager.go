// Package queue owns QueueState — the single in-memory aggregate of
// pending and in-flight jobs — and the four compound operations
// (enqueue, dispatch, finish, reap) that mutate it, each atomic with
// respect to the others (spec.md §5).
package queue

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/jobkind"
	"github.com/pdfpipe/server/internal/tempstore"
)

// Config holds the tunables from spec.md §4.5, each overridable by
// environment (internal/config.Load).
type Config struct {
	Concurrency int
	MaxPerUser  int
	JobTimeout  time.Duration
	JobTTL      time.Duration
	OutputTTL   time.Duration
}

// Manager is the single owner of QueueState. Every exported method that
// touches state takes mu for its entire critical section, matching §5's
// "single mutex or single-owner actor" requirement and pixerve's
// single-mutex-over-multiple-maps shape.
type Manager struct {
	mu   sync.Mutex
	cond *sync.Cond

	cfg   Config
	store *tempstore.Store
	log   zerolog.Logger

	pending      []string
	records      map[string]*jobkind.Record
	queuedByKey  map[string]int
	runningByKey map[string]int
	globalRunning int

	closed bool
}

func NewManager(cfg Config, store *tempstore.Store, log zerolog.Logger) *Manager {
	m := &Manager{
		cfg:          cfg,
		store:        store,
		log:          log,
		records:      make(map[string]*jobkind.Record),
		queuedByKey:  make(map[string]int),
		runningByKey: make(map[string]int),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Enqueue allocates an id, inserts a queued JobRecord, and wakes any
// worker blocked in Dispatch. It always accepts; admission is enforced at
// dispatch time (spec.md §4.5).
func (m *Manager) Enqueue(kind jobkind.Kind, payload jobkind.Payload) *jobkind.Record {
	id := uuid.NewString()
	rec := jobkind.New(id, kind, payload, time.Now())

	m.mu.Lock()
	m.records[id] = rec
	m.pending = append(m.pending, id)
	m.queuedByKey[payload.ClientKey()]++
	m.mu.Unlock()

	m.log.Info().Str("job_id", id).Str("kind", string(kind)).Str("client_key", payload.ClientKey()).Msg("job enqueued")
	m.cond.Broadcast()
	return rec
}

// Get returns a snapshot of the record with id, safe to read without
// holding the queue's lock.
func (m *Manager) Get(id string) (jobkind.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return jobkind.Record{}, false
	}
	return rec.Snapshot(), true
}

// List returns a snapshot of every record currently held (admin only).
func (m *Manager) List() []jobkind.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]jobkind.Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec.Snapshot())
	}
	return out
}

// Stop unblocks every goroutine parked in Dispatch, so the worker pool can
// exit its loop during graceful shutdown.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cond.Broadcast()
}

// Dispatch blocks until there is both a pending job and capacity for its
// client key, per §4.5's dispatch algorithm, or until Stop is called (in
// which case ok is false). Re-append-to-tail fairness rule: a job whose
// key is saturated goes to the back of pending rather than being dropped.
func (m *Manager) Dispatch() (rec *jobkind.Record, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		if m.closed {
			return nil, false
		}

		attempts := len(m.pending)
		for i := 0; i < attempts; i++ {
			id := m.pending[0]
			m.pending = m.pending[1:]
			r, exists := m.records[id]
			if !exists {
				continue // reaped before it could be dispatched
			}
			key := r.Payload.ClientKey()
			m.queuedByKey[key]--

			if m.runningByKey[key] >= m.cfg.MaxPerUser || m.globalRunning >= m.cfg.Concurrency {
				m.pending = append(m.pending, id)
				m.queuedByKey[key]++
				continue
			}

			m.runningByKey[key]++
			m.globalRunning++
			now := time.Now()
			_ = r.Transition(jobkind.StatusRunning, now)
			m.log.Info().Str("job_id", id).Str("client_key", key).Msg("job dispatched")
			return r, true
		}

		m.cond.Wait()
	}
}

// Finish records a terminal outcome for id, decrements the running
// counters, and unlinks the payload's cleanup_files — every termination
// path in spec.md §4.5 runs through here.
func (m *Manager) Finish(id string, outcome Outcome) {
	m.mu.Lock()
	rec, exists := m.records[id]
	if !exists {
		m.mu.Unlock()
		return
	}
	key := rec.Payload.ClientKey()
	now := time.Now()

	switch outcome.Status {
	case jobkind.StatusSucceeded:
		_ = rec.Transition(jobkind.StatusSucceeded, now)
		rec.OutputPath = outcome.OutputPath
		rec.IsMultiple = outcome.IsMultiple
	case jobkind.StatusCancelled:
		_ = rec.Transition(jobkind.StatusCancelled, now)
		rec.Error = outcome.Error
		rec.ErrorCode = outcome.ErrorCode
	default:
		_ = rec.Transition(jobkind.StatusFailed, now)
		rec.Error = outcome.Error
		rec.ErrorCode = outcome.ErrorCode
	}

	if m.runningByKey[key] > 0 {
		m.runningByKey[key]--
	}
	if m.globalRunning > 0 {
		m.globalRunning--
	}
	cleanup := rec.Payload.CleanupFiles()
	m.mu.Unlock()

	for _, f := range cleanup {
		m.store.Unlink(f)
	}
	if outcome.Status != jobkind.StatusSucceeded && outcome.OutputPath != "" {
		m.store.Unlink(outcome.OutputPath)
	}

	m.log.Info().Str("job_id", id).Str("status", string(outcome.Status)).Str("error_code", string(outcome.ErrorCode)).Msg("job finished")
	m.cond.Broadcast()
}

// Outcome is what a worker reports back to Finish once a handler returns.
type Outcome struct {
	Status     jobkind.Status
	OutputPath string
	IsMultiple bool
	Error      string
	ErrorCode  apperr.Code
}
