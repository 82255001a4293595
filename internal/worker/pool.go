// Package worker runs a fixed-size pool of goroutines that drain the
// queue and invoke the matched handler for each dispatched job (spec.md
// §4.6).
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/handlers"
	"github.com/pdfpipe/server/internal/jobkind"
	"github.com/pdfpipe/server/internal/queue"
)

// Pool is a fixed set of interchangeable workers; no worker owns a job
// kind. Workers are started by Run and exit cooperatively once the
// manager is stopped and every running job finishes or its deadline
// passes.
type Pool struct {
	manager  *queue.Manager
	handlers handlers.Registry
	deps     *handlers.Deps
	size     int

	jobTimeout    time.Duration
	shutdownGrace time.Duration

	log zerolog.Logger
}

func NewPool(manager *queue.Manager, registry handlers.Registry, deps *handlers.Deps, size int, jobTimeout, shutdownGrace time.Duration, log zerolog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		manager:       manager,
		handlers:      registry,
		deps:          deps,
		size:          size,
		jobTimeout:    jobTimeout,
		shutdownGrace: shutdownGrace,
		log:           log,
	}
}

// Run starts size worker goroutines and blocks until ctx is cancelled, at
// which point it stops the manager (unblocking every Dispatch call),
// waits up to shutdownGrace for in-flight jobs, and returns.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.loop(workerID)
		}(i)
	}

	<-ctx.Done()
	p.manager.Stop()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(p.shutdownGrace):
		p.log.Warn().Msg("shutdown grace period elapsed with workers still running")
	}
}

func (p *Pool) loop(workerID int) {
	for {
		rec, ok := p.manager.Dispatch()
		if !ok {
			return
		}
		p.runOne(workerID, rec)
	}
}

func (p *Pool) runOne(workerID int, rec *jobkind.Record) {
	timeout := p.jobTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	handler, ok := p.handlers[rec.Kind]
	if !ok {
		p.manager.Finish(rec.ID, queue.Outcome{
			Status:    jobkind.StatusFailed,
			Error:     fmt.Sprintf("no handler registered for job kind %q", rec.Kind),
			ErrorCode: apperr.Internal,
		})
		return
	}

	result, coded := p.invoke(ctx, workerID, handler, rec)

	if ctx.Err() == context.DeadlineExceeded {
		p.manager.Finish(rec.ID, queue.Outcome{
			Status:    jobkind.StatusFailed,
			Error:     "job exceeded its deadline",
			ErrorCode: apperr.JobTimeout,
		})
		return
	}

	if coded != nil {
		p.manager.Finish(rec.ID, queue.Outcome{
			Status:    jobkind.StatusFailed,
			Error:     coded.Message,
			ErrorCode: coded.Code,
		})
		return
	}

	p.manager.Finish(rec.ID, queue.Outcome{
		Status:     jobkind.StatusSucceeded,
		OutputPath: result.OutputPath,
		IsMultiple: result.IsMultiple,
	})
}

// invoke runs handler under a panic barrier: a handler crash never
// propagates out of the worker loop, converting instead to INTERNAL
// (spec.md §4.6).
func (p *Pool) invoke(ctx context.Context, workerID int, handler handlers.Handler, rec *jobkind.Record) (res handlers.Result, coded *apperr.Coded) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker", workerID).Str("job_id", rec.ID).Interface("panic", r).Msg("handler panicked")
			coded = apperr.New(apperr.Internal, "internal error while processing job")
		}
	}()
	return handler(ctx, p.deps, rec.ID, rec.Payload)
}
