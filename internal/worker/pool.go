// Package worker runs background jobs on a fixed set of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("worker: pool closed")

// Job is a unit of background work.
type Job func(ctx context.Context) error

type jobWrapper struct {
	name  string
	fn    Job
	delay time.Duration
}

// Pool executes submitted jobs on a bounded number of workers. Queued jobs
// are drained on Close.
type Pool struct {
	jobs chan jobWrapper
	log  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	closed  bool
	pending sync.WaitGroup
	workers sync.WaitGroup
	delayed sync.WaitGroup
}

// NewPool starts workerCount workers with a queue of bufferSize jobs.
func NewPool(workerCount, bufferSize int, log *zap.Logger) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		jobs:   make(chan jobWrapper, bufferSize),
		log:    log.Named("worker"),
		ctx:    ctx,
		cancel: cancel,
	}

	p.workers.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for job := range p.jobs {
		p.run(job)
	}
}

func (p *Pool) run(job jobWrapper) {
	defer p.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("job panicked", zap.String("job", job.name), zap.Any("panic", r))
		}
	}()

	if err := job.fn(p.ctx); err != nil {
		p.log.Warn("job failed", zap.String("job", job.name), zap.Error(err))
	}
}

// Submit queues fn. It blocks while the queue is full.
func (p *Pool) Submit(name string, fn Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	p.pending.Add(1)
	p.jobs <- jobWrapper{name: name, fn: fn}
	return nil
}

// SubmitAfter queues fn once delay has elapsed. Jobs still waiting when the
// pool closes are dropped.
func (p *Pool) SubmitAfter(name string, delay time.Duration, fn Job) error {
	if delay <= 0 {
		return p.Submit(name, fn)
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	p.delayed.Add(1)
	p.mu.RUnlock()

	go func() {
		defer p.delayed.Done()
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
			if err := p.Submit(name, fn); err != nil {
				p.log.Debug("delayed job dropped", zap.String("job", name), zap.Error(err))
			}
		case <-p.ctx.Done():
			p.log.Debug("delayed job dropped", zap.String("job", name))
		}
	}()
	return nil
}

// Wait blocks until every job submitted so far has finished.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Close stops accepting jobs, waits for queued jobs to finish or ctx to
// expire, then cancels the context passed to running jobs.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.workers.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("draining worker pool: %w", ctx.Err())
	}
	p.cancel()
	p.delayed.Wait()
	return err
}
