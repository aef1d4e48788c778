// Package worker runs project refresh jobs off the refresh queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/kickscore/internal/adapters/mq/queue"
	"github.com/okian/kickscore/pkg/logger"
	"github.com/okian/kickscore/pkg/metrics"
)

const defaultJobTimeout = 30 * time.Second

// Refresher rebuilds the performances of a project.
type Refresher interface {
	Refresh(ctx context.Context, projectID string) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
	Release(job queue.Job)
}

// Pool runs a fixed number of workers until the queue closes or Shutdown.
type Pool struct {
	size       int
	queue      Queue
	refresher  Refresher
	logger     logger.Logger
	jobTimeout time.Duration
	now        func() time.Time

	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
}

// NewPool creates a pool of workerCount workers. workerCount < 1 means one
// worker per CPU.
func NewPool(workerCount int, q Queue, r Refresher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		size:       workerCount,
		queue:      q,
		refresher:  r,
		logger:     logger.Nop(),
		jobTimeout: defaultJobTimeout,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) {
	jobs := p.queue.Dequeue(ctx)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx, p.logger.Named("worker-"+strconv.Itoa(i)), jobs)
	}
	metrics.UpdateWorkerCount(p.size)
}

func (p *Pool) run(ctx context.Context, log logger.Logger, jobs <-chan queue.Job) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			p.process(ctx, log, job)
		}
	}
}

func (p *Pool) process(ctx context.Context, log logger.Logger, job queue.Job) {
	p.queue.Release(job)

	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}

	err := p.refresher.Refresh(ctx, job.ProjectID)
	latency := float64(p.now().Sub(job.Enqueued).Milliseconds())
	if err != nil {
		metrics.RecordRefreshJob("error", latency)
		metrics.RecordErrorByComponent("worker", "refresh")
		log.Error(ctx, "refresh failed", logger.String("project_id", job.ProjectID), logger.Error(err))
		return
	}
	metrics.RecordRefreshJob("ok", latency)
	log.Debug(ctx, "project refreshed", logger.String("project_id", job.ProjectID), logger.Float64("latency_ms", latency))
}

// Shutdown stops the workers after their current job. Jobs still queued
// are dropped.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stop) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		metrics.UpdateWorkerCount(0)
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Wait blocks until every worker has exited, e.g. after the queue is closed
// and drained.
func (p *Pool) Wait() {
	p.wg.Wait()
	metrics.UpdateWorkerCount(0)
}
