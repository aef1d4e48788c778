// Package queue holds pending project refresh jobs.
//
// Jobs for a project that is already waiting are coalesced: the pending job
// will see the newer data when it runs.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/kickscore/pkg/metrics"
)

const defaultCapacity = 1024

// Job asks for the performances of one project to be rebuilt.
type Job struct {
	ProjectID string
	Enqueued  time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue schedules a refresh of projectID. It returns ErrFull when the
	// queue is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, projectID string) error

	// Dequeue returns the channel jobs are delivered on. It is closed by Close.
	Dequeue(ctx context.Context) <-chan Job

	// Release marks a dequeued job as started so the project can be queued again.
	Release(job Job)

	// Len returns the number of pending jobs.
	Len() int

	// Close stops accepting jobs. Pending jobs stay readable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	now      func() time.Time

	mu      sync.Mutex
	pending map[string]struct{}
	closed  bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
		now:      time.Now,
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	metrics.UpdateRefreshQueueSize(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if _, waiting := q.pending[projectID]; waiting {
		return nil
	}

	select {
	case q.jobs <- Job{ProjectID: projectID, Enqueued: q.now()}:
		q.pending[projectID] = struct{}{}
		metrics.UpdateRefreshQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Release implements Queue.
func (q *InMemoryQueue) Release(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, job.ProjectID)
	metrics.UpdateRefreshQueueSize(len(q.jobs))
}

// Len implements Queue.
func (q *InMemoryQueue) Len() int {
	return len(q.jobs)
}

// Close implements Queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
