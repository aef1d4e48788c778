package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/kickscore/internal/adapters/mq/queue"
	"github.com/okian/kickscore/internal/adapters/mq/worker"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingRefresher struct {
	mu    sync.Mutex
	calls []string
	err   error
	block chan struct{}
	hang  string
}

func (r *recordingRefresher) Refresh(ctx context.Context, projectID string) error {
	if projectID == r.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, projectID)
	return r.err
}

func (r *recordingRefresher) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestPool(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pool draining a closed queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		r := &recordingRefresher{}
		for _, id := range []string{"p1", "p2", "p3"} {
			So(q.Enqueue(ctx, id), ShouldBeNil)
		}
		So(q.Close(), ShouldBeNil)

		p := worker.NewPool(2, q, r)
		p.Start(ctx)
		p.Wait()

		Convey("Then every project is refreshed once", func() {
			So(p.Size(), ShouldEqual, 2)
			So(r.seen(), ShouldHaveLength, 3)
			So(r.seen(), ShouldContain, "p2")
		})
	})

	Convey("Given a refresher that fails", t, func() {
		q := queue.NewInMemoryQueue()
		r := &recordingRefresher{err: errors.New("boom")}
		So(q.Enqueue(ctx, "p1"), ShouldBeNil)
		So(q.Close(), ShouldBeNil)

		p := worker.NewPool(1, q, r)
		p.Start(ctx)
		p.Wait()

		Convey("Then the pool keeps going", func() {
			So(r.seen(), ShouldResemble, []string{"p1"})
		})
	})

	Convey("Given a job that is picked up", t, func() {
		q := queue.NewInMemoryQueue()
		r := &recordingRefresher{block: make(chan struct{})}
		p := worker.NewPool(1, q, r)
		p.Start(ctx)
		So(q.Enqueue(ctx, "p1"), ShouldBeNil)

		Convey("Then the project can be queued again while it runs", func() {
			So(waitFor(func() bool { return q.Len() == 0 }), ShouldBeTrue)
			So(waitFor(func() bool { return q.Enqueue(ctx, "p1") == nil && q.Len() == 1 }), ShouldBeTrue)
			close(r.block)
			So(waitFor(func() bool { return len(r.seen()) == 2 }), ShouldBeTrue)
		})

		Reset(func() {
			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			_ = p.Shutdown(sctx)
		})
	})

	Convey("Given a refresh slower than the job timeout", t, func() {
		q := queue.NewInMemoryQueue()
		r := &recordingRefresher{hang: "slow"}
		p := worker.NewPool(1, q, r, worker.WithJobTimeout(10*time.Millisecond))
		p.Start(ctx)
		So(q.Enqueue(ctx, "slow"), ShouldBeNil)
		So(q.Enqueue(ctx, "next"), ShouldBeNil)

		Convey("Then the worker moves on to the next job", func() {
			So(waitFor(func() bool { return len(r.seen()) == 1 }), ShouldBeTrue)
			So(r.seen(), ShouldResemble, []string{"next"})
		})

		Reset(func() { _ = p.Shutdown(ctx) })
	})

	Convey("Given a running pool", t, func() {
		q := queue.NewInMemoryQueue()
		p := worker.NewPool(3, q, &recordingRefresher{})
		p.Start(ctx)

		Convey("Then shutdown returns promptly", func() {
			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			So(p.Shutdown(sctx), ShouldBeNil)
			So(p.Shutdown(sctx), ShouldBeNil)
		})
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
