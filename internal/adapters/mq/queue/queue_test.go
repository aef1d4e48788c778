package queue_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/kickscore/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	Convey("Given a queue with capacity 2", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2), queue.WithClock(func() time.Time { return fixed }))

		Convey("When a project is enqueued", func() {
			So(q.Enqueue(ctx, "p1"), ShouldBeNil)

			Convey("Then a job is delivered with its enqueue time", func() {
				So(q.Len(), ShouldEqual, 1)
				job := <-q.Dequeue(ctx)
				So(job.ProjectID, ShouldEqual, "p1")
				So(job.Enqueued, ShouldEqual, fixed)
			})
		})

		Convey("When the same project is enqueued while pending", func() {
			So(q.Enqueue(ctx, "p1"), ShouldBeNil)
			So(q.Enqueue(ctx, "p1"), ShouldBeNil)

			Convey("Then the jobs are coalesced", func() {
				So(q.Len(), ShouldEqual, 1)
			})

			Convey("And the job is released", func() {
				q.Release(<-q.Dequeue(ctx))
				So(q.Enqueue(ctx, "p1"), ShouldBeNil)

				Convey("Then the project can be queued again", func() {
					So(q.Len(), ShouldEqual, 1)
				})
			})
		})

		Convey("When more projects than capacity are enqueued", func() {
			for i := 0; i < 2; i++ {
				So(q.Enqueue(ctx, fmt.Sprintf("p%d", i)), ShouldBeNil)
			}
			err := q.Enqueue(ctx, "overflow")

			Convey("Then the queue reports it is full", func() {
				So(errors.Is(err, queue.ErrFull), ShouldBeTrue)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, "p1"), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue fails but pending jobs drain", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(errors.Is(q.Enqueue(ctx, "p2"), queue.ErrClosed), ShouldBeTrue)
				job, ok := <-q.Dequeue(ctx)
				So(ok, ShouldBeTrue)
				So(job.ProjectID, ShouldEqual, "p1")
				_, ok = <-q.Dequeue(ctx)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the context is already canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then nothing is enqueued", func() {
				So(q.Enqueue(cctx, "p1"), ShouldEqual, context.Canceled)
				So(q.Len(), ShouldEqual, 0)
			})
		})
	})
}
