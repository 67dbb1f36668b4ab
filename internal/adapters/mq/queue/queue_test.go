package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/reelrank/reelrank/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a small bounded queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When enqueuing within capacity", func() {
			So(q.Enqueue(ctx, queue.Job{JobID: "j1", ItemID: "i1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{JobID: "j2", ItemID: "i2"}), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			Convey("Then a further enqueue is dropped, not blocked", func() {
				done := make(chan bool, 1)
				go func() {
					done <- q.Enqueue(ctx, queue.Job{JobID: "j3"})
				}()
				select {
				case accepted := <-done:
					So(accepted, ShouldBeFalse)
				case <-time.After(time.Second):
					t.Fatal("enqueue blocked on a full queue")
				}
			})

			Convey("And dequeue yields jobs in order", func() {
				jobs := q.Dequeue(ctx)
				first := <-jobs
				second := <-jobs
				So(first.JobID, ShouldEqual, "j1")
				So(second.JobID, ShouldEqual, "j2")
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, queue.Job{JobID: "j1"}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueues are rejected", func() {
				So(q.Enqueue(ctx, queue.Job{JobID: "j2"}), ShouldBeFalse)
			})

			Convey("And the dequeue channel drains then closes", func() {
				jobs := q.Dequeue(ctx)
				job, ok := <-jobs
				So(ok, ShouldBeTrue)
				So(job.JobID, ShouldEqual, "j1")

				_, ok = <-jobs
				So(ok, ShouldBeFalse)
			})

			Convey("And closing twice is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
