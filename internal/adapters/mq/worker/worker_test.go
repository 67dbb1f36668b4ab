package worker_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/reelrank/reelrank/internal/adapters/mq/queue"
	"github.com/reelrank/reelrank/internal/adapters/mq/worker"
	"github.com/reelrank/reelrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// recordingRefresher captures refreshed item ids and can be told to fail.
type recordingRefresher struct {
	mu      sync.Mutex
	items   []string
	failFor map[string]error
}

func (r *recordingRefresher) RefreshAggregateStats(ctx context.Context, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failFor[itemID]; ok {
		return err
	}
	r.items = append(r.items, itemID)
	return nil
}

func (r *recordingRefresher) refreshed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.items...)
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

func TestWorkerProcessesJobs(t *testing.T) {
	Convey("Given a running worker over a queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		refresher := &recordingRefresher{}
		w := worker.NewWorker(q, refresher, worker.WithName("test-worker"))
		go w.Run(ctx)

		Convey("When jobs are enqueued", func() {
			So(q.Enqueue(ctx, queue.Job{JobID: "j1", ItemID: "item-1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{JobID: "j2", ItemID: "item-2"}), ShouldBeTrue)

			Convey("Then the refresher sees both items", func() {
				So(waitFor(func() bool { return len(refresher.refreshed()) == 2 }), ShouldBeTrue)
				So(refresher.refreshed(), ShouldContain, "item-1")
				So(refresher.refreshed(), ShouldContain, "item-2")
			})
		})

		Convey("When a refresh fails", func() {
			refresher.failFor = map[string]error{"item-bad": errors.New("catalog down")}
			So(q.Enqueue(ctx, queue.Job{JobID: "j1", ItemID: "item-bad"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{JobID: "j2", ItemID: "item-good"}), ShouldBeTrue)

			Convey("Then the worker logs and keeps going", func() {
				So(waitFor(func() bool { return len(refresher.refreshed()) == 1 }), ShouldBeTrue)
				So(refresher.refreshed(), ShouldContain, "item-good")
			})
		})

		Convey("When the worker is shut down", func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Second)
			defer cancelShutdown()
			So(w.Shutdown(shutdownCtx), ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool of workers", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		refresher := &recordingRefresher{}
		pool := worker.NewPool(3, q, refresher)
		pool.Start(ctx)

		Convey("When many jobs are enqueued", func() {
			for i := 0; i < 20; i++ {
				So(q.Enqueue(ctx, queue.Job{JobID: "j", ItemID: "item"}), ShouldBeTrue)
			}

			Convey("Then all of them get processed", func() {
				So(waitFor(func() bool { return len(refresher.refreshed()) == 20 }), ShouldBeTrue)
			})
		})

		Convey("When the pool stops", func() {
			pool.Stop()
		})
	})
}
