package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func batch(id string) Batch {
	return Batch{ID: id}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))
		ctx := context.Background()

		Convey("When it is empty", func() {
			Convey("Then it should report zero length and its capacity", func() {
				So(q.Len(), ShouldEqual, 0)
				So(q.Capacity(), ShouldEqual, 2)
				So(q.IsClosed(), ShouldBeFalse)
			})
		})

		Convey("When a batch is enqueued and dequeued", func() {
			So(q.Enqueue(ctx, batch("r-1")), ShouldBeNil)
			So(q.Len(), ShouldEqual, 1)

			dctx, cancel := context.WithCancel(ctx)
			defer cancel()
			got := <-q.Dequeue(dctx)

			Convey("Then the same batch should come out", func() {
				So(got.ID, ShouldEqual, "r-1")
				So(q.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the queue is full", func() {
			So(q.Enqueue(ctx, batch("a")), ShouldBeNil)
			So(q.Enqueue(ctx, batch("b")), ShouldBeNil)
			err := q.Enqueue(ctx, batch("c"))

			Convey("Then the next enqueue should report it", func() {
				So(errors.Is(err, ErrFull), ShouldBeTrue)
				So(q.Len(), ShouldEqual, 2)
			})
		})

		Convey("When the caller context is already done", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then enqueue should return the context error", func() {
				So(errors.Is(q.Enqueue(cctx, batch("x")), context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When the queue is closed with a batch still queued", func() {
			So(q.Enqueue(ctx, batch("left")), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue should fail and the queue should drain then close", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(errors.Is(q.Enqueue(ctx, batch("late")), ErrClosed), ShouldBeTrue)
				So(q.Close(), ShouldBeNil)

				ch := q.Dequeue(ctx)
				b, ok := <-ch
				So(ok, ShouldBeTrue)
				So(b.ID, ShouldEqual, "left")
				drained := false
				select {
				case _, ok := <-ch:
					drained = !ok
				case <-time.After(time.Second):
				}
				So(drained, ShouldBeTrue)
			})
		})
	})
}

func TestInMemoryQueueConcurrent(t *testing.T) {
	Convey("Given producers and consumers sharing a queue", t, func() {
		q := NewInMemoryQueue(WithCapacity(8))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		const producers, perProducer = 4, 25

		var mu sync.Mutex
		seen := map[string]bool{}
		var consumers sync.WaitGroup
		for range 3 {
			consumers.Add(1)
			go func() {
				defer consumers.Done()
				for b := range q.Dequeue(ctx) {
					mu.Lock()
					seen[b.ID] = true
					mu.Unlock()
				}
			}()
		}

		Convey("When every producer retries on a full queue", func() {
			var wg sync.WaitGroup
			for p := range producers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := range perProducer {
						for errors.Is(q.Enqueue(ctx, batch(fmt.Sprintf("%d-%d", p, i))), ErrFull) {
							time.Sleep(time.Millisecond)
						}
					}
				}()
			}
			wg.Wait()
			So(q.Close(), ShouldBeNil)
			consumers.Wait()

			Convey("Then every batch should be consumed exactly once", func() {
				So(len(seen), ShouldEqual, producers*perProducer)
				So(q.Len(), ShouldEqual, 0)
			})
		})
	})
}
