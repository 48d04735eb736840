package dedupe_test

import (
	"context"
	"math"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/spdscore/internal/domain/dedupe"
	"github.com/okian/spdscore/internal/domain/model"
)

func TestFingerprintBatch(t *testing.T) {
	Convey("Given batch fingerprints", t, func() {
		rows := []model.Row{
			{"User ID": "a", "Decon Scans": 3.0},
			{"User ID": "b", "Decon Scans": 1.0},
		}
		base, err := dedupe.FingerprintBatch(true, rows)
		So(err, ShouldBeNil)

		Convey("When the same content arrives with keys in another order", func() {
			fp, err := dedupe.FingerprintBatch(true, []model.Row{
				{"Decon Scans": 3.0, "User ID": "a"},
				{"Decon Scans": 1.0, "User ID": "b"},
			})

			Convey("Then the fingerprint should match", func() {
				So(err, ShouldBeNil)
				So(fp, ShouldEqual, base)
				So(len(fp.String()), ShouldEqual, 16)
			})
		})

		Convey("When rows are reordered", func() {
			fp, _ := dedupe.FingerprintBatch(true, []model.Row{rows[1], rows[0]})

			Convey("Then the fingerprint should differ", func() {
				So(fp, ShouldNotEqual, base)
			})
		})

		Convey("When only the hours flag changes", func() {
			fp, _ := dedupe.FingerprintBatch(false, rows)

			Convey("Then the fingerprint should differ", func() {
				So(fp, ShouldNotEqual, base)
			})
		})

		Convey("When a value cannot be encoded", func() {
			_, err := dedupe.FingerprintBatch(false, []model.Row{{"Defect Rate": math.NaN()}})

			Convey("Then an error should be returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new in-memory deduper", t, func() {
		ctx := context.Background()

		Convey("When a batch is recorded for the first time", func() {
			d := dedupe.NewInMemoryDeduper()
			id, seen := d.SeenAndRecord(ctx, 1, "r-1")

			Convey("Then it should be new and keep its report ID", func() {
				So(seen, ShouldBeFalse)
				So(id, ShouldEqual, "r-1")
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then a resubmission should resolve to the first report", func() {
				id, seen := d.SeenAndRecord(ctx, 1, "r-2")
				So(seen, ShouldBeTrue)
				So(id, ShouldEqual, "r-1")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a recorded batch is unrecorded", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, 7, "r-7")
			d.Unrecord(ctx, 7)
			d.Unrecord(ctx, 99)

			Convey("Then it should be accepted again under a new ID", func() {
				So(d.Size(), ShouldEqual, 0)
				id, seen := d.SeenAndRecord(ctx, 7, "r-8")
				So(seen, ShouldBeFalse)
				So(id, ShouldEqual, "r-8")
			})
		})

		Convey("When the bounded deduper is full", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for i := 1; i <= 4; i++ {
				d.SeenAndRecord(ctx, dedupe.Fingerprint(i), "r")
			}

			Convey("Then the oldest fingerprint should be evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				_, seen := d.SeenAndRecord(ctx, 4, "x")
				So(seen, ShouldBeTrue)
				_, seen = d.SeenAndRecord(ctx, 1, "x")
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})
		})

		Convey("When unbounded", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			for i := range 500 {
				d.SeenAndRecord(ctx, dedupe.Fingerprint(i), "r")
			}

			Convey("Then nothing should be evicted", func() {
				So(d.Size(), ShouldEqual, 500)
				_, seen := d.SeenAndRecord(ctx, 0, "r")
				So(seen, ShouldBeTrue)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper shared by many submitters", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const submitters = 10

		Convey("When every submitter sends the same batch", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for range submitters {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, seen := d.SeenAndRecord(context.Background(), 42, "r"); !seen {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one should win", func() {
				So(fresh, ShouldEqual, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}
