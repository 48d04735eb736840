package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/spdscore/internal/domain/catalog"
	"github.com/okian/spdscore/internal/domain/engine"
	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/domain/normalize"
)

var fixedNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newEngine(opts ...engine.Option) *engine.Engine {
	opts = append([]engine.Option{engine.WithClock(func() time.Time { return fixedNow })}, opts...)
	e, err := engine.New(opts...)
	So(err, ShouldBeNil)
	return e
}

func cohortRows(n int) []model.Row {
	rows := make([]model.Row, n)
	for i := range n {
		rows[i] = model.Row{
			normalize.ColUserID:                     fmt.Sprintf("u-%02d", i),
			normalize.ColUserName:                   fmt.Sprintf("Tech %d", i),
			normalize.ColHoursWorked:                float64(20 + i%7),
			normalize.ColActivityTimeMinutes:        float64(30 * (i % 3)),
			normalize.ColDefectRate:                 float64(i%5) / 100,
			normalize.ColDeconScans:                 float64((i * 37) % 120),
			normalize.ColSinkInstruments:            float64((i * 53) % 400),
			normalize.ColSinkTrays:                  float64((i * 11) % 30),
			normalize.ColAssembledInstruments:       float64((i * 71) % 900),
			normalize.ColAssembledTrays:             float64((i * 13) % 60),
			normalize.ColAssembledPeelPacks:         float64((i * 17) % 80),
			normalize.ColAssemblyMissingInstruments: float64(i % 4),
			normalize.ColItemsSterilized:            float64((i * 29) % 500),
			normalize.ColSterilizerLoads:            float64((i * 3) % 25),
			normalize.ColDeliverScans:               float64((i * 7) % 40),
		}
	}
	return rows
}

func TestNew(t *testing.T) {
	Convey("Given engine construction", t, func() {
		Convey("When the catalog is valid", func() {
			e, err := engine.New()

			Convey("Then the engine should use the default tables", func() {
				So(err, ShouldBeNil)
				So(len(e.Catalog().Metrics), ShouldEqual, 12)
			})
		})

		Convey("When the catalog has an empty badge pool", func() {
			cat := catalog.Default()
			cat.Badges[catalog.BadgeSpeed] = nil
			_, err := engine.New(engine.WithCatalog(cat))

			Convey("Then construction should be refused", func() {
				So(errors.Is(err, catalog.ErrInvalidCatalog), ShouldBeTrue)
			})
		})
	})
}

func TestBuildEmpty(t *testing.T) {
	Convey("Given an empty batch", t, func() {
		e := newEngine()

		Convey("When building", func() {
			r, err := e.Build(context.Background(), model.Batch{ID: "empty", Seq: 4})

			Convey("Then the report should be empty with zero medians", func() {
				So(err, ShouldBeNil)
				So(r.ID, ShouldEqual, "empty")
				So(r.Seq, ShouldEqual, uint64(4))
				So(r.CreatedAt.Equal(fixedNow), ShouldBeTrue)
				So(r.Users, ShouldNotBeNil)
				So(r.Users, ShouldBeEmpty)
				So(len(r.MetricMedians), ShouldEqual, 12)
				for _, v := range r.MetricMedians {
					So(v, ShouldEqual, 0.0)
				}
				So(r.PillarMedians, ShouldResemble, model.PillarValues{})
			})
		})
	})
}

func TestBuildScenarios(t *testing.T) {
	Convey("Given the engine", t, func() {
		e := newEngine()
		ctx := context.Background()

		Convey("When one person has no activity and no hours", func() {
			r, err := e.Build(ctx, model.Batch{ID: "solo", Rows: []model.Row{{normalize.ColUserID: "z"}}})
			So(err, ShouldBeNil)
			u := r.Users[0]

			Convey("Then every value should be finite and versatility zero", func() {
				So(u.HoursWorked, ShouldEqual, 0.0)
				So(u.Metrics[model.MetricWorkedHoursPerUnit], ShouldEqual, 0.0)
				So(u.PillarRates, ShouldResemble, model.PillarValues{})
				So(u.AboveMedian.Count(), ShouldEqual, 0)
				So(u.Scores.Versatility, ShouldEqual, 0.0)
			})

			// A cohort of one ties with itself, so every percentile sits at the
			// mid-rank 50 rather than 0.
			Convey("Then every percentile should be the mid-rank 50, not 0", func() {
				So(u.MetricPercentiles, ShouldHaveLength, 12)
				for _, p := range u.MetricPercentiles {
					So(p, ShouldEqual, 50.0)
				}
				So(u.PillarPercentiles, ShouldResemble, model.PillarValues{Decon: 50, Assembly: 50, Sterilize: 50})
				So(u.PillarRatePercentiles, ShouldResemble, model.PillarValues{Decon: 50, Assembly: 50, Sterilize: 50})
				So(u.ScorePercentiles, ShouldResemble, model.CompositeScores{Productivity: 50, Quality: 50, Versatility: 50})
			})

			Convey("Then an archetype and coaching should still be assigned", func() {
				So(u.Archetype.Label, ShouldNotBeBlank)
				So(u.Coaching.Summary, ShouldNotBeBlank)
				So(u.Badges, ShouldBeEmpty)
			})
		})

		Convey("When two people differ only in decon scans", func() {
			r, err := e.Build(ctx, model.Batch{Rows: []model.Row{
				{normalize.ColUserID: "A", normalize.ColDeconScans: 10, normalize.ColHoursWorked: 10},
				{normalize.ColUserID: "B", normalize.ColHoursWorked: 10},
			}})
			So(err, ShouldBeNil)

			Convey("Then the decon median should split them", func() {
				So(r.PillarMedians.Decon, ShouldEqual, 5.0)
				So(r.Users[0].AboveMedian.Decon, ShouldBeTrue)
				So(r.Users[1].AboveMedian.Decon, ShouldBeFalse)
				So(r.Users[0].PillarPercentiles.Decon, ShouldEqual, 75.0)
				So(r.Users[1].PillarPercentiles.Decon, ShouldEqual, 25.0)
			})
		})

		Convey("When volume and hours disagree", func() {
			rows := []model.Row{
				{normalize.ColUserID: "fast", normalize.ColDeconScans: 10, normalize.ColHoursWorked: 1},
				{normalize.ColUserID: "busy", normalize.ColDeconScans: 20, normalize.ColHoursWorked: 10},
			}

			Convey("And hours are not available", func() {
				r, err := e.Build(ctx, model.Batch{Rows: rows})
				So(err, ShouldBeNil)

				Convey("Then productivity should average the total percentiles", func() {
					for _, u := range r.Users {
						So(u.Scores.Productivity, ShouldAlmostEqual, u.PillarPercentiles.Sum()/3, 1e-9)
					}
					So(r.Users[0].Scores.Productivity, ShouldAlmostEqual, 125.0/3, 1e-9)
				})
			})

			Convey("And hours are available", func() {
				r, err := e.Build(ctx, model.Batch{HoursWorkedAvailable: true, Rows: rows})
				So(err, ShouldBeNil)

				Convey("Then productivity should average the rate percentiles", func() {
					So(r.HoursWorkedAvailable, ShouldBeTrue)
					for _, u := range r.Users {
						So(u.Scores.Productivity, ShouldAlmostEqual, u.PillarRatePercentiles.Sum()/3, 1e-9)
					}
					So(r.Users[0].Scores.Productivity, ShouldAlmostEqual, 175.0/3, 1e-9)
				})
			})
		})

		Convey("When a person reports missing instruments without assembling any", func() {
			r, err := e.Build(ctx, model.Batch{Rows: []model.Row{
				{normalize.ColUserID: "m", normalize.ColAssemblyMissingInstruments: 3},
			}})
			So(err, ShouldBeNil)

			Convey("Then the missing rate should be floored on its denominator", func() {
				So(r.Users[0].Metrics[model.MetricMissingInstrumentRate], ShouldEqual, 3.0)
			})
		})
	})
}

func TestBuildProperties(t *testing.T) {
	Convey("Given a realistic cohort", t, func() {
		e := newEngine(engine.WithParallelism(3))
		batch := model.Batch{ID: "r-1", Seq: 1, HoursWorkedAvailable: true, Rows: cohortRows(40)}

		r, err := e.Build(context.Background(), batch)
		So(err, ShouldBeNil)

		Convey("Then users should keep input order", func() {
			So(len(r.Users), ShouldEqual, 40)
			for i, u := range r.Users {
				So(u.UserID, ShouldEqual, fmt.Sprintf("u-%02d", i))
			}
		})

		Convey("Then every percentile should be within bounds", func() {
			for _, u := range r.Users {
				for _, p := range u.MetricPercentiles {
					So(p, ShouldBeBetweenOrEqual, 0.0, 100.0)
				}
				for _, p := range model.Pillars() {
					So(u.PillarPercentiles.Get(p), ShouldBeBetweenOrEqual, 0.0, 100.0)
					So(u.PillarRatePercentiles.Get(p), ShouldBeBetweenOrEqual, 0.0, 100.0)
				}
				for _, k := range []model.ScoreKind{model.ScoreProductivity, model.ScoreQuality, model.ScoreVersatility} {
					v, _ := u.ScorePercentiles.Get(k)
					So(v, ShouldBeBetweenOrEqual, 0.0, 100.0)
				}
			}
		})

		Convey("Then pillar totals should be the exact counter sums", func() {
			for i, u := range r.Users {
				row := batch.Rows[i]
				So(u.Pillars.Decon, ShouldEqual, row[normalize.ColDeconScans].(float64)+row[normalize.ColSinkInstruments].(float64)+row[normalize.ColSinkTrays].(float64))
				So(u.Pillars.Assembly, ShouldEqual, row[normalize.ColAssembledInstruments].(float64)+row[normalize.ColAssembledTrays].(float64)+row[normalize.ColAssembledPeelPacks].(float64))
				So(u.Pillars.Sterilize, ShouldEqual, row[normalize.ColItemsSterilized].(float64)+row[normalize.ColSterilizerLoads].(float64)+row[normalize.ColDeliverScans].(float64))
			}
		})

		Convey("Then versatility should only take the four breadth values", func() {
			for _, u := range r.Users {
				So(u.Scores.Versatility, ShouldAlmostEqual, float64(u.AboveMedian.Count())/3*100, 1e-9)
			}
		})

		Convey("Then a lower defect rate should never rank below a higher one", func() {
			for _, a := range r.Users {
				for _, b := range r.Users {
					if a.Metrics[model.MetricDefectRate] < b.Metrics[model.MetricDefectRate] {
						So(a.MetricPercentiles[model.MetricDefectRate], ShouldBeGreaterThanOrEqualTo, b.MetricPercentiles[model.MetricDefectRate])
					}
				}
			}
		})

		Convey("Then a rebuild with different parallelism should be identical", func() {
			again, err := newEngine(engine.WithParallelism(1)).Build(context.Background(), batch)
			So(err, ShouldBeNil)
			So(cmp.Diff(r, again), ShouldBeEmpty)
		})
	})
}

func TestBuildCancelled(t *testing.T) {
	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("When building a non-empty batch", func() {
			_, err := newEngine().Build(ctx, model.Batch{ID: "late", Rows: cohortRows(5)})

			Convey("Then the cancellation should be returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
