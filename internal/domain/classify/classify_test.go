package classify_test

import (
	"testing"

	"github.com/okian/spdscore/internal/domain/catalog"
	"github.com/okian/spdscore/internal/domain/classify"
	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/domain/seeded"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCategory(t *testing.T) {
	Convey("Given the archetype rules", t, func() {
		Convey("When work is spread out and two pillars are above median", func() {
			u := &model.UserRecord{
				Pillars:     model.PillarValues{Decon: 35, Assembly: 35, Sterilize: 30},
				AboveMedian: model.PillarFlags{Decon: true, Assembly: true},
			}

			Convey("Then the category should be utility", func() {
				So(classify.TopShare(u.Pillars), ShouldAlmostEqual, 0.35, 1e-12)
				So(classify.Category(u), ShouldEqual, model.CategoryUtility)
			})
		})

		Convey("When the top share is exactly 0.4 and two pillars are above median", func() {
			u := &model.UserRecord{
				Pillars:     model.PillarValues{Decon: 40, Assembly: 30, Sterilize: 30},
				AboveMedian: model.PillarFlags{Decon: true, Assembly: true},
			}

			Convey("Then it should not be utility because the share must be under 0.4", func() {
				So(classify.TopShare(u.Pillars), ShouldEqual, 0.4)
				So(classify.Category(u), ShouldEqual, model.CategoryDecon)
			})
		})

		Convey("When work is spread out but only one pillar is above median", func() {
			u := &model.UserRecord{
				Pillars:     model.PillarValues{Decon: 30, Assembly: 35, Sterilize: 35},
				AboveMedian: model.PillarFlags{Decon: true},
			}

			Convey("Then the top pillar rule should apply with assembly checked first", func() {
				So(classify.Category(u), ShouldEqual, model.CategoryAssembly)
			})
		})

		Convey("When sterilize holds the top total", func() {
			u := &model.UserRecord{Pillars: model.PillarValues{Decon: 10, Assembly: 5, Sterilize: 80}}

			Convey("Then the category should be sterilize", func() {
				So(classify.Category(u), ShouldEqual, model.CategorySterilize)
			})
		})

		Convey("When decon ties assembly at the top", func() {
			u := &model.UserRecord{Pillars: model.PillarValues{Decon: 50, Assembly: 50, Sterilize: 1}}

			Convey("Then assembly should win because it is checked first", func() {
				So(classify.Category(u), ShouldEqual, model.CategoryAssembly)
			})
		})

		Convey("When decon ties sterilize at the top", func() {
			u := &model.UserRecord{Pillars: model.PillarValues{Decon: 50, Assembly: 1, Sterilize: 50}}

			Convey("Then sterilize should win over the decon fallback", func() {
				So(classify.Category(u), ShouldEqual, model.CategorySterilize)
			})
		})

		Convey("When decon alone holds the top total", func() {
			u := &model.UserRecord{Pillars: model.PillarValues{Decon: 90, Assembly: 1, Sterilize: 2}}

			Convey("Then decon should be the fallback", func() {
				So(classify.Category(u), ShouldEqual, model.CategoryDecon)
			})
		})

		Convey("When there is no pillar volume", func() {
			Convey("And fewer than two pillars are above median", func() {
				u := &model.UserRecord{
					PillarPercentiles: model.PillarValues{Decon: 20, Assembly: 40, Sterilize: 40},
					AboveMedian:       model.PillarFlags{Sterilize: true},
				}

				Convey("Then the best pillar percentile should win, earlier pillars on ties", func() {
					So(classify.Category(u), ShouldEqual, model.CategoryAssembly)
				})
			})

			Convey("And every percentile is equal", func() {
				u := &model.UserRecord{PillarPercentiles: model.PillarValues{Decon: 50, Assembly: 50, Sterilize: 50}}

				Convey("Then decon should win", func() {
					So(classify.Category(u), ShouldEqual, model.CategoryDecon)
				})
			})

			Convey("And two pillars are above median", func() {
				u := &model.UserRecord{AboveMedian: model.PillarFlags{Decon: true, Assembly: true, Sterilize: true}}

				Convey("Then the utility rule should take priority", func() {
					So(classify.TopShare(u.Pillars), ShouldEqual, 0.0)
					So(classify.Category(u), ShouldEqual, model.CategoryUtility)
				})
			})
		})
	})
}

func TestArchetype(t *testing.T) {
	Convey("Given a classifier over the default catalog", t, func() {
		cat := catalog.Default()
		c := classify.New(cat)
		u := &model.UserRecord{
			UserID:   "u-7",
			UserName: "Sam",
			Pillars:  model.PillarValues{Decon: 5, Assembly: 50, Sterilize: 5},
		}

		Convey("When classifying", func() {
			a := c.Archetype(u)

			Convey("Then the label should come from the category pool at the seeded index", func() {
				pool := cat.Archetypes[model.CategoryAssembly]
				idx := seeded.Index(seeded.Key("u-7", "Sam", "assembly", "archetype"), len(pool.Entries))
				So(a.Category, ShouldEqual, model.CategoryAssembly)
				So(a.Icon, ShouldEqual, pool.Icon)
				So(a.Label, ShouldEqual, pool.Entries[idx].Label)
				So(a.Description, ShouldEqual, pool.Entries[idx].Description)
			})

			Convey("Then classifying again should give the same archetype", func() {
				So(c.Archetype(u), ShouldResemble, a)
			})
		})

		Convey("When the pool for the category is empty", func() {
			cat.Archetypes[model.CategoryAssembly] = catalog.ArchetypePool{}
			broken := classify.New(cat)

			Convey("Then classification should panic", func() {
				So(func() { broken.Archetype(u) }, ShouldPanic)
			})
		})
	})
}

func TestBadges(t *testing.T) {
	Convey("Given a classifier over the default catalog", t, func() {
		cat := catalog.Default()
		c := classify.New(cat)

		Convey("When a person clears every threshold", func() {
			u := &model.UserRecord{
				UserID:   "u-1",
				UserName: "Alex",
				MetricPercentiles: map[model.MetricKey]float64{
					model.MetricDefectRate:           95,
					model.MetricAssembledInstruments: 90,
				},
				PillarPercentiles: model.PillarValues{Decon: 92, Sterilize: 99},
				AboveMedian:       model.PillarFlags{Decon: true, Sterilize: true},
			}
			badges := c.Badges(u)

			Convey("Then one badge per kind should be earned in order", func() {
				So(len(badges), ShouldEqual, 5)
				So(cat.Badges[catalog.BadgeQuality], ShouldContain, badges[0])
				So(cat.Badges[catalog.BadgeSpeed], ShouldContain, badges[1])
				So(cat.Badges[catalog.BadgeDecon], ShouldContain, badges[2])
				So(cat.Badges[catalog.BadgeSterilize], ShouldContain, badges[3])
				So(cat.Badges[catalog.BadgeMultiPillar], ShouldContain, badges[4])
			})

			Convey("Then each badge should be picked with its own seed", func() {
				pool := cat.Badges[catalog.BadgeSpeed]
				idx := seeded.Index(seeded.Key("u-1", "Alex", "speed", "badge"), len(pool))
				So(badges[1], ShouldEqual, pool[idx])
			})
		})

		Convey("When a person is just under every threshold", func() {
			u := &model.UserRecord{
				MetricPercentiles: map[model.MetricKey]float64{
					model.MetricDefectRate:           89.9,
					model.MetricAssembledInstruments: 10,
				},
				PillarPercentiles: model.PillarValues{Decon: 89.99, Sterilize: 0},
				AboveMedian:       model.PillarFlags{Assembly: true},
			}

			Convey("Then no badge should be earned and the list should be empty, not nil", func() {
				badges := c.Badges(u)
				So(badges, ShouldNotBeNil)
				So(badges, ShouldBeEmpty)
			})
		})
	})
}
