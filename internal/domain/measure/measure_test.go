package measure_test

import (
	"math"
	"testing"

	"github.com/okian/spdscore/internal/domain/catalog"
	"github.com/okian/spdscore/internal/domain/measure"
	"github.com/okian/spdscore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMeasure(t *testing.T) {
	Convey("Given a normalized row", t, func() {
		row := model.RawRow{
			UserID:                     "u-1",
			TimekeepingHours:           7,
			ActivityTimeMinutes:        90,
			DefectRate:                 0.03,
			DeconScans:                 10,
			SinkInstruments:            40,
			SinkTrays:                  5,
			AssembledInstruments:       100,
			AssembledTrays:             8,
			AssembledPeelPacks:         12,
			AssemblyMissingInstruments: 2,
			ItemsSterilized:            60,
			SterilizerLoads:            4,
			DeliverScans:               6,
		}
		m := measure.Measure(row)

		Convey("Then hours worked should add activity time", func() {
			So(m.HoursWorked, ShouldEqual, 8.5)
		})

		Convey("Then pillar totals should be the exact component sums", func() {
			So(m.Pillars.Decon, ShouldEqual, 55.0)
			So(m.Pillars.Assembly, ShouldEqual, 120.0)
			So(m.Pillars.Sterilize, ShouldEqual, 70.0)
		})

		Convey("Then derived metrics should follow their formulas", func() {
			So(m.Metrics[model.MetricUnitsOfService], ShouldEqual, 120.0)
			So(m.Metrics[model.MetricWorkedHoursPerUnit], ShouldAlmostEqual, 8.5/120, 1e-12)
			So(m.Metrics[model.MetricMissingInstrumentRate], ShouldEqual, 0.02)
			So(m.Metrics[model.MetricDefectRate], ShouldEqual, 0.03)
			So(m.Metrics[model.MetricSterilizerLoads], ShouldEqual, 4.0)
		})

		Convey("Then pillar rates should divide by hours", func() {
			So(m.PillarRates.Assembly, ShouldAlmostEqual, 120/8.5, 1e-12)
		})

		Convey("Then every metric key should be present", func() {
			So(len(m.Metrics), ShouldEqual, len(catalog.MetricKeys()))
			for _, k := range catalog.MetricKeys() {
				_, ok := m.Metrics[k]
				So(ok, ShouldBeTrue)
			}
		})
	})

	Convey("Given a row with missing instruments but nothing assembled", t, func() {
		m := measure.Measure(model.RawRow{AssemblyMissingInstruments: 3})

		Convey("Then the missing rate should use a floor of one", func() {
			So(m.Metrics[model.MetricMissingInstrumentRate], ShouldEqual, 3.0)
		})
	})

	Convey("Given an all-zero row", t, func() {
		m := measure.Measure(model.RawRow{})

		Convey("Then every value should be finite and zero", func() {
			for _, v := range m.Metrics {
				So(math.IsNaN(v) || math.IsInf(v, 0), ShouldBeFalse)
				So(v, ShouldEqual, 0.0)
			}
			So(m.PillarRates, ShouldResemble, model.PillarValues{})
		})
	})

	Convey("Given near-zero hours", t, func() {
		rates := measure.PillarRates(model.PillarValues{Decon: 10}, 0.01)

		Convey("Then the quarter-hour floor should apply", func() {
			So(rates.Decon, ShouldEqual, 40.0)
		})
	})
}
