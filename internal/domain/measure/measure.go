// Package measure derives per-person metrics and pillar totals from
// normalized rows.
package measure

import (
	"math"

	"github.com/okian/spdscore/internal/domain/model"
)

// Denominator floors. Every ratio in this package is bounded.
const (
	minRateDenominator = 1.0
	minPillarHours     = 0.25
	sinkInstrumentUnit = 0.5
	minutesPerHour     = 60.0
)

// Measurement is everything derived from one row before peer comparison.
type Measurement struct {
	HoursWorked float64
	Metrics     map[model.MetricKey]float64
	Pillars     model.PillarValues
	PillarRates model.PillarValues
}

// HoursWorked combines timekeeping hours with activity time.
func HoursWorked(r model.RawRow) float64 {
	return r.TimekeepingHours + r.ActivityTimeMinutes/minutesPerHour
}

// Pillars sums each pillar's three component counters.
func Pillars(r model.RawRow) model.PillarValues {
	return model.PillarValues{
		Decon:     r.DeconScans + r.SinkInstruments + r.SinkTrays,
		Assembly:  r.AssembledInstruments + r.AssembledTrays + r.AssembledPeelPacks,
		Sterilize: r.ItemsSterilized + r.SterilizerLoads + r.DeliverScans,
	}
}

// PillarRates divides each pillar total by hours worked, floored at a quarter hour.
func PillarRates(totals model.PillarValues, hoursWorked float64) model.PillarValues {
	h := math.Max(hoursWorked, minPillarHours)
	return model.PillarValues{
		Decon:     totals.Decon / h,
		Assembly:  totals.Assembly / h,
		Sterilize: totals.Sterilize / h,
	}
}

// Metrics computes the full fixed metric set for one row.
func Metrics(r model.RawRow, hoursWorked float64) map[model.MetricKey]float64 {
	units := r.SinkInstruments*sinkInstrumentUnit + r.AssembledInstruments
	return map[model.MetricKey]float64{
		model.MetricUnitsOfService:        units,
		model.MetricWorkedHoursPerUnit:    hoursWorked / math.Max(units, minRateDenominator),
		model.MetricDefectRate:            r.DefectRate,
		model.MetricMissingInstrumentRate: r.AssemblyMissingInstruments / math.Max(r.AssembledInstruments, minRateDenominator),
		model.MetricDeconScans:            r.DeconScans,
		model.MetricSinkInstruments:       r.SinkInstruments,
		model.MetricSinkTrays:             r.SinkTrays,
		model.MetricAssembledInstruments:  r.AssembledInstruments,
		model.MetricAssembledTrays:        r.AssembledTrays,
		model.MetricAssembledPeelPacks:    r.AssembledPeelPacks,
		model.MetricItemsSterilized:       r.ItemsSterilized,
		model.MetricSterilizerLoads:       r.SterilizerLoads,
	}
}

// Measure runs every derivation for one row.
func Measure(r model.RawRow) Measurement {
	hours := HoursWorked(r)
	totals := Pillars(r)
	return Measurement{
		HoursWorked: hours,
		Metrics:     Metrics(r, hours),
		Pillars:     totals,
		PillarRates: PillarRates(totals, hours),
	}
}
