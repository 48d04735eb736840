// Package model contains domain models passed between layers.
package model

import "time"

// Pillar is one of the three work categories whose counters are summed into
// a pillar total.
type Pillar string

// Pillars in their fixed declaration order. The order is used for tie-breaks.
const (
	PillarDecon     Pillar = "decon"
	PillarAssembly  Pillar = "assembly"
	PillarSterilize Pillar = "sterilize"
)

// Pillars returns every pillar in declaration order.
func Pillars() [3]Pillar {
	return [3]Pillar{PillarDecon, PillarAssembly, PillarSterilize}
}

// MetricKey identifies one of the fixed per-person metrics.
type MetricKey string

// Metric keys. The display order lives in the catalog.
const (
	MetricUnitsOfService        MetricKey = "unitsOfService"
	MetricWorkedHoursPerUnit    MetricKey = "workedHoursPerUnit"
	MetricDefectRate            MetricKey = "defectRate"
	MetricMissingInstrumentRate MetricKey = "missingInstrumentRate"
	MetricDeconScans            MetricKey = "deconScans"
	MetricSinkInstruments       MetricKey = "sinkInstruments"
	MetricSinkTrays             MetricKey = "sinkTrays"
	MetricAssembledInstruments  MetricKey = "assembledInstruments"
	MetricAssembledTrays        MetricKey = "assembledTrays"
	MetricAssembledPeelPacks    MetricKey = "assembledPeelPacks"
	MetricItemsSterilized       MetricKey = "itemsSterilized"
	MetricSterilizerLoads       MetricKey = "sterilizerLoads"
)

// RawRow is one person's normalized counts for a reporting period.
// Every numeric field is finite and non-negative.
type RawRow struct {
	UserID                     string
	UserName                   string
	TimekeepingHours           float64
	ActivityTimeMinutes        float64
	DefectRate                 float64
	NumOfEvents                float64
	DeconScans                 float64
	SinkInstruments            float64
	SinkTrays                  float64
	AssembledTrays             float64
	AssembledPeelPacks         float64
	AssembledInstruments       float64
	AssemblyMissingInstruments float64
	SterilizerLoads            float64
	ItemsSterilized            float64
	DeliverScans               float64
	ActivityCount              float64
}

// PillarValues holds one number per pillar. The struct shape guarantees all
// three pillars are always present.
type PillarValues struct {
	Decon     float64 `json:"decon" yaml:"decon"`
	Assembly  float64 `json:"assembly" yaml:"assembly"`
	Sterilize float64 `json:"sterilize" yaml:"sterilize"`
}

// Get returns the value for p. Unknown pillars read as 0.
func (v PillarValues) Get(p Pillar) float64 {
	switch p {
	case PillarDecon:
		return v.Decon
	case PillarAssembly:
		return v.Assembly
	case PillarSterilize:
		return v.Sterilize
	}
	return 0
}

// With returns a copy of v with p set to x.
func (v PillarValues) With(p Pillar, x float64) PillarValues {
	switch p {
	case PillarDecon:
		v.Decon = x
	case PillarAssembly:
		v.Assembly = x
	case PillarSterilize:
		v.Sterilize = x
	}
	return v
}

// Sum returns the total across all pillars.
func (v PillarValues) Sum() float64 {
	return v.Decon + v.Assembly + v.Sterilize
}

// Max returns the largest pillar value.
func (v PillarValues) Max() float64 {
	m := v.Decon
	if v.Assembly > m {
		m = v.Assembly
	}
	if v.Sterilize > m {
		m = v.Sterilize
	}
	return m
}

// PillarFlags marks, per pillar, whether a person is at or above the cohort median.
type PillarFlags struct {
	Decon     bool `json:"decon" yaml:"decon"`
	Assembly  bool `json:"assembly" yaml:"assembly"`
	Sterilize bool `json:"sterilize" yaml:"sterilize"`
}

// With returns a copy of f with p set to b.
func (f PillarFlags) With(p Pillar, b bool) PillarFlags {
	switch p {
	case PillarDecon:
		f.Decon = b
	case PillarAssembly:
		f.Assembly = b
	case PillarSterilize:
		f.Sterilize = b
	}
	return f
}

// Count returns how many pillars are flagged.
func (f PillarFlags) Count() int {
	n := 0
	for _, b := range [3]bool{f.Decon, f.Assembly, f.Sterilize} {
		if b {
			n++
		}
	}
	return n
}

// CompositeScores are the three derived scores, each in [0,100].
type CompositeScores struct {
	Productivity float64 `json:"productivity" yaml:"productivity"`
	Quality      float64 `json:"quality" yaml:"quality"`
	Versatility  float64 `json:"versatility" yaml:"versatility"`
}

// ScoreKind names one of the composite scores.
type ScoreKind string

// Composite score kinds.
const (
	ScoreProductivity ScoreKind = "productivity"
	ScoreQuality      ScoreKind = "quality"
	ScoreVersatility  ScoreKind = "versatility"
)

// Get returns the score of the given kind and whether the kind is known.
func (s CompositeScores) Get(k ScoreKind) (float64, bool) {
	switch k {
	case ScoreProductivity:
		return s.Productivity, true
	case ScoreQuality:
		return s.Quality, true
	case ScoreVersatility:
		return s.Versatility, true
	}
	return 0, false
}

// Category is an archetype category: a pillar or "utility".
type Category string

// Archetype categories.
const (
	CategoryUtility   Category = "utility"
	CategoryDecon     Category = Category(PillarDecon)
	CategoryAssembly  Category = Category(PillarAssembly)
	CategorySterilize Category = Category(PillarSterilize)
)

// Archetype is the flavor label describing a person's dominant work pattern.
type Archetype struct {
	Category    Category `json:"category" yaml:"category"`
	Label       string   `json:"label" yaml:"label"`
	Icon        string   `json:"icon" yaml:"icon"`
	Description string   `json:"description" yaml:"description"`
}

// Coaching is the templated strength/growth narrative for one person.
type Coaching struct {
	StrengthMetric    MetricKey `json:"strength_metric" yaml:"strength_metric"`
	OpportunityMetric MetricKey `json:"opportunity_metric" yaml:"opportunity_metric"`
	Summary           string    `json:"summary" yaml:"summary"`
}

// UserRecord is one person's full computed profile. It is never mutated
// after the engine returns it.
type UserRecord struct {
	UserID                string                `json:"user_id" yaml:"user_id"`
	UserName              string                `json:"user_name" yaml:"user_name"`
	HoursWorked           float64               `json:"hours_worked" yaml:"hours_worked"`
	Metrics               map[MetricKey]float64 `json:"metrics" yaml:"metrics"`
	MetricPercentiles     map[MetricKey]float64 `json:"metric_percentiles" yaml:"metric_percentiles"`
	Pillars               PillarValues          `json:"pillars" yaml:"pillars"`
	PillarPercentiles     PillarValues          `json:"pillar_percentiles" yaml:"pillar_percentiles"`
	PillarRates           PillarValues          `json:"pillar_rates" yaml:"pillar_rates"`
	PillarRatePercentiles PillarValues          `json:"pillar_rate_percentiles" yaml:"pillar_rate_percentiles"`
	Scores                CompositeScores       `json:"scores" yaml:"scores"`
	ScorePercentiles      CompositeScores       `json:"score_percentiles" yaml:"score_percentiles"`
	AboveMedian           PillarFlags           `json:"above_median" yaml:"above_median"`
	Archetype             Archetype             `json:"archetype" yaml:"archetype"`
	Badges                []string              `json:"badges" yaml:"badges"`
	Coaching              Coaching              `json:"coaching" yaml:"coaching"`
}

// ProcessedReport is the cohort's full output for one batch.
type ProcessedReport struct {
	ID                   string                `json:"id" yaml:"id"`
	Seq                  uint64                `json:"seq" yaml:"seq"`
	CreatedAt            time.Time             `json:"created_at" yaml:"created_at"`
	HoursWorkedAvailable bool                  `json:"hours_worked_available" yaml:"hours_worked_available"`
	Users                []UserRecord          `json:"users" yaml:"users"`
	MetricMedians        map[MetricKey]float64 `json:"metric_medians" yaml:"metric_medians"`
	PillarMedians        PillarValues          `json:"pillar_medians" yaml:"pillar_medians"`
}
