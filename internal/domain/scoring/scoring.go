// Package scoring combines percentiles into the composite Productivity,
// Quality and Versatility scores and ranks those scores within the cohort.
package scoring

import (
	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/domain/percentile"
)

// Policy constants.
const (
	defectRateWeight   = 0.7
	missingRateWeight  = 0.3
	pillarCount        = 3
	maxScoreValue      = 100
	scoresHigherBetter = true
)

// Option applies a configuration option to the Composer.
type Option func(*Composer)

// WithHoursWorkedAvailable selects the rate-based productivity formula. The
// flag is cohort-wide: every person in one report uses the same branch.
func WithHoursWorkedAvailable(available bool) Option {
	return func(c *Composer) {
		c.hoursWorkedAvailable = available
	}
}

// Input carries the first-pass percentiles a person's scores are built from.
type Input struct {
	PillarPercentiles               model.PillarValues
	PillarRatePercentiles           model.PillarValues
	DefectRatePercentile            float64
	MissingInstrumentRatePercentile float64
	AboveMedian                     model.PillarFlags
}

// Composer derives composite scores.
type Composer struct {
	hoursWorkedAvailable bool
}

// NewComposer creates a composer. Without options it uses the raw-volume
// productivity fallback.
func NewComposer(opts ...Option) *Composer {
	c := &Composer{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HoursWorkedAvailable reports which productivity branch is active.
func (c *Composer) HoursWorkedAvailable() bool {
	return c.hoursWorkedAvailable
}

// Compose computes one person's composite scores.
func (c *Composer) Compose(in Input) model.CompositeScores {
	pillars := in.PillarPercentiles
	if c.hoursWorkedAvailable {
		pillars = in.PillarRatePercentiles
	}
	return model.CompositeScores{
		Productivity: Productivity(pillars),
		Quality:      Quality(in.DefectRatePercentile, in.MissingInstrumentRatePercentile),
		Versatility:  Versatility(in.AboveMedian),
	}
}

// Productivity averages three pillar percentiles.
func Productivity(pillarPercentiles model.PillarValues) float64 {
	return pillarPercentiles.Sum() / pillarCount
}

// Quality weights the defect-rate percentile over the missing-instrument
// percentile. Both inputs are already oriented so higher is better.
func Quality(defectRatePercentile, missingRatePercentile float64) float64 {
	return defectRateWeight*defectRatePercentile + missingRateWeight*missingRatePercentile
}

// Versatility rewards breadth: the share of pillars at or above the cohort
// median, scaled to 100.
func Versatility(aboveMedian model.PillarFlags) float64 {
	return float64(aboveMedian.Count()) / pillarCount * maxScoreValue
}

// RankScores is the second percentile pass: each composite score is ranked
// against the whole cohort's scores of the same kind. It must only be called
// once every person's scores are known.
func RankScores(scores []model.CompositeScores) []model.CompositeScores {
	prod := make([]float64, len(scores))
	qual := make([]float64, len(scores))
	vers := make([]float64, len(scores))
	for i, s := range scores {
		prod[i] = s.Productivity
		qual[i] = s.Quality
		vers[i] = s.Versatility
	}
	prodDist := percentile.NewDistribution(prod)
	qualDist := percentile.NewDistribution(qual)
	versDist := percentile.NewDistribution(vers)

	out := make([]model.CompositeScores, len(scores))
	for i, s := range scores {
		out[i] = model.CompositeScores{
			Productivity: prodDist.Percentile(s.Productivity, scoresHigherBetter),
			Quality:      qualDist.Percentile(s.Quality, scoresHigherBetter),
			Versatility:  versDist.Percentile(s.Versatility, scoresHigherBetter),
		}
	}
	return out
}
