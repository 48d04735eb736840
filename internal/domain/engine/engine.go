// Package engine turns one batch of activity rows into a processed report.
//
// The stages run strictly in order because each one needs the fully
// materialized output of the previous one for the whole cohort:
//
//	normalize -> measure -> cohort distributions -> percentiles and composite
//	scores -> composite percentiles -> archetypes, badges and coaching
//
// Inside a stage every person is independent, so the per-person work is
// spread over a bounded errgroup and written back by index.
package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/spdscore/internal/domain/catalog"
	"github.com/okian/spdscore/internal/domain/classify"
	"github.com/okian/spdscore/internal/domain/coaching"
	"github.com/okian/spdscore/internal/domain/measure"
	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/domain/normalize"
	"github.com/okian/spdscore/internal/domain/percentile"
	"github.com/okian/spdscore/internal/domain/scoring"
	"github.com/okian/spdscore/pkg/logger"
)

// pillars are always ranked higher-is-better.
const pillarsHigherBetter = true

// Engine builds processed reports. It holds only immutable tables and is
// safe for concurrent use.
type Engine struct {
	cat         catalog.Catalog
	classifier  *classify.Classifier
	narrator    *coaching.Narrator
	parallelism int
	log         logger.Logger
	now         func() time.Time
}

// New creates an engine. It refuses a catalog that fails validation.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		cat:         catalog.Default(),
		parallelism: defaultParallelism,
		log:         logger.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cat.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.classifier = classify.New(e.cat)
	e.narrator = coaching.New(e.cat)
	return e, nil
}

// Catalog returns the tables the engine was built with.
func (e *Engine) Catalog() catalog.Catalog {
	return e.cat
}

// cohort holds the distributions every person is ranked against.
type cohort struct {
	metrics     map[model.MetricKey]percentile.Distribution
	pillars     [3]percentile.Distribution
	pillarRates [3]percentile.Distribution
}

// Build runs the whole pipeline over b. The only error is cancellation of ctx.
func (e *Engine) Build(ctx context.Context, b model.Batch) (model.ProcessedReport, error) {
	start := e.now()
	report := model.ProcessedReport{
		ID:                   b.ID,
		Seq:                  b.Seq,
		CreatedAt:            start,
		HoursWorkedAvailable: b.HoursWorkedAvailable,
		Users:                []model.UserRecord{},
		MetricMedians:        make(map[model.MetricKey]float64, len(e.cat.Metrics)),
	}

	rows := normalize.Rows(b.Rows)
	n := len(rows)

	measurements := make([]measure.Measurement, n)
	if err := e.forEach(ctx, n, func(i int) {
		measurements[i] = measure.Measure(rows[i])
	}); err != nil {
		return model.ProcessedReport{}, fmt.Errorf("measure batch %s: %w", b.ID, err)
	}

	c := e.cohortOf(measurements)
	for _, d := range e.cat.Metrics {
		report.MetricMedians[d.Key] = c.metrics[d.Key].Median()
	}
	for i, p := range model.Pillars() {
		report.PillarMedians = report.PillarMedians.With(p, c.pillars[i].Median())
	}

	composer := scoring.NewComposer(scoring.WithHoursWorkedAvailable(b.HoursWorkedAvailable))
	users := make([]model.UserRecord, n)
	if err := e.forEach(ctx, n, func(i int) {
		users[i] = e.rank(rows[i], measurements[i], c, report.PillarMedians, composer)
	}); err != nil {
		return model.ProcessedReport{}, fmt.Errorf("rank batch %s: %w", b.ID, err)
	}

	scores := make([]model.CompositeScores, n)
	for i := range users {
		scores[i] = users[i].Scores
	}
	ranked := scoring.RankScores(scores)

	if err := e.forEach(ctx, n, func(i int) {
		u := &users[i]
		u.ScorePercentiles = ranked[i]
		u.Archetype = e.classifier.Archetype(u)
		u.Badges = e.classifier.Badges(u)
		u.Coaching = e.narrator.Coach(u)
	}); err != nil {
		return model.ProcessedReport{}, fmt.Errorf("classify batch %s: %w", b.ID, err)
	}

	if n > 0 {
		report.Users = users
	}
	e.log.Debug(ctx, "report built",
		logger.String("report_id", b.ID),
		logger.Uint64("seq", b.Seq),
		logger.Int("users", n),
		logger.Duration("took", e.now().Sub(start)),
	)
	return report, nil
}

func (e *Engine) cohortOf(ms []measure.Measurement) cohort {
	metricValues := make(map[model.MetricKey][]float64, len(e.cat.Metrics))
	var pillarValues, rateValues [3][]float64
	for _, m := range ms {
		for _, d := range e.cat.Metrics {
			metricValues[d.Key] = append(metricValues[d.Key], m.Metrics[d.Key])
		}
		for i, p := range model.Pillars() {
			pillarValues[i] = append(pillarValues[i], m.Pillars.Get(p))
			rateValues[i] = append(rateValues[i], m.PillarRates.Get(p))
		}
	}

	c := cohort{metrics: make(map[model.MetricKey]percentile.Distribution, len(e.cat.Metrics))}
	for _, d := range e.cat.Metrics {
		c.metrics[d.Key] = percentile.NewDistribution(metricValues[d.Key])
	}
	for i := range model.Pillars() {
		c.pillars[i] = percentile.NewDistribution(pillarValues[i])
		c.pillarRates[i] = percentile.NewDistribution(rateValues[i])
	}
	return c
}

// rank is the first percentile pass for one person plus the composite scores
// that depend on it.
func (e *Engine) rank(r model.RawRow, m measure.Measurement, c cohort, medians model.PillarValues, composer *scoring.Composer) model.UserRecord {
	u := model.UserRecord{
		UserID:            r.UserID,
		UserName:          r.UserName,
		HoursWorked:       m.HoursWorked,
		Metrics:           m.Metrics,
		MetricPercentiles: make(map[model.MetricKey]float64, len(e.cat.Metrics)),
		Pillars:           m.Pillars,
		PillarRates:       m.PillarRates,
	}
	for _, d := range e.cat.Metrics {
		u.MetricPercentiles[d.Key] = c.metrics[d.Key].Percentile(m.Metrics[d.Key], d.HigherBetter)
	}
	for i, p := range model.Pillars() {
		total := m.Pillars.Get(p)
		u.PillarPercentiles = u.PillarPercentiles.With(p, c.pillars[i].Percentile(total, pillarsHigherBetter))
		u.PillarRatePercentiles = u.PillarRatePercentiles.With(p, c.pillarRates[i].Percentile(m.PillarRates.Get(p), pillarsHigherBetter))
		u.AboveMedian = u.AboveMedian.With(p, covers(total, medians.Get(p)))
	}
	u.Scores = composer.Compose(scoring.Input{
		PillarPercentiles:               u.PillarPercentiles,
		PillarRatePercentiles:           u.PillarRatePercentiles,
		DefectRatePercentile:            u.MetricPercentiles[model.MetricDefectRate],
		MissingInstrumentRatePercentile: u.MetricPercentiles[model.MetricMissingInstrumentRate],
		AboveMedian:                     u.AboveMedian,
	})
	return u
}

// covers reports whether a pillar total is at or above the cohort median.
// A pillar with no activity never counts, even against a zero median.
func covers(total, median float64) bool {
	return total > 0 && total >= median
}

func (e *Engine) forEach(ctx context.Context, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
