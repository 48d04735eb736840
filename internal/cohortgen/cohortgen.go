// Package cohortgen produces synthetic, reproducible SPD cohorts.
package cohortgen

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/domain/normalize"
)

// lean is the area a synthetic person spends most of their shift in.
type lean int

const (
	leanDecon lean = iota
	leanAssembly
	leanSterilize
	leanFloat
)

var (
	firstNames = []string{"Ana", "Ben", "Chioma", "Dev", "Elena", "Farid", "Grace", "Hiro", "Ines", "Jamal", "Kira", "Luis", "Mei", "Noah", "Olu", "Priya"}
	lastNames  = []string{"Adams", "Baker", "Chen", "Diaz", "Evans", "Fofana", "Garcia", "Haddad", "Ito", "Jones", "Kowalski", "Lopez", "Mensah", "Nguyen", "Okafor", "Patel"}
)

// Option configures a Generator.
type Option func(*Generator)

// WithMessyValues makes some values strings, negatives or missing, the way
// hand-edited exports look.
func WithMessyValues(on bool) Option {
	return func(g *Generator) { g.messy = on }
}

// Generator draws rows from a seeded source. The same seed and options
// always produce the same rows.
type Generator struct {
	rng   *rand.Rand
	messy bool
}

// New creates a generator for seed.
func New(seed uint64, opts ...Option) *Generator {
	g := &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x5bd1e995))}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Rows returns n rows keyed by the ingestion column names.
func (g *Generator) Rows(n int) []model.Row {
	rows := make([]model.Row, 0, max(n, 0))
	for i := range n {
		rows = append(rows, g.row(i))
	}
	return rows
}

func (g *Generator) row(i int) model.Row {
	l := lean(g.rng.IntN(4))
	w := weights(l)
	hours := 24 + float64(g.rng.IntN(33))*0.5

	r := model.Row{
		normalize.ColUserID:   fmt.Sprintf("U%04d", i+1),
		normalize.ColUserName: firstNames[g.rng.IntN(len(firstNames))] + " " + lastNames[g.rng.IntN(len(lastNames))],
	}
	g.set(r, normalize.ColHoursWorked, hours)
	g.set(r, normalize.ColNumOfEvents, float64(20+g.rng.IntN(180)))
	g.set(r, normalize.ColDefectRate, round(g.rng.Float64()*0.05, 4))

	g.set(r, normalize.ColDeconScans, g.count(400, w[0]))
	g.set(r, normalize.ColSinkInstruments, g.count(900, w[0]))
	g.set(r, normalize.ColSinkTrays, g.count(60, w[0]))

	assembledInst := g.count(1500, w[1])
	g.set(r, normalize.ColAssembledTrays, g.count(80, w[1]))
	g.set(r, normalize.ColAssembledPeelPacks, g.count(120, w[1]))
	g.set(r, normalize.ColAssembledInstruments, assembledInst)
	g.set(r, normalize.ColAssemblyMissingInstruments, math.Floor(assembledInst*g.rng.Float64()*0.01))

	g.set(r, normalize.ColSterilizerLoads, g.count(40, w[2]))
	g.set(r, normalize.ColItemsSterilized, g.count(700, w[2]))

	g.set(r, normalize.ColDeliverScans, float64(g.rng.IntN(50)))
	g.set(r, normalize.ColActivityCount, float64(50+g.rng.IntN(300)))
	g.set(r, normalize.ColActivityTimeMinutes, math.Round(hours*60*(0.6+0.35*g.rng.Float64())))
	return r
}

// weights returns the share of effort per pillar for a lean.
func weights(l lean) [3]float64 {
	switch l {
	case leanDecon:
		return [3]float64{1, 0.15, 0.1}
	case leanAssembly:
		return [3]float64{0.1, 1, 0.15}
	case leanSterilize:
		return [3]float64{0.1, 0.2, 1}
	}
	return [3]float64{0.6, 0.6, 0.6}
}

// count draws a whole number around scale*weight.
func (g *Generator) count(scale, weight float64) float64 {
	if weight < 0.2 && g.rng.IntN(3) == 0 {
		return 0
	}
	return math.Floor(scale * weight * (0.5 + g.rng.Float64()))
}

// set stores v under col, sometimes mangled when messy values are on.
func (g *Generator) set(r model.Row, col string, v float64) {
	if !g.messy {
		r[col] = v
		return
	}
	switch p := g.rng.IntN(100); {
	case p < 3:
		// column left out
	case p < 6:
		r[col] = -v
	case p < 16:
		r[col] = strconv.FormatFloat(v, 'f', -1, 64)
	case p < 18:
		r[col] = ""
	default:
		r[col] = v
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
