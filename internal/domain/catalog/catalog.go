// Package catalog holds the fixed configuration tables of the scoring engine:
// metric definitions, archetype and badge pools, and coaching templates.
//
// Tables are plain values built by Default and handed to the engine. Nothing
// here is a mutable package-level variable.
package catalog

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/okian/spdscore/internal/domain/model"
)

// ErrInvalidCatalog is returned by Validate for incomplete tables.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Format is the display format of a metric.
type Format string

// Display formats.
const (
	FormatNumber Format = "number"
	FormatRate   Format = "rate"
)

// MetricDefinition describes one metric.
type MetricDefinition struct {
	Key          model.MetricKey
	Label        string
	HigherBetter bool
	Format       Format
	Decimals     int
	Helper       string
}

// FormatValue renders v with the metric's precision. Rates render as percentages.
func (d MetricDefinition) FormatValue(v float64) string {
	if d.Format == FormatRate {
		return strconv.FormatFloat(v*100, 'f', d.Decimals, 64) + "%"
	}
	return strconv.FormatFloat(v, 'f', d.Decimals, 64)
}

// ArchetypeEntry is one (label, description) pair of an archetype pool.
type ArchetypeEntry struct {
	Label       string
	Description string
}

// ArchetypePool is the fixed icon plus candidate labels of one category.
type ArchetypePool struct {
	Icon    string
	Entries []ArchetypeEntry
}

// BadgeKind identifies an independently earned badge.
type BadgeKind string

// Badge kinds.
const (
	BadgeQuality     BadgeKind = "quality"
	BadgeSpeed       BadgeKind = "speed"
	BadgeDecon       BadgeKind = "decon"
	BadgeSterilize   BadgeKind = "sterilize"
	BadgeMultiPillar BadgeKind = "multiPillar"
)

// BadgeKinds returns every badge kind in evaluation order.
func BadgeKinds() []BadgeKind {
	return []BadgeKind{BadgeQuality, BadgeSpeed, BadgeDecon, BadgeSterilize, BadgeMultiPillar}
}

// CoachingArea is the coarse area a strength metric belongs to.
type CoachingArea string

// Coaching areas.
const (
	AreaDecon      CoachingArea = "decon"
	AreaAssembly   CoachingArea = "assembly"
	AreaSterilize  CoachingArea = "sterilize"
	AreaQuality    CoachingArea = "quality"
	AreaEfficiency CoachingArea = "efficiency"
	AreaGeneric    CoachingArea = "generic"
)

// Catalog bundles every table the engine reads.
type Catalog struct {
	Metrics           []MetricDefinition
	Archetypes        map[model.Category]ArchetypePool
	Badges            map[BadgeKind][]string
	StrengthTemplates []string
	GrowthTemplates   []string
	MetricAreas       map[model.MetricKey]CoachingArea
	AreaLabels        map[CoachingArea]string
}

// Metric looks up a metric definition by key.
func (c Catalog) Metric(key model.MetricKey) (MetricDefinition, bool) {
	for _, d := range c.Metrics {
		if d.Key == key {
			return d, true
		}
	}
	return MetricDefinition{}, false
}

// Area returns the coaching area of a metric, AreaGeneric when unmapped.
func (c Catalog) Area(key model.MetricKey) CoachingArea {
	if a, ok := c.MetricAreas[key]; ok {
		return a
	}
	return AreaGeneric
}

// AreaLabel returns the display label of an area, falling back to the generic label.
func (c Catalog) AreaLabel(a CoachingArea) string {
	if l, ok := c.AreaLabels[a]; ok {
		return l
	}
	return c.AreaLabels[AreaGeneric]
}

// Validate checks that the metric set is the full fixed set and that every
// pool the engine may pick from is non-empty.
func (c Catalog) Validate() error {
	seen := make(map[model.MetricKey]bool, len(c.Metrics))
	for _, d := range c.Metrics {
		if seen[d.Key] {
			return fmt.Errorf("%w: duplicate metric %q", ErrInvalidCatalog, d.Key)
		}
		seen[d.Key] = true
	}
	for _, k := range MetricKeys() {
		if !seen[k] {
			return fmt.Errorf("%w: missing metric %q", ErrInvalidCatalog, k)
		}
	}
	if len(c.Metrics) != len(MetricKeys()) {
		return fmt.Errorf("%w: unexpected metric count %d", ErrInvalidCatalog, len(c.Metrics))
	}
	for _, cat := range []model.Category{model.CategoryUtility, model.CategoryDecon, model.CategoryAssembly, model.CategorySterilize} {
		if len(c.Archetypes[cat].Entries) == 0 {
			return fmt.Errorf("%w: empty archetype pool %q", ErrInvalidCatalog, cat)
		}
	}
	for _, k := range BadgeKinds() {
		if len(c.Badges[k]) == 0 {
			return fmt.Errorf("%w: empty badge pool %q", ErrInvalidCatalog, k)
		}
	}
	if len(c.StrengthTemplates) == 0 || len(c.GrowthTemplates) == 0 {
		return fmt.Errorf("%w: empty coaching templates", ErrInvalidCatalog)
	}
	if _, ok := c.AreaLabels[AreaGeneric]; !ok {
		return fmt.Errorf("%w: missing generic area label", ErrInvalidCatalog)
	}
	return nil
}

// MetricKeys returns the fixed metric key set in declaration order.
func MetricKeys() []model.MetricKey {
	return []model.MetricKey{
		model.MetricUnitsOfService,
		model.MetricWorkedHoursPerUnit,
		model.MetricDefectRate,
		model.MetricMissingInstrumentRate,
		model.MetricDeconScans,
		model.MetricSinkInstruments,
		model.MetricSinkTrays,
		model.MetricAssembledInstruments,
		model.MetricAssembledTrays,
		model.MetricAssembledPeelPacks,
		model.MetricItemsSterilized,
		model.MetricSterilizerLoads,
	}
}
