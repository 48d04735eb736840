// Package coaching writes the short strength and growth summary attached to
// every person in a report.
package coaching

import (
	"strings"

	"github.com/okian/spdscore/internal/domain/catalog"
	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/domain/seeded"
)

const (
	strengthSeedSuffix = "strength"
	growthSeedSuffix   = "growth"

	metricPlaceholder = "{metric}"
	pillarPlaceholder = "{pillar}"
)

// Narrator picks coaching templates and fills them from a person's percentiles.
type Narrator struct {
	cat catalog.Catalog
}

// New creates a narrator over the catalog's metric and template tables.
func New(c catalog.Catalog) *Narrator {
	return &Narrator{cat: c}
}

// Extremes returns the metrics with the highest and lowest oriented
// percentile. Ties go to the metric declared first in the catalog.
func (n *Narrator) Extremes(percentiles map[model.MetricKey]float64) (strength, opportunity model.MetricKey) {
	for i, d := range n.cat.Metrics {
		p := percentiles[d.Key]
		if i == 0 {
			strength, opportunity = d.Key, d.Key
			continue
		}
		if p > percentiles[strength] {
			strength = d.Key
		}
		if p < percentiles[opportunity] {
			opportunity = d.Key
		}
	}
	return strength, opportunity
}

// Coach builds the coaching block of u from its metric percentiles.
func (n *Narrator) Coach(u *model.UserRecord) model.Coaching {
	strength, opportunity := n.Extremes(u.MetricPercentiles)
	pillar := n.cat.AreaLabel(n.cat.Area(strength))

	strengthTpl := seeded.Pick(n.cat.StrengthTemplates, seeded.Key(u.UserID, u.UserName, strengthSeedSuffix))
	growthTpl := seeded.Pick(n.cat.GrowthTemplates, seeded.Key(u.UserID, u.UserName, growthSeedSuffix))

	strengthText := strings.NewReplacer(
		metricPlaceholder, n.label(strength),
		pillarPlaceholder, pillar,
	).Replace(strengthTpl)
	growthText := strings.NewReplacer(
		metricPlaceholder, n.label(opportunity),
		pillarPlaceholder, n.cat.AreaLabel(n.cat.Area(opportunity)),
	).Replace(growthTpl)

	return model.Coaching{
		StrengthMetric:    strength,
		OpportunityMetric: opportunity,
		Summary:           strengthText + " " + growthText,
	}
}

func (n *Narrator) label(key model.MetricKey) string {
	if d, ok := n.cat.Metric(key); ok {
		return strings.ToLower(d.Label)
	}
	return string(key)
}
