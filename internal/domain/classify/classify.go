// Package classify assigns archetypes and badges from a person's pillar
// profile and percentiles.
package classify

import (
	"github.com/okian/spdscore/internal/domain/catalog"
	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/domain/seeded"
)

// Policy constants.
const (
	utilityMaxTopShare  = 0.4
	utilityMinPillars   = 2
	badgeMinPercentile  = 90.0
	multiPillarMinCount = 2
	archetypeSeedSuffix = "archetype"
	badgeSeedSuffix     = "badge"
)

// Classifier picks archetype and badge flavor text from catalog pools.
type Classifier struct {
	archetypes map[model.Category]catalog.ArchetypePool
	badges     map[catalog.BadgeKind][]string
}

// New creates a classifier over the catalog's pools.
func New(c catalog.Catalog) *Classifier {
	return &Classifier{
		archetypes: c.Archetypes,
		badges:     c.Badges,
	}
}

// TopShare is the largest pillar's share of the pillar sum, 0 when the sum is 0.
func TopShare(pillars model.PillarValues) float64 {
	sum := pillars.Sum()
	if sum == 0 {
		return 0
	}
	return pillars.Max() / sum
}

// Category applies the archetype rules in priority order:
//  1. spread-out work (top share under 0.4) on at least two above-median
//     pillars is "utility";
//  2. with no pillar volume at all, the pillar with the best percentile wins
//     (decon, assembly, sterilize on ties);
//  3. otherwise the pillar holding the top total wins, assembly checked
//     before sterilize and decon as the fallback.
func Category(u *model.UserRecord) model.Category {
	if TopShare(u.Pillars) < utilityMaxTopShare && u.AboveMedian.Count() >= utilityMinPillars {
		return model.CategoryUtility
	}
	if u.Pillars.Sum() == 0 {
		best := model.PillarDecon
		for _, p := range model.Pillars() {
			if u.PillarPercentiles.Get(p) > u.PillarPercentiles.Get(best) {
				best = p
			}
		}
		return model.Category(best)
	}
	top := u.Pillars.Max()
	switch top {
	case u.Pillars.Assembly:
		return model.CategoryAssembly
	case u.Pillars.Sterilize:
		return model.CategorySterilize
	default:
		return model.CategoryDecon
	}
}

// Archetype classifies u and picks a stable label for it.
func (c *Classifier) Archetype(u *model.UserRecord) model.Archetype {
	cat := Category(u)
	pool := c.archetypes[cat]
	entry := seeded.Pick(pool.Entries, seeded.Key(u.UserID, u.UserName, string(cat), archetypeSeedSuffix))
	return model.Archetype{
		Category:    cat,
		Label:       entry.Label,
		Icon:        pool.Icon,
		Description: entry.Description,
	}
}

// Badges returns one picked title per earned badge, in catalog badge order.
func (c *Classifier) Badges(u *model.UserRecord) []string {
	out := make([]string, 0, len(catalog.BadgeKinds()))
	for _, kind := range catalog.BadgeKinds() {
		if !earned(kind, u) {
			continue
		}
		key := seeded.Key(u.UserID, u.UserName, string(kind), badgeSeedSuffix)
		out = append(out, seeded.Pick(c.badges[kind], key))
	}
	return out
}

func earned(kind catalog.BadgeKind, u *model.UserRecord) bool {
	switch kind {
	case catalog.BadgeQuality:
		return u.MetricPercentiles[model.MetricDefectRate] >= badgeMinPercentile
	case catalog.BadgeSpeed:
		return u.MetricPercentiles[model.MetricAssembledInstruments] >= badgeMinPercentile
	case catalog.BadgeDecon:
		return u.PillarPercentiles.Decon >= badgeMinPercentile
	case catalog.BadgeSterilize:
		return u.PillarPercentiles.Sterilize >= badgeMinPercentile
	case catalog.BadgeMultiPillar:
		return u.AboveMedian.Count() >= multiPillarMinCount
	}
	return false
}
