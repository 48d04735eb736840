package catalog

import "github.com/okian/spdscore/internal/domain/model"

// Default returns a freshly built copy of the standard tables.
func Default() Catalog {
	return Catalog{
		Metrics:           defaultMetrics(),
		Archetypes:        defaultArchetypes(),
		Badges:            defaultBadges(),
		StrengthTemplates: defaultStrengthTemplates(),
		GrowthTemplates:   defaultGrowthTemplates(),
		MetricAreas:       defaultMetricAreas(),
		AreaLabels:        defaultAreaLabels(),
	}
}

func defaultMetrics() []MetricDefinition {
	return []MetricDefinition{
		{Key: model.MetricUnitsOfService, Label: "Units of Service", HigherBetter: true, Format: FormatNumber, Decimals: 1,
			Helper: "Half credit per sink instrument plus full credit per assembled instrument"},
		{Key: model.MetricWorkedHoursPerUnit, Label: "Worked Hours per Unit", HigherBetter: false, Format: FormatNumber, Decimals: 3,
			Helper: "Hours worked divided by units of service"},
		{Key: model.MetricDefectRate, Label: "Defect Rate", HigherBetter: false, Format: FormatRate, Decimals: 2},
		{Key: model.MetricMissingInstrumentRate, Label: "Missing Instrument Rate", HigherBetter: false, Format: FormatRate, Decimals: 2,
			Helper: "Missing instruments per assembled instrument"},
		{Key: model.MetricDeconScans, Label: "Decon Scans", HigherBetter: true, Format: FormatNumber},
		{Key: model.MetricSinkInstruments, Label: "Sink Instruments", HigherBetter: true, Format: FormatNumber},
		{Key: model.MetricSinkTrays, Label: "Sink Trays", HigherBetter: true, Format: FormatNumber},
		{Key: model.MetricAssembledInstruments, Label: "Assembled Instruments", HigherBetter: true, Format: FormatNumber},
		{Key: model.MetricAssembledTrays, Label: "Assembled Trays", HigherBetter: true, Format: FormatNumber},
		{Key: model.MetricAssembledPeelPacks, Label: "Assembled Peel Packs", HigherBetter: true, Format: FormatNumber},
		{Key: model.MetricItemsSterilized, Label: "Items Sterilized", HigherBetter: true, Format: FormatNumber},
		{Key: model.MetricSterilizerLoads, Label: "Sterilizer Loads", HigherBetter: true, Format: FormatNumber},
	}
}

func defaultArchetypes() map[model.Category]ArchetypePool {
	return map[model.Category]ArchetypePool{
		model.CategoryUtility: {
			Icon: "🧰",
			Entries: []ArchetypeEntry{
				{Label: "Utility Player", Description: "Moves wherever the floor needs help and keeps every pillar covered."},
				{Label: "Swiss Army Tech", Description: "Equally at home at the sink, the assembly bench and the sterilizer."},
				{Label: "Floor Anchor", Description: "Spreads effort across the whole department instead of one station."},
			},
		},
		model.CategoryDecon: {
			Icon: "🧽",
			Entries: []ArchetypeEntry{
				{Label: "Decon Dynamo", Description: "Keeps the dirty side moving and the sinks clear."},
				{Label: "Sink Sentinel", Description: "Owns decontamination volume shift after shift."},
				{Label: "Bioburden Buster", Description: "First line of defense; most work lands in decon."},
			},
		},
		model.CategoryAssembly: {
			Icon: "🧩",
			Entries: []ArchetypeEntry{
				{Label: "Tray Architect", Description: "Builds the sets the ORs depend on."},
				{Label: "Set Builder", Description: "Most work lands on the assembly bench."},
				{Label: "Count Sheet Master", Description: "Turns clean instruments into complete trays."},
			},
		},
		model.CategorySterilize: {
			Icon: "🔥",
			Entries: []ArchetypeEntry{
				{Label: "Load Commander", Description: "Keeps sterilizers running and loads flowing out."},
				{Label: "Cycle Keeper", Description: "Most work lands on the sterile side."},
				{Label: "Sterile Shield", Description: "Gets finished sets sterilized and delivered."},
			},
		},
	}
}

func defaultBadges() map[BadgeKind][]string {
	return map[BadgeKind][]string{
		BadgeQuality:     {"Zero-Defect Hero", "Quality Guardian", "Clean Sheet"},
		BadgeSpeed:       {"Speed Assembler", "Instrument Sprinter", "Fast Hands"},
		BadgeDecon:       {"Decon Champion", "Sink Star"},
		BadgeSterilize:   {"Sterilizer Ace", "Load Leader"},
		BadgeMultiPillar: {"Multi-Pillar Pro", "Cross-Trained", "All-Rounder"},
	}
}

func defaultStrengthTemplates() []string {
	return []string{
		"Your {metric} leads the team, making you a go-to for {pillar}.",
		"Strong {metric} shows real command of {pillar}.",
		"Peers look to you for {pillar}; your {metric} sets the pace.",
	}
}

func defaultGrowthTemplates() []string {
	return []string{
		"Next step: bring your {metric} closer to the team median.",
		"An opportunity to grow is {metric}; small daily gains add up.",
		"Focus on {metric} this period to round out your profile.",
	}
}

func defaultMetricAreas() map[model.MetricKey]CoachingArea {
	return map[model.MetricKey]CoachingArea{
		model.MetricUnitsOfService:        AreaEfficiency,
		model.MetricWorkedHoursPerUnit:    AreaEfficiency,
		model.MetricDefectRate:            AreaQuality,
		model.MetricMissingInstrumentRate: AreaQuality,
		model.MetricDeconScans:            AreaDecon,
		model.MetricSinkInstruments:       AreaDecon,
		model.MetricSinkTrays:             AreaDecon,
		model.MetricAssembledInstruments:  AreaAssembly,
		model.MetricAssembledTrays:        AreaAssembly,
		model.MetricAssembledPeelPacks:    AreaAssembly,
		model.MetricItemsSterilized:       AreaSterilize,
		model.MetricSterilizerLoads:       AreaSterilize,
	}
}

func defaultAreaLabels() map[CoachingArea]string {
	return map[CoachingArea]string{
		AreaDecon:      "decontamination",
		AreaAssembly:   "assembly",
		AreaSterilize:  "sterilization",
		AreaQuality:    "quality",
		AreaEfficiency: "efficiency",
		AreaGeneric:    "core workflow",
	}
}
