// Package normalize coerces loosely typed input rows into model.RawRow.
package normalize

import (
	"math"
	"strings"

	"github.com/okian/spdscore/internal/domain/model"
	"github.com/spf13/cast"
)

// Input column names, as produced by the ingestion collaborator.
const (
	ColUserID                     = "User ID"
	ColUserName                   = "User Name"
	ColHoursWorked                = "Hours Worked"
	ColNumOfEvents                = "NumofEvents"
	ColDefectRate                 = "Defect Rate"
	ColDeconScans                 = "Decon Scans"
	ColSinkInstruments            = "Sink Inst"
	ColSinkTrays                  = "Sink Trays"
	ColAssembledTrays             = "Assembled Trays"
	ColAssembledPeelPacks         = "Assembled Packs"
	ColAssembledInstruments       = "Assembled Inst"
	ColAssemblyMissingInstruments = "Assembly Missing Inst"
	ColSterilizerLoads            = "Sterilizer Loads"
	ColItemsSterilized            = "Items Sterilized"
	ColDeliverScans               = "Deliver Scans"
	ColActivityCount              = "Activity Count"
	ColActivityTimeMinutes        = "Activity Time (Mins)"
)

// Columns returns every recognized column name.
func Columns() []string {
	return []string{
		ColUserID, ColUserName, ColHoursWorked, ColNumOfEvents, ColDefectRate,
		ColDeconScans, ColSinkInstruments, ColSinkTrays, ColAssembledTrays,
		ColAssembledPeelPacks, ColAssembledInstruments, ColAssemblyMissingInstruments,
		ColSterilizerLoads, ColItemsSterilized, ColDeliverScans, ColActivityCount,
		ColActivityTimeMinutes,
	}
}

// Row converts one input row. It never fails: missing or unparsable numbers
// become 0, non-finite numbers become 0 and negatives are clamped to 0.
func Row(r model.Row) model.RawRow {
	return model.RawRow{
		UserID:                     text(r[ColUserID]),
		UserName:                   text(r[ColUserName]),
		TimekeepingHours:           number(r[ColHoursWorked]),
		ActivityTimeMinutes:        number(r[ColActivityTimeMinutes]),
		DefectRate:                 number(r[ColDefectRate]),
		NumOfEvents:                number(r[ColNumOfEvents]),
		DeconScans:                 number(r[ColDeconScans]),
		SinkInstruments:            number(r[ColSinkInstruments]),
		SinkTrays:                  number(r[ColSinkTrays]),
		AssembledTrays:             number(r[ColAssembledTrays]),
		AssembledPeelPacks:         number(r[ColAssembledPeelPacks]),
		AssembledInstruments:       number(r[ColAssembledInstruments]),
		AssemblyMissingInstruments: number(r[ColAssemblyMissingInstruments]),
		SterilizerLoads:            number(r[ColSterilizerLoads]),
		ItemsSterilized:            number(r[ColItemsSterilized]),
		DeliverScans:               number(r[ColDeliverScans]),
		ActivityCount:              number(r[ColActivityCount]),
	}
}

// Rows converts a batch, preserving order.
func Rows(rows []model.Row) []model.RawRow {
	out := make([]model.RawRow, len(rows))
	for i, r := range rows {
		out[i] = Row(r)
	}
	return out
}

func number(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

func text(v any) string {
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
