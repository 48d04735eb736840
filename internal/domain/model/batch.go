package model

// Row is one input row keyed by the ingestion column names
// ("User ID", "Decon Scans", ...). Values may be of any type.
type Row = map[string]any

// Batch is one ingestion batch submitted for scoring.
type Batch struct {
	ID                   string // report id assigned on submission
	Seq                  uint64 // submission order; newer batches replace older reports
	HoursWorkedAvailable bool   // cohort-wide switch for the productivity formula
	Rows                 []Row
}
