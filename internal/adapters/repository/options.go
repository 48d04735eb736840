package repository

// Option applies a configuration option to the ReportStore.
type Option func(*ReportStore)

// WithHistorySize bounds how many reports are kept for lookup by ID. The
// latest report is never evicted.
func WithHistorySize(n int) Option {
	return func(s *ReportStore) {
		if n > 0 {
			s.historySize = n
		}
	}
}
