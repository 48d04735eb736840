// Package loadtest drives a running scoring service over HTTP: it submits
// synthetic cohorts, waits for the newest report and checks the leaderboard
// against it.
package loadtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/spdscore/internal/domain/model"
)

// Defaults for a run.
const (
	DefaultBatches      = 10
	DefaultPeople       = 50
	DefaultWorkers      = 4
	DefaultTopN         = 10
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 50 * time.Millisecond
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid load test config")

// Config holds configuration for a load test run.
type Config struct {
	BaseURL      string          // Base URL of the service
	Batches      int             // Number of distinct batches to submit
	Duplicates   int             // Number of batches resubmitted after the first pass
	People       int             // People per batch
	Seed         uint64          // Seed of the first batch; batch i uses Seed+i
	Messy        bool            // Emit string, negative and missing values
	Workers      int             // Concurrent submitters
	Score        model.ScoreKind // Leaderboard checked at the end
	TopN         int             // Leaderboard size requested
	Timeout      time.Duration   // Per-request timeout and the wait for the final report
	PollInterval time.Duration   // Delay between report polls
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.Batches == 0 {
		c.Batches = DefaultBatches
	}
	if c.People == 0 {
		c.People = DefaultPeople
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.TopN == 0 {
		c.TopN = DefaultTopN
	}
	if c.Score == "" {
		c.Score = model.ScoreProductivity
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.Batches < 1:
		return fmt.Errorf("%w: batches must be positive", ErrInvalidConfig)
	case c.Duplicates < 0 || c.Duplicates > c.Batches:
		return fmt.Errorf("%w: duplicates must be within [0, batches]", ErrInvalidConfig)
	case c.People < 1:
		return fmt.Errorf("%w: people must be positive", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.TopN < 1:
		return fmt.Errorf("%w: top must be positive", ErrInvalidConfig)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Submitted          int           `json:"submitted" yaml:"submitted"`
	Accepted           int           `json:"accepted" yaml:"accepted"`
	Duplicate          int           `json:"duplicate" yaml:"duplicate"`
	Rejected           int           `json:"rejected" yaml:"rejected"`
	Failed             int           `json:"failed" yaml:"failed"`
	LatestReportID     string        `json:"latest_report_id" yaml:"latest_report_id"`
	LatestSeq          uint64        `json:"latest_seq" yaml:"latest_seq"`
	LeaderboardEntries int           `json:"leaderboard_entries" yaml:"leaderboard_entries"`
	StartTime          time.Time     `json:"start_time" yaml:"start_time"`
	EndTime            time.Time     `json:"end_time" yaml:"end_time"`
	Duration           time.Duration `json:"duration" yaml:"duration"`
}
