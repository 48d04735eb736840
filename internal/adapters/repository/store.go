// Package repository holds published reports and serves reads from
// precomputed snapshots.
package repository

import (
	"context"

	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/domain/types"
)

// Store provides read/write access to published reports.
type Store interface {
	// Publish stores r. It becomes the latest report only when no report
	// with a higher sequence number was published before; the returned bool
	// reports whether that happened.
	Publish(ctx context.Context, r model.ProcessedReport) (bool, error)

	// Latest returns the most recent report, ErrNotFound before the first publish.
	Latest(ctx context.Context) (model.ProcessedReport, error)

	// Get returns a report from the history by ID.
	Get(ctx context.Context, id string) (model.ProcessedReport, error)

	// User returns one person's record from the latest report.
	User(ctx context.Context, userID string) (model.UserRecord, error)

	// Rank returns one person's leaderboard entry for a score in the latest report.
	Rank(ctx context.Context, score model.ScoreKind, userID string) (types.Entry, error)

	// TopN returns the first n leaderboard entries for a score, ordered by
	// score desc then user ID asc.
	TopN(ctx context.Context, score model.ScoreKind, n int) ([]types.Entry, error)

	// Count returns the number of people in the latest report.
	Count(ctx context.Context) int

	// Reports returns the number of reports held in the history.
	Reports(ctx context.Context) int
}
