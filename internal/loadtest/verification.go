package loadtest

import (
	"errors"
	"fmt"
	"slices"

	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/domain/types"
)

// ErrMismatch is returned when the leaderboard disagrees with the report.
var ErrMismatch = errors.New("leaderboard mismatch")

// verifyLeaderboard checks a leaderboard against the report it was built
// from: its size, its ordering, dense ranks and every entry's score.
func verifyLeaderboard(report model.ProcessedReport, score model.ScoreKind, entries []types.Entry, topN int) error {
	want := min(topN, len(report.Users))
	if len(entries) != want {
		return fmt.Errorf("%w: %d entries, want %d", ErrMismatch, len(entries), want)
	}

	// A repeated user ID keeps one leaderboard entry per row.
	scores := make(map[string][]float64, len(report.Users))
	for _, u := range report.Users {
		s, ok := u.Scores.Get(score)
		if !ok {
			return fmt.Errorf("%w: unknown score %q", ErrMismatch, score)
		}
		scores[u.UserID] = append(scores[u.UserID], s)
	}

	for i, e := range entries {
		s, ok := scores[e.UserID]
		if !ok {
			return fmt.Errorf("%w: entry %d: user %q not in report", ErrMismatch, i, e.UserID)
		}
		if !slices.Contains(s, e.Score) {
			return fmt.Errorf("%w: entry %d: user %q score %.3f, report has %v", ErrMismatch, i, e.UserID, e.Score, s)
		}
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: first rank is %d", ErrMismatch, e.Rank)
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.Score > prev.Score:
			return fmt.Errorf("%w: entry %d has higher score than entry %d", ErrMismatch, i, i-1)
		case e.Score == prev.Score && e.UserID < prev.UserID:
			return fmt.Errorf("%w: tie at entry %d not ordered by user id", ErrMismatch, i)
		case e.Score == prev.Score && e.Rank != prev.Rank:
			return fmt.Errorf("%w: tied entries %d and %d have ranks %d and %d", ErrMismatch, i-1, i, prev.Rank, e.Rank)
		case e.Score < prev.Score && e.Rank != prev.Rank+1:
			return fmt.Errorf("%w: entry %d rank %d does not follow %d", ErrMismatch, i, e.Rank, prev.Rank)
		}
	}
	return nil
}
