package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/domain/types"
	"github.com/okian/spdscore/pkg/metrics"
)

const defaultHistorySize = 16

// Snapshot is an immutable, read-optimized view of one report. Leaderboards
// are sorted once at publish time so reads never sort.
type Snapshot struct {
	Report      model.ProcessedReport
	UserIndex   map[string]int
	Leaderboard map[model.ScoreKind][]types.Entry
	RankIndex   map[model.ScoreKind]map[string]int
}

// ScoreKinds lists the leaderboards built for every report.
func ScoreKinds() []model.ScoreKind {
	return []model.ScoreKind{model.ScoreProductivity, model.ScoreQuality, model.ScoreVersatility}
}

// NewSnapshot precomputes the indexes and leaderboards of r.
func NewSnapshot(r model.ProcessedReport) *Snapshot {
	s := &Snapshot{
		Report:      r,
		UserIndex:   make(map[string]int, len(r.Users)),
		Leaderboard: make(map[model.ScoreKind][]types.Entry, len(ScoreKinds())),
		RankIndex:   make(map[model.ScoreKind]map[string]int, len(ScoreKinds())),
	}
	for i, u := range r.Users {
		if _, dup := s.UserIndex[u.UserID]; !dup {
			s.UserIndex[u.UserID] = i
		}
	}
	for _, kind := range ScoreKinds() {
		entries := make([]types.Entry, 0, len(r.Users))
		for _, u := range r.Users {
			score, _ := u.Scores.Get(kind)
			pct, _ := u.ScorePercentiles.Get(kind)
			entries = append(entries, types.Entry{
				UserID:     u.UserID,
				UserName:   u.UserName,
				Score:      score,
				Percentile: pct,
				Archetype:  u.Archetype.Label,
			})
		}
		sortEntries(entries)
		assignRanksWithTies(entries)

		index := make(map[string]int, len(entries))
		for i, e := range entries {
			if _, dup := index[e.UserID]; !dup {
				index[e.UserID] = i
			}
		}
		s.Leaderboard[kind] = entries
		s.RankIndex[kind] = index
	}
	return s
}

// ReportStore is an in-memory Store. Writes take a mutex; reads of the
// latest report go through an atomic snapshot pointer.
type ReportStore struct {
	mu          sync.Mutex
	history     map[string]*Snapshot
	order       []string // publish order, oldest first
	historySize int

	latest atomic.Pointer[Snapshot]
}

// NewReportStore constructs a report store with configuration options.
func NewReportStore(opts ...Option) *ReportStore {
	s := &ReportStore{
		history:     make(map[string]*Snapshot),
		historySize: defaultHistorySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateRepositoryReports(0)
	return s
}

// Publish implements Store.Publish.
func (s *ReportStore) Publish(ctx context.Context, r model.ProcessedReport) (bool, error) {
	if r.ID == "" {
		metrics.RecordErrorByComponent("repository", "invalid_report")
		return false, fmt.Errorf("%w: empty report id", ErrInvalidReport)
	}

	start := time.Now()
	snap := NewSnapshot(r)
	metrics.RecordRepositorySnapshotBuild(float64(time.Since(start).Milliseconds()))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.history[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.history[r.ID] = snap

	cur := s.latest.Load()
	promoted := cur == nil || r.Seq > cur.Report.Seq || r.ID == cur.Report.ID
	if promoted {
		s.latest.Store(snap)
	}
	s.evict()
	metrics.UpdateRepositoryReports(len(s.history))
	return promoted, nil
}

// evict drops the oldest reports beyond the history size, skipping the
// latest one. Must be called with s.mu held.
func (s *ReportStore) evict() {
	latestID := ""
	if cur := s.latest.Load(); cur != nil {
		latestID = cur.Report.ID
	}
	for len(s.order) > s.historySize {
		victim := 0
		if s.order[0] == latestID {
			victim = 1
		}
		delete(s.history, s.order[victim])
		s.order = append(s.order[:victim], s.order[victim+1:]...)
	}
}

// Snapshot returns the latest snapshot, nil before the first publish.
func (s *ReportStore) Snapshot() *Snapshot {
	return s.latest.Load()
}

func (s *ReportStore) latestSnapshot() (*Snapshot, error) {
	snap := s.latest.Load()
	if snap == nil {
		metrics.RecordErrorByComponent("repository", "no_report")
		return nil, fmt.Errorf("latest report: %w", ErrNotFound)
	}
	return snap, nil
}

// Latest implements Store.Latest.
func (s *ReportStore) Latest(ctx context.Context) (model.ProcessedReport, error) {
	snap, err := s.latestSnapshot()
	if err != nil {
		return model.ProcessedReport{}, err
	}
	return snap.Report, nil
}

// Get implements Store.Get.
func (s *ReportStore) Get(ctx context.Context, id string) (model.ProcessedReport, error) {
	s.mu.Lock()
	snap, ok := s.history[id]
	s.mu.Unlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.ProcessedReport{}, fmt.Errorf("report %q: %w", id, ErrNotFound)
	}
	return snap.Report, nil
}

// User implements Store.User.
func (s *ReportStore) User(ctx context.Context, userID string) (model.UserRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	snap, err := s.latestSnapshot()
	if err != nil {
		return model.UserRecord{}, err
	}
	i, ok := snap.UserIndex[userID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.UserRecord{}, fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	return snap.Report.Users[i], nil
}

// Rank implements Store.Rank.
func (s *ReportStore) Rank(ctx context.Context, score model.ScoreKind, userID string) (types.Entry, error) {
	snap, err := s.latestSnapshot()
	if err != nil {
		return types.Entry{}, err
	}
	index, ok := snap.RankIndex[score]
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: %q", ErrUnknownScore, score)
	}
	i, ok := index[userID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	return snap.Leaderboard[score][i], nil
}

// TopN implements Store.TopN. The returned slice is a copy.
func (s *ReportStore) TopN(ctx context.Context, score model.ScoreKind, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	snap, err := s.latestSnapshot()
	if err != nil {
		return nil, err
	}
	board, ok := snap.Leaderboard[score]
	if !ok {
		metrics.RecordErrorByComponent("repository", "unknown_score")
		return nil, fmt.Errorf("%w: %q", ErrUnknownScore, score)
	}
	metrics.RecordLeaderboardQuery(string(score))
	if n > len(board) {
		n = len(board)
	}
	out := make([]types.Entry, n)
	copy(out, board[:n])
	return out, nil
}

// Count implements Store.Count.
func (s *ReportStore) Count(ctx context.Context) int {
	snap := s.latest.Load()
	if snap == nil {
		return 0
	}
	return len(snap.Report.Users)
}

// Reports implements Store.Reports.
func (s *ReportStore) Reports(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// sortEntries orders entries by score desc, then user ID asc.
func sortEntries(entries []types.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
}

// assignRanksWithTies gives equal scores the same rank. Ranks are
// consecutive: 1, 1, 2 rather than 1, 1, 3.
func assignRanksWithTies(entries []types.Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}
