// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/okian/spdscore/internal/adapters/mq/queue"
	"github.com/okian/spdscore/internal/adapters/mq/worker"
	"github.com/okian/spdscore/internal/adapters/repository"
	"github.com/okian/spdscore/internal/domain/catalog"
	"github.com/okian/spdscore/internal/domain/dedupe"
	"github.com/okian/spdscore/internal/domain/engine"
	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/domain/types"
	"github.com/okian/spdscore/pkg/logger"
	"github.com/okian/spdscore/pkg/metrics"
)

// ErrNotStarted is returned by Enqueue before Start or after Stop.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   *repository.ReportStore
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	engine  *engine.Engine
	pool    *worker.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	historySize int
	parallelism int
	catalog     catalog.Catalog

	// State
	started bool
	seq     atomic.Uint64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of report-building workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending batches.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the number of batch fingerprints remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithHistorySize sets the number of reports retrievable by ID.
func WithHistorySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.historySize = size
		}
	}
}

// WithEngineParallelism bounds per-person fan-out inside one build.
func WithEngineParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithCatalog replaces the built-in metric and flavor catalog.
func WithCatalog(c catalog.Catalog) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration. Reads work
// immediately and report ErrNotFound until the first report is published.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   64,
		dedupeSize:  10_000,
		historySize: 32,
		parallelism: runtime.NumCPU(),
		catalog:     catalog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.store = repository.NewReportStore(repository.WithHistorySize(s.historySize))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start builds the engine and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting scoring service...")

	eng, err := engine.New(
		engine.WithCatalog(s.catalog),
		engine.WithParallelism(s.parallelism),
		engine.WithLogger(s.logger.Named("engine")),
	)
	if err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	s.engine = eng
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.engine, s.store, worker.WithLogger(s.logger))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("history_size", s.historySize),
	)
	return nil
}

// Stop closes the queue, lets workers finish queued batches and waits for
// them. Published reports stay readable.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring service...")
	s.started = false

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
		return fmt.Errorf("stop service: %w", err)
	}
	s.logger.Info(ctx, "scoring service stopped")
	return nil
}

// NewBatch assigns a fresh report ID and the next sequence number.
func (s *Service) NewBatch(hoursWorkedAvailable bool, rows []model.Row) model.Batch {
	return model.Batch{
		ID:                   uuid.NewString(),
		Seq:                  s.seq.Add(1),
		HoursWorkedAvailable: hoursWorkedAvailable,
		Rows:                 rows,
	}
}

// Enqueue submits a batch for asynchronous scoring.
func (s *Service) Enqueue(ctx context.Context, b model.Batch) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return fmt.Errorf("%w: %w", ErrNotStarted, queue.ErrClosed)
	}
	if err := s.queue.Enqueue(ctx, b); err != nil {
		s.logger.Warn(ctx, "batch rejected",
			logger.String("report_id", b.ID),
			logger.Error(err),
		)
		if errors.Is(err, queue.ErrFull) {
			metrics.RecordBatchRejected("backpressure")
		}
		return err
	}
	metrics.RecordBatchRows(len(b.Rows))
	s.logger.Debug(ctx, "batch enqueued",
		logger.String("report_id", b.ID),
		logger.Uint64("seq", b.Seq),
		logger.Int("rows", len(b.Rows)),
	)
	return nil
}

// SeenAndRecord records fp for reportID unless an identical batch was
// accepted before, in which case it returns the first report ID.
func (s *Service) SeenAndRecord(ctx context.Context, fp dedupe.Fingerprint, reportID string) (string, bool) {
	first, seen := s.deduper.SeenAndRecord(ctx, fp, reportID)
	if seen {
		metrics.RecordBatchDuplicate()
		s.logger.Debug(ctx, "duplicate batch",
			logger.String("fingerprint", fp.String()),
			logger.String("report_id", first),
		)
	}
	return first, seen
}

// Unrecord forgets fp so the batch can be submitted again.
func (s *Service) Unrecord(ctx context.Context, fp dedupe.Fingerprint) {
	s.deduper.Unrecord(ctx, fp)
}

// Size returns the current number of fingerprints in the deduper.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// Latest returns the most recently submitted report that finished scoring.
func (s *Service) Latest(ctx context.Context) (model.ProcessedReport, error) {
	return s.store.Latest(ctx)
}

// Report returns a report from the history by ID.
func (s *Service) Report(ctx context.Context, id string) (model.ProcessedReport, error) {
	return s.store.Get(ctx, id)
}

// User returns one person's record from the latest report.
func (s *Service) User(ctx context.Context, userID string) (model.UserRecord, error) {
	return s.store.User(ctx, userID)
}

// TopN returns the top n leaderboard entries for a score.
func (s *Service) TopN(ctx context.Context, score model.ScoreKind, n int) ([]types.Entry, error) {
	return s.store.TopN(ctx, score, n)
}

// Rank returns one person's leaderboard entry for a score.
func (s *Service) Rank(ctx context.Context, score model.ScoreKind, userID string) (types.Entry, error) {
	return s.store.Rank(ctx, score, userID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"historySize":  s.historySize,
		"dedupeLength": s.deduper.Size(),
		"reports":      s.store.Reports(ctx),
		"people":       s.store.Count(ctx),
	}
	if snap := s.store.Snapshot(); snap != nil {
		stats["latestReportID"] = snap.Report.ID
		stats["latestSeq"] = snap.Report.Seq
	}
	if s.queue != nil {
		stats["queueLength"] = s.queue.Len()
	}
	if s.pool != nil {
		stats["processed"] = s.pool.Counters().Processed()
		stats["failed"] = s.pool.Counters().Failed()
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	return stats
}
