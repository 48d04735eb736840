// Package worker turns queued batches into published reports.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/pkg/logger"
	"github.com/okian/spdscore/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Builder scores a batch into a report.
type Builder interface {
	Build(ctx context.Context, b model.Batch) (model.ProcessedReport, error)
}

// Publisher stores a finished report. It reports whether the report became
// the latest one.
type Publisher interface {
	Publish(ctx context.Context, r model.ProcessedReport) (bool, error)
}

// Queue defines how workers receive batches.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Batch
}

// Counters are shared by all workers of a pool.
type Counters struct {
	processed atomic.Int64
	failed    atomic.Int64
}

// Processed returns the number of reports built and published.
func (c *Counters) Processed() int64 { return c.processed.Load() }

// Failed returns the number of batches that could not be published.
func (c *Counters) Failed() int64 { return c.failed.Load() }

// InMemoryWorker builds and publishes one batch at a time.
type InMemoryWorker struct {
	queue     Queue
	builder   Builder
	publisher Publisher
	counters  *Counters
	name      string
	logger    logger.Logger

	shutdown chan struct{}
	done     chan struct{}
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, b Builder, p Publisher, opts ...Option) *InMemoryWorker {
	s := apply("worker", opts)
	return &InMemoryWorker{
		queue:     q,
		builder:   b,
		publisher: p,
		counters:  &Counters{},
		name:      s.name,
		logger:    s.logger.Named(s.name),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Run processes batches until ctx is done, Shutdown is called or the queue
// is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	batches := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case b, ok := <-batches:
			if !ok {
				return
			}
			if err := w.process(ctx, b); err != nil {
				w.logger.Error(ctx, "batch failed", logger.String("report_id", b.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after its current batch.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, b model.Batch) error {
	metrics.AddWorkerActive(1)
	defer metrics.AddWorkerActive(-1)

	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	report, err := w.builder.Build(ctx, b)
	if err != nil {
		w.counters.failed.Add(1)
		metrics.RecordReportFailed()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "build_error")
		return fmt.Errorf("build report %s: %w", b.ID, err)
	}
	buildMs := float64(time.Since(start).Milliseconds())

	latest, err := w.publisher.Publish(ctx, report)
	if err != nil {
		w.counters.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "publish_error")
		return fmt.Errorf("publish report %s: %w", b.ID, err)
	}

	w.counters.processed.Add(1)
	metrics.RecordReportBuilt(buildMs, len(report.Users))
	if !latest {
		metrics.RecordReportStale()
	}
	w.logger.Info(ctx, "report published",
		logger.String("report_id", report.ID),
		logger.Uint64("seq", report.Seq),
		logger.Int("users", len(report.Users)),
		logger.Bool("latest", latest),
	)
	return nil
}

// Pool manages multiple workers reading the same queue.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	counters *Counters
	logger   logger.Logger
}

// NewPool creates a worker pool. A non-positive count uses one worker per CPU.
func NewPool(workerCount int, q Queue, b Builder, p Publisher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	s := apply("worker-pool", opts)
	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		counters: &Counters{},
		logger:   s.logger.Named(s.name),
	}
	for i := range workerCount {
		w := NewInMemoryWorker(q, b, p, WithName("worker-"+strconv.Itoa(i)), WithLogger(s.logger))
		w.counters = pool.counters
		pool.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Counters returns the pool-wide processing counters.
func (p *Pool) Counters() *Counters {
	return p.counters
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue when it can be closed, lets workers drain it and
// waits for them to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}
	return nil
}
