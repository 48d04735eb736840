package loadtest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/spdscore/internal/cohortgen"
	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/pkg/logger"
)

// ErrNoneAccepted is returned when every submission was refused.
var ErrNoneAccepted = errors.New("no batch accepted")

type job struct {
	index int
	rows  []model.Row
}

// tally collects submission outcomes from concurrent workers.
type tally struct {
	submitted, accepted, duplicate, rejected, failed atomic.Int64

	mu        sync.Mutex
	latestID  string
	latestSeq uint64
}

func (t *tally) accept(ack Ack) {
	t.accepted.Add(1)
	t.mu.Lock()
	defer t.mu.Unlock()
	if ack.Seq > t.latestSeq {
		t.latestSeq = ack.Seq
		t.latestID = ack.ReportID
	}
}

// Run executes the complete load test.
func Run(ctx context.Context, cfg Config, log logger.Logger) (*Stats, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load test",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("batches", cfg.Batches),
		logger.Int("duplicates", cfg.Duplicates),
		logger.Int("people", cfg.People),
		logger.Int("workers", cfg.Workers),
	)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate batches
	jobs := make([]job, cfg.Batches)
	for i := range jobs {
		gen := cohortgen.New(cfg.Seed+uint64(i), cohortgen.WithMessyValues(cfg.Messy))
		jobs[i] = job{index: i, rows: gen.Rows(cfg.People)}
	}

	// Step 3: Submit, then resubmit the first batches
	t := &tally{}
	submitAll(ctx, client, cfg.Workers, jobs, t, log)
	submitAll(ctx, client, cfg.Workers, jobs[:cfg.Duplicates], t, log)

	stats.Submitted = int(t.submitted.Load())
	stats.Accepted = int(t.accepted.Load())
	stats.Duplicate = int(t.duplicate.Load())
	stats.Rejected = int(t.rejected.Load())
	stats.Failed = int(t.failed.Load())
	if stats.Accepted == 0 {
		return stats, ErrNoneAccepted
	}
	stats.LatestReportID, stats.LatestSeq = t.latestID, t.latestSeq

	// Step 4: Wait for the newest accepted batch to become the latest report
	report, err := waitForLatest(ctx, client, stats.LatestReportID, cfg.Timeout, cfg.PollInterval)
	if err != nil {
		return stats, fmt.Errorf("waiting for report %s: %w", stats.LatestReportID, err)
	}

	// Step 5: Check the leaderboard against the report
	entries, err := client.Leaderboard(ctx, cfg.Score, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(entries)
	if err := verifyLeaderboard(report, cfg.Score, entries, cfg.TopN); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "load test completed",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.String("latest_report_id", stats.LatestReportID),
		logger.Int("leaderboard_entries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// submitAll submits jobs concurrently using a worker pool.
func submitAll(ctx context.Context, client *Client, workers int, jobs []job, t *tally, log logger.Logger) {
	ch := make(chan job, workers*2)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				submitOne(ctx, client, j, t, log)
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				return
			case ch <- j:
			}
		}
	}()
	wg.Wait()
}

func submitOne(ctx context.Context, client *Client, j job, t *tally, log logger.Logger) {
	t.submitted.Add(1)
	ack, status, err := client.Submit(ctx, true, j.rows)
	switch {
	case err == nil && status == http.StatusAccepted:
		t.accept(ack)
	case err == nil:
		t.duplicate.Add(1)
	case status == http.StatusTooManyRequests:
		t.rejected.Add(1)
		log.Debug(ctx, "batch rejected", logger.Int("batch", j.index), logger.Error(err))
	default:
		t.failed.Add(1)
		log.Warn(ctx, "batch failed", logger.Int("batch", j.index), logger.Error(err))
	}
}

// waitForLatest polls until the report with id is the latest one.
func waitForLatest(ctx context.Context, client *Client, id string, timeout, every time.Duration) (model.ProcessedReport, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		r, err := client.Latest(ctx)
		if err == nil && r.ID == id {
			return r, nil
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return model.ProcessedReport{}, fmt.Errorf("%w (last error: %w)", ctx.Err(), err)
			}
			return model.ProcessedReport{}, fmt.Errorf("%w (latest is %s)", ctx.Err(), r.ID)
		case <-ticker.C:
		}
	}
}
