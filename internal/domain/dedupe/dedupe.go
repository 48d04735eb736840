// Package dedupe tracks which batches were already accepted so a resubmitted
// batch resolves to the report it produced the first time.
package dedupe

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/spdscore/internal/domain/model"
)

const defaultMaxSize = 10000

// Fingerprint identifies a batch by content.
type Fingerprint uint64

// String renders the fingerprint as fixed-width hex.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Deduper records batch fingerprints to ensure each batch is scored once.
type Deduper interface {
	// SeenAndRecord atomically checks if fp was seen and records it with
	// reportID if not. When fp was already seen it returns the report ID
	// recorded first and true.
	SeenAndRecord(ctx context.Context, fp Fingerprint, reportID string) (string, bool)

	// Unrecord forgets fp so the batch can be submitted again. Used when a
	// recorded batch could not be enqueued.
	Unrecord(ctx context.Context, fp Fingerprint)

	Size() int64
}

// FingerprintBatch hashes the canonical JSON form of a batch. Map keys are
// encoded sorted, so row key order does not matter while row order does.
func FingerprintBatch(hoursWorkedAvailable bool, rows []model.Row) (Fingerprint, error) {
	h := xxhash.New()
	payload := struct {
		HoursWorkedAvailable bool        `json:"h"`
		Rows                 []model.Row `json:"r"`
	}{hoursWorkedAvailable, rows}
	if err := json.NewEncoder(h).Encode(payload); err != nil {
		return 0, fmt.Errorf("fingerprint batch: %w", err)
	}
	return Fingerprint(h.Sum64()), nil
}

type entry struct {
	fp       Fingerprint
	reportID string
}

// inMemoryDeduper keeps fingerprints in insertion order.
// Bounded mode (maxSize > 0) evicts the oldest entry when full.
// Unbounded mode (maxSize <= 0) never evicts.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[Fingerprint]*list.Element
	order   *list.List // front = most recently added
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[Fingerprint]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, fp Fingerprint, reportID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[fp]; ok {
		return el.Value.(entry).reportID, true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[fp] = d.order.PushFront(entry{fp: fp, reportID: reportID})
	d.size.Add(1)
	return reportID, false
}

func (d *inMemoryDeduper) Unrecord(ctx context.Context, fp Fingerprint) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[fp]; ok {
		d.order.Remove(el)
		delete(d.seen, fp)
		d.size.Add(-1)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Back()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.seen, el.Value.(entry).fp)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
