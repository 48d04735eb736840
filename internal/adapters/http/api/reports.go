package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/spdscore/internal/domain/dedupe"
	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/pkg/metrics"
)

const latestPath = "latest"

// ReportDependencies defines what the report endpoints need.
type ReportDependencies interface {
	dedupe.Deduper

	// NewBatch assigns a report ID and sequence number to submitted rows.
	NewBatch(hoursWorkedAvailable bool, rows []model.Row) model.Batch
	// Enqueue pushes a batch for async scoring.
	Enqueue(ctx context.Context, b model.Batch) error

	Latest(ctx context.Context) (model.ProcessedReport, error)
	Report(ctx context.Context, id string) (model.ProcessedReport, error)
}

// reportRequest mirrors the OpenAPI schema for POST /reports.
type reportRequest struct {
	HoursWorkedAvailable bool        `json:"hours_worked_available"`
	Rows                 []model.Row `json:"rows"`
}

func (r reportRequest) validate(maxRows int) error {
	if r.Rows == nil {
		return errors.New("missing rows")
	}
	if len(r.Rows) > maxRows {
		return fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, len(r.Rows), maxRows)
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	ReportID  string `json:"report_id"`
	Seq       uint64 `json:"seq,omitempty"`
}

// ReportsHandler handles report submission and retrieval.
type ReportsHandler struct {
	deps    ReportDependencies
	maxRows int
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportDependencies, maxRows int) *ReportsHandler {
	return &ReportsHandler{deps: deps, maxRows: maxRows}
}

// HandlePostReport handles POST /reports requests.
func (h *ReportsHandler) HandlePostReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_report"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	var req reportRequest
	if err := dec.Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(h.maxRows); err != nil {
		if errors.Is(err, ErrTooManyRows) {
			metrics.RecordBatchRejected("too_many_rows")
		} else {
			err = WrapKind(op, ErrBadRequest, err)
		}
		writeFailure(w, err)
		return
	}
	fp, err := dedupe.FingerprintBatch(req.HoursWorkedAvailable, req.Rows)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	batch := h.deps.NewBatch(req.HoursWorkedAvailable, req.Rows)

	// Idempotency check - mark as seen first
	if firstID, seen := h.deps.SeenAndRecord(r.Context(), fp, batch.ID); seen {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, ReportID: firstID})
		return
	}

	if err := h.deps.Enqueue(r.Context(), batch); err != nil {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), fp)
		writeFailure(w, WrapKind(op, ErrBackpressure, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ReportID: batch.ID, Seq: batch.Seq})
}

// HandleGetReport handles GET /reports/latest and GET /reports/{id}.
func (h *ReportsHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathParam(r.URL.Path, "/reports/")
	if !ok {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}

	var (
		report model.ProcessedReport
		err    error
	)
	if id == latestPath {
		report, err = h.deps.Latest(r.Context())
	} else {
		report, err = h.deps.Report(r.Context(), id)
	}
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// pathParam extracts the single path segment after prefix.
func pathParam(path, prefix string) (string, bool) {
	v := strings.TrimPrefix(path, prefix)
	if v == "" || v == path || strings.Contains(v, "/") {
		return "", false
	}
	return v, true
}
