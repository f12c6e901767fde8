package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hub/internal/pipeline"
	"hub/internal/records/models"
	"hub/internal/submission"
	id "hub/pkg/domain"
	"hub/pkg/platform/httputil"
)

// Resubmitter restores a record's PII and returns the submit task for it.
type Resubmitter interface {
	Resubmit(ctx context.Context, recordID id.RecordID, family submission.Family) (*pipeline.Task, error)
}

// Enqueuer hands a task to the pipeline queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task pipeline.Task) error
}

// Probe reports whether one dependency is usable.
type Probe = func(ctx context.Context) error

// Handler serves the admin endpoints.
type Handler struct {
	resubmitter Resubmitter
	queue       Enqueuer
	probes      map[string]Probe
	logger      *slog.Logger
}

// NewHandler builds a Handler. probes are checked by /readyz.
func NewHandler(resubmitter Resubmitter, queue Enqueuer, probes map[string]Probe, logger *slog.Logger) *Handler {
	return &Handler{resubmitter: resubmitter, queue: queue, probes: probes, logger: logger}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.probes))
	for name, probe := range h.probes {
		if err := probe(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "readiness probe failed", "probe", name, "error", err)
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, checks)
}

type resubmitRequest struct {
	Family string `json:"family"`
}

type taskResponse struct {
	RecordID string `json:"record_id"`
	Stage    string `json:"stage"`
	Family   string `json:"family,omitempty"`
}

func (h *Handler) handleResubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req resubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, httputil.BadRequest{Msg: "invalid json body"})
		return
	}
	family, err := submission.ParseFamily(req.Family)
	if err != nil {
		httputil.WriteError(w, httputil.BadRequest{Msg: err.Error()})
		return
	}

	task, err := h.resubmitter.Resubmit(ctx, recordID, family)
	if err != nil {
		h.logger.ErrorContext(ctx, "resubmit failed", "record_id", recordID.String(), "error", err)
		httputil.WriteError(w, err)
		return
	}
	if err := h.queue.Enqueue(ctx, *task); err != nil {
		h.logger.ErrorContext(ctx, "enqueue resubmission failed", "record_id", recordID.String(), "error", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "record resubmitted", "record_id", recordID.String(), "family", req.Family)
	httputil.WriteJSON(w, http.StatusAccepted, taskResponse{RecordID: recordID.String(), Stage: string(task.Stage), Family: string(task.Family)})
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	kind := models.Kind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.IsValid() {
		httputil.WriteError(w, httputil.BadRequest{Msg: "unknown record kind " + string(kind)})
		return
	}
	task := pipeline.Task{RecordID: recordID, Kind: kind, Stage: pipeline.StageValidate}
	if err := h.queue.Enqueue(ctx, task); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, taskResponse{RecordID: recordID.String(), Stage: string(task.Stage)})
}
