// internal/api/handlers/task_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/auth"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/enroll"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/models"
	"go.uber.org/zap"
)

// TaskHandler exposes the task record lifecycle over HTTP. The record in
// every response is the same renderable state the admin UI polls; errors
// surface as messaging entries inside it, never as a separate channel.
type TaskHandler struct {
	service *enroll.Service
	issuer  *auth.TokenIssuer
	logger  *zap.Logger
}

func NewTaskHandler(service *enroll.Service, issuer *auth.TokenIssuer, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		issuer:  issuer,
		logger:  logger,
	}
}

// GetTask returns the current record, or schema defaults if none exists
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Current(r.Context())
	if err != nil {
		http.Error(w, "failed to load task record", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(record)
}

// SubmitTask accepts a job request: a record with status run. On
// validation failure the finalized record is returned with 400 so the
// caller can render the error messaging.
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var candidate models.TaskRecord
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if candidate.Status != models.StatusRun {
		http.Error(w, "status must be \"run\"", http.StatusBadRequest)
		return
	}

	record, err := h.service.Submit(r.Context(), &candidate)
	if err != nil {
		if _, ok := enroll.IsRecordError(err); ok {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(record)
			return
		}
		http.Error(w, "failed to start task", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(record)
}

// CancelTask requests cancellation; the chain observes it on its next
// validation pass
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Cancel(r.Context())
	if err != nil {
		http.Error(w, "failed to cancel task", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(record)
}

// ResetTask clears a finished record back to defaults
func (h *TaskHandler) ResetTask(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Reset(r.Context())
	if err != nil {
		http.Error(w, "failed to reset task", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(record)
}

// RunStep is the self-dispatch endpoint: it authorizes the single-use
// token and executes exactly one step. A finalized record (completed,
// cancelled, duplicate trigger) is a normal chain stop, not a failure.
func (h *TaskHandler) RunStep(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		http.Error(w, "step dispatch disabled", http.StatusNotFound)
		return
	}

	if err := h.issuer.Validate(r.URL.Query().Get("token")); err != nil {
		h.logger.Warn("step token rejected", zap.Error(err))
		http.Error(w, "invalid step token", http.StatusUnauthorized)
		return
	}

	record, err := h.service.RunStep(r.Context())
	if err != nil {
		var recErr *enroll.RecordError
		if !errors.As(err, &recErr) {
			http.Error(w, "step execution failed", http.StatusInternalServerError)
			return
		}
	}
	json.NewEncoder(w).Encode(record)
}
