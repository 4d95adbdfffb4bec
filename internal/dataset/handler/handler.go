// Package handler exposes the anonymized dataset catalogue over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"healthchain/internal/dataset"
	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/httputil"
	"healthchain/pkg/requestcontext"
)

// Service defines the dataset operations the handler needs.
type Service interface {
	Create(ctx context.Context, caller id.UserID, meta dataset.Metadata) error
	List(ctx context.Context) ([]dataset.Metadata, error)
}

// Handler wires dataset endpoints to the dataset service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a dataset handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts dataset endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/datasets", h.HandleCreate)
	r.Get("/datasets", h.HandleList)
}

// CreateRequest is the HTTP request body for POST /datasets.
type CreateRequest struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	RecordCount       uint64 `json:"record_count"`
	AnonymizedDataRef string `json:"anonymized_data_ref"`
}

// Validate validates the request.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	if r.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

// HandleCreate handles POST /datasets requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.CallerID(ctx)
	if caller == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	meta := dataset.Metadata{
		ID:                req.ID,
		Name:              req.Name,
		Description:       req.Description,
		RecordCount:       req.RecordCount,
		AnonymizedDataRef: req.AnonymizedDataRef,
	}
	if err := h.service.Create(ctx, caller, meta); err != nil {
		h.logger.ErrorContext(ctx, "dataset creation failed",
			"request_id", requestID,
			"user_id", caller,
			"dataset_id", req.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, meta)
}

// HandleList handles GET /datasets requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	datasets, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "dataset listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, datasets)
}
