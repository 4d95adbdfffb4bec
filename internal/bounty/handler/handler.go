// Package handler exposes the research bounty board over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"healthchain/internal/bounty"
	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/httputil"
	"healthchain/pkg/requestcontext"
)

// Service defines the bounty operations the handler needs.
type Service interface {
	Create(ctx context.Context, caller id.UserID, title, description string, reward uint64) (uint64, error)
	List(ctx context.Context) ([]bounty.Bounty, error)
}

// Handler wires bounty endpoints to the bounty service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a bounty handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts bounty endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/bounties", h.HandleCreate)
	r.Get("/bounties", h.HandleList)
}

// CreateRequest is the HTTP request body for POST /bounties.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Reward      uint64 `json:"reward"`
}

// Validate validates the request.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if r.Reward == 0 {
		return dErrors.New(dErrors.CodeValidation, "reward must be positive")
	}
	return nil
}

// CreatedResponse carries the identifier of a newly posted bounty.
type CreatedResponse struct {
	ID uint64 `json:"id"`
}

// HandleCreate handles POST /bounties requests.
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

	bountyID, err := h.service.Create(ctx, caller, req.Title, req.Description, req.Reward)
	if err != nil {
		h.logger.ErrorContext(ctx, "bounty creation failed",
			"request_id", requestID,
			"user_id", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bounty posted",
		"request_id", requestID,
		"user_id", caller,
		"bounty_id", bountyID,
		"reward", req.Reward,
	)
	httputil.WriteJSON(w, http.StatusCreated, CreatedResponse{ID: bountyID})
}

// HandleList handles GET /bounties requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bounties, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "bounty listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bounties)
}
