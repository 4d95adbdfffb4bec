// Package handler exposes the access-request workflow over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"healthchain/internal/accessrequest"
	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/httputil"
	"healthchain/pkg/requestcontext"
)

// Service defines the access-request operations the handler needs.
type Service interface {
	Create(ctx context.Context, requester id.UserID, recordID id.RecordID, message string) (id.AccessRequestID, error)
	Approve(ctx context.Context, caller id.UserID, requestID id.AccessRequestID) error
	Deny(ctx context.Context, caller id.UserID, requestID id.AccessRequestID) error
	ListPendingForOwner(ctx context.Context, owner id.UserID) ([]*accessrequest.AccessRequest, error)
	ListSent(ctx context.Context, requester id.UserID) ([]*accessrequest.AccessRequest, error)
}

// Handler wires access-request endpoints to the access-request service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an access-request handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts access-request endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/records/{recordID}/requests", h.HandleCreate)
	r.Post("/requests/{requestID}/approve", h.HandleApprove)
	r.Post("/requests/{requestID}/deny", h.HandleDeny)
	r.Get("/requests/pending", h.HandleListPending)
	r.Get("/requests/sent", h.HandleListSent)
}

// HandleCreate handles POST /records/{recordID}/requests requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reqID, err := h.service.Create(ctx, caller, recordID, req.Message)
	if err != nil {
		h.logError(ctx, "access request creation failed", caller, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "access requested",
		"request_id", requestID,
		"user_id", caller,
		"record_id", recordID,
		"access_request_id", reqID,
	)
	httputil.WriteJSON(w, http.StatusCreated, CreatedResponse{ID: reqID.String()})
}

// HandleApprove handles POST /requests/{requestID}/approve requests.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "approve", h.service.Approve)
}

// HandleDeny handles POST /requests/{requestID}/deny requests.
func (h *Handler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "deny", h.service.Deny)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, outcome string, fn func(context.Context, id.UserID, id.AccessRequestID) error) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	reqID, err := id.ParseAccessRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := fn(ctx, caller, reqID); err != nil {
		h.logError(ctx, "access request resolution failed", caller, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "access request resolved",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", caller,
		"access_request_id", reqID,
		"outcome", outcome,
	)
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleListPending handles GET /requests/pending requests.
func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	requests, err := h.service.ListPendingForOwner(ctx, caller)
	if err != nil {
		h.logError(ctx, "pending request listing failed", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequests(requests))
}

// HandleListSent handles GET /requests/sent requests.
func (h *Handler) HandleListSent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	requests, err := h.service.ListSent(ctx, caller)
	if err != nil {
		h.logError(ctx, "sent request listing failed", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequests(requests))
}

func (h *Handler) requireCaller(w http.ResponseWriter, ctx context.Context) (id.UserID, bool) {
	caller := requestcontext.CallerID(ctx)
	if caller == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return caller, true
}

func (h *Handler) logError(ctx context.Context, msg string, caller id.UserID, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"user_id", caller,
		"error", err,
	)
}
