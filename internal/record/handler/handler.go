// Package handler exposes the record store, sharing operations, and the
// owner dashboard over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"healthchain/internal/record"
	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/httputil"
	"healthchain/pkg/requestcontext"
)

// Service defines the record operations the handler needs.
type Service interface {
	CreateRecord(ctx context.Context, caller id.UserID, in record.UploadInput) (id.RecordID, error)
	CreateFolder(ctx context.Context, caller id.UserID, name string, parent id.RecordID) (id.RecordID, error)
	GrantAccess(ctx context.Context, caller id.UserID, recordID id.RecordID, grantee id.UserID, perm record.Permission) error
	RevokeAccess(ctx context.Context, caller id.UserID, recordID id.RecordID, grantee id.UserID) error
	SubmitForResearch(ctx context.Context, caller id.UserID, recordID id.RecordID) error
	ListOwned(ctx context.Context, caller id.UserID) ([]*record.Record, error)
	ListSharedWithMe(ctx context.Context, caller id.UserID) ([]record.Info, error)
	DashboardStats(ctx context.Context, caller id.UserID) (record.Stats, error)
}

// Handler wires record endpoints to the record service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a record handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts record endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/records", h.HandleUpload)
	r.Post("/records/folders", h.HandleCreateFolder)
	r.Get("/records", h.HandleListOwned)
	r.Get("/records/shared", h.HandleListShared)
	r.Post("/records/{recordID}/grants", h.HandleGrant)
	r.Delete("/records/{recordID}/grants/{grantee}", h.HandleRevoke)
	r.Post("/records/{recordID}/research", h.HandleSubmitForResearch)
	r.Get("/dashboard", h.HandleDashboard)
}

// HandleUpload handles POST /records requests.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UploadRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	recordID, err := h.service.CreateRecord(ctx, caller, req.ToInput())
	if err != nil {
		h.logError(ctx, "record upload failed", caller, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "record stored",
		"request_id", requestID,
		"user_id", caller,
		"record_id", recordID,
	)
	httputil.WriteJSON(w, http.StatusCreated, CreatedResponse{ID: recordID})
}

// HandleCreateFolder handles POST /records/folders requests.
func (h *Handler) HandleCreateFolder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateFolderRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	recordID, err := h.service.CreateFolder(ctx, caller, req.Name, req.ParsedParentID())
	if err != nil {
		h.logError(ctx, "folder creation failed", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreatedResponse{ID: recordID})
}

// HandleListOwned handles GET /records requests.
func (h *Handler) HandleListOwned(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	records, err := h.service.ListOwned(ctx, caller)
	if err != nil {
		h.logError(ctx, "owned record listing failed", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecords(records))
}

// HandleListShared handles GET /records/shared requests.
func (h *Handler) HandleListShared(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	infos, err := h.service.ListSharedWithMe(ctx, caller)
	if err != nil {
		h.logError(ctx, "shared record listing failed", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromInfos(infos))
}

// HandleGrant handles POST /records/{recordID}/grants requests.
func (h *Handler) HandleGrant(w http.ResponseWriter, r *http.Request) {
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

	req, ok := httputil.DecodeAndPrepare[GrantRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.GrantAccess(ctx, caller, recordID, req.ParsedGrantee(), req.Permission.ToDomain()); err != nil {
		h.logError(ctx, "access grant failed", caller, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "access granted",
		"request_id", requestID,
		"user_id", caller,
		"record_id", recordID,
		"grantee", req.Grantee,
	)
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleRevoke handles DELETE /records/{recordID}/grants/{grantee} requests.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
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
	grantee, err := id.ParseUserID(chi.URLParam(r, "grantee"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RevokeAccess(ctx, caller, recordID, grantee); err != nil {
		h.logError(ctx, "access revocation failed", caller, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "access revoked",
		"request_id", requestID,
		"user_id", caller,
		"record_id", recordID,
		"grantee", grantee,
	)
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleSubmitForResearch handles POST /records/{recordID}/research requests.
func (h *Handler) HandleSubmitForResearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.SubmitForResearch(ctx, caller, recordID); err != nil {
		h.logError(ctx, "research submission failed", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleDashboard handles GET /dashboard requests.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	stats, err := h.service.DashboardStats(ctx, caller)
	if err != nil {
		h.logError(ctx, "dashboard aggregation failed", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
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
