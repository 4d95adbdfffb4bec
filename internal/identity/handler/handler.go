// Package handler exposes the identity directory over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"healthchain/internal/audit"
	"healthchain/internal/identity"
	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/httputil"
	"healthchain/pkg/requestcontext"
)

// Service defines the identity operations the handler needs.
type Service interface {
	ResolveOrCreate(ctx context.Context, caller id.UserID) (*identity.UserProfile, error)
	Rename(ctx context.Context, caller id.UserID, newName string) (*identity.UserProfile, error)
	AddRole(ctx context.Context, caller id.UserID, role id.Role) (*identity.UserProfile, error)
	PromoteToAdmin(ctx context.Context, caller, target id.UserID) error
	SubmitVerification(ctx context.Context, caller id.UserID, evidenceRef string) error
	ApproveIdentity(ctx context.Context, caller, target id.UserID) error
	UpdateSettings(ctx context.Context, caller id.UserID, settings json.RawMessage) error
	AuditLog(ctx context.Context, caller id.UserID) ([]audit.Entry, error)
}

// Handler wires identity endpoints to the identity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an identity handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts identity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/profile", h.HandleGetProfile)
	r.Post("/profile", h.HandleUpdateSettings)
	r.Put("/profile/name", h.HandleRename)
	r.Post("/profile/roles", h.HandleAddRole)
	r.Post("/profile/verification", h.HandleSubmitVerification)
	r.Post("/admin/promote", h.HandlePromote)
	r.Post("/admin/verify", h.HandleApproveIdentity)
	r.Get("/audit", h.HandleAuditLog)
}

// HandleGetProfile handles GET /profile requests. The profile is created on
// first sight of the caller.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	profile, err := h.service.ResolveOrCreate(ctx, caller)
	if err != nil {
		h.logError(ctx, "profile resolution failed", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProfile(profile))
}

// HandleUpdateSettings handles POST /profile requests.
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateSettingsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.UpdateSettings(ctx, caller, req.Settings); err != nil {
		h.logError(ctx, "settings update failed", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleRename handles PUT /profile/name requests.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[RenameRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	profile, err := h.service.Rename(ctx, caller, req.Name)
	if err != nil {
		h.logError(ctx, "rename failed", caller, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "profile renamed",
		"request_id", requestID,
		"user_id", caller,
	)
	httputil.WriteJSON(w, http.StatusOK, FromProfile(profile))
}

// HandleAddRole handles POST /profile/roles requests.
func (h *Handler) HandleAddRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[AddRoleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	profile, err := h.service.AddRole(ctx, caller, req.ParsedRole())
	if err != nil {
		h.logError(ctx, "role addition failed", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProfile(profile))
}

// HandleSubmitVerification handles POST /profile/verification requests.
func (h *Handler) HandleSubmitVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitVerificationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SubmitVerification(ctx, caller, req.EvidenceRef); err != nil {
		h.logError(ctx, "verification submission failed", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, nil)
}

// HandlePromote handles POST /admin/promote requests.
func (h *Handler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[TargetUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.PromoteToAdmin(ctx, caller, req.ParsedUserID()); err != nil {
		h.logError(ctx, "admin promotion failed", caller, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user promoted to admin",
		"request_id", requestID,
		"user_id", caller,
		"target", req.UserID,
	)
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleApproveIdentity handles POST /admin/verify requests.
func (h *Handler) HandleApproveIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[TargetUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.ApproveIdentity(ctx, caller, req.ParsedUserID()); err != nil {
		h.logError(ctx, "identity approval failed", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleAuditLog handles GET /audit requests.
func (h *Handler) HandleAuditLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}

	entries, err := h.service.AuditLog(ctx, caller)
	if err != nil {
		h.logError(ctx, "audit log fetch failed", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AuditLogResponse{Entries: entries})
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
