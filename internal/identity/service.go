package identity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"healthchain/internal/audit"
	"healthchain/internal/platform/metrics"
	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/sentinel"
	"healthchain/pkg/requestcontext"
)

// Service is the identity and role directory. Every other module resolves
// callers through it before doing anything privileged.
type Service struct {
	profiles       Store
	recorder       *audit.Recorder
	logger         *slog.Logger
	metrics        *metrics.Metrics
	bootstrapAdmin id.UserID
}

type serviceConfig struct {
	metrics        *metrics.Metrics
	bootstrapAdmin id.UserID
}

type Option func(*serviceConfig)

// WithMetrics wires the Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithBootstrapAdmin designates the one principal that receives (and keeps)
// the admin role without being promoted.
func WithBootstrapAdmin(admin id.UserID) Option {
	return func(c *serviceConfig) { c.bootstrapAdmin = admin }
}

func NewService(profiles Store, recorder *audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		profiles:       profiles,
		recorder:       recorder,
		logger:         logger,
		metrics:        cfg.metrics,
		bootstrapAdmin: cfg.bootstrapAdmin,
	}
}

// ResolveOrCreate returns the caller's profile, creating it on first contact.
// The bootstrap principal's admin role self-heals here: losing it through a
// bad migration must not lock the deployment out of admin operations.
func (s *Service) ResolveOrCreate(ctx context.Context, caller id.UserID) (*UserProfile, error) {
	profile, err := s.profiles.FindByID(ctx, caller)
	if err == nil {
		if caller == s.bootstrapAdmin && !profile.IsAdmin() {
			return s.profiles.Execute(ctx, caller, nil, func(p *UserProfile) {
				p.Roles = append(p.Roles, id.RoleAdmin)
			})
		}
		return profile, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}

	profile = &UserProfile{
		ID:        caller,
		CreatedAt: requestcontext.Now(ctx),
		Roles:     DefaultRoles(),
		Tier:      id.TierBasic,
	}
	if caller == s.bootstrapAdmin {
		profile.Roles = append(profile.Roles, id.RoleAdmin)
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		// Lost a create race with ourselves; the existing profile wins.
		if errors.Is(err, sentinel.ErrConflict) {
			return s.profiles.FindByID(ctx, caller)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
	}
	if s.metrics != nil {
		s.metrics.ProfilesCreated.Inc()
	}
	return profile, nil
}

// Rename claims a new display name for the caller. Renaming to the name the
// caller already holds succeeds and changes nothing.
func (s *Service) Rename(ctx context.Context, caller id.UserID, newName string) (*UserProfile, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "display name cannot be empty")
	}
	if _, err := s.ResolveOrCreate(ctx, caller); err != nil {
		return nil, err
	}

	if err := s.profiles.Rename(ctx, caller, newName); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "display name already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to rename profile")
	}

	if _, err := s.recorder.Record(ctx, caller, audit.Entry{Action: audit.ActionRename, MetaRef: newName}); err != nil {
		return nil, err
	}
	return s.profiles.FindByID(ctx, caller)
}

// AddRole appends a role to the caller's profile.
func (s *Service) AddRole(ctx context.Context, caller id.UserID, role id.Role) (*UserProfile, error) {
	if _, err := s.ResolveOrCreate(ctx, caller); err != nil {
		return nil, err
	}

	profile, err := s.profiles.Execute(ctx, caller,
		func(p *UserProfile) error {
			if p.HasRole(role) {
				return dErrors.New(dErrors.CodeConflict, "role already present")
			}
			return nil
		},
		func(p *UserProfile) {
			p.Roles = append(p.Roles, role)
		},
	)
	if err != nil {
		return nil, wrapProfileErr(err)
	}

	if _, err := s.recorder.Record(ctx, caller, audit.Entry{Action: audit.ActionAddRole, MetaRef: role.String()}); err != nil {
		return nil, err
	}
	return profile, nil
}

// PromoteToAdmin grants the admin role to target. Admin-only; idempotent when
// target already holds it.
func (s *Service) PromoteToAdmin(ctx context.Context, caller, target id.UserID) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}

	promoted := false
	_, err := s.profiles.Execute(ctx, target, nil, func(p *UserProfile) {
		if !p.IsAdmin() {
			p.Roles = append(p.Roles, id.RoleAdmin)
			promoted = true
		}
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "target user has never authenticated")
		}
		return wrapProfileErr(err)
	}
	if !promoted {
		return nil
	}

	_, err = s.recorder.Record(ctx, caller, audit.Entry{Action: audit.ActionPromoteAdmin, Target: target.String()})
	return err
}

// SubmitVerification stores the evidence reference and resets the status to
// pending, whatever the previous status was. Resubmission restarts review.
func (s *Service) SubmitVerification(ctx context.Context, caller id.UserID, evidenceRef string) error {
	if evidenceRef == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "evidence reference cannot be empty")
	}
	if _, err := s.ResolveOrCreate(ctx, caller); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	if _, err := s.profiles.Execute(ctx, caller, nil, func(p *UserProfile) {
		p.Verification = VerificationState{
			Status:      id.VerificationPending,
			EvidenceRef: evidenceRef,
			SubmittedAt: now,
		}
	}); err != nil {
		return wrapProfileErr(err)
	}

	_, err := s.recorder.Record(ctx, caller, audit.Entry{Action: audit.ActionSubmitVerification, MetaRef: evidenceRef})
	return err
}

// ApproveIdentity marks target as verified. Admin-only.
func (s *Service) ApproveIdentity(ctx context.Context, caller, target id.UserID) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}

	if _, err := s.profiles.Execute(ctx, target, nil, func(p *UserProfile) {
		p.Verification.Status = id.VerificationApproved
		p.Tier = id.TierVerified
	}); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "target user has never authenticated")
		}
		return wrapProfileErr(err)
	}

	_, err := s.recorder.Record(ctx, caller, audit.Entry{Action: audit.ActionApproveIdentity, Target: target.String()})
	return err
}

// UpdateSettings replaces the caller's settings blob. The engine stores the
// blob verbatim and never interprets it.
func (s *Service) UpdateSettings(ctx context.Context, caller id.UserID, settings json.RawMessage) error {
	if _, err := s.ResolveOrCreate(ctx, caller); err != nil {
		return err
	}

	if _, err := s.profiles.Execute(ctx, caller, nil, func(p *UserProfile) {
		p.Settings = settings
	}); err != nil {
		return wrapProfileErr(err)
	}

	_, err := s.recorder.Record(ctx, caller, audit.Entry{Action: audit.ActionUpdateSettings})
	return err
}

// AuditLog returns the caller's audit history, newest first, by resolving the
// profile's pointer list.
func (s *Service) AuditLog(ctx context.Context, caller id.UserID) ([]audit.Entry, error) {
	profile, err := s.ResolveOrCreate(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.recorder.ForProfile(ctx, profile.AuditLog)
}

// Lookup resolves a profile without creating one. Used by other modules for
// read-only enrichment of principals that are not the caller.
func (s *Service) Lookup(ctx context.Context, user id.UserID) (*UserProfile, error) {
	profile, err := s.profiles.FindByID(ctx, user)
	if err != nil {
		return nil, wrapProfileErr(err)
	}
	return profile, nil
}

// AppendRecordID links a newly created record to its owner's profile. The
// record module calls this right after persisting the record.
func (s *Service) AppendRecordID(ctx context.Context, owner id.UserID, recordID id.RecordID) error {
	if err := s.profiles.AppendRecordID(ctx, owner, recordID); err != nil {
		return wrapProfileErr(err)
	}
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, caller id.UserID) error {
	profile, err := s.ResolveOrCreate(ctx, caller)
	if err != nil {
		return err
	}
	if !profile.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return nil
}

func wrapProfileErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "profile store failure")
}
