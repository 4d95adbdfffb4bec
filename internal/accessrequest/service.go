package accessrequest

import (
	"context"
	"errors"
	"log/slog"

	"healthchain/internal/audit"
	"healthchain/internal/identity"
	"healthchain/internal/platform/metrics"
	"healthchain/internal/record"
	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/sentinel"
	"healthchain/pkg/requestcontext"
)

// Granter is the bridge into the access-control engine used on approval.
type Granter interface {
	GrantAccess(ctx context.Context, caller id.UserID, recordID id.RecordID, grantee id.UserID, perm record.Permission) error
}

// Directory resolves requester profiles for the name snapshot.
type Directory interface {
	ResolveOrCreate(ctx context.Context, caller id.UserID) (*identity.UserProfile, error)
}

// recordResolver is the read the workflow actually needs at creation time:
// the record's existence, owner, and name, without a view check (a requester
// by definition has no access yet).
type recordResolver interface {
	FindByID(ctx context.Context, recordID id.RecordID) (*record.Record, error)
}

// Service runs the request/approval state machine and bridges into the
// access-control engine on approval.
type Service struct {
	requests  Store
	records   recordResolver
	granter   Granter
	directory Directory
	recorder  *audit.Recorder
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type serviceConfig struct {
	metrics *metrics.Metrics
}

type Option func(*serviceConfig)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func NewService(requests Store, records recordResolver, granter Granter, directory Directory, recorder *audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		requests:  requests,
		records:   records,
		granter:   granter,
		directory: directory,
		recorder:  recorder,
		logger:    logger,
		metrics:   cfg.metrics,
	}
}

// Create opens a request for the caller on the given record, snapshotting
// owner, requester, and record name at creation time.
func (s *Service) Create(ctx context.Context, requester id.UserID, recordID id.RecordID, message string) (id.AccessRequestID, error) {
	profile, err := s.directory.ResolveOrCreate(ctx, requester)
	if err != nil {
		return id.AccessRequestID{}, err
	}

	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return id.AccessRequestID{}, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return id.AccessRequestID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	if rec.Owner == requester {
		return id.AccessRequestID{}, dErrors.New(dErrors.CodeInvalidInput, "cannot request access to an owned record")
	}

	req := &AccessRequest{
		ID:            id.NewAccessRequestID(),
		RecordID:      recordID,
		RecordName:    rec.Name,
		Requester:     requester,
		RequesterName: profile.Name,
		Owner:         rec.Owner,
		Status:        StatusPending,
		Message:       message,
		RequestedAt:   requestcontext.Now(ctx),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return id.AccessRequestID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store request")
	}

	if _, err := s.recorder.Record(ctx, requester, audit.Entry{
		Action:   audit.ActionRequestAccess,
		RecordID: recordID,
		Target:   rec.Owner.String(),
	}); err != nil {
		return id.AccessRequestID{}, err
	}
	return req.ID, nil
}

// Approve resolves a pending request in the requester's favour: the engine
// grants the conservative default (view-only, no expiry), then the request
// is stamped approved. The grant happens first so a grant failure leaves the
// request pending rather than approved-but-unshared.
func (s *Service) Approve(ctx context.Context, caller id.UserID, requestID id.AccessRequestID) error {
	req, err := s.resolvable(ctx, caller, requestID)
	if err != nil {
		return err
	}

	// Ownership is re-checked against the live record inside GrantAccess, so
	// a stale owner snapshot fails there rather than granting.
	if err := s.granter.GrantAccess(ctx, caller, req.RecordID, req.Requester, record.ViewOnly()); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	if _, err := s.requests.Execute(ctx, requestID,
		func(r *AccessRequest) error {
			if r.Status != StatusPending {
				return dErrors.New(dErrors.CodeConflict, "request already resolved")
			}
			return nil
		},
		func(r *AccessRequest) {
			r.Status = StatusApproved
			r.ResolvedAt = &now
		},
	); err != nil {
		return wrapRequestErr(err)
	}

	if _, err := s.recorder.Record(ctx, caller, audit.Entry{
		Action:   audit.ActionApproveRequest,
		RecordID: req.RecordID,
		Target:   req.Requester.String(),
	}); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RequestsResolved.WithLabelValues("approved").Inc()
	}
	return nil
}

// Deny resolves a pending request against the requester. No side effect on
// the access list.
func (s *Service) Deny(ctx context.Context, caller id.UserID, requestID id.AccessRequestID) error {
	req, err := s.resolvable(ctx, caller, requestID)
	if err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	if _, err := s.requests.Execute(ctx, requestID,
		func(r *AccessRequest) error {
			if r.Status != StatusPending {
				return dErrors.New(dErrors.CodeConflict, "request already resolved")
			}
			return nil
		},
		func(r *AccessRequest) {
			r.Status = StatusDenied
			r.ResolvedAt = &now
		},
	); err != nil {
		return wrapRequestErr(err)
	}

	if _, err := s.recorder.Record(ctx, caller, audit.Entry{
		Action:   audit.ActionDenyRequest,
		RecordID: req.RecordID,
		Target:   req.Requester.String(),
	}); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RequestsResolved.WithLabelValues("denied").Inc()
	}
	return nil
}

// ListPendingForOwner returns the caller's review queue.
func (s *Service) ListPendingForOwner(ctx context.Context, owner id.UserID) ([]*AccessRequest, error) {
	if _, err := s.directory.ResolveOrCreate(ctx, owner); err != nil {
		return nil, err
	}
	return s.requests.ListPendingForOwner(ctx, owner)
}

// ListSent returns every request the caller has made, resolved or not.
func (s *Service) ListSent(ctx context.Context, requester id.UserID) ([]*AccessRequest, error) {
	if _, err := s.directory.ResolveOrCreate(ctx, requester); err != nil {
		return nil, err
	}
	return s.requests.ListByRequester(ctx, requester)
}

// resolvable loads a request and checks the caller matches the owner
// snapshot and the request is still pending.
func (s *Service) resolvable(ctx context.Context, caller id.UserID, requestID id.AccessRequestID) (*AccessRequest, error) {
	if _, err := s.directory.ResolveOrCreate(ctx, caller); err != nil {
		return nil, err
	}
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}
	if req.Owner != caller {
		return nil, dErrors.New(dErrors.CodeForbidden, "request not addressed to caller")
	}
	if req.Status != StatusPending {
		return nil, dErrors.New(dErrors.CodeConflict, "request already resolved")
	}
	return req, nil
}

func wrapRequestErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "request store failure")
}
