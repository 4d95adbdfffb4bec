package record

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"healthchain/internal/audit"
	"healthchain/internal/identity"
	"healthchain/internal/platform/metrics"
	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/sentinel"
	"healthchain/pkg/requestcontext"
)

// Directory is the slice of the identity module the record engine needs.
// ResolveOrCreate backs the lazy-profile contract on mutating calls; Lookup
// is a read-only resolve used for owner enrichment.
type Directory interface {
	ResolveOrCreate(ctx context.Context, caller id.UserID) (*identity.UserProfile, error)
	Lookup(ctx context.Context, user id.UserID) (*identity.UserProfile, error)
	AppendRecordID(ctx context.Context, owner id.UserID, recordID id.RecordID) error
}

// Service is the access-control engine: record creation, grant/revoke, the
// sharing index, and the derived views over them.
//
// Authorization is ownership-based. Role tags are not enforced on upload or
// grant: every profile holds the patient capability by default, so a role
// gate there would be vacuous. Roles stay available to policy layers above.
type Service struct {
	records   Store
	index     SharedIndex
	directory Directory
	recorder  *audit.Recorder
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer

	// shareMu serializes grant/revoke so the access-list write and the index
	// write land inside one critical section. A crash between the two writes
	// is the one event that can break the index invariant.
	shareMu sync.Mutex
}

type serviceConfig struct {
	metrics *metrics.Metrics
}

type Option func(*serviceConfig)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func NewService(records Store, index SharedIndex, directory Directory, recorder *audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		records:   records,
		index:     index,
		directory: directory,
		recorder:  recorder,
		logger:    logger,
		metrics:   cfg.metrics,
		tracer:    otel.Tracer("healthchain/record"),
	}
}

// deriveID builds a record identifier from the content reference and the
// creation instant. The time component makes collisions acceptable; the
// result is not a content address.
func deriveID(contentRef string, now time.Time) id.RecordID {
	sum := sha256.Sum256([]byte(contentRef + "-" + strconv.FormatInt(now.UnixNano(), 10)))
	return id.RecordID(hex.EncodeToString(sum[:]))
}

// UploadInput carries everything a caller supplies when storing a record.
// Tags and KeyEnvelope pass through uninterpreted.
type UploadInput struct {
	ContentRef  string
	Name        string
	Type        string
	Size        uint64
	ParentID    id.RecordID
	Tags        []string
	KeyEnvelope string
}

// CreateRecord stores a new record owned by the caller. The owner's full
// permission is materialized into the access list so later checks are a
// single lookup.
func (s *Service) CreateRecord(ctx context.Context, caller id.UserID, in UploadInput) (id.RecordID, error) {
	ctx, span := s.tracer.Start(ctx, "record.Create")
	defer span.End()

	if in.ContentRef == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content reference cannot be empty")
	}
	if _, err := s.directory.ResolveOrCreate(ctx, caller); err != nil {
		return "", err
	}

	now := requestcontext.Now(ctx)
	rec := &Record{
		ID:          deriveID(in.ContentRef, now),
		Owner:       caller,
		ContentRef:  in.ContentRef,
		Name:        in.Name,
		Type:        in.Type,
		Size:        in.Size,
		ParentID:    in.ParentID,
		CreatedAt:   now,
		Access:      map[id.UserID]Permission{caller: FullPermission()},
		Tags:        in.Tags,
		KeyEnvelope: in.KeyEnvelope,
	}

	return s.persistNew(ctx, caller, rec, audit.ActionUpload)
}

// CreateFolder stores a folder record. Folders have no payload, so the
// identifier is derived from the owner principal instead of a content ref.
func (s *Service) CreateFolder(ctx context.Context, caller id.UserID, name string, parent id.RecordID) (id.RecordID, error) {
	if name == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "folder name cannot be empty")
	}
	if _, err := s.directory.ResolveOrCreate(ctx, caller); err != nil {
		return "", err
	}

	now := requestcontext.Now(ctx)
	rec := &Record{
		ID:        deriveID(caller.String(), now),
		Owner:     caller,
		Name:      name,
		Type:      TypeFolder,
		ParentID:  parent,
		CreatedAt: now,
		Access:    map[id.UserID]Permission{caller: FullPermission()},
	}

	return s.persistNew(ctx, caller, rec, audit.ActionCreateFolder)
}

func (s *Service) persistNew(ctx context.Context, caller id.UserID, rec *Record, action audit.Action) (id.RecordID, error) {
	if err := s.records.Create(ctx, rec); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store record")
	}
	if err := s.directory.AppendRecordID(ctx, caller, rec.ID); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to link record to profile")
	}
	if _, err := s.recorder.Record(ctx, caller, audit.Entry{Action: action, RecordID: rec.ID}); err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.RecordsCreated.Inc()
	}
	return rec.ID, nil
}

// GrantAccess inserts or overwrites the grantee's permission on the record
// and mirrors the grant into the sharing index. Owner-only.
func (s *Service) GrantAccess(ctx context.Context, caller id.UserID, recordID id.RecordID, grantee id.UserID, perm Permission) error {
	ctx, span := s.tracer.Start(ctx, "record.GrantAccess")
	defer span.End()

	if _, err := s.directory.ResolveOrCreate(ctx, caller); err != nil {
		return err
	}
	rec, err := s.requireOwned(ctx, caller, recordID)
	if err != nil {
		return err
	}

	s.shareMu.Lock()
	if err := s.records.SetPermission(ctx, recordID, grantee, perm); err != nil {
		s.shareMu.Unlock()
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set permission")
	}
	// The owner is never indexed: their access is implicit and granting to
	// them must not desync the index.
	if grantee != rec.Owner {
		if err := s.index.Add(ctx, grantee, recordID); err != nil {
			s.shareMu.Unlock()
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update sharing index")
		}
	}
	s.shareMu.Unlock()

	if _, err := s.recorder.Record(ctx, caller, audit.Entry{
		Action:   audit.ActionGrantAccess,
		RecordID: recordID,
		Target:   grantee.String(),
	}); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.AccessGrants.Inc()
	}
	return nil
}

// RevokeAccess removes the grantee's access-list entry and its index mirror.
// Revoking a grantee that was never granted succeeds and changes nothing;
// the owner's materialized entry is not revocable.
func (s *Service) RevokeAccess(ctx context.Context, caller id.UserID, recordID id.RecordID, grantee id.UserID) error {
	ctx, span := s.tracer.Start(ctx, "record.RevokeAccess")
	defer span.End()

	if _, err := s.directory.ResolveOrCreate(ctx, caller); err != nil {
		return err
	}
	rec, err := s.requireOwned(ctx, caller, recordID)
	if err != nil {
		return err
	}
	if grantee == rec.Owner {
		return nil
	}

	s.shareMu.Lock()
	if err := s.records.RemovePermission(ctx, recordID, grantee); err != nil {
		s.shareMu.Unlock()
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove permission")
	}
	if err := s.index.Remove(ctx, grantee, recordID); err != nil {
		s.shareMu.Unlock()
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update sharing index")
	}
	s.shareMu.Unlock()

	if _, err := s.recorder.Record(ctx, caller, audit.Entry{
		Action:   audit.ActionRevokeAccess,
		RecordID: recordID,
		Target:   grantee.String(),
	}); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.AccessRevokes.Inc()
	}
	return nil
}

// SubmitForResearch folds the record into the research pool by granting the
// anonymous principal view-only anonymized access. Owner control is
// untouched.
func (s *Service) SubmitForResearch(ctx context.Context, caller id.UserID, recordID id.RecordID) error {
	if _, err := s.directory.ResolveOrCreate(ctx, caller); err != nil {
		return err
	}
	if _, err := s.requireOwned(ctx, caller, recordID); err != nil {
		return err
	}

	s.shareMu.Lock()
	if err := s.records.SetPermission(ctx, recordID, id.AnonymousUser, ResearchPermission()); err != nil {
		s.shareMu.Unlock()
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set permission")
	}
	if err := s.index.Add(ctx, id.AnonymousUser, recordID); err != nil {
		s.shareMu.Unlock()
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update sharing index")
	}
	s.shareMu.Unlock()

	_, err := s.recorder.Record(ctx, caller, audit.Entry{Action: audit.ActionSubmitForResearch, RecordID: recordID})
	return err
}

// ListOwned returns the caller's records by following the profile's
// record-id list, not by scanning the store. Identifiers that no longer
// resolve are skipped.
func (s *Service) ListOwned(ctx context.Context, caller id.UserID) ([]*Record, error) {
	profile, err := s.directory.ResolveOrCreate(ctx, caller)
	if err != nil {
		return nil, err
	}
	owned := make([]*Record, 0, len(profile.Records))
	for _, recordID := range profile.Records {
		rec, err := s.records.FindByID(ctx, recordID)
		if err != nil {
			continue
		}
		owned = append(owned, rec)
	}
	return owned, nil
}

// ListSharedWithMe joins the caller's sharing-index entry against the record
// store and enriches each hit with directory data about the owner.
func (s *Service) ListSharedWithMe(ctx context.Context, caller id.UserID) ([]Info, error) {
	if _, err := s.directory.ResolveOrCreate(ctx, caller); err != nil {
		return nil, err
	}
	recordIDs, err := s.index.List(ctx, caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read sharing index")
	}

	shared := make([]Info, 0, len(recordIDs))
	for _, recordID := range recordIDs {
		rec, err := s.records.FindByID(ctx, recordID)
		if err != nil {
			s.logger.WarnContext(ctx, "sharing index references missing record",
				"record_id", recordID.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
			continue
		}
		info := Info{Record: rec}
		if owner, err := s.directory.Lookup(ctx, rec.Owner); err == nil {
			info.OwnerName = owner.Name
			info.OwnerVerified = owner.Verification.Status == id.VerificationApproved
		}
		shared = append(shared, info)
	}
	return shared, nil
}

// DashboardStats aggregates the caller's sharing activity in one pass over
// their owned records. Pure read.
func (s *Service) DashboardStats(ctx context.Context, caller id.UserID) (Stats, error) {
	profile, err := s.directory.ResolveOrCreate(ctx, caller)
	if err != nil {
		return Stats{}, err
	}

	grantees := make(map[id.UserID]struct{})
	var totalStorage uint64
	for _, recordID := range profile.Records {
		rec, err := s.records.FindByID(ctx, recordID)
		if err != nil {
			continue
		}
		totalStorage += rec.Size
		for grantee := range rec.Access {
			if grantee != rec.Owner {
				grantees[grantee] = struct{}{}
			}
		}
	}

	return Stats{
		ActiveShareCount:    uint64(len(grantees)),
		RecentActivityCount: uint64(len(profile.AuditLog)),
		TotalStorage:        totalStorage,
	}, nil
}

// Get returns a record if the caller may view it: owner or view-capable
// grantee.
func (s *Service) Get(ctx context.Context, caller id.UserID, recordID id.RecordID) (*Record, error) {
	rec, err := s.find(ctx, recordID)
	if err != nil {
		return nil, err
	}
	perm, ok := rec.PermissionFor(caller)
	if !ok || !perm.CanView {
		return nil, dErrors.New(dErrors.CodeForbidden, "caller may not view this record")
	}
	return rec, nil
}

func (s *Service) find(ctx context.Context, recordID id.RecordID) (*Record, error) {
	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	return rec, nil
}

func (s *Service) requireOwned(ctx context.Context, caller id.UserID, recordID id.RecordID) (*Record, error) {
	rec, err := s.find(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.Owner != caller {
		return nil, dErrors.New(dErrors.CodeForbidden, "record not owned by caller")
	}
	return rec, nil
}
