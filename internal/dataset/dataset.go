// Package dataset is the research dataset catalogue: metadata about
// anonymized data pools assembled outside this service. Single-map CRUD; the
// only invariant is identifier uniqueness.
package dataset

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"healthchain/internal/audit"
	"healthchain/internal/identity"
	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/sentinel"
	"healthchain/pkg/requestcontext"
)

// Metadata describes one catalogued dataset. AnonymizedDataRef points at the
// externally managed data pool; the engine stores it verbatim.
type Metadata struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	RecordCount       uint64    `json:"record_count"`
	CreatedAt         time.Time `json:"created_at"`
	AnonymizedDataRef string    `json:"anonymized_data_ref"`
}

// Store persists dataset metadata.
type Store interface {
	Create(ctx context.Context, meta Metadata) error
	List(ctx context.Context) ([]Metadata, error)
}

// InMemory keeps the catalogue in process memory, in creation order.
type InMemory struct {
	mu       sync.RWMutex
	datasets map[string]Metadata
	order    []string
}

func NewInMemory() *InMemory {
	return &InMemory{datasets: make(map[string]Metadata)}
}

func (s *InMemory) Create(_ context.Context, meta Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.datasets[meta.ID]; ok {
		return sentinel.ErrConflict
	}
	s.datasets[meta.ID] = meta
	s.order = append(s.order, meta.ID)
	return nil
}

func (s *InMemory) List(_ context.Context) ([]Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Metadata, 0, len(s.order))
	for _, datasetID := range s.order {
		out = append(out, s.datasets[datasetID])
	}
	return out, nil
}

// Directory gates catalogue writes behind the admin role.
type Directory interface {
	ResolveOrCreate(ctx context.Context, caller id.UserID) (*identity.UserProfile, error)
}

type Service struct {
	datasets  Store
	directory Directory
	recorder  *audit.Recorder
	logger    *slog.Logger
}

func NewService(datasets Store, directory Directory, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{datasets: datasets, directory: directory, recorder: recorder, logger: logger}
}

// Create catalogues a dataset. Admin-only.
func (s *Service) Create(ctx context.Context, caller id.UserID, meta Metadata) error {
	profile, err := s.directory.ResolveOrCreate(ctx, caller)
	if err != nil {
		return err
	}
	if !profile.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	if meta.ID == "" || meta.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "dataset id and name are required")
	}

	meta.CreatedAt = requestcontext.Now(ctx)
	if err := s.datasets.Create(ctx, meta); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "dataset id already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store dataset")
	}

	_, err = s.recorder.Record(ctx, caller, audit.Entry{Action: audit.ActionCreateDataset, MetaRef: meta.ID})
	return err
}

// List returns the full catalogue. Any authenticated caller may browse.
func (s *Service) List(ctx context.Context) ([]Metadata, error) {
	return s.datasets.List(ctx)
}
