package dataset

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"healthchain/internal/audit"
	"healthchain/internal/identity"
	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
)

const admin = id.UserID("root-admin")

type DatasetSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context
}

func (s *DatasetSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	profiles := identity.NewInMemory()
	recorder := audit.NewRecorder(audit.NewInMemoryStore(), profiles, logger)
	directory := identity.NewService(profiles, recorder, logger, identity.WithBootstrapAdmin(admin))
	s.service = NewService(NewInMemory(), directory, recorder, logger)
	s.ctx = context.Background()
}

func TestDatasetSuite(t *testing.T) {
	suite.Run(t, new(DatasetSuite))
}

func (s *DatasetSuite) meta(datasetID string) Metadata {
	return Metadata{
		ID:                datasetID,
		Name:              "Cardiology 2026",
		Description:       "Anonymized cardiology records",
		RecordCount:       120,
		AnonymizedDataRef: "blob://datasets/" + datasetID,
	}
}

func (s *DatasetSuite) TestCreate() {
	s.Run("admin catalogues a dataset", func() {
		s.Require().NoError(s.service.Create(s.ctx, admin, s.meta("ds-1")))

		listed, err := s.service.List(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(listed, 1)
		s.Equal("ds-1", listed[0].ID)
		s.False(listed[0].CreatedAt.IsZero())
	})

	s.Run("non-admin is rejected", func() {
		err := s.service.Create(s.ctx, "researcher", s.meta("ds-2"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("duplicate identifier is a conflict", func() {
		s.Require().NoError(s.service.Create(s.ctx, admin, s.meta("ds-dup")))
		err := s.service.Create(s.ctx, admin, s.meta("ds-dup"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("id and name are required", func() {
		err := s.service.Create(s.ctx, admin, Metadata{Name: "No ID"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *DatasetSuite) TestListOrder() {
	s.Require().NoError(s.service.Create(s.ctx, admin, s.meta("ds-a")))
	s.Require().NoError(s.service.Create(s.ctx, admin, s.meta("ds-b")))
	s.Require().NoError(s.service.Create(s.ctx, admin, s.meta("ds-c")))

	listed, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 3)
	s.Equal("ds-a", listed[0].ID)
	s.Equal("ds-c", listed[2].ID)
}
