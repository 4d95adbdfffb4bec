package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"healthchain/internal/audit"
	"healthchain/internal/identity"
	id "healthchain/pkg/domain"
	"healthchain/pkg/requestcontext"
)

const adminPrincipal = id.UserID("root-admin")

type IdentityHandlerSuite struct {
	suite.Suite
	router http.Handler
}

func (s *IdentityHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	profiles := identity.NewInMemory()
	recorder := audit.NewRecorder(audit.NewInMemoryStore(), profiles, logger)
	service := identity.NewService(profiles, recorder, logger, identity.WithBootstrapAdmin(adminPrincipal))

	r := chi.NewRouter()
	New(service, logger).Register(r)
	s.router = r
}

func TestIdentityHandlerSuite(t *testing.T) {
	suite.Run(t, new(IdentityHandlerSuite))
}

// do issues a request with the caller identity already bound, the way the
// auth middleware binds it in production.
func (s *IdentityHandlerSuite) do(caller id.UserID, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req = req.WithContext(requestcontext.WithCallerID(req.Context(), caller))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *IdentityHandlerSuite) TestGetProfile() {
	s.Run("creates the profile on first contact", func() {
		rec := s.do("alice", http.MethodGet, "/profile", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp ProfileResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal(id.UserID("alice"), resp.ID)
		s.Len(resp.Roles, 3)
	})

	s.Run("rejects an unauthenticated request", func() {
		rec := s.do("", http.MethodGet, "/profile", nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func (s *IdentityHandlerSuite) TestRename() {
	s.Run("renames and returns the profile", func() {
		rec := s.do("alice", http.MethodPut, "/profile/name", RenameRequest{Name: "Alice L"})
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp ProfileResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("Alice L", resp.Name)
	})

	s.Run("taken name maps to 409", func() {
		s.Require().Equal(http.StatusOK, s.do("alice", http.MethodPut, "/profile/name", RenameRequest{Name: "Taken"}).Code)
		rec := s.do("bob", http.MethodPut, "/profile/name", RenameRequest{Name: "taken"})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("empty name maps to 400", func() {
		rec := s.do("alice", http.MethodPut, "/profile/name", RenameRequest{Name: "  "})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("invalid JSON maps to 400", func() {
		req := httptest.NewRequest(http.MethodPut, "/profile/name", bytes.NewReader([]byte("not json")))
		req = req.WithContext(requestcontext.WithCallerID(req.Context(), "alice"))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *IdentityHandlerSuite) TestRolesAndAdmin() {
	s.Run("unknown role maps to 400", func() {
		rec := s.do("alice", http.MethodPost, "/profile/roles", AddRoleRequest{Role: "superuser"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("promotion by non-admin maps to 403", func() {
		s.Require().Equal(http.StatusOK, s.do("target", http.MethodGet, "/profile", nil).Code)
		rec := s.do("alice", http.MethodPost, "/admin/promote", TargetUserRequest{UserID: "target"})
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("admin promotes a known principal", func() {
		s.Require().Equal(http.StatusOK, s.do("target", http.MethodGet, "/profile", nil).Code)
		rec := s.do(adminPrincipal, http.MethodPost, "/admin/promote", TargetUserRequest{UserID: "target"})
		s.Require().Equal(http.StatusNoContent, rec.Code)

		profile := s.do("target", http.MethodGet, "/profile", nil)
		var resp ProfileResponse
		s.Require().NoError(json.NewDecoder(profile.Body).Decode(&resp))
		s.Contains(resp.Roles, id.RoleAdmin)
	})

	s.Run("promoting an unseen principal maps to 404", func() {
		rec := s.do(adminPrincipal, http.MethodPost, "/admin/promote", TargetUserRequest{UserID: "never-seen"})
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *IdentityHandlerSuite) TestVerification() {
	s.Run("submission is accepted", func() {
		rec := s.do("alice", http.MethodPost, "/profile/verification", SubmitVerificationRequest{EvidenceRef: "evidence://doc"})
		s.Equal(http.StatusAccepted, rec.Code)
	})

	s.Run("admin approval upgrades the tier", func() {
		s.Require().Equal(http.StatusAccepted, s.do("bob", http.MethodPost, "/profile/verification", SubmitVerificationRequest{EvidenceRef: "evidence://doc"}).Code)
		s.Require().Equal(http.StatusNoContent, s.do(adminPrincipal, http.MethodPost, "/admin/verify", TargetUserRequest{UserID: "bob"}).Code)

		profile := s.do("bob", http.MethodGet, "/profile", nil)
		var resp ProfileResponse
		s.Require().NoError(json.NewDecoder(profile.Body).Decode(&resp))
		s.Equal(id.TierVerified, resp.Tier)
		s.Equal(id.VerificationApproved, resp.Verification.Status)
	})
}

func (s *IdentityHandlerSuite) TestAuditLog() {
	s.Require().Equal(http.StatusOK, s.do("alice", http.MethodPut, "/profile/name", RenameRequest{Name: "Audited"}).Code)

	rec := s.do("alice", http.MethodGet, "/audit", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp AuditLogResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Require().NotEmpty(resp.Entries)
	s.Equal(audit.ActionRename, resp.Entries[0].Action)
}
