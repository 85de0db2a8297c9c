package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"kioskgate/internal/session"
	"kioskgate/internal/verify"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
)

// fakeService records calls and returns canned results.
type fakeService struct {
	startResult  *session.Session
	startErr     error
	submitResult *session.SubmitResult
	submitErr    error
	resetErr     error

	lastMethod id.MethodKind
	lastCred   verify.Credential
}

func (f *fakeService) Start(_ context.Context, _ id.LocationID, _ id.Direction) (*session.Session, error) {
	return f.startResult, f.startErr
}

func (f *fakeService) Submit(_ context.Context, _ id.SessionID, kind id.MethodKind, cred verify.Credential) (*session.SubmitResult, error) {
	f.lastMethod = kind
	f.lastCred = cred
	return f.submitResult, f.submitErr
}

func (f *fakeService) Reset(context.Context, id.SessionID) error { return f.resetErr }

func (f *fakeService) Get(context.Context, id.SessionID) (*session.Session, error) {
	return f.startResult, f.startErr
}

type SessionHandlerSuite struct {
	suite.Suite
	service *fakeService
	router  *chi.Mux
}

func TestSessionHandlerSuite(t *testing.T) {
	suite.Run(t, new(SessionHandlerSuite))
}

func (s *SessionHandlerSuite) SetupTest() {
	s.service = &fakeService{}
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *SessionHandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *SessionHandlerSuite) TestStart() {
	locationID := uuid.NewString()

	s.Run("creates a session", func() {
		s.service.startResult = &session.Session{
			ID:        id.NewSessionID(),
			Direction: id.DirectionEntry,
			Required:  []id.MethodKind{id.MethodQR},
			Completed: id.NewMethodSet(),
			State:     session.StateAwaiting,
			Awaiting:  id.MethodQR,
			CreatedAt: time.Now(),
		}

		rec := s.do(http.MethodPost, "/sessions", `{"location_id":"`+locationID+`","direction":"access"}`)
		s.Equal(http.StatusCreated, rec.Code)

		var resp SessionResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal("awaiting", resp.State)
		s.Equal("qr", resp.Awaiting)
		s.Equal([]string{"qr"}, resp.Required)
	})

	s.Run("rejects a bad direction before touching the service", func() {
		rec := s.do(http.MethodPost, "/sessions", `{"location_id":"`+locationID+`","direction":"sideways"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("maps an unconfigured policy to 422", func() {
		s.service.startResult = nil
		s.service.startErr = dErrors.New(dErrors.CodeInvalidPolicy, "location has no verification methods configured for this direction")

		rec := s.do(http.MethodPost, "/sessions", `{"location_id":"`+locationID+`","direction":"exit"}`)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})
}

func (s *SessionHandlerSuite) TestSubmit() {
	sessionID := id.NewSessionID()

	s.Run("passes the decoded credential to the service", func() {
		s.service.submitResult = &session.SubmitResult{
			SessionID: sessionID,
			Status:    session.StatusGranted,
			Required:  []id.MethodKind{id.MethodQR},
			Completed: []id.MethodKind{id.MethodQR},
		}

		rec := s.do(http.MethodPost, "/sessions/"+sessionID.String()+"/submit",
			`{"method":"qr","qr_token":"tok-123"}`)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(id.MethodQR, s.service.lastMethod)
		s.Equal("tok-123", s.service.lastCred.Token)

		var resp SubmitResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal("granted", resp.Status)
	})

	s.Run("decodes a base64 photo credential", func() {
		s.service.submitResult = &session.SubmitResult{SessionID: sessionID, Status: session.StatusProgress}

		rec := s.do(http.MethodPost, "/sessions/"+sessionID.String()+"/submit",
			`{"method":"photo","image":"ZnJhbWU="}`)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal([]byte("frame"), s.service.lastCred.Image)
	})

	s.Run("rejects a credential missing for the method", func() {
		rec := s.do(http.MethodPost, "/sessions/"+sessionID.String()+"/submit", `{"method":"pin"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("rejects a malformed session id", func() {
		rec := s.do(http.MethodPost, "/sessions/not-a-uuid/submit", `{"method":"qr","qr_token":"tok"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("maps a denial taxonomy error to 403", func() {
		s.service.submitResult = nil
		s.service.submitErr = dErrors.New(dErrors.CodeIdentityMismatch, "credentials resolve to different identities")

		rec := s.do(http.MethodPost, "/sessions/"+sessionID.String()+"/submit",
			`{"method":"qr","qr_token":"tok"}`)
		s.Equal(http.StatusForbidden, rec.Code)
	})
}

func (s *SessionHandlerSuite) TestReset() {
	s.Run("resets quietly", func() {
		rec := s.do(http.MethodPost, "/sessions/"+id.NewSessionID().String()+"/reset", "")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("unknown session is 404", func() {
		s.service.resetErr = dErrors.New(dErrors.CodeNotFound, "session not found")
		rec := s.do(http.MethodPost, "/sessions/"+id.NewSessionID().String()+"/reset", "")
		s.Equal(http.StatusNotFound, rec.Code)
	})
}
