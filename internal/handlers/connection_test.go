package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/vine/internal/services/network"
	"github.com/Ramsey-B/vine/pkg/middleware"
	"github.com/Ramsey-B/vine/pkg/models"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type stubNetworkService struct {
	decision  models.Decision
	entries   []models.ConnectionEntry
	reachable []network.ReachableMember
	err       error

	lastRequester string
	lastCandidate string
}

func (s *stubNetworkService) ProposeConnection(_ context.Context, requesterID, candidateID string) (models.Decision, error) {
	s.lastRequester = requesterID
	s.lastCandidate = candidateID
	return s.decision, s.err
}

func (s *stubNetworkService) AcceptConnection(_ context.Context, _, _ string) error {
	return s.err
}

func (s *stubNetworkService) DeclineConnection(_ context.Context, _, _ string) error {
	return s.err
}

func (s *stubNetworkService) ListConnections(_ context.Context, _ string, _ models.ConnectionFilter) ([]models.ConnectionEntry, error) {
	return s.entries, s.err
}

func (s *stubNetworkService) Reachable(_ context.Context, _ string, _ int) ([]network.ReachableMember, error) {
	return s.reachable, s.err
}

func newTestServer(service NetworkService) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(noopLogger())
	e.Use(middleware.Context())
	e.Use(middleware.TestAuth())
	NewConnectionHandler(service, noopLogger()).Register(e.Group("/api/v1/connections"))
	return e
}

func doRequest(e *echo.Echo, method, path, memberID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if memberID != "" {
		req.Header.Set(middleware.HeaderUserID, memberID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPropose_RequiresAuthentication(t *testing.T) {
	e := newTestServer(&stubNetworkService{})

	rec := doRequest(e, http.MethodPost, "/api/v1/connections/requests", "", map[string]string{"candidate_id": "u2"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPropose_Allowed(t *testing.T) {
	service := &stubNetworkService{decision: models.Allow(true)}
	e := newTestServer(service)

	rec := doRequest(e, http.MethodPost, "/api/v1/connections/requests", "u1", map[string]string{"candidate_id": "u2"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", service.lastRequester)
	assert.Equal(t, "u2", service.lastCandidate)

	var decision models.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.True(t, decision.Allowed)
	assert.True(t, decision.QuotaCharged)
}

func TestPropose_RejectionStatuses(t *testing.T) {
	cases := []struct {
		reason models.RejectReason
		status int
	}{
		{models.ReasonSelfTarget, http.StatusBadRequest},
		{models.ReasonUnknownCandidate, http.StatusNotFound},
		{models.ReasonAlreadyConnectedOrPending, http.StatusConflict},
		{models.ReasonQuotaExceeded, http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		t.Run(string(tc.reason), func(t *testing.T) {
			e := newTestServer(&stubNetworkService{decision: models.Reject(tc.reason)})

			rec := doRequest(e, http.MethodPost, "/api/v1/connections/requests", "u1", map[string]string{"candidate_id": "u2"})

			assert.Equal(t, tc.status, rec.Code)

			var decision models.Decision
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
			assert.False(t, decision.Allowed)
			assert.Equal(t, tc.reason, decision.Reason)
		})
	}
}

func TestPropose_MissingCandidate(t *testing.T) {
	e := newTestServer(&stubNetworkService{})

	rec := doRequest(e, http.MethodPost, "/api/v1/connections/requests", "u1", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRespond_InvalidAction(t *testing.T) {
	e := newTestServer(&stubNetworkService{})

	rec := doRequest(e, http.MethodPut, "/api/v1/connections/u2", "u1", map[string]string{"action": "maybe"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRespond_Accept(t *testing.T) {
	e := newTestServer(&stubNetworkService{})

	rec := doRequest(e, http.MethodPut, "/api/v1/connections/u2", "u1", map[string]string{"action": "accept"})

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestList_UnknownFilter(t *testing.T) {
	e := newTestServer(&stubNetworkService{})

	rec := doRequest(e, http.MethodGet, "/api/v1/connections?filter=bogus", "u1", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestList_DefaultsToAccepted(t *testing.T) {
	service := &stubNetworkService{entries: []models.ConnectionEntry{
		{CounterpartID: "u2", Status: models.ConnectionStatusAccepted},
	}}
	e := newTestServer(service)

	rec := doRequest(e, http.MethodGet, "/api/v1/connections", "u1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var entries []models.ConnectionEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "u2", entries[0].CounterpartID)
}

func TestReachable_BadDepth(t *testing.T) {
	e := newTestServer(&stubNetworkService{})

	rec := doRequest(e, http.MethodGet, "/api/v1/connections/reachable?depth=abc", "u1", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReachable_ReturnsMembers(t *testing.T) {
	service := &stubNetworkService{reachable: []network.ReachableMember{
		{MemberID: "u2", Degree: 1},
		{MemberID: "u3", Degree: 2},
	}}
	e := newTestServer(service)

	rec := doRequest(e, http.MethodGet, "/api/v1/connections/reachable?depth=2", "u1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var members []network.ReachableMember
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &members))
	require.Len(t, members, 2)
	assert.Equal(t, 1, members[0].Degree)
}
