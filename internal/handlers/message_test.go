package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/vine/internal/repositories"
	"github.com/Ramsey-B/vine/internal/services/messaging"
	"github.com/Ramsey-B/vine/pkg/middleware"
	"github.com/Ramsey-B/vine/pkg/models"
)

type stubMessagingService struct {
	message *models.Message
	inbox   *messaging.Inbox
	err     error
}

func (s *stubMessagingService) SendMessage(_ context.Context, senderID, receiverID, contents string) (*models.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Contents:   contents,
		Status:     models.MessageStatusDraft,
	}, nil
}

func (s *stubMessagingService) ConfirmSend(_ context.Context, _ string, _ uuid.UUID) (*models.Message, error) {
	return s.message, s.err
}

func (s *stubMessagingService) ViewInbox(_ context.Context, _ string) (*messaging.Inbox, error) {
	return s.inbox, s.err
}

func (s *stubMessagingService) MarkRead(_ context.Context, _ string, _ uuid.UUID) (*models.Message, error) {
	return s.message, s.err
}

func (s *stubMessagingService) DeleteMessage(_ context.Context, _ string, _ uuid.UUID) error {
	return s.err
}

func newMessageTestServer(service MessagingService) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(noopLogger())
	e.Use(middleware.Context())
	e.Use(middleware.TestAuth())
	NewMessageHandler(service, noopLogger()).Register(e.Group("/api/v1/messages"))
	return e
}

func TestSend_CreatesDraft(t *testing.T) {
	e := newMessageTestServer(&stubMessagingService{})

	rec := doRequest(e, http.MethodPost, "/api/v1/messages", "alice", map[string]string{
		"receiver_id": "bob",
		"contents":    "hello",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var message models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &message))
	assert.Equal(t, models.MessageStatusDraft, message.Status)
	assert.Equal(t, "alice", message.SenderID)
}

func TestSend_MissingFields(t *testing.T) {
	e := newMessageTestServer(&stubMessagingService{})

	rec := doRequest(e, http.MethodPost, "/api/v1/messages", "alice", map[string]string{"receiver_id": "bob"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmSend_InvalidID(t *testing.T) {
	e := newMessageTestServer(&stubMessagingService{})

	rec := doRequest(e, http.MethodPost, "/api/v1/messages/not-a-uuid/send", "alice", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmSend_ForbiddenForNonSender(t *testing.T) {
	e := newMessageTestServer(&stubMessagingService{err: repositories.Forbidden("only the sender may send this message")})

	rec := doRequest(e, http.MethodPost, "/api/v1/messages/"+uuid.NewString()+"/send", "mallory", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInbox_ReturnsDeliveredCount(t *testing.T) {
	inbox := &messaging.Inbox{
		Messages: []models.Message{
			{ID: uuid.New(), SenderID: "alice", ReceiverID: "bob", Status: models.MessageStatusDelivered},
		},
		Delivered: 1,
	}
	e := newMessageTestServer(&stubMessagingService{inbox: inbox})

	rec := doRequest(e, http.MethodGet, "/api/v1/messages/inbox", "bob", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got messaging.Inbox
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.Delivered)
	require.Len(t, got.Messages, 1)
}

func TestDelete_NoContent(t *testing.T) {
	e := newMessageTestServer(&stubMessagingService{})

	rec := doRequest(e, http.MethodDelete, "/api/v1/messages/"+uuid.NewString(), "bob", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDelete_NotFound(t *testing.T) {
	e := newMessageTestServer(&stubMessagingService{err: repositories.NotFound("message does not exist")})

	rec := doRequest(e, http.MethodDelete, "/api/v1/messages/"+uuid.NewString(), "bob", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
