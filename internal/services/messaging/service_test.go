package messaging

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/vine/internal/repositories"
	"github.com/Ramsey-B/vine/pkg/models"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type stubMembers struct {
	ids map[string]struct{}
}

func (s *stubMembers) Create(_ context.Context, member *models.Member) error {
	s.ids[member.ID] = struct{}{}
	return nil
}

func (s *stubMembers) Get(_ context.Context, id string) (*models.Member, error) {
	if _, ok := s.ids[id]; !ok {
		return nil, repositories.NotFound("member %s does not exist", id)
	}
	return &models.Member{ID: id}, nil
}

func (s *stubMembers) Exists(_ context.Context, id string) (bool, error) {
	_, ok := s.ids[id]
	return ok, nil
}

// stubMessages keeps messages in memory with the same transition rules the
// SQL store enforces.
type stubMessages struct {
	records map[uuid.UUID]*models.Message
}

func (s *stubMessages) Create(_ context.Context, message *models.Message) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.Status = models.MessageStatusDraft
	clone := *message
	s.records[message.ID] = &clone
	return nil
}

func (s *stubMessages) GetByID(_ context.Context, id uuid.UUID) (*models.Message, error) {
	message, ok := s.records[id]
	if !ok {
		return nil, repositories.NotFound("message %s does not exist", id)
	}
	clone := *message
	return &clone, nil
}

func (s *stubMessages) ConfirmSend(_ context.Context, senderID string, id uuid.UUID) error {
	message, ok := s.records[id]
	if !ok {
		return repositories.NotFound("message %s does not exist", id)
	}
	if message.SenderID != senderID {
		return repositories.Forbidden("only the sender may send this message")
	}
	if message.Status != models.MessageStatusDraft {
		return repositories.Conflict("message %s is already %s", id, message.Status)
	}
	message.Status = models.MessageStatusSent
	return nil
}

func (s *stubMessages) MaterializeInbox(_ context.Context, receiverID string) ([]models.Message, int64, error) {
	var delivered int64
	var inbox []models.Message
	for _, message := range s.records {
		if message.ReceiverID != receiverID || message.Status == models.MessageStatusDraft {
			continue
		}
		if message.Status == models.MessageStatusSent {
			message.Status = models.MessageStatusDelivered
			delivered++
		}
		inbox = append(inbox, *message)
	}
	sort.Slice(inbox, func(i, j int) bool { return inbox[i].CreatedAt.Before(inbox[j].CreatedAt) })
	return inbox, delivered, nil
}

func (s *stubMessages) MarkRead(_ context.Context, receiverID string, id uuid.UUID) error {
	message, ok := s.records[id]
	if !ok {
		return repositories.NotFound("message %s does not exist", id)
	}
	if message.ReceiverID != receiverID {
		return repositories.Forbidden("only the receiver may read this message")
	}
	message.Status = models.MessageStatusRead
	return nil
}

func (s *stubMessages) Delete(_ context.Context, receiverID string, id uuid.UUID) error {
	message, ok := s.records[id]
	if !ok {
		return repositories.NotFound("message %s does not exist", id)
	}
	if message.ReceiverID != receiverID {
		return repositories.Forbidden("only the receiver may delete this message")
	}
	delete(s.records, id)
	return nil
}

func newTestService() (*Service, *stubMessages) {
	members := &stubMembers{ids: map[string]struct{}{"alice": {}, "bob": {}}}
	messages := &stubMessages{records: make(map[uuid.UUID]*models.Message)}
	return NewService(members, messages, nil, noopLogger()), messages
}

func TestSendMessage_CreatesDraft(t *testing.T) {
	svc, _ := newTestService()

	message, err := svc.SendMessage(context.Background(), "alice", "bob", "hello")
	require.NoError(t, err)

	assert.Equal(t, models.MessageStatusDraft, message.Status)
	assert.Equal(t, "alice", message.SenderID)
	assert.Equal(t, "bob", message.ReceiverID)
	assert.NotEqual(t, uuid.Nil, message.ID)
}

func TestSendMessage_Validation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.SendMessage(context.Background(), "alice", "bob", "   ")
	assert.Error(t, err)

	_, err = svc.SendMessage(context.Background(), "alice", "bob", strings.Repeat("x", MaxContentsLength+1))
	assert.Error(t, err)

	_, err = svc.SendMessage(context.Background(), "alice", "ghost", "hello")
	assert.Error(t, err)
}

func TestMessageLifecycle_RoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	draft, err := svc.SendMessage(ctx, "alice", "bob", "hello")
	require.NoError(t, err)

	sent, err := svc.ConfirmSend(ctx, "alice", draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusSent, sent.Status)

	inbox, err := svc.ViewInbox(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), inbox.Delivered)
	require.Len(t, inbox.Messages, 1)
	assert.Equal(t, models.MessageStatusDelivered, inbox.Messages[0].Status)

	// A second viewing delivers nothing new.
	inbox, err = svc.ViewInbox(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, inbox.Delivered)
	require.Len(t, inbox.Messages, 1)

	read, err := svc.MarkRead(ctx, "bob", draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusRead, read.Status)
}

func TestConfirmSend_SenderOnly(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	draft, err := svc.SendMessage(ctx, "alice", "bob", "hello")
	require.NoError(t, err)

	_, err = svc.ConfirmSend(ctx, "bob", draft.ID)
	assert.Error(t, err)

	_, err = svc.ConfirmSend(ctx, "alice", draft.ID)
	require.NoError(t, err)

	// Confirming twice conflicts: the message already left Draft.
	_, err = svc.ConfirmSend(ctx, "alice", draft.ID)
	assert.Error(t, err)
}

func TestInbox_ExcludesDrafts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "alice", "bob", "still drafting")
	require.NoError(t, err)

	inbox, err := svc.ViewInbox(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, inbox.Messages)
	assert.Zero(t, inbox.Delivered)
}

func TestDeleteMessage_ReceiverOnly(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	draft, err := svc.SendMessage(ctx, "alice", "bob", "hello")
	require.NoError(t, err)
	_, err = svc.ConfirmSend(ctx, "alice", draft.ID)
	require.NoError(t, err)

	err = svc.DeleteMessage(ctx, "alice", draft.ID)
	assert.Error(t, err)

	require.NoError(t, svc.DeleteMessage(ctx, "bob", draft.ID))

	// Reading a deleted message is NotFound.
	_, err = svc.MarkRead(ctx, "bob", draft.ID)
	assert.Error(t, err)
}
