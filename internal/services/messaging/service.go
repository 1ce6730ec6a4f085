// Package messaging implements the message lifecycle: drafting, sending,
// inbox delivery, reading, and deletion.
package messaging

import (
	"context"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/vine/internal/repositories"
	"github.com/Ramsey-B/vine/pkg/events"
	"github.com/Ramsey-B/vine/pkg/metrics"
	"github.com/Ramsey-B/vine/pkg/models"
	"github.com/Ramsey-B/vine/pkg/tracing"
)

// MaxContentsLength caps message bodies.
const MaxContentsLength = 2000

// Inbox is the receiver's materialized view: every non-draft message
// addressed to them, oldest first, with the count of messages delivered by
// this viewing.
type Inbox struct {
	Messages  []models.Message `json:"messages"`
	Delivered int64            `json:"delivered"`
}

// Service coordinates message lifecycle transitions.
type Service struct {
	members  repositories.MemberRepo
	messages repositories.MessageRepo
	events   *events.Emitter
	logger   ectologger.Logger
}

// NewService creates the messaging service. emitter may be nil when event
// publishing is disabled.
func NewService(members repositories.MemberRepo, messages repositories.MessageRepo, emitter *events.Emitter, logger ectologger.Logger) *Service {
	return &Service{
		members:  members,
		messages: messages,
		events:   emitter,
		logger:   logger,
	}
}

// SendMessage creates a draft from senderID to receiverID. The draft is not
// visible to the receiver until ConfirmSend.
func (s *Service) SendMessage(ctx context.Context, senderID, receiverID, contents string) (*models.Message, error) {
	ctx, span := tracing.StartSpan(ctx, "messaging.Service.SendMessage")
	defer span.End()

	if strings.TrimSpace(contents) == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "message contents must not be empty")
	}
	if len(contents) > MaxContentsLength {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "message contents must not exceed %d characters", MaxContentsLength)
	}

	exists, err := s.members.Exists(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "receiver %s does not exist", receiverID)
	}

	message := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Contents:   contents,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	metrics.MessageTransitionsTotal.WithLabelValues("draft").Inc()
	return message, nil
}

// ConfirmSend moves the caller's draft to Sent, making it eligible for
// delivery on the receiver's next inbox view.
func (s *Service) ConfirmSend(ctx context.Context, senderID string, id uuid.UUID) (*models.Message, error) {
	ctx, span := tracing.StartSpan(ctx, "messaging.Service.ConfirmSend")
	defer span.End()

	if err := s.messages.ConfirmSend(ctx, senderID, id); err != nil {
		return nil, err
	}

	message, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.MessageTransitionsTotal.WithLabelValues("sent").Inc()
	if s.events != nil {
		if err := s.events.EmitMessageEvent(ctx, "message.sent", message); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("message.sent event not published")
		}
	}

	return message, nil
}

// ViewInbox delivers pending Sent messages to receiverID and returns the
// inbox. Viewing twice in a row delivers nothing the second time.
func (s *Service) ViewInbox(ctx context.Context, receiverID string) (*Inbox, error) {
	ctx, span := tracing.StartSpan(ctx, "messaging.Service.ViewInbox")
	defer span.End()

	messages, delivered, err := s.messages.MaterializeInbox(ctx, receiverID)
	if err != nil {
		return nil, err
	}

	if delivered > 0 {
		metrics.MessageTransitionsTotal.WithLabelValues("delivered").Add(float64(delivered))
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"receiver_id": receiverID,
			"delivered":   delivered,
		}).Info("inbox messages delivered")
	}

	return &Inbox{Messages: messages, Delivered: delivered}, nil
}

// MarkRead records that receiverID has read the message. Idempotent.
func (s *Service) MarkRead(ctx context.Context, receiverID string, id uuid.UUID) (*models.Message, error) {
	ctx, span := tracing.StartSpan(ctx, "messaging.Service.MarkRead")
	defer span.End()

	if err := s.messages.MarkRead(ctx, receiverID, id); err != nil {
		return nil, err
	}

	message, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.MessageTransitionsTotal.WithLabelValues("read").Inc()
	if s.events != nil {
		if err := s.events.EmitMessageEvent(ctx, "message.read", message); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("message.read event not published")
		}
	}

	return message, nil
}

// DeleteMessage removes the message from receiverID's inbox. The sender keeps
// no copy; deletion is final.
func (s *Service) DeleteMessage(ctx context.Context, receiverID string, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "messaging.Service.DeleteMessage")
	defer span.End()

	message, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.messages.Delete(ctx, receiverID, id); err != nil {
		return err
	}

	metrics.MessageTransitionsTotal.WithLabelValues("deleted").Inc()
	if s.events != nil {
		if err := s.events.EmitMessageEvent(ctx, "message.deleted", message); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("message.deleted event not published")
		}
	}

	return nil
}
