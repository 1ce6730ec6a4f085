package handlers

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/vine/internal/services/messaging"
	"github.com/Ramsey-B/vine/pkg/models"
	"github.com/Ramsey-B/vine/pkg/tracing"
	"github.com/Ramsey-B/vine/pkg/utils"
)

// MessagingService is the message lifecycle surface used by the HTTP layer.
type MessagingService interface {
	SendMessage(ctx context.Context, senderID, receiverID, contents string) (*models.Message, error)
	ConfirmSend(ctx context.Context, senderID string, id uuid.UUID) (*models.Message, error)
	ViewInbox(ctx context.Context, receiverID string) (*messaging.Inbox, error)
	MarkRead(ctx context.Context, receiverID string, id uuid.UUID) (*models.Message, error)
	DeleteMessage(ctx context.Context, receiverID string, id uuid.UUID) error
}

// MessageHandler handles message API endpoints
type MessageHandler struct {
	service MessagingService
	logger  ectologger.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(service MessagingService, logger ectologger.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		logger:  logger,
	}
}

// SendMessageRequest represents the create draft request body
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Contents   string `json:"contents" validate:"required"`
}

// Register registers message routes
func (h *MessageHandler) Register(g *echo.Group) {
	g.POST("", h.Send)
	g.POST("/:id/send", h.ConfirmSend)
	g.GET("/inbox", h.Inbox)
	g.POST("/:id/read", h.MarkRead)
	g.DELETE("/:id", h.Delete)
}

// Send creates a draft addressed to the receiver
func (h *MessageHandler) Send(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MessageHandler.Send")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := GetMemberID(c)
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[SendMessageRequest](c)
	if err != nil {
		return err
	}

	message, err := h.service.SendMessage(ctx, memberID, req.ReceiverID, req.Contents)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to create message draft")
		return err
	}

	return CreatedResponse(c, message)
}

// ConfirmSend moves the caller's draft to Sent
func (h *MessageHandler) ConfirmSend(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MessageHandler.ConfirmSend")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := GetMemberID(c)
	if err != nil {
		return err
	}

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	message, err := h.service.ConfirmSend(ctx, memberID, id)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to confirm message send")
		return err
	}

	return SuccessResponse(c, message)
}

// Inbox delivers pending messages to the caller and returns the inbox
func (h *MessageHandler) Inbox(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MessageHandler.Inbox")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := GetMemberID(c)
	if err != nil {
		return err
	}

	inbox, err := h.service.ViewInbox(ctx, memberID)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to load inbox")
		return err
	}

	return SuccessResponse(c, inbox)
}

// MarkRead records that the caller has read the message
func (h *MessageHandler) MarkRead(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MessageHandler.MarkRead")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := GetMemberID(c)
	if err != nil {
		return err
	}

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	message, err := h.service.MarkRead(ctx, memberID, id)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to mark message read")
		return err
	}

	return SuccessResponse(c, message)
}

// Delete removes the message from the caller's inbox
func (h *MessageHandler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MessageHandler.Delete")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := GetMemberID(c)
	if err != nil {
		return err
	}

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteMessage(ctx, memberID, id); err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to delete message")
		return err
	}

	return NoContentResponse(c)
}
