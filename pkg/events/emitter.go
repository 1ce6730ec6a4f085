// Package events handles event emission for connection and message lifecycle changes
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/vine/pkg/kafka"
	"github.com/Ramsey-B/vine/pkg/models"
	"github.com/Ramsey-B/vine/pkg/tracing"
)

// Emitter handles event emission for Vine
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitConnectionRequested emits a connection.requested event
func (e *Emitter) EmitConnectionRequested(ctx context.Context, requesterID, recipientID string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitConnectionRequested")
	defer span.End()

	event := &kafka.ConnectionEvent{
		EventType:   "connection.requested",
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      models.ConnectionStatusRequest,
	}

	if err := e.producer.PublishConnectionEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit connection.requested event")
		return err
	}

	return nil
}

// EmitConnectionAccepted emits a connection.accepted event
func (e *Emitter) EmitConnectionAccepted(ctx context.Context, requesterID, recipientID string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitConnectionAccepted")
	defer span.End()

	event := &kafka.ConnectionEvent{
		EventType:   "connection.accepted",
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      models.ConnectionStatusAccepted,
	}

	if err := e.producer.PublishConnectionEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit connection.accepted event")
		return err
	}

	return nil
}

// EmitConnectionDeclined emits a connection.declined event
func (e *Emitter) EmitConnectionDeclined(ctx context.Context, requesterID, recipientID string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitConnectionDeclined")
	defer span.End()

	event := &kafka.ConnectionEvent{
		EventType:   "connection.declined",
		RequesterID: requesterID,
		RecipientID: recipientID,
	}

	if err := e.producer.PublishConnectionEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit connection.declined event")
		return err
	}

	return nil
}

// EmitMessageEvent emits a message lifecycle event (sent, read, deleted)
func (e *Emitter) EmitMessageEvent(ctx context.Context, eventType string, msg *models.Message) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMessageEvent")
	defer span.End()

	event := &kafka.MessageEvent{
		EventType:  eventType,
		MessageID:  msg.ID.String(),
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Status:     msg.Status,
	}

	if err := e.producer.PublishMessageEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}

	return nil
}
