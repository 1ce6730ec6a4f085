package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/vine/pkg/database"
	"github.com/Ramsey-B/vine/pkg/models"
	"github.com/Ramsey-B/vine/pkg/tracing"
)

const messagesTable = "messages"

// MessageRepository handles database operations for messages
type MessageRepository struct {
	*Repository
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db database.DB, logger ectologger.Logger) *MessageRepository {
	return &MessageRepository{
		Repository: NewRepository(db, logger),
	}
}

// Create persists a new draft. The id and timestamps are filled in on the
// passed message.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	ctx, span := tracing.StartSpan(ctx, "MessageRepository.Create")
	defer span.End()

	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.Status = models.MessageStatusDraft

	ib := database.NewInsertBuilder()
	ib.InsertInto(messagesTable).
		Cols("id", "sender_id", "receiver_id", "contents", "status", "created_at", "updated_at").
		Values(message.ID, message.SenderID, message.ReceiverID, message.Contents, message.Status, sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		Returning("created_at", "updated_at")

	query, args := ib.Build()
	q := database.QuerierFromContext(ctx, r.DB())
	row := q.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&message.CreatedAt, &message.UpdatedAt); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"sender_id":   message.SenderID,
			"receiver_id": message.ReceiverID,
		}).Error("failed to create message draft")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create message draft")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"message_id": message.ID,
		"sender_id":  message.SenderID,
	}).Debugf("Created %s", messagesTable)
	return nil
}

var messageStruct = database.NewStruct(new(models.Message))

// GetByID retrieves a message by id
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	ctx, span := tracing.StartSpan(ctx, "MessageRepository.GetByID")
	defer span.End()

	sb := messageStruct.SelectFrom(messagesTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var message models.Message
	q := database.QuerierFromContext(ctx, r.DB())
	err := q.GetContext(ctx, &message, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("message %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"message_id": id,
		}).Error("failed to get message")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get message")
	}

	return &message, nil
}

// ConfirmSend moves the sender's draft to Sent. Only the sender may confirm,
// and only from the Draft status.
func (r *MessageRepository) ConfirmSend(ctx context.Context, senderID string, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "MessageRepository.ConfirmSend")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(messagesTable).
		Set(
			ub.Assign("status", models.MessageStatusSent),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(
			ub.Equal("id", id),
			ub.Equal("sender_id", senderID),
			ub.Equal("status", models.MessageStatusDraft),
		)

	query, args := ub.Build()
	q := database.QuerierFromContext(ctx, r.DB())
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"message_id": id,
			"sender_id":  senderID,
		}).Error("failed to confirm message send")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to confirm message send")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to confirm message send")
	}
	if rows > 0 {
		return nil
	}

	// Nothing matched. Fetch the row to report the precise failure.
	message, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return getErr
	}
	if message.SenderID != senderID {
		return Forbidden("only the sender may send this message")
	}
	return Conflict("message %s is already %s", id, message.Status)
}

const deliverInboxSQL = `
UPDATE messages
SET status = $1, updated_at = NOW()
WHERE receiver_id = $2 AND status = $3`

const selectInboxSQL = `
SELECT id, sender_id, receiver_id, contents, status, created_at, updated_at
FROM messages
WHERE receiver_id = $1 AND status <> $2
ORDER BY created_at`

// MaterializeInbox delivers every Sent message addressed to receiverID and
// returns the inbox. Delivery and the read run in one transaction so the
// listing never shows a message still marked Sent. Drafts belong to their
// author's outbox and are excluded.
func (r *MessageRepository) MaterializeInbox(ctx context.Context, receiverID string) ([]models.Message, int64, error) {
	ctx, span := tracing.StartSpan(ctx, "MessageRepository.MaterializeInbox")
	defer span.End()

	txCtx, tx, err := r.DB().GetTx(ctx, nil)
	if err != nil {
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load inbox")
	}

	result, err := tx.ExecContext(txCtx, deliverInboxSQL, models.MessageStatusDelivered, receiverID, models.MessageStatusSent)
	if err != nil {
		_ = tx.Rollback(ctx)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"receiver_id": receiverID,
		}).Error("failed to deliver inbox messages")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load inbox")
	}
	delivered, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load inbox")
	}

	var messages []models.Message
	err = tx.SelectContext(txCtx, &messages, selectInboxSQL, receiverID, models.MessageStatusDraft)
	if err != nil {
		_ = tx.Rollback(ctx)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"receiver_id": receiverID,
		}).Error("failed to list inbox messages")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load inbox")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load inbox")
	}

	return messages, delivered, nil
}

// MarkRead moves a message to Read from any earlier status. Marking an
// already Read message again is a no-op. Only the receiver may mark a message
// read.
func (r *MessageRepository) MarkRead(ctx context.Context, receiverID string, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "MessageRepository.MarkRead")
	defer span.End()

	message, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if message.ReceiverID != receiverID {
		return Forbidden("only the receiver may read this message")
	}
	if message.Status == models.MessageStatusRead {
		return nil
	}

	ub := database.NewUpdateBuilder()
	ub.Update(messagesTable).
		Set(
			ub.Assign("status", models.MessageStatusRead),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(
			ub.Equal("id", id),
			ub.NotEqual("status", models.MessageStatusRead),
		)

	query, args := ub.Build()
	q := database.QuerierFromContext(ctx, r.DB())
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"message_id":  id,
			"receiver_id": receiverID,
		}).Error("failed to mark message read")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark message read")
	}

	return nil
}

// Delete removes a message from the receiver's inbox. Only the receiver may
// delete, regardless of the message status.
func (r *MessageRepository) Delete(ctx context.Context, receiverID string, id uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "MessageRepository.Delete")
	defer span.End()

	message, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if message.ReceiverID != receiverID {
		return Forbidden("only the receiver may delete this message")
	}

	db := database.NewDeleteBuilder()
	db.DeleteFrom(messagesTable).
		Where(db.Equal("id", id))

	query, args := db.Build()
	q := database.QuerierFromContext(ctx, r.DB())
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"message_id":  id,
			"receiver_id": receiverID,
		}).Error("failed to delete message")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete message")
	}

	return nil
}
