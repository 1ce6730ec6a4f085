package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/Ramsey-B/vine/pkg/models"
)

// MemberRepo defines the interface for member repository operations
type MemberRepo interface {
	Create(ctx context.Context, member *models.Member) error
	Get(ctx context.Context, id string) (*models.Member, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// ConnectionRepo defines the interface for connection repository operations
type ConnectionRepo interface {
	GetDirectStatus(ctx context.Context, a, b string) (models.ConnectionStatus, error)
	// CreateRequest inserts a pending edge; when chargeQuota is set the
	// requester's free-request counter is decremented in the same
	// transaction as the insert.
	CreateRequest(ctx context.Context, requesterID, recipientID string, chargeQuota bool) error
	Accept(ctx context.Context, ownerID, counterpartID string) error
	Decline(ctx context.Context, ownerID, counterpartID string) error
	ListByMember(ctx context.Context, memberID string, filter models.ConnectionFilter) ([]models.ConnectionEntry, error)
	// AcceptedNeighbors returns, for every id in ids, the members connected
	// to it by an Accepted edge. One bulk query regardless of len(ids).
	AcceptedNeighbors(ctx context.Context, ids []string) (map[string][]string, error)
}

// MessageRepo defines the interface for message repository operations
type MessageRepo interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ConfirmSend(ctx context.Context, senderID string, id uuid.UUID) error
	// MaterializeInbox delivers every Sent message addressed to receiverID
	// (one bulk statement) and returns the resulting inbox. The returned
	// count is the number of messages newly marked Delivered.
	MaterializeInbox(ctx context.Context, receiverID string) ([]models.Message, int64, error)
	MarkRead(ctx context.Context, receiverID string, id uuid.UUID) error
	Delete(ctx context.Context, receiverID string, id uuid.UUID) error
}
