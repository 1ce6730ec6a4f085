package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/vine/pkg/database"
	"github.com/Ramsey-B/vine/pkg/models"
	"github.com/Ramsey-B/vine/pkg/tracing"
)

const connectionsTable = "connections"

// ConnectionRepository owns connection-edge records and their status
// transitions. The schema enforces at most one edge per unordered pair with
// a unique index on (LEAST(requester_id, recipient_id), GREATEST(...)), so
// concurrent requests for the same pair cannot both commit.
type ConnectionRepository struct {
	*Repository
}

// NewConnectionRepository creates a new connection repository
func NewConnectionRepository(db database.DB, logger ectologger.Logger) *ConnectionRepository {
	return &ConnectionRepository{
		Repository: NewRepository(db, logger),
	}
}

// GetDirectStatus returns the edge status for the unordered pair (a, b),
// checking both storage orderings, or ConnectionStatusNone when no row exists.
func (r *ConnectionRepository) GetDirectStatus(ctx context.Context, a, b string) (models.ConnectionStatus, error) {
	ctx, span := tracing.StartSpan(ctx, "ConnectionRepository.GetDirectStatus")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("status")
	sb.From(connectionsTable)
	sb.Where(sb.Or(
		sb.And(sb.Equal("requester_id", a), sb.Equal("recipient_id", b)),
		sb.And(sb.Equal("requester_id", b), sb.Equal("recipient_id", a)),
	))

	query, args := sb.Build()
	var status models.ConnectionStatus
	q := database.QuerierFromContext(ctx, r.DB())
	err := q.GetContext(ctx, &status, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ConnectionStatusNone, nil
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"member_a": a,
			"member_b": b,
		}).Error("failed to get direct connection status")
		return models.ConnectionStatusNone, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get direct connection status")
	}

	return status, nil
}

// CreateRequest inserts a pending edge for the pair. When chargeQuota is set
// the requester's free-request counter is spent in the same transaction, so
// a duplicate edge or a crash leaves the quota untouched.
func (r *ConnectionRepository) CreateRequest(ctx context.Context, requesterID, recipientID string, chargeQuota bool) error {
	ctx, span := tracing.StartSpan(ctx, "ConnectionRepository.CreateRequest")
	defer span.End()

	txCtx, tx, err := r.DB().GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create connection request")
	}

	if chargeQuota {
		ub := database.NewUpdateBuilder()
		ub.Update(membersTable).
			Set(
				ub.Assign("remaining_free_requests", sqlbuilder.Raw("remaining_free_requests - 1")),
				ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
			).
			Where(ub.Equal("id", requesterID), ub.GreaterThan("remaining_free_requests", 0))

		query, args := ub.Build()
		result, execErr := tx.ExecContext(txCtx, query, args...)
		if execErr != nil {
			_ = tx.Rollback(ctx)
			r.logger.WithContext(ctx).WithError(execErr).WithFields(map[string]any{
				"requester_id": requesterID,
			}).Error("failed to spend free connection request")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to spend free connection request")
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			_ = tx.Rollback(ctx)
			return QuotaSpent("no free connection requests remaining")
		}
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(connectionsTable).
		Cols("requester_id", "recipient_id", "status", "created_at", "updated_at").
		Values(requesterID, recipientID, models.ConnectionStatusRequest, sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		OnConflictDoNothing()

	query, args := ib.Build()
	result, err := tx.ExecContext(txCtx, query, args...)
	if err != nil {
		_ = tx.Rollback(ctx)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"requester_id": requesterID,
			"recipient_id": recipientID,
		}).Error("failed to insert connection request")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert connection request")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback(ctx)
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert connection request")
	}
	if rows == 0 {
		// Lost the race or the pair already has an edge. Rolling back also
		// restores any quota spent above.
		_ = tx.Rollback(ctx)
		return Conflict("a connection between %s and %s already exists", requesterID, recipientID)
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create connection request")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"requester_id":  requesterID,
		"recipient_id":  recipientID,
		"quota_charged": chargeQuota,
	}).Debugf("Created %s", connectionsTable)
	return nil
}

// Accept confirms the pending request sent to ownerID by counterpartID.
func (r *ConnectionRepository) Accept(ctx context.Context, ownerID, counterpartID string) error {
	ctx, span := tracing.StartSpan(ctx, "ConnectionRepository.Accept")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(connectionsTable).
		Set(
			ub.Assign("status", models.ConnectionStatusAccepted),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(
			ub.Equal("requester_id", counterpartID),
			ub.Equal("recipient_id", ownerID),
			ub.Equal("status", models.ConnectionStatusRequest),
		)

	query, args := ub.Build()
	q := database.QuerierFromContext(ctx, r.DB())
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner_id":       ownerID,
			"counterpart_id": counterpartID,
		}).Error("failed to accept connection request")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to accept connection request")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to accept connection request")
	}
	if rows == 0 {
		return NotFound("no pending connection request from %s", counterpartID)
	}

	return nil
}

// Decline deletes the pending request sent to ownerID by counterpartID,
// returning the pair to "no edge".
func (r *ConnectionRepository) Decline(ctx context.Context, ownerID, counterpartID string) error {
	ctx, span := tracing.StartSpan(ctx, "ConnectionRepository.Decline")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(connectionsTable).
		Where(
			db.Equal("requester_id", counterpartID),
			db.Equal("recipient_id", ownerID),
			db.Equal("status", models.ConnectionStatusRequest),
		)

	query, args := db.Build()
	q := database.QuerierFromContext(ctx, r.DB())
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner_id":       ownerID,
			"counterpart_id": counterpartID,
		}).Error("failed to decline connection request")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to decline connection request")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to decline connection request")
	}
	if rows == 0 {
		return NotFound("no pending connection request from %s", counterpartID)
	}

	return nil
}

const listIncomingSQL = `
SELECT requester_id AS counterpart_id, status, created_at
FROM connections
WHERE recipient_id = $1 AND status = $2
ORDER BY created_at`

const listOutgoingSQL = `
SELECT recipient_id AS counterpart_id, status, created_at
FROM connections
WHERE requester_id = $1 AND status = $2
ORDER BY created_at`

const listAcceptedSQL = `
SELECT CASE WHEN requester_id = $1 THEN recipient_id ELSE requester_id END AS counterpart_id,
       status, created_at
FROM connections
WHERE (requester_id = $1 OR recipient_id = $1) AND status = $2
ORDER BY created_at`

// ListByMember returns dashboard rows for the member, grouped by the filter.
func (r *ConnectionRepository) ListByMember(ctx context.Context, memberID string, filter models.ConnectionFilter) ([]models.ConnectionEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "ConnectionRepository.ListByMember")
	defer span.End()

	var query string
	var status models.ConnectionStatus
	switch filter {
	case models.FilterIncoming:
		query, status = listIncomingSQL, models.ConnectionStatusRequest
	case models.FilterOutgoing:
		query, status = listOutgoingSQL, models.ConnectionStatusRequest
	case models.FilterAccepted:
		query, status = listAcceptedSQL, models.ConnectionStatusAccepted
	default:
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown connection filter %q", filter)
	}

	var entries []models.ConnectionEntry
	q := database.QuerierFromContext(ctx, r.DB())
	err := q.SelectContext(ctx, &entries, query, memberID, status)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"member_id": memberID,
			"filter":    filter,
		}).Error("failed to list connections")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list connections")
	}

	return entries, nil
}

const acceptedNeighborsSQL = `
SELECT requester_id, recipient_id
FROM connections
WHERE status = $1 AND (requester_id = ANY($2) OR recipient_id = ANY($2))`

// AcceptedNeighbors returns the Accepted-edge neighbors of every id in ids
// with a single bulk query, never one round trip per candidate pair.
func (r *ConnectionRepository) AcceptedNeighbors(ctx context.Context, ids []string) (map[string][]string, error) {
	ctx, span := tracing.StartSpan(ctx, "ConnectionRepository.AcceptedNeighbors")
	defer span.End()

	neighbors := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return neighbors, nil
	}

	queried := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		queried[id] = struct{}{}
	}

	var edges []models.Connection
	q := database.QuerierFromContext(ctx, r.DB())
	err := q.SelectContext(ctx, &edges, acceptedNeighborsSQL, models.ConnectionStatusAccepted, pq.Array(ids))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"id_count": len(ids),
		}).Error("failed to fetch accepted neighbors")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to fetch accepted neighbors")
	}

	for _, edge := range edges {
		if _, ok := queried[edge.RequesterID]; ok {
			neighbors[edge.RequesterID] = append(neighbors[edge.RequesterID], edge.RecipientID)
		}
		if _, ok := queried[edge.RecipientID]; ok {
			neighbors[edge.RecipientID] = append(neighbors[edge.RecipientID], edge.RequesterID)
		}
	}

	return neighbors, nil
}
