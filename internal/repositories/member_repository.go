package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/vine/pkg/database"
	"github.com/Ramsey-B/vine/pkg/models"
	"github.com/Ramsey-B/vine/pkg/tracing"
)

const membersTable = "members"

var memberStruct = database.NewStruct(new(models.Member))

// MemberRepository handles database operations for members
type MemberRepository struct {
	*Repository
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db database.DB, logger ectologger.Logger) *MemberRepository {
	return &MemberRepository{
		Repository: NewRepository(db, logger),
	}
}

// Create registers a member with the default free-request allowance
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	ctx, span := tracing.StartSpan(ctx, "MemberRepository.Create")
	defer span.End()

	if member.RemainingFreeRequests == 0 {
		member.RemainingFreeRequests = models.DefaultFreeRequests
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(membersTable).
		Cols("id", "remaining_free_requests", "created_at", "updated_at").
		Values(member.ID, member.RemainingFreeRequests, sqlbuilder.Raw("NOW()"), sqlbuilder.Raw("NOW()")).
		OnConflictDoNothing()

	query, args := ib.Build()
	q := database.QuerierFromContext(ctx, r.DB())
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"member_id": member.ID,
		}).Error("failed to create member")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create member")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create member")
	}
	if rows == 0 {
		return Conflict("member %s already exists", member.ID)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"member_id": member.ID,
	}).Debugf("Created %s", membersTable)
	return nil
}

// Get retrieves a member by id
func (r *MemberRepository) Get(ctx context.Context, id string) (*models.Member, error) {
	ctx, span := tracing.StartSpan(ctx, "MemberRepository.Get")
	defer span.End()

	sb := memberStruct.SelectFrom(membersTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var member models.Member
	q := database.QuerierFromContext(ctx, r.DB())
	err := q.GetContext(ctx, &member, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("member %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"member_id": id,
		}).Error("failed to get member")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get member")
	}

	return &member, nil
}

// Exists reports whether the member id is registered
func (r *MemberRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "MemberRepository.Exists")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("1")
	sb.From(membersTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var one int
	q := database.QuerierFromContext(ctx, r.DB())
	err := q.GetContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"member_id": id,
		}).Error("failed to check member existence")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check member existence")
	}

	return true, nil
}
