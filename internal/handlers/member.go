package handlers

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/vine/pkg/models"
	"github.com/Ramsey-B/vine/pkg/tracing"
)

// MemberService is the member surface used by the HTTP layer.
type MemberService interface {
	RegisterMember(ctx context.Context, id string) (*models.Member, error)
	GetMember(ctx context.Context, id string) (*models.Member, error)
}

// MemberHandler handles member API endpoints
type MemberHandler struct {
	service MemberService
	logger  ectologger.Logger
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(service MemberService, logger ectologger.Logger) *MemberHandler {
	return &MemberHandler{
		service: service,
		logger:  logger,
	}
}

// Register registers member routes
func (h *MemberHandler) Register(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("/me", h.Me)
}

// Create registers the authenticated caller as a member
func (h *MemberHandler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MemberHandler.Create")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := GetMemberID(c)
	if err != nil {
		return err
	}

	member, err := h.service.RegisterMember(ctx, memberID)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to register member")
		return err
	}

	return CreatedResponse(c, member)
}

// Me returns the authenticated caller's profile, including the remaining
// free-request allowance
func (h *MemberHandler) Me(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MemberHandler.Me")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := GetMemberID(c)
	if err != nil {
		return err
	}

	member, err := h.service.GetMember(ctx, memberID)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to get member")
		return err
	}

	return SuccessResponse(c, member)
}
