package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/vine/internal/services/network"
	"github.com/Ramsey-B/vine/pkg/models"
	"github.com/Ramsey-B/vine/pkg/tracing"
	"github.com/Ramsey-B/vine/pkg/utils"
)

// NetworkService is the connection graph surface used by the HTTP layer.
type NetworkService interface {
	ProposeConnection(ctx context.Context, requesterID, candidateID string) (models.Decision, error)
	AcceptConnection(ctx context.Context, ownerID, counterpartID string) error
	DeclineConnection(ctx context.Context, ownerID, counterpartID string) error
	ListConnections(ctx context.Context, memberID string, filter models.ConnectionFilter) ([]models.ConnectionEntry, error)
	Reachable(ctx context.Context, memberID string, depth int) ([]network.ReachableMember, error)
}

// ConnectionHandler handles connection graph API endpoints
type ConnectionHandler struct {
	service NetworkService
	logger  ectologger.Logger
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(service NetworkService, logger ectologger.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		service: service,
		logger:  logger,
	}
}

// ProposeConnectionRequest represents the propose connection request body
type ProposeConnectionRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
}

// RespondConnectionRequest represents the accept/decline request body
type RespondConnectionRequest struct {
	Action string `json:"action" validate:"required,oneof=accept decline"`
}

// Register registers connection routes
func (h *ConnectionHandler) Register(g *echo.Group) {
	g.POST("/requests", h.Propose)
	g.PUT("/:counterpart_id", h.Respond)
	g.GET("", h.List)
	g.GET("/reachable", h.Reachable)
}

// rejectStatus maps a policy rejection to its HTTP status.
func rejectStatus(reason models.RejectReason) int {
	switch reason {
	case models.ReasonSelfTarget:
		return http.StatusBadRequest
	case models.ReasonUnknownCandidate:
		return http.StatusNotFound
	case models.ReasonAlreadyConnectedOrPending:
		return http.StatusConflict
	case models.ReasonQuotaExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusUnprocessableEntity
	}
}

// Propose evaluates a connection request from the caller to a candidate. The
// decision body is returned for rejections too, with a status matching the
// reason, so clients can distinguish policy verdicts from failures.
func (h *ConnectionHandler) Propose(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ConnectionHandler.Propose")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := GetMemberID(c)
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[ProposeConnectionRequest](c)
	if err != nil {
		return err
	}

	decision, err := h.service.ProposeConnection(ctx, memberID, req.CandidateID)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to propose connection")
		return err
	}

	if !decision.Allowed {
		return c.JSON(rejectStatus(decision.Reason), decision)
	}

	return CreatedResponse(c, decision)
}

// Respond accepts or declines a pending request sent to the caller
func (h *ConnectionHandler) Respond(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ConnectionHandler.Respond")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := GetMemberID(c)
	if err != nil {
		return err
	}

	counterpartID := c.Param("counterpart_id")
	if counterpartID == "" {
		return BadRequest("missing counterpart_id")
	}

	req, err := utils.BindRequest[RespondConnectionRequest](c)
	if err != nil {
		return err
	}

	switch req.Action {
	case "accept":
		err = h.service.AcceptConnection(ctx, memberID, counterpartID)
	case "decline":
		err = h.service.DeclineConnection(ctx, memberID, counterpartID)
	}
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to respond to connection request")
		return err
	}

	return NoContentResponse(c)
}

// List returns the caller's connection dashboard. The filter query parameter
// selects incoming, outgoing, or accepted (the default).
func (h *ConnectionHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ConnectionHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := GetMemberID(c)
	if err != nil {
		return err
	}

	filter, err := models.ParseConnectionFilter(c.QueryParam("filter"))
	if err != nil {
		return BadRequest(err.Error())
	}

	entries, err := h.service.ListConnections(ctx, memberID, filter)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list connections")
		return err
	}

	return SuccessResponse(c, entries)
}

// Reachable lists members within depth hops of the caller. depth defaults to
// the maximum the graph recognizes.
func (h *ConnectionHandler) Reachable(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ConnectionHandler.Reachable")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	memberID, err := GetMemberID(c)
	if err != nil {
		return err
	}

	depth := network.MaxDegree
	if depthStr := c.QueryParam("depth"); depthStr != "" {
		depth, err = strconv.Atoi(depthStr)
		if err != nil {
			return BadRequest("depth must be an integer")
		}
	}

	members, err := h.service.Reachable(ctx, memberID, depth)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to resolve reachable members")
		return err
	}

	return SuccessResponse(c, members)
}
