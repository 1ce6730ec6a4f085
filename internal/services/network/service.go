package network

import (
	"context"
	"net/http"
	"sort"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/vine/internal/repositories"
	"github.com/Ramsey-B/vine/pkg/events"
	"github.com/Ramsey-B/vine/pkg/metrics"
	"github.com/Ramsey-B/vine/pkg/models"
	"github.com/Ramsey-B/vine/pkg/tracing"
)

// ReachableMember is one row of a reachability listing.
type ReachableMember struct {
	MemberID string `json:"member_id"`
	Degree   int    `json:"degree"`
}

// Service applies the connection request policy on top of the graph store.
type Service struct {
	members     repositories.MemberRepo
	connections repositories.ConnectionRepo
	resolver    *DegreeResolver
	events      *events.Emitter
	logger      ectologger.Logger
}

// NewService creates the network service. emitter may be nil when event
// publishing is disabled.
func NewService(members repositories.MemberRepo, connections repositories.ConnectionRepo, resolver *DegreeResolver, emitter *events.Emitter, logger ectologger.Logger) *Service {
	return &Service{
		members:     members,
		connections: connections,
		resolver:    resolver,
		events:      emitter,
		logger:      logger,
	}
}

// RegisterMember creates a member with the default free-request allowance.
func (s *Service) RegisterMember(ctx context.Context, id string) (*models.Member, error) {
	ctx, span := tracing.StartSpan(ctx, "network.Service.RegisterMember")
	defer span.End()

	member := &models.Member{ID: id}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}

	return s.members.Get(ctx, member.ID)
}

// GetMember returns a member's profile, including the remaining free-request
// allowance.
func (s *Service) GetMember(ctx context.Context, id string) (*models.Member, error) {
	return s.members.Get(ctx, id)
}

// ProposeConnection evaluates and, when allowed, records a connection request
// from requesterID to candidateID. Rejections come back as a Decision, not an
// error; errors are reserved for store failures and an unknown requester.
//
// A request to a member within MaxDegree hops is free. Otherwise one unit of
// the requester's free-request allowance is spent, atomically with the edge
// insert, and the request is rejected when the allowance is exhausted.
func (s *Service) ProposeConnection(ctx context.Context, requesterID, candidateID string) (models.Decision, error) {
	ctx, span := tracing.StartSpan(ctx, "network.Service.ProposeConnection")
	defer span.End()

	exists, err := s.members.Exists(ctx, candidateID)
	if err != nil {
		return models.Decision{}, err
	}
	if !exists {
		return s.reject(ctx, requesterID, candidateID, models.ReasonUnknownCandidate), nil
	}

	if requesterID == candidateID {
		return s.reject(ctx, requesterID, candidateID, models.ReasonSelfTarget), nil
	}

	if _, err := s.members.Get(ctx, requesterID); err != nil {
		return models.Decision{}, err
	}

	status, err := s.connections.GetDirectStatus(ctx, requesterID, candidateID)
	if err != nil {
		return models.Decision{}, err
	}
	if status != models.ConnectionStatusNone {
		return s.reject(ctx, requesterID, candidateID, models.ReasonAlreadyConnectedOrPending), nil
	}

	reachable, err := s.resolver.ReachableWithin(ctx, requesterID, MaxDegree)
	if err != nil {
		return models.Decision{}, err
	}
	_, isRelation := reachable[candidateID]
	chargeQuota := !isRelation

	err = s.connections.CreateRequest(ctx, requesterID, candidateID, chargeQuota)
	if err != nil {
		switch httperror.GetStatusCode(err) {
		case http.StatusConflict:
			// A concurrent request for the pair committed first.
			return s.reject(ctx, requesterID, candidateID, models.ReasonAlreadyConnectedOrPending), nil
		case http.StatusTooManyRequests:
			return s.reject(ctx, requesterID, candidateID, models.ReasonQuotaExceeded), nil
		default:
			return models.Decision{}, err
		}
	}

	metrics.ConnectionDecisionsTotal.WithLabelValues("allowed", "").Inc()
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"requester_id":  requesterID,
		"candidate_id":  candidateID,
		"quota_charged": chargeQuota,
	}).Info("connection request created")

	if s.events != nil {
		if err := s.events.EmitConnectionRequested(ctx, requesterID, candidateID); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("connection.requested event not published")
		}
	}

	return models.Allow(chargeQuota), nil
}

func (s *Service) reject(ctx context.Context, requesterID, candidateID string, reason models.RejectReason) models.Decision {
	metrics.ConnectionDecisionsTotal.WithLabelValues("rejected", string(reason)).Inc()
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"requester_id": requesterID,
		"candidate_id": candidateID,
		"reason":       reason,
	}).Info("connection request rejected")
	return models.Reject(reason)
}

// AcceptConnection confirms the pending request counterpartID sent to ownerID.
func (s *Service) AcceptConnection(ctx context.Context, ownerID, counterpartID string) error {
	ctx, span := tracing.StartSpan(ctx, "network.Service.AcceptConnection")
	defer span.End()

	if err := s.connections.Accept(ctx, ownerID, counterpartID); err != nil {
		return err
	}

	metrics.ConnectionResponsesTotal.WithLabelValues("accept").Inc()
	if s.events != nil {
		if err := s.events.EmitConnectionAccepted(ctx, counterpartID, ownerID); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("connection.accepted event not published")
		}
	}

	return nil
}

// DeclineConnection removes the pending request counterpartID sent to
// ownerID. The pair may request again later.
func (s *Service) DeclineConnection(ctx context.Context, ownerID, counterpartID string) error {
	ctx, span := tracing.StartSpan(ctx, "network.Service.DeclineConnection")
	defer span.End()

	if err := s.connections.Decline(ctx, ownerID, counterpartID); err != nil {
		return err
	}

	metrics.ConnectionResponsesTotal.WithLabelValues("decline").Inc()
	if s.events != nil {
		if err := s.events.EmitConnectionDeclined(ctx, counterpartID, ownerID); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("connection.declined event not published")
		}
	}

	return nil
}

// ListConnections returns the member's dashboard rows for the given filter.
func (s *Service) ListConnections(ctx context.Context, memberID string, filter models.ConnectionFilter) ([]models.ConnectionEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "network.Service.ListConnections")
	defer span.End()

	return s.connections.ListByMember(ctx, memberID, filter)
}

// Reachable lists every member within depth Accepted hops of memberID,
// ordered by degree and then id for stable paging.
func (s *Service) Reachable(ctx context.Context, memberID string, depth int) ([]ReachableMember, error) {
	ctx, span := tracing.StartSpan(ctx, "network.Service.Reachable")
	defer span.End()

	if depth < 1 || depth > MaxDegree {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "depth must be between 1 and %d", MaxDegree)
	}

	degrees, err := s.resolver.ReachableWithin(ctx, memberID, depth)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(degrees))
	for id := range degrees {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if degrees[ids[i]] != degrees[ids[j]] {
			return degrees[ids[i]] < degrees[ids[j]]
		}
		return ids[i] < ids[j]
	})

	return ectolinq.Map(ids, func(id string) ReachableMember {
		return ReachableMember{MemberID: id, Degree: degrees[id]}
	}), nil
}
