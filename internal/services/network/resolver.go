// Package network implements the connection graph: request eligibility,
// accept/decline transitions, and bounded-depth reachability.
package network

import (
	"context"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/vine/pkg/metrics"
)

// MaxDegree is the deepest relation the graph recognizes. Members further
// apart than this are strangers for every policy decision.
const MaxDegree = 3

// NeighborFetcher supplies Accepted-edge adjacency for a batch of members.
type NeighborFetcher interface {
	AcceptedNeighbors(ctx context.Context, ids []string) (map[string][]string, error)
}

// DegreeResolver answers bounded-depth reachability questions over Accepted
// edges with a breadth-first traversal. Each hop is a single bulk fetch, so a
// depth-3 query costs at most three round trips regardless of fan-out.
type DegreeResolver struct {
	fetcher NeighborFetcher
	logger  ectologger.Logger
}

// NewDegreeResolver creates a resolver over the given adjacency source.
func NewDegreeResolver(fetcher NeighborFetcher, logger ectologger.Logger) *DegreeResolver {
	return &DegreeResolver{
		fetcher: fetcher,
		logger:  logger,
	}
}

// ReachableWithin returns every member reachable from originID in at most
// maxDepth Accepted hops, mapped to their minimum degree. The origin itself
// is never included. maxDepth is clamped to [1, MaxDegree].
func (r *DegreeResolver) ReachableWithin(ctx context.Context, originID string, maxDepth int) (map[string]int, error) {
	if maxDepth < 1 {
		maxDepth = 1
	}
	if maxDepth > MaxDegree {
		maxDepth = MaxDegree
	}

	start := time.Now()
	defer func() {
		metrics.ReachableQueryDuration.WithLabelValues(strconv.Itoa(maxDepth)).Observe(time.Since(start).Seconds())
	}()

	degrees := make(map[string]int)
	visited := map[string]struct{}{originID: {}}
	frontier := []string{originID}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		adjacency, err := r.fetcher.AcceptedNeighbors(ctx, frontier)
		if err != nil {
			return nil, err
		}

		var next []string
		for _, id := range frontier {
			for _, neighbor := range adjacency[id] {
				if _, seen := visited[neighbor]; seen {
					continue
				}
				visited[neighbor] = struct{}{}
				degrees[neighbor] = depth
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return degrees, nil
}
