package network

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	adjacency map[string][]string
	calls     int
}

func (f *fakeFetcher) AcceptedNeighbors(_ context.Context, ids []string) (map[string][]string, error) {
	f.calls++
	result := make(map[string][]string, len(ids))
	for _, id := range ids {
		result[id] = f.adjacency[id]
	}
	return result, nil
}

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func chainFetcher() *fakeFetcher {
	// u1 - u2 - u3 - u4 - u5
	return &fakeFetcher{adjacency: map[string][]string{
		"u1": {"u2"},
		"u2": {"u1", "u3"},
		"u3": {"u2", "u4"},
		"u4": {"u3", "u5"},
		"u5": {"u4"},
	}}
}

func TestReachableWithin_ChainDegrees(t *testing.T) {
	r := NewDegreeResolver(chainFetcher(), noopLogger())

	degrees, err := r.ReachableWithin(context.Background(), "u1", 3)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"u2": 1, "u3": 2, "u4": 3}, degrees)
}

func TestReachableWithin_ExcludesOrigin(t *testing.T) {
	r := NewDegreeResolver(chainFetcher(), noopLogger())

	degrees, err := r.ReachableWithin(context.Background(), "u2", 3)
	require.NoError(t, err)

	_, hasOrigin := degrees["u2"]
	assert.False(t, hasOrigin)
}

func TestReachableWithin_DepthOne(t *testing.T) {
	r := NewDegreeResolver(chainFetcher(), noopLogger())

	degrees, err := r.ReachableWithin(context.Background(), "u3", 1)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"u2": 1, "u4": 1}, degrees)
}

func TestReachableWithin_DepthClampedToMaxDegree(t *testing.T) {
	r := NewDegreeResolver(chainFetcher(), noopLogger())

	degrees, err := r.ReachableWithin(context.Background(), "u1", 10)
	require.NoError(t, err)

	// u5 is four hops away; a clamped depth never reaches it.
	_, hasU5 := degrees["u5"]
	assert.False(t, hasU5)
	assert.Equal(t, 3, degrees["u4"])
}

func TestReachableWithin_CycleTerminates(t *testing.T) {
	fetcher := &fakeFetcher{adjacency: map[string][]string{
		"a": {"b", "c"},
		"b": {"a", "c"},
		"c": {"a", "b"},
	}}
	r := NewDegreeResolver(fetcher, noopLogger())

	degrees, err := r.ReachableWithin(context.Background(), "a", 3)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"b": 1, "c": 1}, degrees)
	// Once every member is visited, the frontier empties and traversal stops.
	assert.LessOrEqual(t, fetcher.calls, 3)
}

func TestReachableWithin_IsolatedMember(t *testing.T) {
	r := NewDegreeResolver(&fakeFetcher{adjacency: map[string][]string{}}, noopLogger())

	degrees, err := r.ReachableWithin(context.Background(), "loner", 3)
	require.NoError(t, err)

	assert.Empty(t, degrees)
}
