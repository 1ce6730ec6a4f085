package repositories_test

import (
	"context"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/vine/internal/repositories"
	"github.com/Ramsey-B/vine/pkg/database"
	"github.com/Ramsey-B/vine/pkg/models"
)

func getTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func getTestDB(t *testing.T) database.DB {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "vine"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}

	return database.NewDatabaseInstance(db, getTestLogger())
}

func createTestMember(t *testing.T, members repositories.MemberRepo) string {
	id := "member-" + uuid.NewString()
	err := members.Create(context.Background(), &models.Member{ID: id})
	require.NoError(t, err)
	return id
}

func TestConnectionRepository_RequestLifecycle(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	logger := getTestLogger()

	members := repositories.NewMemberRepository(db, logger)
	connections := repositories.NewConnectionRepository(db, logger)
	ctx := context.Background()

	requester := createTestMember(t, members)
	recipient := createTestMember(t, members)

	status, err := connections.GetDirectStatus(ctx, requester, recipient)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusNone, status)

	require.NoError(t, connections.CreateRequest(ctx, requester, recipient, true))

	// The quota was spent with the insert.
	member, err := members.Get(ctx, requester)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFreeRequests-1, member.RemainingFreeRequests)

	// Both orderings see the pending edge.
	status, err = connections.GetDirectStatus(ctx, recipient, requester)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusRequest, status)

	// Only the recipient can accept; the requester has no pending request.
	err = connections.Accept(ctx, requester, recipient)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))

	require.NoError(t, connections.Accept(ctx, recipient, requester))

	status, err = connections.GetDirectStatus(ctx, requester, recipient)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusAccepted, status)
}

func TestConnectionRepository_DuplicateKeepsQuota(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	logger := getTestLogger()

	members := repositories.NewMemberRepository(db, logger)
	connections := repositories.NewConnectionRepository(db, logger)
	ctx := context.Background()

	requester := createTestMember(t, members)
	recipient := createTestMember(t, members)

	require.NoError(t, connections.CreateRequest(ctx, requester, recipient, true))

	// The reverse-direction duplicate conflicts and must not spend quota.
	err := connections.CreateRequest(ctx, recipient, requester, true)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))

	member, err := members.Get(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFreeRequests, member.RemainingFreeRequests)
}

func TestConnectionRepository_QuotaExhaustion(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	logger := getTestLogger()

	members := repositories.NewMemberRepository(db, logger)
	connections := repositories.NewConnectionRepository(db, logger)
	ctx := context.Background()

	requester := createTestMember(t, members)
	for i := 0; i < models.DefaultFreeRequests; i++ {
		recipient := createTestMember(t, members)
		require.NoError(t, connections.CreateRequest(ctx, requester, recipient, true))
	}

	recipient := createTestMember(t, members)
	err := connections.CreateRequest(ctx, requester, recipient, true)
	assert.Equal(t, http.StatusTooManyRequests, httperror.GetStatusCode(err))

	// An uncharged request still goes through.
	require.NoError(t, connections.CreateRequest(ctx, requester, recipient, false))
}

func TestConnectionRepository_ConcurrentOppositeRequests(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	logger := getTestLogger()

	members := repositories.NewMemberRepository(db, logger)
	connections := repositories.NewConnectionRepository(db, logger)
	ctx := context.Background()

	a := createTestMember(t, members)
	b := createTestMember(t, members)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = connections.CreateRequest(ctx, a, b, false)
	}()
	go func() {
		defer wg.Done()
		errs[1] = connections.CreateRequest(ctx, b, a, false)
	}()
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
		}
	}
	assert.Equal(t, 1, winners, "exactly one of the two opposite requests may commit")
}

func TestConnectionRepository_ListByMember(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	logger := getTestLogger()

	members := repositories.NewMemberRepository(db, logger)
	connections := repositories.NewConnectionRepository(db, logger)
	ctx := context.Background()

	owner := createTestMember(t, members)
	incoming := createTestMember(t, members)
	outgoing := createTestMember(t, members)
	friend := createTestMember(t, members)

	require.NoError(t, connections.CreateRequest(ctx, incoming, owner, false))
	require.NoError(t, connections.CreateRequest(ctx, owner, outgoing, false))
	require.NoError(t, connections.CreateRequest(ctx, friend, owner, false))
	require.NoError(t, connections.Accept(ctx, owner, friend))

	entries, err := connections.ListByMember(ctx, owner, models.FilterIncoming)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, incoming, entries[0].CounterpartID)

	entries, err = connections.ListByMember(ctx, owner, models.FilterOutgoing)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, outgoing, entries[0].CounterpartID)

	entries, err = connections.ListByMember(ctx, owner, models.FilterAccepted)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, friend, entries[0].CounterpartID)
	assert.Equal(t, models.ConnectionStatusAccepted, entries[0].Status)
}

func TestConnectionRepository_AcceptedNeighbors(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	logger := getTestLogger()

	members := repositories.NewMemberRepository(db, logger)
	connections := repositories.NewConnectionRepository(db, logger)
	ctx := context.Background()

	hub := createTestMember(t, members)
	spokes := make([]string, 3)
	for i := range spokes {
		spokes[i] = createTestMember(t, members)
		require.NoError(t, connections.CreateRequest(ctx, hub, spokes[i], false))
	}
	// Only two of the three spokes accept.
	require.NoError(t, connections.Accept(ctx, spokes[0], hub))
	require.NoError(t, connections.Accept(ctx, spokes[1], hub))

	neighbors, err := connections.AcceptedNeighbors(ctx, []string{hub})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{spokes[0], spokes[1]}, neighbors[hub])

	neighbors, err = connections.AcceptedNeighbors(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, neighbors)
}
