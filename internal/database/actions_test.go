package database

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/blackjack/internal/config"
	"github.com/jason-s-yu/blackjack/internal/historian"
)

// testPool connects to PG_TEST_DSN, skipping when no database is available.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))
	t.Cleanup(pool.Close)
	require.NoError(t, EnsureSchema(ctx, pool))
	return pool
}

func TestActionSinkRoundTrip(t *testing.T) {
	pool := testPool(t)
	sink := NewActionSink(pool)
	ctx := context.Background()

	gameID := uuid.NewString()[:8]
	now := time.Now().UnixMilli()
	recs := []historian.ActionRecord{
		{ID: uuid.New(), GameID: gameID, ActionIndex: 1, Actor: "alice", ActionType: "startGame", Timestamp: now},
		{ID: uuid.New(), GameID: gameID, ActionIndex: 2, Actor: "bob", ActionType: "hit", Timestamp: now + 1},
	}
	require.NoError(t, sink.WriteActions(ctx, recs))
	// Replaying a batch must not duplicate rows.
	require.NoError(t, sink.WriteActions(ctx, recs))

	got, err := sink.ActionsForGame(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recs[0].ID, got[0].ID)
	assert.Equal(t, "hit", got[1].ActionType)
	assert.Equal(t, recs[1].Timestamp, got[1].Timestamp)
}

func TestWriteActionsEmptyBatch(t *testing.T) {
	assert.NoError(t, (&ActionSink{}).WriteActions(context.Background(), nil))
}

func TestConnectBadHost(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, config.PostgresConfig{User: "u", Host: "127.0.0.1", Port: "1", Database: "none"}, logger)
	assert.Error(t, err)
}
