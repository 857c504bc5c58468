package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nalk-analytics/internal/common/config"
)

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("deals_normalized"))
	assert.True(t, ValidIdentifier("public.nalk_ai_interactions"))
	assert.False(t, ValidIdentifier("deals; DROP TABLE x"))
	assert.False(t, ValidIdentifier("1deals"))
	assert.False(t, ValidIdentifier(""))
}

func TestEnsureInteractionsTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS nalk_ai_interactions`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	client := &PostgresClient{DB: db}
	require.NoError(t, client.EnsureInteractionsTable(context.Background(), "nalk_ai_interactions"))
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Error(t, client.EnsureInteractionsTable(context.Background(), "bad name"))
}

func TestPoolStats(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	client := &PostgresClient{DB: db}
	require.NoError(t, client.Ping(context.Background()))

	stats := client.PoolStats()
	assert.Equal(t, 1, stats["openConnections"])
	assert.Contains(t, stats, "inUse")
	assert.Contains(t, stats, "idle")
	assert.Contains(t, stats, "waitCount")
}

func TestNewRedis_EmptyAddressDisablesCache(t *testing.T) {
	client, err := NewRedis(config.RedisConfig{})
	assert.NoError(t, err)
	assert.Nil(t, client)
	assert.NoError(t, client.Close())
}

func TestJSONCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))

	var periods []string
	assert.ErrorIs(t, GetJSON(ctx, client.Client, "periods", &periods), ErrCacheMiss)

	require.NoError(t, SetJSON(ctx, client.Client, "periods", []string{"2025-07", "2025-08"}, time.Minute))
	require.NoError(t, GetJSON(ctx, client.Client, "periods", &periods))
	assert.Equal(t, []string{"2025-07", "2025-08"}, periods)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, GetJSON(ctx, client.Client, "periods", &periods), ErrCacheMiss)
}

func TestGetJSON_PropagatesRedisErrors(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("periods").SetErr(errors.New("connection refused"))

	var periods []string
	err := GetJSON(context.Background(), rdb, "periods", &periods)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}
