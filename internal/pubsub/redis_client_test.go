package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Version int64  `json:"version"`
	Market  string `json:"market"`
}

func TestRedisClient_SetAndGetJSON(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()
	client := NewRedisClientFrom(rdb)

	value := payload{Version: 3, Market: "KRW-BTC"}
	encoded, err := json.Marshal(value)
	require.NoError(t, err)

	mock.ExpectSet("recommendations:latest", encoded, 2*time.Hour).SetVal("OK")
	mock.ExpectGet("recommendations:latest").SetVal(string(encoded))

	require.NoError(t, client.Set(context.Background(), "recommendations:latest", value, 2*time.Hour))

	var got payload
	require.NoError(t, client.GetJSON(context.Background(), "recommendations:latest", &got))
	assert.Equal(t, value, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisClient_MissingKey(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()
	client := NewRedisClientFrom(rdb)

	mock.ExpectGet("missing").RedisNil()
	mock.ExpectGet("missing").RedisNil()

	var got payload
	err := client.GetJSON(context.Background(), "missing", &got)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = client.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisClient_CorruptedJSON(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()
	client := NewRedisClientFrom(rdb)

	mock.ExpectGet("recommendations:latest").SetVal("invalid json")

	var got payload
	err := client.GetJSON(context.Background(), "recommendations:latest", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestRedisClient_GetError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()
	client := NewRedisClientFrom(rdb)

	boom := errors.New("connection refused")
	mock.ExpectGet("recommendations:latest").SetErr(boom)

	_, err := client.Get(context.Background(), "recommendations:latest")
	assert.ErrorIs(t, err, boom)
}

func TestRedisClient_ReplaceSortedSet(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()
	client := NewRedisClientFrom(rdb)

	mock.ExpectTxPipeline()
	mock.ExpectDel("recommendations:ranking").SetVal(1)
	mock.ExpectZAdd("recommendations:ranking",
		redis.Z{Score: 500, Member: "KRW-BTC"},
		redis.Z{Score: 300, Member: "KRW-ETH"},
	).SetVal(2)
	mock.ExpectExpire("recommendations:ranking", time.Hour).SetVal(true)
	mock.ExpectTxPipelineExec()

	err := client.ReplaceSortedSet(context.Background(), "recommendations:ranking", []storage.ScoredMember{
		{Member: "KRW-BTC", Score: 500},
		{Member: "KRW-ETH", Score: 300},
	}, time.Hour)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisClient_RangeByScoreDesc(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()
	client := NewRedisClientFrom(rdb)

	mock.ExpectZRevRangeWithScores("recommendations:ranking", 0, 1).SetVal([]redis.Z{
		{Score: 500, Member: "KRW-BTC"},
		{Score: 300, Member: "KRW-ETH"},
	})

	members, err := client.RangeByScoreDesc(context.Background(), "recommendations:ranking", 2)
	require.NoError(t, err)
	assert.Equal(t, []storage.ScoredMember{
		{Member: "KRW-BTC", Score: 500},
		{Member: "KRW-ETH", Score: 300},
	}, members)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisClient_PublishAndExists(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()
	client := NewRedisClientFrom(rdb)

	msg := payload{Version: 7}
	encoded, err := json.Marshal(msg)
	require.NoError(t, err)

	mock.ExpectPublish("recommendations.updated", encoded).SetVal(1)
	mock.ExpectExists("recommendations:latest").SetVal(1)
	mock.ExpectDel("a", "b").SetVal(2)
	mock.ExpectPing().SetVal("PONG")

	require.NoError(t, client.Publish(context.Background(), "recommendations.updated", msg))

	exists, err := client.Exists(context.Background(), "recommendations:latest")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, client.Delete(context.Background(), "a", "b"))
	require.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
