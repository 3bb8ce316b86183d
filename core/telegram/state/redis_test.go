package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis serves the three commands RedisStore issues from a map.
type fakeRedis struct {
	redis.Cmdable
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.values[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			n++
		}
		delete(f.values, k)
		delete(f.ttls, k)
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	rdb := newFakeRedis()
	store := NewRedisStore[payload](rdb, RedisOptions{Prefix: "test:", IdleTTL: time.Hour, Now: clock.Now})

	key := Key{ChatID: 10, UserID: 20}
	_, ok, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	s := Session[payload]{Key: key, Feature: "project", State: "ask_topic", Data: payload{Topic: "Soil erosion"}}
	s.Touch(clock.Now(), 0)
	require.NoError(t, store.Save(ctx, s))
	assert.Contains(t, rdb.values, "test:10:20")
	assert.Equal(t, time.Hour, rdb.ttls["test:10:20"], "sessions without a deadline get the idle TTL")

	got, ok, err := store.Load(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Soil erosion", got.Data.Topic)
	assert.Equal(t, "ask_topic", string(got.State))

	require.NoError(t, store.Delete(ctx, key))
	assert.Empty(t, rdb.values)
}

func TestRedisStoreTTLFollowsDeadline(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	rdb := newFakeRedis()
	store := NewRedisStore[payload](rdb, RedisOptions{Now: clock.Now})

	s := Session[payload]{Key: Key{ChatID: 1, UserID: 1}, Feature: "payment"}
	s.Touch(clock.Now(), 300*time.Second)
	require.NoError(t, store.Save(ctx, s))
	assert.Equal(t, 300*time.Second, rdb.ttls["session:1:1"])

	clock.Advance(300 * time.Second)
	_, ok, err := store.Load(ctx, s.Key)
	require.NoError(t, err)
	assert.False(t, ok, "a stored session past its deadline is not live")

	require.NoError(t, store.Save(ctx, s))
	assert.Empty(t, rdb.values, "saving an already expired session removes it")
}

func TestRedisStoreWrapsErrors(t *testing.T) {
	rdb := newFakeRedis()
	rdb.getErr = errors.New("connection refused")
	store := NewRedisStore[payload](rdb, RedisOptions{})

	_, _, err := store.Load(context.Background(), Key{ChatID: 1, UserID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get session")

	rdb.getErr = nil
	rdb.values["session:1:1"] = "{not json"
	_, _, err = store.Load(context.Background(), Key{ChatID: 1, UserID: 1})
	assert.ErrorContains(t, err, "decode session")
}
