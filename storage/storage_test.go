package storage

import (
	"context"
	"testing"
	"time"

	"github.com/riven-blade/smartconnect/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx, "C1")
	assert.True(t, IsNotFound(err))

	rec := &SessionRecord{ClientCode: "C1", JwtToken: "jwt", RefreshToken: "ref", FeedToken: "feed"}
	require.NoError(t, store.Save(ctx, rec, 0))

	got, err := store.Load(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, *rec, *got)

	got.JwtToken = "mutated"
	again, err := store.Load(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, "jwt", again.JwtToken)

	require.NoError(t, store.Delete(ctx, "C1"))
	_, err = store.Load(ctx, "C1")
	assert.True(t, IsNotFound(err))
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, &SessionRecord{ClientCode: "C1"}, time.Hour))
	_, err := store.Load(ctx, "C1")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = store.Load(ctx, "C1")
	assert.True(t, IsNotFound(err))
}

func TestMemoryStoreRejectsAnonymousRecord(t *testing.T) {
	err := NewMemoryStore().Save(context.Background(), &SessionRecord{}, 0)
	assert.True(t, IsValidation(err))
}

func TestRedisStoreClosedState(t *testing.T) {
	store := &RedisStore{config: config.NewRedisConfig(), stats: &StoreStats{}}
	ctx := context.Background()

	assert.Equal(t, "smartconnect:session:C1", store.key("C1"))
	assert.ErrorIs(t, store.Save(ctx, &SessionRecord{ClientCode: "C1"}, 0), ErrStorageNotHealthy)
	_, err := store.Load(ctx, "C1")
	assert.ErrorIs(t, err, ErrStorageNotHealthy)
	assert.True(t, IsRetryableError(err))
	assert.NoError(t, store.Close())
	assert.Equal(t, int64(2), store.Stats().Failures.Load())
}

func TestNewSessionStore(t *testing.T) {
	ctx := context.Background()

	store, err := NewSessionStore(ctx, &config.SessionConfig{Store: config.SessionStoreNone})
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = NewSessionStore(ctx, &config.SessionConfig{Store: config.SessionStoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewSessionStore(ctx, &config.SessionConfig{Store: "etcd"})
	assert.Error(t, err)
}
