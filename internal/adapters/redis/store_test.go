package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicerone-chat/cicerone/internal/adapters/redis"
	"github.com/cicerone-chat/cicerone/pkg/domain"
	"github.com/cicerone-chat/cicerone/pkg/ports"
)

func newTestStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newTestStore(t)
	ports.RunDefinitionStoreContract(t, store)
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	store, mr := newTestStore(t, redis.WithPrefix("test:def:"))

	def := &domain.Definition{ID: "abc", Name: "x", Tree: domain.NewTree()}
	require.NoError(t, store.Save(context.Background(), def))
	assert.True(t, mr.Exists("test:def:abc"))
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := newTestStore(t, redis.WithTTL(time.Minute))
	ctx := context.Background()

	def := &domain.Definition{ID: "expiring", Name: "x", Tree: domain.NewTree()}
	require.NoError(t, store.Save(ctx, def))
	assert.Greater(t, mr.TTL("cicerone:def:expiring"), time.Duration(0))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, "expiring")
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
}
