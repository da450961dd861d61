package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/api/internal/config"
	"backoffice/api/internal/ids"
)

// skipIfNoRedis skips the test unless BACKOFFICE_TEST_REDIS_ADDR is set.
func skipIfNoRedis(t *testing.T) *RevocationList {
	t.Helper()
	addr := os.Getenv("BACKOFFICE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis tests: BACKOFFICE_TEST_REDIS_ADDR not set")
	}
	client, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRevocationList(client)
}

func TestRevocationList(t *testing.T) {
	list := skipIfNoRedis(t)
	ctx := context.Background()
	jti := ids.New()

	revoked, err := list.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, jti, time.Now().Add(time.Minute)))

	revoked, err = list.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevokeIgnoresExpiredTokens(t *testing.T) {
	list := skipIfNoRedis(t)
	ctx := context.Background()
	jti := ids.New()

	require.NoError(t, list.Revoke(ctx, jti, time.Now().Add(-time.Second)))

	revoked, err := list.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)
}
