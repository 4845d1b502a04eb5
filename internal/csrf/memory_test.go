package csrf

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreIssueValidate(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	assert.False(t, store.Validate(ctx, 1, "anything"))

	token, err := store.Issue(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	assert.True(t, store.Validate(ctx, 1, token))
	assert.False(t, store.Validate(ctx, 1, "wrong"))
	assert.False(t, store.Validate(ctx, 2, token), "tokens are bound to one account")
}

func TestMemoryStoreLatestTokenWins(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	first, err := store.Issue(ctx, 1)
	require.NoError(t, err)
	second, err := store.Issue(ctx, 1)
	require.NoError(t, err)

	assert.False(t, store.Validate(ctx, 1, first))
	assert.True(t, store.Validate(ctx, 1, second))
}

func TestMemoryStoreRevoke(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	token, err := store.Issue(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, store.Revoke(ctx, 1))
	assert.False(t, store.Validate(ctx, 1, token))
}

func TestMemoryStoreExpiredTokenEvictedOnRead(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	token, err := store.Issue(ctx, 1)
	require.NoError(t, err)

	store.mu.Lock()
	store.entries[1] = entry{token: token, expiresAt: time.Now().Add(-time.Second)}
	store.mu.Unlock()

	assert.False(t, store.Validate(ctx, 1, token))

	store.mu.Lock()
	_, ok := store.entries[1]
	store.mu.Unlock()
	assert.False(t, ok, "expired entry must be dropped on read")
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	live, err := store.Issue(ctx, 1)
	require.NoError(t, err)
	_, err = store.Issue(ctx, 2)
	require.NoError(t, err)

	store.mu.Lock()
	store.entries[2] = entry{token: "stale", expiresAt: time.Now().Add(-time.Minute)}
	store.mu.Unlock()

	store.sweep()

	store.mu.Lock()
	_, swept := store.entries[2]
	store.mu.Unlock()
	assert.False(t, swept)
	assert.True(t, store.Validate(ctx, 1, live), "sweep must not touch unexpired entries")
}
