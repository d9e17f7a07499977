package market

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvdops/blendboard/internal/database"
)

func newTestCache(t *testing.T) *CommentCache {
	t.Helper()
	db, err := database.New(database.Config{Path: "file::memory:", Name: "cache-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cache, err := NewCommentCache(db, zerolog.Nop())
	require.NoError(t, err)
	return cache
}

func TestCommentCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "2026-03-02", []byte(`{"a":1}`)))

	payload, ok, err := cache.Get(ctx, "2026-03-02")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(payload))

	// Overwrite replaces, a different day stays a miss.
	require.NoError(t, cache.Put(ctx, "2026-03-02", []byte(`{"a":2}`)))
	payload, ok, err = cache.Get(ctx, "2026-03-02")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":2}`, string(payload))

	_, ok, err = cache.Get(ctx, "2026-03-03")
	require.NoError(t, err)
	assert.False(t, ok)
}
