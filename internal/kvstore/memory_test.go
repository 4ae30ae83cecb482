package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetRemove(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "rb:temp_cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "rb:temp_cart", "[]"))

	value, ok, err := store.Get(ctx, "rb:temp_cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)

	require.NoError(t, store.Remove(ctx, "rb:temp_cart"))
	_, ok, err = store.Get(ctx, "rb:temp_cart")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_RemoveMissingKey(t *testing.T) {
	store := NewMemory()

	assert.NoError(t, store.Remove(context.Background(), "missing"))
}

func TestMemory_EmptyKey(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, _, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, store.Set(ctx, "", "x"), ErrEmptyKey)
	assert.ErrorIs(t, store.Remove(ctx, ""), ErrEmptyKey)
}

// ============================================
// Scoped Tests
// ============================================

func TestScoped_IsolatesScopes(t *testing.T) {
	backend := NewMemory()
	ctx := context.Background()

	alice := Scoped(backend, "visitor-a")
	bob := Scoped(backend, "visitor-b")

	require.NoError(t, alice.Set(ctx, "rb:temp_cart", "alice"))
	require.NoError(t, bob.Set(ctx, "rb:temp_cart", "bob"))

	value, ok, err := alice.Get(ctx, "rb:temp_cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", value)

	value, _, _ = bob.Get(ctx, "rb:temp_cart")
	assert.Equal(t, "bob", value)

	assert.ElementsMatch(t, []string{"visitor-a/rb:temp_cart", "visitor-b/rb:temp_cart"}, backend.Keys())

	require.NoError(t, alice.Remove(ctx, "rb:temp_cart"))
	_, ok, _ = alice.Get(ctx, "rb:temp_cart")
	assert.False(t, ok)
	_, ok, _ = bob.Get(ctx, "rb:temp_cart")
	assert.True(t, ok)
}

func TestScoped_EmptyScopeReturnsInner(t *testing.T) {
	backend := NewMemory()

	assert.Same(t, backend, Scoped(backend, "").(*Memory))
}
