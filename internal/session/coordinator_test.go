package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/example/rachana-boutique/internal/catalog"
	"github.com/example/rachana-boutique/internal/kvstore"
	"github.com/example/rachana-boutique/internal/localcart"
	"github.com/example/rachana-boutique/internal/remotecart"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote records calls and answers from a per-product script
type fakeRemote struct {
	calls   []remotecart.AddToCartRequest
	errs    map[string]error
	rejects map[string]string
	onCall  func(n int)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		errs:    make(map[string]error),
		rejects: make(map[string]string),
	}
}

func (f *fakeRemote) AddToCart(_ context.Context, req remotecart.AddToCartRequest) (*remotecart.AddToCartResponse, error) {
	f.calls = append(f.calls, req)
	if f.onCall != nil {
		f.onCall(len(f.calls))
	}
	if err, ok := f.errs[req.ProductID]; ok {
		return nil, err
	}
	if msg, ok := f.rejects[req.ProductID]; ok {
		return &remotecart.AddToCartResponse{Success: false, Message: msg}, nil
	}
	return &remotecart.AddToCartResponse{Success: true}, nil
}

func testCatalog() catalog.Map {
	return catalog.NewMap(
		catalog.Product{ID: "saree", Title: "Saree", Price: decimal.NewFromInt(12000),
			Variants: []catalog.Variant{{ID: "maroon", Name: "Maroon", Inventory: 5}}},
		catalog.Product{ID: "dupatta", Title: "Dupatta", Price: decimal.NewFromInt(1450), TotalStock: 5},
		catalog.Product{ID: "bangle", Title: "Bangle Set", Price: decimal.NewFromInt(600), TotalStock: 5},
	)
}

func newTestCoordinator(t *testing.T, products ...string) (*Coordinator, *localcart.Store, *kvstore.Memory) {
	t.Helper()
	kv := kvstore.NewMemory()
	local := localcart.New(kv, nil)
	ctx := context.Background()
	for _, id := range products {
		colorID := ""
		if id == "saree" {
			colorID = "maroon"
		}
		result := local.Add(ctx, localcart.LineItem{ProductID: id, ColorID: colorID, Quantity: 1}, testCatalog(), nil)
		require.True(t, result.Success, result.Message)
	}
	return NewCoordinator(kv, local), local, kv
}

// ============================================
// State Machine Tests
// ============================================

func TestCoordinator_StartMerge_Transitions(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	assert.Equal(t, NotMerging, c.State(ctx, "user-1"))
	assert.True(t, c.StartMerge(ctx, "user-1"))
	assert.Equal(t, Merging, c.State(ctx, "user-1"))

	assert.False(t, c.StartMerge(ctx, "user-1"), "already merging")

	c.CompleteMerge(ctx, "user-1", true)
	assert.Equal(t, Merged, c.State(ctx, "user-1"))
	assert.False(t, c.StartMerge(ctx, "user-1"), "already merged")
}

func TestCoordinator_CompleteMerge_FailureAllowsRetry(t *testing.T) {
	c, _, kv := newTestCoordinator(t)
	ctx := context.Background()

	require.True(t, c.StartMerge(ctx, "user-1"))
	c.CompleteMerge(ctx, "user-1", false)

	assert.Equal(t, Failed, c.State(ctx, "user-1"))
	assert.True(t, c.StartMerge(ctx, "user-1"))
	_, ok, _ := kv.Get(ctx, MergedFlagKey("user-1"))
	assert.False(t, ok)
}

func TestCoordinator_MergedFlagIsPerUser(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.True(t, c.StartMerge(ctx, "user-1"))
	c.CompleteMerge(ctx, "user-1", true)

	assert.True(t, c.StartMerge(ctx, "user-2"))
}

func TestCoordinator_MergedFlagSurvivesRestart(t *testing.T) {
	c, local, kv := newTestCoordinator(t)
	ctx := context.Background()

	require.True(t, c.StartMerge(ctx, "user-1"))
	c.CompleteMerge(ctx, "user-1", true)

	value, ok, err := kv.Get(ctx, MergedFlagKey("user-1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", value)

	restarted := NewCoordinator(kv, local)
	assert.Equal(t, Merged, restarted.State(ctx, "user-1"))
	assert.False(t, restarted.StartMerge(ctx, "user-1"))
}

func TestCoordinator_StartMerge_EmptyUser(t *testing.T) {
	c, _, _ := newTestCoordinator(t)

	assert.False(t, c.StartMerge(context.Background(), ""))
}

func TestCoordinator_ResetMergeFlag(t *testing.T) {
	c, _, kv := newTestCoordinator(t)
	ctx := context.Background()
	require.True(t, c.StartMerge(ctx, "user-1"))
	c.CompleteMerge(ctx, "user-1", true)

	require.NoError(t, c.ResetMergeFlag(ctx, "user-1"))

	_, ok, _ := kv.Get(ctx, MergedFlagKey("user-1"))
	assert.False(t, ok)
	assert.Equal(t, NotMerging, c.State(ctx, "user-1"))
	assert.True(t, c.StartMerge(ctx, "user-1"), "same user may merge again after logout")
}

func TestCoordinator_ResetMergeFlag_LeavesOtherUsers(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()
	for _, user := range []string{"user-1", "user-2"} {
		require.True(t, c.StartMerge(ctx, user))
		c.CompleteMerge(ctx, user, true)
	}

	require.NoError(t, c.ResetMergeFlag(ctx, "user-1"))

	assert.Equal(t, Merged, c.State(ctx, "user-2"))
	assert.ErrorIs(t, c.ResetMergeFlag(ctx, ""), ErrNoUser)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "not_merging", NotMerging.String())
	assert.Equal(t, "merging", Merging.String())
	assert.Equal(t, "merged", Merged.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "state(9)", State(9).String())
}

// ============================================
// RunMerge Tests
// ============================================

func TestCoordinator_RunMerge_CopiesEveryLine(t *testing.T) {
	c, local, _ := newTestCoordinator(t, "saree", "dupatta")
	remote := newFakeRemote()
	ctx := context.Background()

	summary, err := c.RunMerge(ctx, "user-1", remote)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Copied)
	assert.Zero(t, summary.Failed)
	assert.True(t, summary.Merged)
	require.Len(t, remote.calls, 2)
	assert.Equal(t, remotecart.AddToCartRequest{UserID: "user-1", ProductID: "saree", Quantity: 1, ColorID: "maroon"}, remote.calls[0])
	assert.Equal(t, remotecart.AddToCartRequest{UserID: "user-1", ProductID: "dupatta", Quantity: 1}, remote.calls[1])
	assert.Equal(t, 2, local.Count(ctx), "local cart is kept after merging")
}

func TestCoordinator_RunMerge_PartialFailure(t *testing.T) {
	c, local, _ := newTestCoordinator(t, "saree", "dupatta")
	remote := newFakeRemote()
	remote.errs["dupatta"] = errors.New("connection refused")
	ctx := context.Background()

	summary, err := c.RunMerge(ctx, "user-1", remote)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Copied)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "dupatta", summary.Failures[0].ProductID)
	assert.Equal(t, "connection refused", summary.Failures[0].Reason)
	assert.Equal(t, Merged, c.State(ctx, "user-1"))
	assert.Equal(t, 2, local.Count(ctx))
}

func TestCoordinator_RunMerge_RejectionCountsAsFailure(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "saree", "dupatta", "bangle")
	remote := newFakeRemote()
	remote.rejects["saree"] = "Only 0 items available"
	remote.rejects["bangle"] = ""

	summary, err := c.RunMerge(context.Background(), "user-1", remote)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Copied)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, "Only 0 items available", summary.Failures[0].Reason)
	assert.Equal(t, "rejected", summary.Failures[1].Reason)
	assert.Len(t, remote.calls, 3, "a failed line does not stop the loop")
}

func TestCoordinator_RunMerge_AllFailedAllowsRetry(t *testing.T) {
	c, _, kv := newTestCoordinator(t, "dupatta")
	remote := newFakeRemote()
	remote.errs["dupatta"] = errors.New("503")
	ctx := context.Background()

	summary, err := c.RunMerge(ctx, "user-1", remote)
	require.NoError(t, err)
	assert.False(t, summary.Merged)
	assert.Equal(t, Failed, c.State(ctx, "user-1"))
	_, ok, _ := kv.Get(ctx, MergedFlagKey("user-1"))
	assert.False(t, ok)

	delete(remote.errs, "dupatta")
	summary, err = c.RunMerge(ctx, "user-1", remote)
	require.NoError(t, err)
	assert.True(t, summary.Merged)
	assert.Len(t, remote.calls, 2)
}

func TestCoordinator_RunMerge_Idempotent(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "saree", "dupatta")
	remote := newFakeRemote()
	ctx := context.Background()

	_, err := c.RunMerge(ctx, "user-1", remote)
	require.NoError(t, err)
	require.Len(t, remote.calls, 2)

	summary, err := c.RunMerge(ctx, "user-1", remote)

	require.NoError(t, err)
	assert.True(t, summary.Skipped)
	assert.True(t, summary.Merged)
	assert.Len(t, remote.calls, 2, "second merge makes no remote calls")
}

func TestCoordinator_RunMerge_LogoutThenLoginMergesAgain(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "dupatta")
	remote := newFakeRemote()
	ctx := context.Background()

	_, err := c.RunMerge(ctx, "user-1", remote)
	require.NoError(t, err)

	require.NoError(t, c.ResetMergeFlag(ctx, "user-1"))
	assert.True(t, c.StartMerge(ctx, "user-1"))
}

func TestCoordinator_RunMerge_EmptyCart(t *testing.T) {
	c, _, kv := newTestCoordinator(t)
	remote := newFakeRemote()
	ctx := context.Background()

	summary, err := c.RunMerge(ctx, "user-1", remote)

	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.False(t, summary.Merged)
	assert.Empty(t, remote.calls)
	assert.Equal(t, NotMerging, c.State(ctx, "user-1"))
	_, ok, _ := kv.Get(ctx, MergedFlagKey("user-1"))
	assert.False(t, ok)
}

func TestCoordinator_RunMerge_Cancelled(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "saree", "dupatta", "bangle")
	remote := newFakeRemote()
	ctx, cancel := context.WithCancel(context.Background())
	remote.onCall = func(n int) {
		if n == 1 {
			cancel()
		}
	}

	summary, err := c.RunMerge(ctx, "user-1", remote)

	require.NoError(t, err)
	assert.Len(t, remote.calls, 1)
	assert.Equal(t, 1, summary.Copied)
	assert.Equal(t, 2, summary.Abandoned)
	assert.True(t, summary.Merged)
	assert.Equal(t, Merged, c.State(context.Background(), "user-1"))
}

func TestCoordinator_RunMerge_PanickingRemoteAllowsRetry(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "saree", "dupatta")
	ctx := context.Background()

	broken := newFakeRemote()
	broken.onCall = func(int) { panic("connection pool exhausted") }

	summary, err := c.RunMerge(ctx, "user-1", broken)
	require.ErrorIs(t, err, ErrMergeAborted)
	assert.Equal(t, 0, summary.Copied)
	assert.Equal(t, Failed, c.State(ctx, "user-1"))

	working := newFakeRemote()
	summary, err = c.RunMerge(ctx, "user-1", working)
	require.NoError(t, err)
	assert.False(t, summary.Skipped)
	assert.Equal(t, 2, summary.Copied)
	assert.Equal(t, Merged, c.State(ctx, "user-1"))
}

func TestCoordinator_RunMerge_PanicAfterCopyKeepsMerged(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "saree", "dupatta")
	ctx := context.Background()

	remote := newFakeRemote()
	remote.onCall = func(n int) {
		if n == 2 {
			panic("boom")
		}
	}

	summary, err := c.RunMerge(ctx, "user-1", remote)
	require.ErrorIs(t, err, ErrMergeAborted)
	assert.Equal(t, 1, summary.Copied)
	assert.True(t, summary.Merged)
	assert.Equal(t, Merged, c.State(ctx, "user-1"))
}

func TestCoordinator_RunMerge_InvalidArguments(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "dupatta")

	_, err := c.RunMerge(context.Background(), "", newFakeRemote())
	assert.ErrorIs(t, err, ErrNoUser)

	_, err = c.RunMerge(context.Background(), "user-1", nil)
	assert.ErrorIs(t, err, ErrNoRemote)
}

// ============================================
// Registry Tests
// ============================================

func newTestRegistry(built *int) *Registry {
	backend := kvstore.NewMemory()
	return NewRegistry(func(scope string) *Coordinator {
		*built++
		kv := kvstore.Scoped(backend, scope)
		return NewCoordinator(kv, localcart.New(kv, nil))
	})
}

func TestRegistry_OneCoordinatorPerScope(t *testing.T) {
	built := 0
	registry := newTestRegistry(&built)

	a, releaseA := registry.Acquire("visitor-a")
	again, releaseAgain := registry.Acquire("visitor-a")
	b, releaseB := registry.Acquire("visitor-b")
	defer releaseA()
	defer releaseAgain()
	defer releaseB()

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, built)
	assert.Equal(t, 2, registry.Len())
}

func TestRegistry_ReleasedScopesAreDropped(t *testing.T) {
	built := 0
	registry := newTestRegistry(&built)

	for i := 0; i < 1000; i++ {
		_, release := registry.Acquire(fmt.Sprintf("visitor-%d", i))
		release()
	}
	assert.Equal(t, 0, registry.Len())
	assert.Equal(t, 1000, built)
}

func TestRegistry_HeldWhileAnyHolderRemains(t *testing.T) {
	built := 0
	registry := newTestRegistry(&built)

	first, releaseFirst := registry.Acquire("visitor-a")
	_, releaseSecond := registry.Acquire("visitor-a")

	releaseFirst()
	releaseFirst() // a second call is a no-op
	assert.Equal(t, 1, registry.Len())

	third, releaseThird := registry.Acquire("visitor-a")
	assert.Same(t, first, third)

	releaseSecond()
	releaseThird()
	assert.Equal(t, 0, registry.Len())
	assert.Equal(t, 1, built)
}

func TestRegistry_MergedFlagOutlivesCoordinator(t *testing.T) {
	built := 0
	registry := newTestRegistry(&built)
	ctx := context.Background()

	c, release := registry.Acquire("visitor-a")
	require.True(t, c.StartMerge(ctx, "user-1"))
	c.CompleteMerge(ctx, "user-1", true)
	release()

	c, release = registry.Acquire("visitor-a")
	defer release()
	assert.Equal(t, Merged, c.State(ctx, "user-1"))
	assert.False(t, c.StartMerge(ctx, "user-1"))
}
