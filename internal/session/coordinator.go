package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/example/rachana-boutique/internal/kvstore"
	"github.com/example/rachana-boutique/internal/localcart"
	"github.com/example/rachana-boutique/internal/remotecart"
)

var (
	ErrNoUser   = errors.New("user id is required")
	ErrNoRemote = errors.New("remote cart is required")

	ErrMergeAborted = errors.New("merge aborted")
)

// State of the merge for one user within one storage scope
type State int

const (
	NotMerging State = iota
	Merging
	Merged
	Failed
)

func (s State) String() string {
	switch s {
	case NotMerging:
		return "not_merging"
	case Merging:
		return "merging"
	case Merged:
		return "merged"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const mergedFlagValue = "true"

// MergedFlagKey is the storage key recording that userID's local cart was
// already copied.
func MergedFlagKey(userID string) string {
	return kvstore.KeyPrefix + "cart_merged:" + userID
}

// RemoteCart is the signed-in cart the local lines are copied into
type RemoteCart interface {
	AddToCart(ctx context.Context, req remotecart.AddToCartRequest) (*remotecart.AddToCartResponse, error)
}

// ItemFailure describes one line the remote cart did not accept
type ItemFailure struct {
	ProductID string `json:"product_id"`
	ColorID   string `json:"color_id,omitempty"`
	Reason    string `json:"reason"`
}

// Summary is the aggregate outcome of RunMerge
type Summary struct {
	Total     int           `json:"total"`
	Copied    int           `json:"copied"`
	Failed    int           `json:"failed"`
	Abandoned int           `json:"abandoned,omitempty"`
	Skipped   bool          `json:"skipped,omitempty"`
	Merged    bool          `json:"merged"`
	Failures  []ItemFailure `json:"failures,omitempty"`
}

// Coordinator copies the local cart of one storage scope into the signed-in
// cart once per user. The merged flag is persisted in the same scope as the
// cart, so it survives restarts but is not shared with other scopes.
type Coordinator struct {
	kv    kvstore.Store
	local *localcart.Store

	mu     sync.Mutex
	states map[string]State
}

func NewCoordinator(kv kvstore.Store, local *localcart.Store) *Coordinator {
	return &Coordinator{
		kv:     kv,
		local:  local,
		states: make(map[string]State),
	}
}

// State reports the merge state for userID
func (c *Coordinator) State(ctx context.Context, userID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st, ok := c.states[userID]; ok {
		return st
	}
	if merged, err := c.flagged(ctx, userID); err == nil && merged {
		return Merged
	}
	return NotMerging
}

func (c *Coordinator) flagged(ctx context.Context, userID string) (bool, error) {
	value, ok, err := c.kv.Get(ctx, MergedFlagKey(userID))
	if err != nil {
		return false, err
	}
	return ok && value == mergedFlagValue, nil
}

// StartMerge moves userID to Merging. It returns false when a merge is
// already running or already done for userID; the caller must skip.
func (c *Coordinator) StartMerge(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.states[userID] {
	case Merging, Merged:
		return false
	}

	merged, err := c.flagged(ctx, userID)
	if err != nil {
		log.Printf("[Merge] Failed to read merge flag for user %s: %v", userID, err)
		return false
	}
	if merged {
		c.states[userID] = Merged
		return false
	}

	c.states[userID] = Merging
	return true
}

// CompleteMerge records the outcome of a merge started with StartMerge.
// Failure leaves the user free to retry.
func (c *Coordinator) CompleteMerge(ctx context.Context, userID string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !success {
		c.states[userID] = Failed
		return
	}
	if err := c.kv.Set(ctx, MergedFlagKey(userID), mergedFlagValue); err != nil {
		// The in-memory state still blocks a second merge in this process
		log.Printf("[Merge] Failed to persist merge flag for user %s: %v", userID, err)
	}
	c.states[userID] = Merged
}

// ResetMergeFlag forgets that userID merged. Called on logout, so the next
// sign-in of the same user merges whatever the local cart holds then.
func (c *Coordinator) ResetMergeFlag(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNoUser
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.states, userID)
	if err := c.kv.Remove(ctx, MergedFlagKey(userID)); err != nil {
		return fmt.Errorf("failed to reset merge flag: %w", err)
	}
	return nil
}

func (c *Coordinator) abort(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, userID)
}

// RunMerge copies every local line into remote, one request at a time. A
// line that fails does not stop the others. The local cart is left as is.
// The user is marked merged when at least one line was copied.
//
// When ctx is cancelled no further requests are issued; requests already
// sent are not recalled and the lines never attempted count as Abandoned.
func (c *Coordinator) RunMerge(ctx context.Context, userID string, remote RemoteCart) (summary Summary, err error) {
	if userID == "" {
		return Summary{}, ErrNoUser
	}
	if remote == nil {
		return Summary{}, ErrNoRemote
	}
	if !c.StartMerge(ctx, userID) {
		return Summary{Skipped: true, Merged: c.State(ctx, userID) == Merged}, nil
	}

	// A panic in the remote or the store must not leave the user Merging
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Merge] Recovered panic during merge for user %s: %v", userID, r)
			summary.Merged = summary.Copied > 0
			c.CompleteMerge(context.WithoutCancel(ctx), userID, summary.Merged)
			err = fmt.Errorf("%w: %v", ErrMergeAborted, r)
		}
	}()

	items := c.local.Items(ctx)
	if len(items) == 0 {
		c.abort(userID)
		return Summary{}, nil
	}

	summary.Total = len(items)
	for i, item := range items {
		if ctx.Err() != nil {
			summary.Abandoned = len(items) - i
			break
		}

		resp, callErr := remote.AddToCart(ctx, remotecart.AddToCartRequest{
			UserID:    userID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			ColorID:   item.ColorID,
		})
		switch {
		case callErr != nil:
			summary.fail(item, callErr.Error())
			log.Printf("[Merge] Failed to copy %s/%s for user %s: %v", item.ProductID, item.ColorID, userID, callErr)
		case resp == nil || !resp.Success:
			reason := "rejected"
			if resp != nil && resp.Message != "" {
				reason = resp.Message
			}
			summary.fail(item, reason)
			log.Printf("[Merge] Remote cart rejected %s/%s for user %s: %s", item.ProductID, item.ColorID, userID, reason)
		default:
			summary.Copied++
		}
	}

	summary.Merged = summary.Copied > 0
	c.CompleteMerge(context.WithoutCancel(ctx), userID, summary.Merged)

	log.Printf("[Merge] User %s: copied %d/%d (failed %d, abandoned %d)",
		userID, summary.Copied, summary.Total, summary.Failed, summary.Abandoned)
	return summary, nil
}

func (s *Summary) fail(item localcart.LineItem, reason string) {
	s.Failed++
	s.Failures = append(s.Failures, ItemFailure{
		ProductID: item.ProductID,
		ColorID:   item.ColorID,
		Reason:    reason,
	})
}
