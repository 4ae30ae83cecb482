package cleanup

import (
	"context"
	"errors"
	"log"

	"github.com/example/rachana-boutique/internal/localcart"
	"github.com/example/rachana-boutique/internal/remotecart"
)

// PurchasedItem is one line of a completed order
type PurchasedItem struct {
	ProductID string `json:"product_id"`
	ColorID   string `json:"color_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// RemoteCart is the signed-in cart purchased lines are removed from
type RemoteCart interface {
	RemoveFromCart(ctx context.Context, req remotecart.RemoveFromCartRequest) error
}

// Summary counts what one cleanup pass did
type Summary struct {
	Total         int `json:"total"`
	LocalRemoved  int `json:"local_removed"`
	RemoteRemoved int `json:"remote_removed"`
	Failed        int `json:"failed"`
}

// Manager removes purchased lines from both carts
type Manager struct {
	local  *localcart.Store
	remote RemoteCart
}

// NewManager builds a Manager. remote may be nil when only the local cart
// should be cleaned.
func NewManager(local *localcart.Store, remote RemoteCart) *Manager {
	return &Manager{local: local, remote: remote}
}

// CleanupPurchased removes every purchased (product, color) pair from the
// local cart and, when userID is set, from the signed-in cart. A line that
// is in neither cart is not a failure. Errors are logged per item and the
// batch continues.
func (m *Manager) CleanupPurchased(ctx context.Context, userID string, purchased []PurchasedItem) Summary {
	summary := Summary{Total: len(purchased)}

	for _, item := range purchased {
		if item.ProductID == "" {
			summary.Failed++
			log.Printf("[Cleanup] Skipping purchased item without product id")
			continue
		}

		if m.local != nil && m.local.Remove(ctx, item.ProductID, item.ColorID) {
			summary.LocalRemoved++
		}

		if userID == "" || m.remote == nil {
			continue
		}
		err := m.remote.RemoveFromCart(ctx, remotecart.RemoveFromCartRequest{
			UserID:    userID,
			ProductID: item.ProductID,
			ColorID:   item.ColorID,
		})
		switch {
		case err == nil:
			summary.RemoteRemoved++
		case errors.Is(err, remotecart.ErrNotInCart):
		default:
			summary.Failed++
			log.Printf("[Cleanup] Failed to remove %s/%s from cart of user %s: %v", item.ProductID, item.ColorID, userID, err)
		}
	}

	log.Printf("[Cleanup] User %s: %d purchased, %d removed locally, %d removed remotely, %d failed",
		userID, summary.Total, summary.LocalRemoved, summary.RemoteRemoved, summary.Failed)
	return summary
}
