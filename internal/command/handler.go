package command

import (
	"context"
	"sync"

	"github.com/example/rachana-boutique/internal/catalog"
	"github.com/example/rachana-boutique/internal/domain/cart"
	"github.com/example/rachana-boutique/internal/inventory"
)

type Handler struct {
	cartSvc *cart.Service
	catalog catalog.Catalog

	// serializes the read-validate-append sequence so two concurrent adds
	// cannot both pass the stock check
	mu sync.Mutex
}

func NewHandler(cartSvc *cart.Service, cat catalog.Catalog) *Handler {
	return &Handler{
		cartSvc: cartSvc,
		catalog: cat,
	}
}

// GetCart returns the user's cart
func (h *Handler) GetCart(ctx context.Context, userID string) (*cart.Cart, error) {
	return h.cartSvc.Get(ctx, userID)
}

// AddToCart adds an item to cart. The stock check covers what the cart
// already holds for the same product and color.
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) error {
	if cmd.ProductID == "" {
		return cart.ErrInvalidProduct
	}
	if cmd.Quantity <= 0 {
		return inventory.Result{Message: "Quantity must be at least 1", Err: inventory.ErrInvalidQuantity}.AsError()
	}

	p, ok := h.catalog.Lookup(cmd.ProductID)
	if !ok {
		return inventory.Result{Message: "Product not found", Err: inventory.ErrProductNotFound}.AsError()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c, err := h.cartSvc.Get(ctx, cmd.UserID)
	if err != nil {
		return err
	}

	total := c.Quantity(cmd.ProductID, cmd.ColorID) + cmd.Quantity
	if err := inventory.Validate(cmd.ProductID, cmd.ColorID, total, h.catalog).AsError(); err != nil {
		return err
	}

	// Emit ItemAddedToCart event
	return h.cartSvc.AddItem(ctx, cmd.UserID, cmd.ProductID, cmd.ColorID, cmd.Quantity, p.EffectivePrice())
}

// UpdateCartItem overwrites the quantity of a line; zero or less removes it
func (h *Handler) UpdateCartItem(ctx context.Context, cmd UpdateCartItem) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, err := h.cartSvc.Get(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if _, ok := c.Items[cart.ItemKey(cmd.ProductID, cmd.ColorID)]; !ok {
		return cart.ErrItemNotFound
	}

	if cmd.Quantity > 0 {
		if err := inventory.Validate(cmd.ProductID, cmd.ColorID, cmd.Quantity, h.catalog).AsError(); err != nil {
			return err
		}
	}
	return h.cartSvc.SetQuantity(ctx, cmd.UserID, cmd.ProductID, cmd.ColorID, cmd.Quantity)
}

// RemoveFromCart removes an item from cart
func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, err := h.cartSvc.Get(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if _, ok := c.Items[cart.ItemKey(cmd.ProductID, cmd.ColorID)]; !ok {
		return cart.ErrItemNotFound
	}
	return h.cartSvc.RemoveItem(ctx, cmd.UserID, cmd.ProductID, cmd.ColorID)
}

// ClearCart clears all items from cart
func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cartSvc.Clear(ctx, cmd.UserID)
}
