package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/rachana-boutique/internal/infrastructure/store"
	"github.com/shopspring/decimal"
)

const AggregateType = "Cart"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrItemNotFound    = errors.New("item not in cart")
)

type CartItem struct {
	ProductID string          `json:"product_id"`
	ColorID   string          `json:"color_id,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Cart struct {
	ID      string              `json:"id"`
	UserID  string              `json:"user_id"`
	Items   map[string]CartItem `json:"items"` // ItemKey -> item
	Version int                 `json:"version"`
}

// ItemKey identifies a line by product and color
func ItemKey(productID, colorID string) string {
	if colorID == "" {
		return productID
	}
	return productID + "|" + colorID
}

// Quantity returns the units held for a product/color pair
func (c *Cart) Quantity(productID, colorID string) int {
	return c.Items[ItemKey(productID, colorID)].Quantity
}

// SortedItems returns the lines ordered by key
func (c *Cart) SortedItems() []CartItem {
	keys := make([]string, 0, len(c.Items))
	for k := range c.Items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]CartItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, c.Items[k])
	}
	return items
}

// Total sums quantity times the price recorded when the item was added
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// GetCartID returns the cart ID for a user (using userID as cartID for simplicity)
func GetCartID(userID string) string {
	return "cart-" + userID
}

// applyEvent applies a single event to the cart state
func (c *Cart) applyEvent(event store.Event) error {
	switch event.EventType {
	case EventItemAdded:
		var data ItemAddedToCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		key := ItemKey(data.ProductID, data.ColorID)
		// Add or update item quantity
		if existing, ok := c.Items[key]; ok {
			existing.Quantity += data.Quantity
			existing.Price = data.Price
			c.Items[key] = existing
		} else {
			c.Items[key] = CartItem{
				ProductID: data.ProductID,
				ColorID:   data.ColorID,
				Quantity:  data.Quantity,
				Price:     data.Price,
			}
		}
	case EventQuantityChanged:
		var data ItemQuantityChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		key := ItemKey(data.ProductID, data.ColorID)
		if existing, ok := c.Items[key]; ok {
			existing.Quantity = data.Quantity
			c.Items[key] = existing
		}
	case EventItemRemoved:
		var data ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		delete(c.Items, ItemKey(data.ProductID, data.ColorID))
	case EventCartCleared:
		c.Items = make(map[string]CartItem)
	}
	c.Version = event.Version
	return nil
}

// Get rebuilds a user's cart by replaying its events. A user without events
// has an empty cart.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	cartID := GetCartID(userID)
	cart := &Cart{
		ID:     cartID,
		UserID: userID,
		Items:  make(map[string]CartItem),
	}

	events, err := s.eventStore.GetEvents(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart events: %w", err)
	}
	for _, event := range events {
		if err := cart.applyEvent(event); err != nil {
			return nil, fmt.Errorf("failed to apply event: %w", err)
		}
	}
	return cart, nil
}

func (s *Service) AddItem(ctx context.Context, userID, productID, colorID string, quantity int, price decimal.Decimal) error {
	if productID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	cartID := GetCartID(userID)
	event := ItemAddedToCart{
		CartID:    cartID,
		UserID:    userID,
		ProductID: productID,
		ColorID:   colorID,
		Quantity:  quantity,
		Price:     price,
		AddedAt:   time.Now(),
	}

	_, err := s.eventStore.Append(ctx, cartID, AggregateType, EventItemAdded, event)
	return err
}

// SetQuantity overwrites the quantity of a line. Zero or less removes it.
func (s *Service) SetQuantity(ctx context.Context, userID, productID, colorID string, quantity int) error {
	if productID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID, colorID)
	}

	cartID := GetCartID(userID)
	event := ItemQuantityChanged{
		CartID:    cartID,
		UserID:    userID,
		ProductID: productID,
		ColorID:   colorID,
		Quantity:  quantity,
		ChangedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, cartID, AggregateType, EventQuantityChanged, event)
	return err
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID, colorID string) error {
	if productID == "" {
		return ErrInvalidProduct
	}

	cartID := GetCartID(userID)
	event := ItemRemovedFromCart{
		CartID:    cartID,
		UserID:    userID,
		ProductID: productID,
		ColorID:   colorID,
		RemovedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, cartID, AggregateType, EventItemRemoved, event)
	return err
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	cartID := GetCartID(userID)
	event := CartCleared{
		CartID:    cartID,
		UserID:    userID,
		ClearedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, cartID, AggregateType, EventCartCleared, event)
	return err
}
