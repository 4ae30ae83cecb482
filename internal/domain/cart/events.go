package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventItemAdded       = "ItemAddedToCart"
	EventQuantityChanged = "ItemQuantityChanged"
	EventItemRemoved     = "ItemRemovedFromCart"
	EventCartCleared     = "CartCleared"
)

type ItemAddedToCart struct {
	CartID    string          `json:"cart_id"`
	UserID    string          `json:"user_id"`
	ProductID string          `json:"product_id"`
	ColorID   string          `json:"color_id,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	AddedAt   time.Time       `json:"added_at"`
}

type ItemQuantityChanged struct {
	CartID    string    `json:"cart_id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	ColorID   string    `json:"color_id,omitempty"`
	Quantity  int       `json:"quantity"`
	ChangedAt time.Time `json:"changed_at"`
}

type ItemRemovedFromCart struct {
	CartID    string    `json:"cart_id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	ColorID   string    `json:"color_id,omitempty"`
	RemovedAt time.Time `json:"removed_at"`
}

type CartCleared struct {
	CartID    string    `json:"cart_id"`
	UserID    string    `json:"user_id"`
	ClearedAt time.Time `json:"cleared_at"`
}
