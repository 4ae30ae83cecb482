package remotecart

import (
	"errors"

	"github.com/example/rachana-boutique/internal/domain/cart"
	"github.com/example/rachana-boutique/internal/localcart"
	"github.com/shopspring/decimal"
)

var (
	ErrUnauthorized = errors.New("remote cart rejected credentials")
	ErrNotInCart    = errors.New("item not in remote cart")
)

// AddToCartRequest is what the signed-in cart accepts for one line
type AddToCartRequest struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	ColorID   string `json:"color_id,omitempty"`
}

// AddToCartResponse mirrors the cart API body. Success=false is a business
// rejection such as insufficient stock.
type AddToCartResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RemoveFromCartRequest identifies one line of the signed-in cart
type RemoveFromCartRequest struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	ColorID   string `json:"color_id,omitempty"`
}

// CartLine is one line of the signed-in cart as the API returns it
type CartLine struct {
	ProductID string          `json:"product_id"`
	ColorID   string          `json:"color_id,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CartView is the body of GET /cart
type CartView struct {
	ID     string          `json:"id"`
	UserID string          `json:"user_id"`
	Items  []CartLine      `json:"items"`
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

func NewCartView(c *cart.Cart) CartView {
	view := CartView{
		ID:     c.ID,
		UserID: c.UserID,
		Items:  make([]CartLine, 0, len(c.Items)),
		Count:  len(c.Items),
		Total:  c.Total(),
	}
	for _, item := range c.SortedItems() {
		view.Items = append(view.Items, CartLine{
			ProductID: item.ProductID,
			ColorID:   item.ColorID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return view
}

// ServerItems converts the view into the quantities the local cart counts
// against stock.
func (v CartView) ServerItems() []localcart.ServerItem {
	items := make([]localcart.ServerItem, 0, len(v.Items))
	for _, line := range v.Items {
		items = append(items, localcart.ServerItem{
			ProductID: line.ProductID,
			ColorID:   line.ColorID,
			Quantity:  line.Quantity,
		})
	}
	return items
}
