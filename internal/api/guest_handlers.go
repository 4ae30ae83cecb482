package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/example/rachana-boutique/internal/api/middleware"
	"github.com/example/rachana-boutique/internal/localcart"
	"github.com/shopspring/decimal"
)

type guestCartView struct {
	VisitorID string               `json:"visitor_id"`
	Items     []localcart.LineItem `json:"items"`
	Count     int                  `json:"count"`
	Total     decimal.Decimal      `json:"total"`
}

type changeVariantRequest struct {
	ProductID   string `json:"product_id"`
	FromColorID string `json:"from_color_id,omitempty"`
	ToColorID   string `json:"to_color_id,omitempty"`
}

func (h *Handlers) guestCart(r *http.Request) *localcart.Store {
	return h.visitors.Cart(middleware.GetVisitorID(r.Context()))
}

func (h *Handlers) GetGuestCart(w http.ResponseWriter, r *http.Request) {
	local := h.guestCart(r)
	items := local.Items(r.Context())

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	respondJSON(w, http.StatusOK, guestCartView{
		VisitorID: middleware.GetVisitorID(r.Context()),
		Items:     items,
		Count:     len(items),
		Total:     total,
	})
}

// AddToGuestCart counts the signed-in cart too when the request carries a
// token, so a visitor cannot exceed stock by splitting adds across carts.
func (h *Handlers) AddToGuestCart(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var serverItems []localcart.ServerItem
	if userID := middleware.GetUserID(r.Context()); userID != "" {
		items, err := h.remote.Items(r.Context(), userID)
		if err != nil {
			log.Printf("[API] Failed to read cart of user %s for guest add: %v", userID, err)
			respondMessage(w, http.StatusServiceUnavailable, false, "Could not check cart")
			return
		}
		serverItems = items
	}

	res := h.guestCart(r).Add(r.Context(), localcart.LineItem{
		ProductID: req.ProductID,
		ColorID:   req.ColorID,
		Quantity:  req.Quantity,
	}, h.catalog, serverItems)
	respondResult(w, res)
}

func (h *Handlers) UpdateGuestCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res := h.guestCart(r).UpdateQuantity(r.Context(), req.ProductID, req.ColorID, req.Quantity, h.catalog)
	respondResult(w, res)
}

func (h *Handlers) ChangeGuestCartVariant(w http.ResponseWriter, r *http.Request) {
	var req changeVariantRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res := h.guestCart(r).ChangeVariant(r.Context(), req.ProductID, req.FromColorID, req.ToColorID, h.catalog)
	respondResult(w, res)
}

func (h *Handlers) RemoveFromGuestCart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !h.guestCart(r).Remove(r.Context(), q.Get("product_id"), q.Get("color_id")) {
		respondMessage(w, http.StatusNotFound, false, "Item not in cart")
		return
	}
	respondMessage(w, http.StatusOK, true, "Item removed from cart")
}

func (h *Handlers) ClearGuestCart(w http.ResponseWriter, r *http.Request) {
	respondResult(w, h.guestCart(r).Clear(r.Context()))
}

func respondResult(w http.ResponseWriter, res localcart.Result) {
	status := http.StatusOK
	if !res.Success {
		switch {
		case errors.Is(res.Err, localcart.ErrStorage):
			status = http.StatusServiceUnavailable
		case errors.Is(res.Err, localcart.ErrItemNotFound):
			status = http.StatusNotFound
		case errors.Is(res.Err, localcart.ErrInvalidProduct):
			status = http.StatusBadRequest
		default:
			status = http.StatusConflict
		}
	}
	respondJSON(w, status, res)
}
