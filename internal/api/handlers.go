package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/example/rachana-boutique/internal/api/middleware"
	"github.com/example/rachana-boutique/internal/catalog"
	"github.com/example/rachana-boutique/internal/command"
	"github.com/example/rachana-boutique/internal/domain/cart"
	"github.com/example/rachana-boutique/internal/inventory"
	"github.com/example/rachana-boutique/internal/remotecart"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	cmdHandler *command.Handler
	catalog    catalog.Map
	visitors   *Visitors
	remote     *remotecart.Direct
}

func NewHandlers(cmdHandler *command.Handler, cat catalog.Map, visitors *Visitors) *Handlers {
	return &Handlers{
		cmdHandler: cmdHandler,
		catalog:    cat,
		visitors:   visitors,
		remote:     remotecart.NewDirect(cmdHandler),
	}
}

// Product Handlers

type productView struct {
	*catalog.Product
	EffectivePrice decimal.Decimal `json:"effective_price"`
	Stock          int             `json:"stock"`
}

func newProductView(p *catalog.Product) productView {
	stock, _ := inventory.Stock(p, "")
	return productView{Product: p, EffectivePrice: p.EffectivePrice(), Stock: stock}
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.List()
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	p, ok := h.catalog.Lookup(id)
	if !ok {
		respondMessage(w, http.StatusNotFound, false, "Product not found")
		return
	}
	respondJSON(w, http.StatusOK, newProductView(p))
}

// Cart Handlers

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	ColorID   string `json:"color_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.cmdHandler.GetCart(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondCartError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, remotecart.NewCartView(c))
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cmd := command.AddToCart{
		UserID:    middleware.GetUserID(r.Context()),
		ProductID: req.ProductID,
		ColorID:   req.ColorID,
		Quantity:  req.Quantity,
	}
	if err := h.cmdHandler.AddToCart(r.Context(), cmd); err != nil {
		respondCartError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, true, "Item added to cart")
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cmd := command.UpdateCartItem{
		UserID:    middleware.GetUserID(r.Context()),
		ProductID: req.ProductID,
		ColorID:   req.ColorID,
		Quantity:  req.Quantity,
	}
	if err := h.cmdHandler.UpdateCartItem(r.Context(), cmd); err != nil {
		respondCartError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, true, "Cart updated")
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cmd := command.RemoveFromCart{
		UserID:    middleware.GetUserID(r.Context()),
		ProductID: q.Get("product_id"),
		ColorID:   q.Get("color_id"),
	}
	if err := h.cmdHandler.RemoveFromCart(r.Context(), cmd); err != nil {
		respondCartError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, true, "Item removed from cart")
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.ClearCart{UserID: middleware.GetUserID(r.Context())}
	if err := h.cmdHandler.ClearCart(r.Context(), cmd); err != nil {
		respondCartError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, true, "Cart cleared")
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondMessage(w http.ResponseWriter, status int, success bool, message string) {
	respondJSON(w, status, map[string]any{"success": success, "message": message})
}

// decodeBody reports false after answering 400 when the body is not valid JSON
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return false
	}
	return true
}

func respondCartError(w http.ResponseWriter, err error) {
	var ve *inventory.ValidationError
	switch {
	case errors.As(err, &ve):
		respondMessage(w, http.StatusConflict, false, ve.Message)
	case errors.Is(err, cart.ErrInvalidProduct):
		respondMessage(w, http.StatusBadRequest, false, "Product is required")
	case errors.Is(err, cart.ErrItemNotFound):
		respondMessage(w, http.StatusNotFound, false, "Item not in cart")
	default:
		log.Printf("[API] Cart operation failed: %v", err)
		respondMessage(w, http.StatusInternalServerError, false, "Could not update cart")
	}
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}
