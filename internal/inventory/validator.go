package inventory

import (
	"errors"
	"fmt"

	"github.com/example/rachana-boutique/internal/catalog"
)

var (
	ErrProductNotFound   = catalog.ErrProductNotFound
	ErrOutOfStock        = errors.New("out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// Result is the outcome of a stock check. Validation failures are values,
// never errors: Err carries the sentinel for callers that branch on it.
type Result struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Available int    `json:"available,omitempty"`
	// Validated is false when the variant could not be found and the check
	// was skipped.
	Validated bool  `json:"-"`
	Err       error `json:"-"`
}

func ok(available int) Result {
	return Result{Success: true, Available: available, Validated: true}
}

func fail(err error, available int, msg string) Result {
	return Result{Success: false, Message: msg, Available: available, Validated: true, Err: err}
}

// Stock returns the quantity governing a (product, color) pair. known is
// false when a color was requested that the product does not list.
func Stock(p *catalog.Product, colorID string) (stock int, known bool) {
	if colorID != "" {
		v, found := p.Variant(colorID)
		if !found {
			return 0, false
		}
		return v.Inventory, true
	}
	return p.AggregateStock(), true
}

// Validate checks whether requestedTotal units of the pair can be held in a
// cart. requestedTotal must already include what the carts hold.
func Validate(productID, colorID string, requestedTotal int, cat catalog.Catalog) Result {
	if requestedTotal <= 0 {
		return fail(ErrInvalidQuantity, 0, "Quantity must be at least 1")
	}
	p, found := cat.Lookup(productID)
	if !found {
		return fail(ErrProductNotFound, 0, "Product not found")
	}

	stock, known := Stock(p, colorID)
	if !known {
		// Admin data can lag behind what shoppers see; let the add through.
		return Result{Success: true}
	}

	subject := "product"
	if colorID != "" {
		subject = "color"
	}
	if stock <= 0 {
		return fail(ErrOutOfStock, 0, fmt.Sprintf("This %s is out of stock", subject))
	}
	if requestedTotal > stock {
		return fail(ErrInsufficientStock, stock, fmt.Sprintf("Only %d %s available for this %s", stock, pluralItems(stock), subject))
	}
	return ok(stock)
}

func pluralItems(n int) string {
	if n == 1 {
		return "item"
	}
	return "items"
}

// ValidationError carries a failed Result across APIs that return errors.
// Error() is the shopper-facing message; errors.Is matches the sentinel.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

// AsError returns nil for a successful Result and a *ValidationError otherwise
func (r Result) AsError() error {
	if r.Success {
		return nil
	}
	return &ValidationError{Message: r.Message, Err: r.Err}
}
