package localcart

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/example/rachana-boutique/internal/catalog"
	"github.com/example/rachana-boutique/internal/inventory"
	"github.com/example/rachana-boutique/internal/kvstore"
	"github.com/shopspring/decimal"
)

// StorageKey holds the JSON array of line items
const StorageKey = kvstore.KeyPrefix + "temp_cart"

var (
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrInvalidQuantity = inventory.ErrInvalidQuantity
	ErrItemNotFound    = errors.New("item not in cart")
	ErrStorage         = errors.New("cart storage unavailable")
)

// Result reports the outcome of a cart operation. Operations never return
// errors; Err carries the sentinel when Success is false.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func succeeded(msg string) Result {
	return Result{Success: true, Message: msg}
}

func failed(err error, msg string) Result {
	return Result{Success: false, Message: msg, Err: err}
}

func fromValidation(v inventory.Result) Result {
	return Result{Success: false, Message: v.Message, Err: v.Err}
}

// Notifier receives one call after each write that changed the cart
type Notifier interface {
	Notify(ctx context.Context)
}

// Store is the cart of a visitor who has not signed in, kept in a
// key-value scope. All operations read-modify-write the whole array; there
// is no locking across processes sharing the scope.
type Store struct {
	kv       kvstore.Store
	notifier Notifier
	now      func() time.Time
}

// New builds a Store. notifier may be nil.
func New(kv kvstore.Store, notifier Notifier) *Store {
	return &Store{
		kv:       kv,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *Store) load(ctx context.Context) ([]LineItem, error) {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []LineItem{}, nil
	}
	return decodeItems(raw), nil
}

// save writes items and then notifies
func (s *Store) save(ctx context.Context, items []LineItem) error {
	data, err := encodeItems(items)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, StorageKey, data); err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

func (s *Store) notify(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.Notify(ctx)
	}
}

// recoverOp turns a panic raised by the backend or a listener into a
// failed Result
func (s *Store) recoverOp(op string, res *Result) {
	if r := recover(); r != nil {
		log.Printf("[LocalCart] Recovered panic in %s: %v", op, r)
		*res = failed(ErrStorage, "Could not update cart")
	}
}

func indexOf(items []LineItem, productID, colorID string) int {
	for i := range items {
		if items[i].matches(productID, colorID) {
			return i
		}
	}
	return -1
}

// Items returns the current line items. Storage that is missing, corrupt or
// unreachable reads as an empty cart.
func (s *Store) Items(ctx context.Context) (items []LineItem) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[LocalCart] Recovered panic reading cart: %v", r)
			items = []LineItem{}
		}
	}()

	items, err := s.load(ctx)
	if err != nil {
		log.Printf("[LocalCart] Failed to read cart: %v", err)
		return []LineItem{}
	}
	return items
}

// Quantity returns how many units of the pair the cart holds
func (s *Store) Quantity(ctx context.Context, productID, colorID string) int {
	items := s.Items(ctx)
	if idx := indexOf(items, productID, colorID); idx >= 0 {
		return items[idx].Quantity
	}
	return 0
}

// Add puts item.Quantity more units of the pair in the cart. The stock check
// covers what this cart and the signed-in server cart (serverItems) already
// hold, so splitting adds across the two carts cannot exceed stock.
func (s *Store) Add(ctx context.Context, item LineItem, cat catalog.Catalog, serverItems []ServerItem) (res Result) {
	defer s.recoverOp("add", &res)

	if item.ProductID == "" {
		return failed(ErrInvalidProduct, "Product is required")
	}
	if item.Quantity <= 0 {
		return failed(ErrInvalidQuantity, "Quantity must be at least 1")
	}

	items, err := s.load(ctx)
	if err != nil {
		log.Printf("[LocalCart] Failed to read cart for add: %v", err)
		return failed(ErrStorage, "Could not update cart")
	}

	idx := indexOf(items, item.ProductID, item.ColorID)
	existing := 0
	if idx >= 0 {
		existing = items[idx].Quantity
	}
	onServer := 0
	for _, si := range serverItems {
		if si.ProductID == item.ProductID && si.ColorID == item.ColorID {
			onServer += si.Quantity
		}
	}

	check := inventory.Validate(item.ProductID, item.ColorID, existing+onServer+item.Quantity, cat)
	if !check.Success {
		return fromValidation(check)
	}

	if idx >= 0 {
		items[idx].Quantity += item.Quantity
	} else {
		if item.Snapshot.Title == "" {
			if p, ok := cat.Lookup(item.ProductID); ok {
				item.Snapshot = p.Snapshot(item.ColorID)
			}
		}
		item.AddedAt = s.now().UTC()
		items = append(items, item)
	}

	if err := s.save(ctx, items); err != nil {
		log.Printf("[LocalCart] Failed to save cart after add of %s: %v", item.ProductID, err)
		return failed(ErrStorage, "Could not update cart")
	}
	return succeeded("Item added to cart")
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero
// or less removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID, colorID string, quantity int, cat catalog.Catalog) (res Result) {
	defer s.recoverOp("update", &res)

	items, err := s.load(ctx)
	if err != nil {
		log.Printf("[LocalCart] Failed to read cart for update: %v", err)
		return failed(ErrStorage, "Could not update cart")
	}

	idx := indexOf(items, productID, colorID)
	if idx < 0 {
		return failed(ErrItemNotFound, "Item not in cart")
	}

	if quantity <= 0 {
		items = append(items[:idx], items[idx+1:]...)
		if err := s.save(ctx, items); err != nil {
			log.Printf("[LocalCart] Failed to save cart after removing %s: %v", productID, err)
			return failed(ErrStorage, "Could not update cart")
		}
		return succeeded("Item removed from cart")
	}

	check := inventory.Validate(productID, colorID, quantity, cat)
	if !check.Success {
		return fromValidation(check)
	}
	if items[idx].Quantity == quantity {
		return succeeded("Cart updated")
	}

	items[idx].Quantity = quantity
	if err := s.save(ctx, items); err != nil {
		log.Printf("[LocalCart] Failed to save cart after update of %s: %v", productID, err)
		return failed(ErrStorage, "Could not update cart")
	}
	return succeeded("Cart updated")
}

// ChangeVariant moves a line to another color of the same product, folding
// it into an existing line of that color if there is one.
func (s *Store) ChangeVariant(ctx context.Context, productID, fromColorID, toColorID string, cat catalog.Catalog) (res Result) {
	defer s.recoverOp("variant change", &res)

	if fromColorID == toColorID {
		return succeeded("Cart updated")
	}

	items, err := s.load(ctx)
	if err != nil {
		log.Printf("[LocalCart] Failed to read cart for variant change: %v", err)
		return failed(ErrStorage, "Could not update cart")
	}

	from := indexOf(items, productID, fromColorID)
	if from < 0 {
		return failed(ErrItemNotFound, "Item not in cart")
	}
	to := indexOf(items, productID, toColorID)

	combined := items[from].Quantity
	if to >= 0 {
		combined += items[to].Quantity
	}
	check := inventory.Validate(productID, toColorID, combined, cat)
	if !check.Success {
		return fromValidation(check)
	}

	if to >= 0 {
		items[to].Quantity = combined
		items = append(items[:from], items[from+1:]...)
	} else {
		items[from].ColorID = toColorID
		items[from].Snapshot.ColorName = ""
		if p, ok := cat.Lookup(productID); ok {
			items[from].Snapshot.ColorName = p.Snapshot(toColorID).ColorName
		}
	}

	if err := s.save(ctx, items); err != nil {
		log.Printf("[LocalCart] Failed to save cart after variant change of %s: %v", productID, err)
		return failed(ErrStorage, "Could not update cart")
	}
	return succeeded("Cart updated")
}

// Remove deletes a line and reports whether one was removed
func (s *Store) Remove(ctx context.Context, productID, colorID string) (removed bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[LocalCart] Recovered panic in remove of %s: %v", productID, r)
			removed = false
		}
	}()

	items, err := s.load(ctx)
	if err != nil {
		log.Printf("[LocalCart] Failed to read cart for remove: %v", err)
		return false
	}
	idx := indexOf(items, productID, colorID)
	if idx < 0 {
		return false
	}

	items = append(items[:idx], items[idx+1:]...)
	if err := s.save(ctx, items); err != nil {
		log.Printf("[LocalCart] Failed to save cart after removing %s: %v", productID, err)
		return false
	}
	return true
}

// Clear empties the cart
func (s *Store) Clear(ctx context.Context) (res Result) {
	defer s.recoverOp("clear", &res)

	if _, ok, err := s.kv.Get(ctx, StorageKey); err == nil && !ok {
		return succeeded("Cart cleared")
	}
	if err := s.kv.Remove(ctx, StorageKey); err != nil {
		log.Printf("[LocalCart] Failed to clear cart: %v", err)
		return failed(ErrStorage, "Could not clear cart")
	}
	s.notify(ctx)
	return succeeded("Cart cleared")
}

// Count is the number of distinct lines, the same convention the signed-in
// cart badge uses.
func (s *Store) Count(ctx context.Context) int {
	return len(s.Items(ctx))
}

// TotalValue sums quantity times unit price from the line snapshots
func (s *Store) TotalValue(ctx context.Context) decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items(ctx) {
		total = total.Add(item.Subtotal())
	}
	return total
}
