package localcart

import (
	"encoding/json"
	"log"
	"time"

	"github.com/example/rachana-boutique/internal/catalog"
	"github.com/shopspring/decimal"
)

// LineItem is one (product, color) entry of the local cart
type LineItem struct {
	ProductID string           `json:"productId"`
	ColorID   string           `json:"colorId,omitempty"` // "" means no variant
	Quantity  int              `json:"quantity"`
	Snapshot  catalog.Snapshot `json:"productSnapshot"`
	AddedAt   time.Time        `json:"addedAt"`
}

// UnitPrice is the snapshot sale price when set, otherwise the regular price
func (i LineItem) UnitPrice() decimal.Decimal {
	return catalog.EffectivePrice(i.Snapshot.Price, i.Snapshot.SalePrice)
}

func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i LineItem) matches(productID, colorID string) bool {
	return i.ProductID == productID && i.ColorID == colorID
}

// ServerItem is a quantity already held in the authenticated cart
type ServerItem struct {
	ProductID string `json:"productId"`
	ColorID   string `json:"colorId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type pairKey struct {
	productID string
	colorID   string
}

// decodeItems parses the stored array. An unparseable document is an empty
// cart; malformed entries are dropped and repeated pairs are coalesced.
func decodeItems(raw string) []LineItem {
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Printf("[LocalCart] Discarding unreadable cart data: %v", err)
		return []LineItem{}
	}

	items := make([]LineItem, 0, len(entries))
	seen := make(map[pairKey]int, len(entries))
	for _, entry := range entries {
		var item LineItem
		if err := json.Unmarshal(entry, &item); err != nil {
			continue
		}
		if item.ProductID == "" || item.Quantity < 1 {
			continue
		}
		k := pairKey{item.ProductID, item.ColorID}
		if idx, dup := seen[k]; dup {
			items[idx].Quantity += item.Quantity
			continue
		}
		seen[k] = len(items)
		items = append(items, item)
	}
	return items
}

func encodeItems(items []LineItem) (string, error) {
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
