package catalog

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

// Variant is a purchasable option of a product, usually a color
type Variant struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Inventory int    `json:"inventory" yaml:"inventory"`
}

type Product struct {
	ID         string           `json:"id" yaml:"id"`
	Title      string           `json:"title" yaml:"title"`
	Price      decimal.Decimal  `json:"price" yaml:"price"`
	SalePrice  *decimal.Decimal `json:"sale_price,omitempty" yaml:"sale_price,omitempty"`
	Image      string           `json:"image,omitempty" yaml:"image,omitempty"`
	TotalStock int              `json:"total_stock" yaml:"total_stock"`
	Variants   []Variant        `json:"variants,omitempty" yaml:"variants,omitempty"`
}

// Variant looks up a variant by id
func (p *Product) Variant(id string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// AggregateStock is the sum of variant inventories when the product has
// variants, otherwise TotalStock.
func (p *Product) AggregateStock() int {
	if len(p.Variants) == 0 {
		return p.TotalStock
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Inventory
	}
	return total
}

// EffectivePrice is the sale price when one is set and positive
func (p *Product) EffectivePrice() decimal.Decimal {
	return EffectivePrice(p.Price, p.SalePrice)
}

// EffectivePrice picks sale over regular price
func EffectivePrice(price decimal.Decimal, sale *decimal.Decimal) decimal.Decimal {
	if sale != nil && sale.IsPositive() {
		return *sale
	}
	return price
}

// Snapshot is the display data copied into a cart line at add time
type Snapshot struct {
	Title     string           `json:"title"`
	Price     decimal.Decimal  `json:"price"`
	SalePrice *decimal.Decimal `json:"salePrice,omitempty"`
	Image     string           `json:"image,omitempty"`
	ColorName string           `json:"colorName,omitempty"`
}

// Snapshot captures the current display data for the given variant
func (p *Product) Snapshot(colorID string) Snapshot {
	s := Snapshot{
		Title:     p.Title,
		Price:     p.Price,
		SalePrice: p.SalePrice,
		Image:     p.Image,
	}
	if colorID != "" {
		if v, ok := p.Variant(colorID); ok {
			s.ColorName = v.Name
		}
	}
	return s
}
