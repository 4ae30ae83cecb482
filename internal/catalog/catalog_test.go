package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	m, err := LoadFile("testdata/catalog.yaml")
	require.NoError(t, err)
	require.Len(t, m, 3)

	saree, ok := m.Lookup("saree-kanchi")
	require.True(t, ok)
	assert.Equal(t, "Kanchipuram Silk Saree", saree.Title)
	assert.True(t, decimal.RequireFromString("12500").Equal(saree.Price))
	require.NotNil(t, saree.SalePrice)
	assert.True(t, decimal.RequireFromString("9999").Equal(saree.EffectivePrice()))
	assert.Len(t, saree.Variants, 2)
	assert.Equal(t, 2, saree.AggregateStock())

	dupatta, ok := m.Lookup("dupatta-cotton")
	require.True(t, ok)
	assert.Nil(t, dupatta.SalePrice)
	assert.Equal(t, 5, dupatta.AggregateStock())
	assert.True(t, dupatta.Price.Equal(dupatta.EffectivePrice()))

	_, ok = m.Lookup("missing")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing id", "products:\n  - title: x\n"},
		{"duplicate id", "products:\n  - id: a\n  - id: a\n"},
		{"not yaml", "products: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestProduct_Snapshot(t *testing.T) {
	p := Product{
		ID:    "saree",
		Title: "Saree",
		Price: decimal.NewFromInt(100),
		Image: "saree.jpg",
		Variants: []Variant{
			{ID: "red", Name: "Red", Inventory: 1},
		},
	}

	s := p.Snapshot("red")
	assert.Equal(t, "Saree", s.Title)
	assert.Equal(t, "Red", s.ColorName)
	assert.Equal(t, "saree.jpg", s.Image)

	assert.Empty(t, p.Snapshot("").ColorName)
	assert.Empty(t, p.Snapshot("blue").ColorName)
}

func TestEffectivePrice_IgnoresZeroSale(t *testing.T) {
	zero := decimal.Zero
	price := decimal.NewFromInt(500)

	assert.True(t, price.Equal(EffectivePrice(price, &zero)))
	assert.True(t, price.Equal(EffectivePrice(price, nil)))
}

func TestMap_List(t *testing.T) {
	m := NewMap(Product{ID: "b"}, Product{ID: "a"})

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}
