package remotecart

import (
	"context"
	"errors"
	"testing"

	"github.com/example/rachana-boutique/internal/catalog"
	"github.com/example/rachana-boutique/internal/command"
	"github.com/example/rachana-boutique/internal/domain/cart"
	"github.com/example/rachana-boutique/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirect() (*Direct, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	cat := catalog.NewMap(
		catalog.Product{
			ID:       "saree",
			Title:    "Silk Saree",
			Price:    decimal.NewFromInt(12500),
			Variants: []catalog.Variant{{ID: "maroon", Name: "Maroon", Inventory: 1}},
		},
	)
	return NewDirect(command.NewHandler(cart.NewService(eventStore), cat)), eventStore
}

func TestDirect_AddToCart(t *testing.T) {
	direct, _ := newTestDirect()
	ctx := context.Background()

	resp, err := direct.AddToCart(ctx, AddToCartRequest{UserID: "u1", ProductID: "saree", ColorID: "maroon", Quantity: 1})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	resp, err = direct.AddToCart(ctx, AddToCartRequest{UserID: "u1", ProductID: "saree", ColorID: "maroon", Quantity: 1})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Only 1 item available for this color", resp.Message)

	items, err := direct.Items(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestDirect_AddToCart_UnknownProductIsRejection(t *testing.T) {
	direct, _ := newTestDirect()

	resp, err := direct.AddToCart(context.Background(), AddToCartRequest{UserID: "u1", ProductID: "nope", Quantity: 1})

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Product not found", resp.Message)
}

func TestDirect_AddToCart_StoreErrorIsError(t *testing.T) {
	direct, eventStore := newTestDirect()
	eventStore.GetErr = errors.New("db down")

	resp, err := direct.AddToCart(context.Background(), AddToCartRequest{UserID: "u1", ProductID: "saree", Quantity: 1})

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestDirect_RemoveFromCart(t *testing.T) {
	direct, _ := newTestDirect()
	ctx := context.Background()

	assert.ErrorIs(t, direct.RemoveFromCart(ctx, RemoveFromCartRequest{UserID: "u1", ProductID: "saree", ColorID: "maroon"}), ErrNotInCart)

	_, err := direct.AddToCart(ctx, AddToCartRequest{UserID: "u1", ProductID: "saree", ColorID: "maroon", Quantity: 1})
	require.NoError(t, err)
	assert.NoError(t, direct.RemoveFromCart(ctx, RemoveFromCartRequest{UserID: "u1", ProductID: "saree", ColorID: "maroon"}))
}
