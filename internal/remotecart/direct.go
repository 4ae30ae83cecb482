package remotecart

import (
	"context"
	"errors"

	"github.com/example/rachana-boutique/internal/command"
	"github.com/example/rachana-boutique/internal/domain/cart"
	"github.com/example/rachana-boutique/internal/inventory"
	"github.com/example/rachana-boutique/internal/localcart"
)

// Direct talks to the signed-in cart inside the API process
type Direct struct {
	handler *command.Handler
}

func NewDirect(handler *command.Handler) *Direct {
	return &Direct{handler: handler}
}

// AddToCart reports stock and input rejections as Success=false and
// returns an error only when the cart could not be reached.
func (d *Direct) AddToCart(ctx context.Context, req AddToCartRequest) (*AddToCartResponse, error) {
	err := d.handler.AddToCart(ctx, command.AddToCart{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		ColorID:   req.ColorID,
		Quantity:  req.Quantity,
	})
	if err == nil {
		return &AddToCartResponse{Success: true, Message: "Item added to cart"}, nil
	}

	var ve *inventory.ValidationError
	if errors.As(err, &ve) {
		return &AddToCartResponse{Success: false, Message: ve.Message}, nil
	}
	if errors.Is(err, cart.ErrInvalidProduct) {
		return &AddToCartResponse{Success: false, Message: err.Error()}, nil
	}
	return nil, err
}

func (d *Direct) RemoveFromCart(ctx context.Context, req RemoveFromCartRequest) error {
	err := d.handler.RemoveFromCart(ctx, command.RemoveFromCart{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		ColorID:   req.ColorID,
	})
	if errors.Is(err, cart.ErrItemNotFound) {
		return ErrNotInCart
	}
	return err
}

// Items returns the quantities held in userID's signed-in cart
func (d *Direct) Items(ctx context.Context, userID string) ([]localcart.ServerItem, error) {
	c, err := d.handler.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewCartView(c).ServerItems(), nil
}
