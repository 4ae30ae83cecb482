package remotecart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/rachana-boutique/internal/localcart"
)

// Client calls the signed-in cart endpoints of the API over HTTP. The user
// is identified by the bearer token, not by the request's UserID.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a Client. httpClient may be nil.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpClient.Do(req)
}

// AddToCart posts one line. Conflict and bad-request bodies come back as
// Success=false responses.
func (c *Client) AddToCart(ctx context.Context, req AddToCartRequest) (*AddToCartResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/cart/items", req)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusConflict, http.StatusBadRequest, http.StatusNotFound:
		var out AddToCartResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("add to cart: decode response: %w", err)
		}
		if resp.StatusCode >= 300 {
			out.Success = false
		}
		return &out, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("add to cart: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) RemoveFromCart(ctx context.Context, req RemoveFromCartRequest) error {
	q := url.Values{}
	q.Set("product_id", req.ProductID)
	if req.ColorID != "" {
		q.Set("color_id", req.ColorID)
	}

	resp, err := c.do(ctx, http.MethodDelete, "/cart/items?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotInCart
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("remove from cart: unexpected status %d", resp.StatusCode)
	}
}

// Cart fetches the signed-in cart
func (c *Client) Cart(ctx context.Context) (*CartView, error) {
	resp, err := c.do(ctx, http.MethodGet, "/cart", nil)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("get cart: unexpected status %d", resp.StatusCode)
	}

	var view CartView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, fmt.Errorf("get cart: decode response: %w", err)
	}
	return &view, nil
}

// Items returns the quantities held in the signed-in cart
func (c *Client) Items(ctx context.Context) ([]localcart.ServerItem, error) {
	view, err := c.Cart(ctx)
	if err != nil {
		return nil, err
	}
	return view.ServerItems(), nil
}
