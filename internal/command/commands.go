package command

// Cart Commands
type AddToCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	ColorID   string `json:"color_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItem struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	ColorID   string `json:"color_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	ColorID   string `json:"color_id,omitempty"`
}

type ClearCart struct {
	UserID string `json:"user_id"`
}
