package commerceapi

import (
	"context"
	"net/http"
)

// GetCart fetches the authoritative cart.
func (c *Client) GetCart(ctx context.Context) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, request{op: "cart.get", method: http.MethodGet, path: "cart/"}, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddCartItem adds a product line (or increments the matching one) and returns the new cart.
func (c *Client) AddCartItem(ctx context.Context, req AddCartItemRequest) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, request{op: "cart.add", method: http.MethodPost, path: "cart/add/", body: req}, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpdateCartItem sets the quantity of an existing line and returns the new cart.
func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) (*Cart, error) {
	body := map[string]any{"item_id": itemID, "quantity": quantity}
	var cart Cart
	if err := c.do(ctx, request{op: "cart.update_item", method: http.MethodPost, path: "cart/update_item/", body: body}, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveCartItem deletes a line and returns the new cart.
func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) (*Cart, error) {
	body := map[string]any{"item_id": itemID}
	var cart Cart
	if err := c.do(ctx, request{op: "cart.remove_item", method: http.MethodPost, path: "cart/remove_item/", body: body}, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}
