package commerceapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListWishlist returns the saved products.
func (c *Client) ListWishlist(ctx context.Context) ([]Product, error) {
	var out listBody[Product]
	if err := c.do(ctx, request{op: "wishlist.list", method: http.MethodGet, path: "wishlist/"}, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ToggleWishlist flips membership server-side and reports the resulting state.
func (c *Client) ToggleWishlist(ctx context.Context, productID int64) (bool, error) {
	var out struct {
		InWishlist bool `json:"in_wishlist"`
	}
	body := map[string]any{"product_id": productID}
	if err := c.do(ctx, request{op: "wishlist.toggle", method: http.MethodPost, path: "wishlist/toggle/", body: body}, &out); err != nil {
		return false, err
	}
	return out.InWishlist, nil
}

// CheckWishlist returns the subset of productIDs that are wishlisted.
func (c *Client) CheckWishlist(ctx context.Context, productIDs []int64) ([]int64, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	query := url.Values{}
	for _, id := range productIDs {
		query.Add("product_id", strconv.FormatInt(id, 10))
	}
	var out struct {
		WishlistItems []int64 `json:"wishlist_items"`
	}
	if err := c.do(ctx, request{op: "wishlist.check", method: http.MethodGet, path: "wishlist/check/", query: query}, &out); err != nil {
		return nil, err
	}
	return out.WishlistItems, nil
}
