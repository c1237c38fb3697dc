package commerceapi

import (
	"context"
	"fmt"
	"net/http"
)

// ListAddresses returns the shopper's saved addresses.
func (c *Client) ListAddresses(ctx context.Context) ([]Address, error) {
	var out listBody[Address]
	if err := c.do(ctx, request{op: "addresses.list", method: http.MethodGet, path: "addresses/"}, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateAddress saves a new address.
func (c *Client) CreateAddress(ctx context.Context, payload AddressPayload) (*Address, error) {
	var addr Address
	if err := c.do(ctx, request{op: "addresses.create", method: http.MethodPost, path: "addresses/", body: payload}, &addr); err != nil {
		return nil, err
	}
	return &addr, nil
}

// UpdateAddress patches an existing address.
func (c *Client) UpdateAddress(ctx context.Context, id int64, payload AddressPayload) (*Address, error) {
	var addr Address
	path := fmt.Sprintf("addresses/%d/", id)
	if err := c.do(ctx, request{op: "addresses.update", method: http.MethodPatch, path: path, body: payload}, &addr); err != nil {
		return nil, err
	}
	return &addr, nil
}

// DeleteAddress removes an address.
func (c *Client) DeleteAddress(ctx context.Context, id int64) error {
	path := fmt.Sprintf("addresses/%d/", id)
	return c.do(ctx, request{op: "addresses.delete", method: http.MethodDelete, path: path}, nil)
}
