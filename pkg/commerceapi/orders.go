package commerceapi

import (
	"context"
	"net/http"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/google/uuid"
)

// ValidateCoupon asks the server whether code applies to the current cart.
// A rejected code is returned as a BUSINESS_RULE error carrying the server reason.
func (c *Client) ValidateCoupon(ctx context.Context, code string) (*CouponResult, error) {
	var out CouponResult
	body := map[string]any{"code": code}
	if err := c.do(ctx, request{op: "coupons.validate", method: http.MethodPost, path: "coupons/validate/", body: body}, &out); err != nil {
		return nil, err
	}
	if !out.Valid {
		msg := out.Error
		if msg == "" {
			msg = "coupon is not valid"
		}
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, msg)
	}
	return &out, nil
}

// CreateOrder places an order from the current cart. The idempotency key lets the
// server collapse a retried request into the original order.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	headers := map[string]string{}
	if req.IdempotencyKey != uuid.Nil {
		headers[idempotencyKeyHeader] = req.IdempotencyKey.String()
	}
	var order Order
	if err := c.do(ctx, request{op: "orders.create", method: http.MethodPost, path: "orders/", body: req, headers: headers}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches one order.
func (c *Client) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	var order Order
	if err := c.do(ctx, request{op: "orders.get", method: http.MethodGet, path: "orders/" + id.String() + "/"}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the shopper's orders, newest first.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var out listBody[Order]
	if err := c.do(ctx, request{op: "orders.list", method: http.MethodGet, path: "orders/"}, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// VerifyPayment submits the gateway's proof of payment for server-side verification.
func (c *Client) VerifyPayment(ctx context.Context, orderID uuid.UUID, proof PaymentProof) (*VerifyResult, error) {
	var out VerifyResult
	path := "orders/" + orderID.String() + "/verify_payment/"
	if err := c.do(ctx, request{op: "orders.verify_payment", method: http.MethodPost, path: path, body: proof}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder asks the server to cancel an order; the server decides eligibility.
func (c *Client) CancelOrder(ctx context.Context, id uuid.UUID) (*CancelResult, error) {
	var out CancelResult
	if err := c.do(ctx, request{op: "orders.cancel", method: http.MethodPost, path: "orders/" + id.String() + "/cancel/"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestReturn raises a return for a purchased item.
func (c *Client) RequestReturn(ctx context.Context, orderID uuid.UUID, orderItemID int64, reason string) (*ReturnRequest, error) {
	body := map[string]any{"order": orderID, "order_item": orderItemID, "reason": reason}
	var out ReturnRequest
	if err := c.do(ctx, request{op: "returns.create", method: http.MethodPost, path: "returns/", body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateReview posts a review for a purchased item.
func (c *Client) CreateReview(ctx context.Context, req ReviewRequest) (*Review, error) {
	var out Review
	if err := c.do(ctx, request{op: "reviews.create", method: http.MethodPost, path: "reviews/", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
