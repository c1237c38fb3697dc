package gateway

import (
	"context"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/google/uuid"
)

const (
	ReasonFailed    = "failed"
	ReasonCancelled = "cancelled"
)

// Prefill is shopper contact data shown on the payment page.
type Prefill struct {
	Name  string
	Email string
	Phone string
}

// Checkout describes one payment collection for a server-created order.
type Checkout struct {
	OrderID        uuid.UUID
	KeyID          string
	GatewayOrderID string
	// Amount is in the currency's minor unit, as issued by the server.
	Amount   int64
	Currency string
	Prefill  Prefill
}

// Result is the gateway's success payload. Extra holds any additional fields
// the gateway returned; they are forwarded to verification unmodified.
type Result struct {
	PaymentID      string
	GatewayOrderID string
	Signature      string
	Extra          map[string]string
}

// Gateway collects payment for an order. Collect blocks until the shopper
// finishes, the gateway reports failure, or ctx is done.
type Gateway interface {
	Collect(ctx context.Context, checkout Checkout) (Result, error)
}

// Func adapts a function to the Gateway interface.
type Func func(ctx context.Context, checkout Checkout) (Result, error)

// Collect implements Gateway.
func (f Func) Collect(ctx context.Context, checkout Checkout) (Result, error) {
	return f(ctx, checkout)
}

// Failed builds the error returned when the gateway declines the payment.
func Failed(message string) error {
	if message == "" {
		message = "payment failed"
	}
	return pkgerrors.New(pkgerrors.CodeGateway, message).WithDetails(map[string]string{"reason": ReasonFailed})
}

// Cancelled builds the error returned when the shopper dismisses the payment page.
func Cancelled() error {
	return pkgerrors.New(pkgerrors.CodeGateway, "payment cancelled").WithDetails(map[string]string{"reason": ReasonCancelled})
}

// Reason extracts the failure reason from a GATEWAY_ERROR, or "" for other errors.
func Reason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeGateway {
		return ""
	}
	if details, ok := typed.Details().(map[string]string); ok {
		return details["reason"]
	}
	return ReasonFailed
}
