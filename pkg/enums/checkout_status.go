package enums

import "fmt"

// CheckoutStatus is the state of a client-side checkout session.
type CheckoutStatus string

const (
	CheckoutStatusSelectingAddress       CheckoutStatus = "selecting_address"
	CheckoutStatusAddressConfirmed       CheckoutStatus = "address_confirmed"
	CheckoutStatusApplyingCoupon         CheckoutStatus = "applying_coupon"
	CheckoutStatusSelectingPayment       CheckoutStatus = "selecting_payment"
	CheckoutStatusPlacingOrder           CheckoutStatus = "placing_order"
	CheckoutStatusAwaitingGatewayPayment CheckoutStatus = "awaiting_gateway_payment"
	CheckoutStatusVerifyingPayment       CheckoutStatus = "verifying_payment"
	CheckoutStatusCompleted              CheckoutStatus = "completed"
	CheckoutStatusFailed                 CheckoutStatus = "failed"
	CheckoutStatusAbandoned              CheckoutStatus = "abandoned"
)

var validCheckoutStatuses = []CheckoutStatus{
	CheckoutStatusSelectingAddress,
	CheckoutStatusAddressConfirmed,
	CheckoutStatusApplyingCoupon,
	CheckoutStatusSelectingPayment,
	CheckoutStatusPlacingOrder,
	CheckoutStatusAwaitingGatewayPayment,
	CheckoutStatusVerifyingPayment,
	CheckoutStatusCompleted,
	CheckoutStatusFailed,
	CheckoutStatusAbandoned,
}

// String implements fmt.Stringer.
func (c CheckoutStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStatus.
func (c CheckoutStatus) IsValid() bool {
	for _, candidate := range validCheckoutStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the session can no longer make progress on its own.
func (c CheckoutStatus) IsTerminal() bool {
	switch c {
	case CheckoutStatusCompleted, CheckoutStatusAbandoned:
		return true
	}
	return false
}

// ParseCheckoutStatus converts raw input into a CheckoutStatus.
func ParseCheckoutStatus(value string) (CheckoutStatus, error) {
	for _, candidate := range validCheckoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout status %q", value)
}
