package enums

import "fmt"

// PaymentMethod describes how a shopper intends to settle an order.
type PaymentMethod string

const (
	PaymentMethodCOD     PaymentMethod = "cod"
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodUPI     PaymentMethod = "upi"
	PaymentMethodGateway PaymentMethod = "gateway"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCOD,
	PaymentMethodCard,
	PaymentMethodUPI,
	PaymentMethodGateway,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsCash reports whether the method settles on delivery without the gateway.
func (p PaymentMethod) IsCash() bool {
	return p == PaymentMethodCOD
}

// Settlement collapses the shopper's choice into the wire value the order API accepts.
// Every non-cash method goes through the same gateway integration.
func (p PaymentMethod) Settlement() Settlement {
	if p.IsCash() {
		return SettlementCash
	}
	return SettlementOnline
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

// Settlement is the normalized payment method sent to and reported by the order API.
type Settlement string

const (
	SettlementCash   Settlement = "COD"
	SettlementOnline Settlement = "ONLINE"
)

// String implements fmt.Stringer.
func (s Settlement) String() string {
	return string(s)
}

// IsCash reports whether the server treats the order as cash on delivery.
func (s Settlement) IsCash() bool {
	return s == SettlementCash
}
