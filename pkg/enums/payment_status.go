package enums

// PaymentStatus mirrors the payment state of an order as tracked by the server.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsSettled reports whether the server reached a final payment outcome.
func (p PaymentStatus) IsSettled() bool {
	return p == PaymentStatusPaid || p == PaymentStatusFailed
}
