package enums

// OrderStatus mirrors the fulfilment status reported by the order API.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsClosed reports whether the order will not move to a paid state anymore.
func (o OrderStatus) IsClosed() bool {
	return o == OrderStatusCancelled || o == OrderStatusRefunded
}
