package checkout

import (
	"github.com/angelmondragon/storefront-core/internal/address"
	"github.com/angelmondragon/storefront-core/pkg/commerceapi"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon is a code the server accepted for the current cart.
type Coupon struct {
	Code     string
	Discount decimal.Decimal
	Message  string
}

// Session is one in-memory checkout attempt. It is never persisted.
type Session struct {
	ID                uuid.UUID
	Status            Status
	Addresses         []address.Address
	SelectedAddressID int64
	AddressRequired   bool
	PaymentMethod     enums.PaymentMethod
	Coupon            *Coupon
	Order             *commerceapi.Order
	IdempotencyKey    uuid.UUID
	LastError         error
}

// SelectedAddress returns the chosen address, if any.
func (s Session) SelectedAddress() (address.Address, bool) {
	if s.SelectedAddressID == 0 {
		return address.Address{}, false
	}
	for _, addr := range s.Addresses {
		if addr.ID == s.SelectedAddressID {
			return addr, true
		}
	}
	return address.Address{}, false
}

// OrderID returns the server order id once one has been created.
func (s Session) OrderID() uuid.UUID {
	if s.Order == nil {
		return uuid.Nil
	}
	return s.Order.ID
}

func (s Session) clone() Session {
	out := s
	out.Addresses = append([]address.Address(nil), s.Addresses...)
	if s.Coupon != nil {
		coupon := *s.Coupon
		out.Coupon = &coupon
	}
	if s.Order != nil {
		order := *s.Order
		order.Items = append([]commerceapi.OrderItem(nil), s.Order.Items...)
		out.Order = &order
	}
	return out
}
