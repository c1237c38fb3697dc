package commerceapi

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/storefront-core/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the list-level product snapshot embedded in carts and wishlists.
type Product struct {
	ID             int64               `json:"id"`
	Title          string              `json:"title"`
	Slug           string              `json:"slug"`
	BrandName      string              `json:"brand_name,omitempty"`
	CategorySlug   string              `json:"category_slug,omitempty"`
	Price          decimal.Decimal     `json:"price"`
	DiscountPrice  decimal.NullDecimal `json:"discount_price"`
	FinalPrice     decimal.Decimal     `json:"final_price"`
	PrimaryImage   *string             `json:"primary_image"`
	InventoryCount int                 `json:"inventory_count"`
	IsActive       bool                `json:"is_active"`
}

// InStock reports whether the server advertised any inventory.
func (p Product) InStock() bool {
	return p.InventoryCount > 0
}

// ProductSize is a size option chosen for a cart line.
type ProductSize struct {
	ID         int64  `json:"id"`
	Size       string `json:"size"`
	StockCount int    `json:"stock_count"`
}

// CartItem is one line of the server cart.
type CartItem struct {
	ID             int64           `json:"id"`
	Product        Product         `json:"product"`
	SelectedSize   *ProductSize    `json:"selected_size"`
	VariantProduct *Product        `json:"variant_product"`
	Quantity       int             `json:"quantity"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// Cart is the authoritative cart as returned by every cart endpoint.
type Cart struct {
	ID         int64           `json:"id"`
	Items      []CartItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

// AddCartItemRequest adds quantity of a product (optionally a size or variant) to the cart.
type AddCartItemRequest struct {
	ProductID        int64  `json:"product_id"`
	SizeID           *int64 `json:"size_id,omitempty"`
	VariantProductID *int64 `json:"variant_product_id,omitempty"`
	Quantity         int    `json:"quantity"`
}

// Address is a saved shipping address.
type Address struct {
	ID           int64             `json:"id"`
	FullName     string            `json:"full_name"`
	Phone        string            `json:"phone"`
	AddressLine1 string            `json:"address_line_1"`
	AddressLine2 string            `json:"address_line_2"`
	City         string            `json:"city"`
	State        string            `json:"state"`
	Pincode      string            `json:"pincode"`
	Country      string            `json:"country"`
	AddressType  enums.AddressType `json:"address_type"`
	IsDefault    bool              `json:"is_default"`
}

// AddressPayload is the writable subset of Address.
type AddressPayload struct {
	FullName     string            `json:"full_name"`
	Phone        string            `json:"phone"`
	AddressLine1 string            `json:"address_line_1"`
	AddressLine2 string            `json:"address_line_2"`
	City         string            `json:"city"`
	State        string            `json:"state"`
	Pincode      string            `json:"pincode"`
	Country      string            `json:"country"`
	AddressType  enums.AddressType `json:"address_type"`
	IsDefault    bool              `json:"is_default"`
}

// CouponResult is the server's verdict on a coupon code for the current cart.
type CouponResult struct {
	Valid    bool            `json:"valid"`
	Code     string          `json:"code,omitempty"`
	Discount decimal.Decimal `json:"discount"`
	Error    string          `json:"error,omitempty"`
}

// CreateOrderRequest asks the server to turn the current cart into an order.
type CreateOrderRequest struct {
	ShippingAddressID int64            `json:"shipping_address_id"`
	CouponCode        string           `json:"coupon_code,omitempty"`
	PaymentMethod     enums.Settlement `json:"payment_method"`
	IdempotencyKey    uuid.UUID        `json:"-"`
}

// PaymentInit carries what the gateway needs to collect an online payment.
type PaymentInit struct {
	GatewayOrderID string `json:"razorpay_order_id"`
	KeyID          string `json:"key_id"`
	// Amount is in the currency's minor unit exactly as the server computed it.
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
}

// OrderItem is a purchased line.
type OrderItem struct {
	ID              int64           `json:"id"`
	ProductName     string          `json:"product_name"`
	ProductSlug     string          `json:"product_slug"`
	ProductImage    *string         `json:"product_image"`
	VariantName     string          `json:"variant_name"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Quantity        int             `json:"quantity"`
	Total           decimal.Decimal `json:"total"`
	Reviews         []Review        `json:"reviews,omitempty"`
	ReturnRequests  []ReturnRequest `json:"return_requests,omitempty"`
}

// Order is the server's order record.
type Order struct {
	ID              uuid.UUID           `json:"id"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	DeliveredAt     *time.Time          `json:"delivered_at"`
	OrderStatus     enums.OrderStatus   `json:"order_status"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	PaymentMethod   enums.Settlement    `json:"payment_method"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	ShippingCost    decimal.Decimal     `json:"shipping_cost"`
	TaxAmount       decimal.Decimal     `json:"tax_amount"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	ShippingAddress *Address            `json:"shipping_address"`
	Items           []OrderItem         `json:"items"`
	Payment         *PaymentInit        `json:"payment,omitempty"`
}

// RequiresGateway reports whether the order must be paid through the gateway
// before it counts as placed.
func (o Order) RequiresGateway() bool {
	return !o.PaymentMethod.IsCash() && o.PaymentStatus != enums.PaymentStatusPaid
}

// PaymentProof is the gateway's success payload, forwarded to verification unmodified.
type PaymentProof struct {
	PaymentID      string
	GatewayOrderID string
	Signature      string
	Extra          map[string]string
}

// MarshalJSON flattens the proof into the field names the verification endpoint expects.
func (p PaymentProof) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(p.Extra)+3)
	for k, v := range p.Extra {
		out[k] = v
	}
	out["razorpay_payment_id"] = p.PaymentID
	out["razorpay_order_id"] = p.GatewayOrderID
	out["razorpay_signature"] = p.Signature
	return json.Marshal(out)
}

// VerifyResult is the server's verdict on a payment proof.
type VerifyResult struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message,omitempty"`
	Order    *Order `json:"order,omitempty"`
}

// CancelResult wraps the cancel endpoint response.
type CancelResult struct {
	Message string `json:"message"`
	Order   Order  `json:"data"`
}

// ReturnRequest is a return raised against an order item.
type ReturnRequest struct {
	ID        int64     `json:"id"`
	Order     uuid.UUID `json:"order"`
	OrderItem int64     `json:"order_item"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Review is a product review tied to a purchased item.
type Review struct {
	ID                 int64     `json:"id"`
	Product            int64     `json:"product"`
	OrderItem          *int64    `json:"order_item"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title"`
	Comment            string    `json:"comment"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	CreatedAt          time.Time `json:"created_at"`
}

// ReviewRequest posts a review for an order item.
type ReviewRequest struct {
	OrderItemID int64  `json:"order_item"`
	Rating      int    `json:"rating"`
	Title       string `json:"title"`
	Comment     string `json:"comment"`
}
