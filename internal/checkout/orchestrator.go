package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-core/internal/address"
	"github.com/angelmondragon/storefront-core/internal/orders"
	"github.com/angelmondragon/storefront-core/pkg/commerceapi"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/gateway"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
	"github.com/google/uuid"
)

// OrdersAPI is the slice of the commerce client checkout needs.
type OrdersAPI interface {
	ValidateCoupon(ctx context.Context, code string) (*commerceapi.CouponResult, error)
	CreateOrder(ctx context.Context, req commerceapi.CreateOrderRequest) (*commerceapi.Order, error)
	VerifyPayment(ctx context.Context, orderID uuid.UUID, proof commerceapi.PaymentProof) (*commerceapi.VerifyResult, error)
}

// AddressBook manages saved addresses. *address.Book satisfies it.
type AddressBook interface {
	List(ctx context.Context) ([]address.Address, error)
	Create(ctx context.Context, in address.Input) (*address.Address, error)
	Update(ctx context.Context, id int64, in address.Input) (*address.Address, error)
	Delete(ctx context.Context, id int64) error
}

// Cart is what checkout reads and resets on the cart store.
type Cart interface {
	IsEmpty() bool
	Clear()
}

// Params wires an Orchestrator.
type Params struct {
	Addresses AddressBook
	Orders    OrdersAPI
	Cart      Cart
	Gateway   gateway.Gateway
	// Ledger is optional; without it abandoned online orders are not tracked.
	Ledger   orders.Ledger
	UserID   string
	Currency string
	Logger   *logger.Logger
	Metrics  *metrics.CheckoutMetrics
}

// Orchestrator drives one checkout session from address selection to a
// placed, and where needed paid, order.
type Orchestrator struct {
	addresses AddressBook
	orders    OrdersAPI
	cart      Cart
	gateway   gateway.Gateway
	ledger    orders.Ledger
	userID    string
	currency  string
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics

	mu      sync.Mutex
	session Session
	cancel  context.CancelFunc
}

// NewOrchestrator starts a session in selecting_address.
func NewOrchestrator(p Params) (*Orchestrator, error) {
	if p.Addresses == nil {
		return nil, errors.New("address book required")
	}
	if p.Orders == nil {
		return nil, errors.New("orders api required")
	}
	if p.Cart == nil {
		return nil, errors.New("cart required")
	}
	if p.Gateway == nil {
		return nil, errors.New("payment gateway required")
	}
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = "INR"
	}
	return &Orchestrator{
		addresses: p.Addresses,
		orders:    p.Orders,
		cart:      p.Cart,
		gateway:   p.Gateway,
		ledger:    p.Ledger,
		userID:    p.UserID,
		currency:  currency,
		logg:      p.Logger,
		metrics:   p.Metrics,
		session: Session{
			ID:     uuid.New(),
			Status: enums.CheckoutStatusSelectingAddress,
		},
	}, nil
}

// Session returns a copy of the current session.
func (o *Orchestrator) Session() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.clone()
}

// Begin loads saved addresses and preselects the default one.
func (o *Orchestrator) Begin(ctx context.Context) (Session, error) {
	o.mu.Lock()
	if err := requireStatus(o.session.Status, enums.CheckoutStatusSelectingAddress); err != nil {
		o.mu.Unlock()
		return Session{}, err
	}
	o.mu.Unlock()

	list, err := o.addresses.List(ctx)
	if err != nil {
		return o.fail(ctx, "address list failed", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.session.Addresses = list
	o.reselect()
	return o.session.clone(), nil
}

// SelectAddress picks one of the loaded addresses.
func (o *Orchestrator) SelectAddress(id int64) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := requireStatus(o.session.Status, enums.CheckoutStatusSelectingAddress); err != nil {
		return Session{}, err
	}
	for _, addr := range o.session.Addresses {
		if addr.ID == id {
			o.session.SelectedAddressID = id
			return o.session.clone(), nil
		}
	}
	return Session{}, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
}

// CreateAddress saves a new address and selects it. A rejected address leaves
// the session exactly as it was.
func (o *Orchestrator) CreateAddress(ctx context.Context, in address.Input) (Session, error) {
	if err := o.expect(enums.CheckoutStatusSelectingAddress); err != nil {
		return Session{}, err
	}
	addr, err := o.addresses.Create(ctx, in)
	if err != nil {
		return o.fail(ctx, "address create failed", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.session.Addresses = address.Merge(o.session.Addresses, *addr)
	o.session.SelectedAddressID = addr.ID
	o.session.AddressRequired = false
	o.session.LastError = nil
	return o.session.clone(), nil
}

// UpdateAddress edits a saved address without changing the selection.
func (o *Orchestrator) UpdateAddress(ctx context.Context, id int64, in address.Input) (Session, error) {
	if err := o.expect(enums.CheckoutStatusSelectingAddress); err != nil {
		return Session{}, err
	}
	addr, err := o.addresses.Update(ctx, id, in)
	if err != nil {
		return o.fail(ctx, "address update failed", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.session.Addresses = address.Merge(o.session.Addresses, *addr)
	o.session.LastError = nil
	return o.session.clone(), nil
}

// DeleteAddress removes a saved address. Deleting the selected one falls back
// to the default or first remaining address.
func (o *Orchestrator) DeleteAddress(ctx context.Context, id int64) (Session, error) {
	if err := o.expect(enums.CheckoutStatusSelectingAddress); err != nil {
		return Session{}, err
	}
	if err := o.addresses.Delete(ctx, id); err != nil {
		return o.fail(ctx, "address delete failed", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.session.Addresses = address.Remove(o.session.Addresses, id)
	if o.session.SelectedAddressID == id {
		o.session.SelectedAddressID = 0
	}
	o.reselect()
	o.session.LastError = nil
	return o.session.clone(), nil
}

// ConfirmAddress locks in the selected address.
func (o *Orchestrator) ConfirmAddress(ctx context.Context) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.session.SelectedAddress(); !ok {
		return Session{}, pkgerrors.New(pkgerrors.CodeValidation, "select a shipping address first")
	}
	if err := o.transition(ctx, enums.CheckoutStatusAddressConfirmed); err != nil {
		return Session{}, err
	}
	return o.session.clone(), nil
}

// ChangeAddress returns to address selection. Coupons are tied to the order
// being priced, so any applied coupon is dropped.
func (o *Orchestrator) ChangeAddress(ctx context.Context) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.transition(ctx, enums.CheckoutStatusSelectingAddress); err != nil {
		return Session{}, err
	}
	o.session.Coupon = nil
	return o.session.clone(), nil
}

// ApplyCoupon asks the server to price code against the cart. Any failure
// clears the coupon; server rejections surface as VALIDATION_ERROR carrying
// the server's reason.
func (o *Orchestrator) ApplyCoupon(ctx context.Context, code string) (Session, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	o.mu.Lock()
	switch o.session.Status {
	case enums.CheckoutStatusAddressConfirmed, enums.CheckoutStatusApplyingCoupon:
		if err := o.transition(ctx, enums.CheckoutStatusApplyingCoupon); err != nil {
			o.mu.Unlock()
			return Session{}, err
		}
	case enums.CheckoutStatusSelectingPayment:
	default:
		err := requireStatus(o.session.Status, enums.CheckoutStatusAddressConfirmed, enums.CheckoutStatusApplyingCoupon, enums.CheckoutStatusSelectingPayment)
		o.mu.Unlock()
		return Session{}, err
	}
	if code == "" {
		o.session.Coupon = nil
		o.mu.Unlock()
		return Session{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	o.mu.Unlock()

	result, err := o.orders.ValidateCoupon(ctx, code)
	if err == nil && (result == nil || !result.Valid) {
		err = rejectedCoupon(result)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !couponable(o.session.Status) {
		return Session{}, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout moved on before the coupon was validated")
	}
	if err != nil {
		o.session.Coupon = nil
		o.session.LastError = couponError(err)
		o.logg.Info(o.logg.WithField(o.scope(ctx), "coupon", code), "checkout.coupon_rejected")
		return Session{}, o.session.LastError
	}
	applied := result.Code
	if applied == "" {
		applied = code
	}
	o.session.Coupon = &Coupon{Code: applied, Discount: result.Discount}
	o.session.LastError = nil
	return o.session.clone(), nil
}

// RemoveCoupon drops the applied coupon, if any.
func (o *Orchestrator) RemoveCoupon() (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !couponable(o.session.Status) {
		return Session{}, requireStatus(o.session.Status, enums.CheckoutStatusAddressConfirmed, enums.CheckoutStatusApplyingCoupon, enums.CheckoutStatusSelectingPayment)
	}
	o.session.Coupon = nil
	return o.session.clone(), nil
}

// SelectPaymentMethod records how the shopper wants to pay.
func (o *Orchestrator) SelectPaymentMethod(ctx context.Context, method enums.PaymentMethod) (Session, error) {
	if !method.IsValid() {
		return Session{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method").
			WithDetails(map[string][]string{"payment_method": {"must be one of cod, card, upi, gateway"}})
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session.Status != enums.CheckoutStatusSelectingPayment {
		if err := o.transition(ctx, enums.CheckoutStatusSelectingPayment); err != nil {
			return Session{}, err
		}
	}
	o.session.PaymentMethod = method
	return o.session.clone(), nil
}

// Abandon stops waiting for an in-flight gateway payment. The order stays in
// the pending ledger so reconciliation can learn its outcome later.
func (o *Orchestrator) Abandon(ctx context.Context) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.transition(ctx, enums.CheckoutStatusAbandoned); err != nil {
		return Session{}, err
	}
	if o.cancel != nil {
		o.cancel()
	}
	o.metrics.IncOutcome("abandoned")
	return o.session.clone(), nil
}

// Retry returns a failed session to payment selection with a fresh
// idempotency key, so the next attempt creates a new order.
func (o *Orchestrator) Retry(ctx context.Context) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session.Status != enums.CheckoutStatusFailed {
		return Session{}, illegalTransition(o.session.Status, enums.CheckoutStatusSelectingPayment)
	}
	if err := o.transition(ctx, enums.CheckoutStatusSelectingPayment); err != nil {
		return Session{}, err
	}
	o.session.IdempotencyKey = uuid.New()
	o.session.Order = nil
	o.session.LastError = nil
	return o.session.clone(), nil
}

func (o *Orchestrator) expect(status Status) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return requireStatus(o.session.Status, status)
}

// fail records err as the session's last error without changing status.
func (o *Orchestrator) fail(ctx context.Context, msg string, err error) (Session, error) {
	o.mu.Lock()
	o.session.LastError = err
	id := o.session.ID
	o.mu.Unlock()
	o.logg.Warn(o.logg.WithField(o.logg.WithSessionID(ctx, id.String()), "error", err.Error()), msg)
	return Session{}, err
}

// reselect keeps a valid selection, falling back to the default or first
// address. Callers hold mu.
func (o *Orchestrator) reselect() {
	if _, ok := o.session.SelectedAddress(); ok {
		o.session.AddressRequired = false
		return
	}
	o.session.SelectedAddressID = 0
	if addr, ok := address.DefaultOrFirst(o.session.Addresses); ok {
		o.session.SelectedAddressID = addr.ID
		o.session.AddressRequired = false
		return
	}
	o.session.AddressRequired = true
}

// transition moves the session to next. Callers hold mu.
func (o *Orchestrator) transition(ctx context.Context, next Status) error {
	from := o.session.Status
	if !CanTransition(from, next) {
		return illegalTransition(from, next)
	}
	o.session.Status = next
	o.metrics.IncTransition(next.String())
	o.logg.Info(o.logg.WithFields(o.scope(ctx), map[string]any{
		"from": from.String(),
		"to":   next.String(),
	}), "checkout.transition")
	return nil
}

func couponable(status Status) bool {
	switch status {
	case enums.CheckoutStatusAddressConfirmed, enums.CheckoutStatusApplyingCoupon, enums.CheckoutStatusSelectingPayment:
		return true
	}
	return false
}

// rejectedCoupon turns a negative or missing verdict into a business rule
// error carrying the server's reason.
func rejectedCoupon(result *commerceapi.CouponResult) error {
	msg := "coupon is not valid"
	if result != nil && strings.TrimSpace(result.Error) != "" {
		msg = result.Error
	}
	return pkgerrors.New(pkgerrors.CodeBusinessRule, msg)
}

func couponError(err error) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err
	}
	switch typed.Code() {
	case pkgerrors.CodeBusinessRule, pkgerrors.CodeValidation:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, typed.Message()).WithDetails(typed.Details())
	}
	return err
}

func (o *Orchestrator) scope(ctx context.Context) context.Context {
	return o.logg.WithSessionID(ctx, o.session.ID.String())
}
