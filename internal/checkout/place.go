package checkout

import (
	"context"
	"errors"

	"github.com/angelmondragon/storefront-core/pkg/commerceapi"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/gateway"
	"github.com/google/uuid"
)

// PlaceOrder creates the order and, for online methods, collects and verifies
// payment. The cart is cleared only once the order is confirmed.
func (o *Orchestrator) PlaceOrder(ctx context.Context) (Session, error) {
	req, err := o.beginPlacement(ctx)
	if err != nil {
		return Session{}, err
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.cancel = nil
		o.mu.Unlock()
	}()

	order, err := o.orders.CreateOrder(attemptCtx, req)
	if err == nil && order == nil {
		err = pkgerrors.New(pkgerrors.CodeInternal, "create order returned no order")
	}
	if err != nil {
		return o.rejectPlacement(ctx, err)
	}

	checkout, err := o.recordOrder(ctx, order)
	if err != nil || checkout == nil {
		return o.Session(), err
	}

	result, err := o.gateway.Collect(attemptCtx, *checkout)
	if err != nil {
		return o.gatewayFailed(ctx, err)
	}
	if err := o.advance(ctx, enums.CheckoutStatusVerifyingPayment); err != nil {
		return Session{}, err
	}

	proof := commerceapi.PaymentProof{
		PaymentID:      result.PaymentID,
		GatewayOrderID: result.GatewayOrderID,
		Signature:      result.Signature,
		Extra:          result.Extra,
	}
	if proof.GatewayOrderID == "" {
		proof.GatewayOrderID = checkout.GatewayOrderID
	}
	verdict, err := o.orders.VerifyPayment(attemptCtx, order.ID, proof)
	return o.finishVerification(ctx, order, verdict, err)
}

func (o *Orchestrator) beginPlacement(ctx context.Context) (commerceapi.CreateOrderRequest, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := requireStatus(o.session.Status, enums.CheckoutStatusSelectingPayment); err != nil {
		return commerceapi.CreateOrderRequest{}, err
	}
	addr, ok := o.session.SelectedAddress()
	if !ok {
		return commerceapi.CreateOrderRequest{}, pkgerrors.New(pkgerrors.CodeStateConflict, "a shipping address must be selected before placing the order")
	}
	if !o.session.PaymentMethod.IsValid() {
		return commerceapi.CreateOrderRequest{}, pkgerrors.New(pkgerrors.CodeStateConflict, "a payment method must be selected before placing the order")
	}
	if o.cart.IsEmpty() {
		return commerceapi.CreateOrderRequest{}, pkgerrors.New(pkgerrors.CodeBusinessRule, "cart is empty")
	}
	if err := o.transition(ctx, enums.CheckoutStatusPlacingOrder); err != nil {
		return commerceapi.CreateOrderRequest{}, err
	}
	if o.session.IdempotencyKey == uuid.Nil {
		o.session.IdempotencyKey = uuid.New()
	}
	o.session.LastError = nil
	o.session.Order = nil

	req := commerceapi.CreateOrderRequest{
		ShippingAddressID: addr.ID,
		PaymentMethod:     o.session.PaymentMethod.Settlement(),
		IdempotencyKey:    o.session.IdempotencyKey,
	}
	if o.session.Coupon != nil {
		req.CouponCode = o.session.Coupon.Code
	}
	return req, nil
}

// rejectPlacement returns the session to payment selection. The idempotency
// key survives transport failures and unreadable answers, where the order may
// exist, so a resubmission cannot create a second order; any definitive
// answer rotates it.
func (o *Orchestrator) rejectPlacement(ctx context.Context, err error) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeNetwork, pkgerrors.CodeInternal:
	default:
		o.session.IdempotencyKey = uuid.Nil
	}
	o.session.LastError = err
	if terr := o.transition(ctx, enums.CheckoutStatusSelectingPayment); terr != nil {
		return Session{}, terr
	}
	o.logg.Warn(o.logg.WithField(o.scope(ctx), "error", err.Error()), "checkout.order_rejected")
	return o.session.clone(), err
}

// recordOrder stores the created order. Cash orders, and online orders the
// server already reports as paid, complete immediately and return a nil
// checkout.
func (o *Orchestrator) recordOrder(ctx context.Context, order *commerceapi.Order) (*gateway.Checkout, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.session.Order = order
	ctx = o.logg.WithOrderID(ctx, order.ID.String())

	if !order.RequiresGateway() {
		if err := o.complete(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if order.Payment == nil || order.Payment.GatewayOrderID == "" {
		err := pkgerrors.New(pkgerrors.CodeGateway, "order is missing payment initialization").
			WithDetails(map[string]string{"reason": gateway.ReasonFailed})
		return nil, o.failSession(ctx, err)
	}

	if o.ledger != nil {
		if err := o.ledger.Add(ctx, o.userID, order.ID); err != nil {
			o.logg.Error(ctx, "pending order ledger add failed", err)
		}
	}
	if err := o.transition(ctx, enums.CheckoutStatusAwaitingGatewayPayment); err != nil {
		return nil, err
	}

	currency := order.Payment.Currency
	if currency == "" {
		currency = o.currency
	}
	return &gateway.Checkout{
		OrderID:        order.ID,
		KeyID:          order.Payment.KeyID,
		GatewayOrderID: order.Payment.GatewayOrderID,
		Amount:         order.Payment.Amount,
		Currency:       currency,
		Prefill: gateway.Prefill{
			Name:  order.Payment.CustomerName,
			Email: order.Payment.CustomerEmail,
			Phone: order.Payment.CustomerPhone,
		},
	}, nil
}

func (o *Orchestrator) gatewayFailed(ctx context.Context, err error) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session.Status == enums.CheckoutStatusAbandoned {
		return o.session.clone(), context.Canceled
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if terr := o.transition(ctx, enums.CheckoutStatusAbandoned); terr != nil {
			return Session{}, terr
		}
		o.metrics.IncOutcome("abandoned")
		o.session.LastError = err
		return o.session.clone(), err
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeGateway) {
		err = pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment could not be collected").
			WithDetails(map[string]string{"reason": gateway.ReasonFailed})
	}
	return o.session.clone(), o.failSession(ctx, err)
}

func (o *Orchestrator) finishVerification(ctx context.Context, order *commerceapi.Order, verdict *commerceapi.VerifyResult, err error) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ctx = o.logg.WithOrderID(ctx, order.ID.String())
	if err != nil {
		return o.session.clone(), o.failSession(ctx, pkgerrors.Wrap(pkgerrors.CodeVerification, err, "payment verification failed"))
	}
	if verdict == nil || !verdict.Verified {
		msg := "payment verification failed"
		if verdict != nil && verdict.Message != "" {
			msg = verdict.Message
		}
		return o.session.clone(), o.failSession(ctx, pkgerrors.New(pkgerrors.CodeVerification, msg))
	}
	if verdict.Order != nil {
		o.session.Order = verdict.Order
	}
	if o.ledger != nil {
		if err := o.ledger.Remove(ctx, o.userID, order.ID); err != nil {
			o.logg.Error(ctx, "pending order ledger remove failed", err)
		}
	}
	if err := o.complete(ctx); err != nil {
		return Session{}, err
	}
	return o.session.clone(), nil
}

func (o *Orchestrator) advance(ctx context.Context, next Status) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session.Status == enums.CheckoutStatusAbandoned {
		return context.Canceled
	}
	return o.transition(ctx, next)
}

// complete finalizes a confirmed order. Callers hold mu.
func (o *Orchestrator) complete(ctx context.Context) error {
	if err := o.transition(ctx, enums.CheckoutStatusCompleted); err != nil {
		return err
	}
	o.cart.Clear()
	o.session.IdempotencyKey = uuid.Nil
	o.session.LastError = nil
	o.metrics.IncOutcome("completed")
	return nil
}

// failSession moves the session to failed and returns err. Callers hold mu.
func (o *Orchestrator) failSession(ctx context.Context, err error) error {
	if terr := o.transition(ctx, enums.CheckoutStatusFailed); terr != nil {
		return terr
	}
	o.session.LastError = err
	o.metrics.IncOutcome("failed")
	o.logg.Warn(o.logg.WithField(o.scope(ctx), "error", err.Error()), "checkout.failed")
	return err
}
