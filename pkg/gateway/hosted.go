package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

// Handoff is what the UI needs to send the shopper to the hosted payment page.
type Handoff struct {
	Checkout Checkout
	URL      string
}

// Presenter shows the hosted payment page to the shopper (opens a browser,
// renders a link, pushes to a websocket). It must not block until payment.
type Presenter func(ctx context.Context, handoff Handoff) error

// HostedConfig configures the hosted-page gateway.
type HostedConfig struct {
	// CheckoutURL is the gateway's hosted payment page.
	CheckoutURL string
	// ReturnBaseURL is where this process listens for the gateway's redirects.
	ReturnBaseURL string
	// Timeout bounds how long a handoff may stay open; zero means no bound.
	Timeout time.Duration
}

type outcome struct {
	result Result
	err    error
}

// Hosted collects payments through a hosted page whose outcome is delivered
// back to this process by HTTP callbacks.
type Hosted struct {
	cfg     HostedConfig
	present Presenter
	logg    *logger.Logger

	mu      sync.Mutex
	pending map[string]chan outcome
}

// NewHosted builds a hosted-page gateway.
func NewHosted(cfg HostedConfig, present Presenter, logg *logger.Logger) (*Hosted, error) {
	if strings.TrimSpace(cfg.CheckoutURL) == "" {
		return nil, errors.New("gateway checkout url is required")
	}
	if present == nil {
		return nil, errors.New("gateway presenter is required")
	}
	return &Hosted{
		cfg:     cfg,
		present: present,
		logg:    logg,
		pending: make(map[string]chan outcome),
	}, nil
}

// Collect implements Gateway.
func (h *Hosted) Collect(ctx context.Context, checkout Checkout) (Result, error) {
	id := strings.TrimSpace(checkout.GatewayOrderID)
	if id == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id is required")
	}

	ch := make(chan outcome, 1)
	h.mu.Lock()
	if _, exists := h.pending[id]; exists {
		h.mu.Unlock()
		return Result{}, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payment for %s already in progress", id))
	}
	h.pending[id] = ch
	h.mu.Unlock()
	defer h.release(id)

	waitCtx := ctx
	if h.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, h.cfg.Timeout)
		defer cancel()
	}

	ctx = h.logg.WithFields(ctx, map[string]any{"gateway_order_id": id, "order_id": checkout.OrderID.String()})
	handoff := Handoff{Checkout: checkout, URL: h.checkoutURL(checkout)}
	if err := h.present(ctx, handoff); err != nil {
		h.logg.Error(ctx, "gateway handoff failed", err)
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "could not open payment page").WithDetails(map[string]string{"reason": ReasonFailed})
	}
	h.logg.Info(ctx, "gateway handoff presented")

	select {
	case o := <-ch:
		return o.result, o.err
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		h.logg.Warn(ctx, "gateway handoff timed out")
		return Result{}, Failed("payment window expired")
	}
}

// Complete delivers a successful payment for gatewayOrderID.
func (h *Hosted) Complete(gatewayOrderID string, result Result) error {
	if result.GatewayOrderID == "" {
		result.GatewayOrderID = gatewayOrderID
	}
	if result.GatewayOrderID != gatewayOrderID {
		return pkgerrors.New(pkgerrors.CodeValidation, "gateway order id mismatch")
	}
	if strings.TrimSpace(result.PaymentID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	return h.deliver(gatewayOrderID, outcome{result: result})
}

// Fail delivers a declined payment for gatewayOrderID.
func (h *Hosted) Fail(gatewayOrderID, message string) error {
	return h.deliver(gatewayOrderID, outcome{err: Failed(message)})
}

// Cancel delivers a shopper cancellation for gatewayOrderID.
func (h *Hosted) Cancel(gatewayOrderID string) error {
	return h.deliver(gatewayOrderID, outcome{err: Cancelled()})
}

// Pending lists gateway order ids currently awaiting a callback.
func (h *Hosted) Pending() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.pending))
	for id := range h.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (h *Hosted) deliver(gatewayOrderID string, o outcome) error {
	h.mu.Lock()
	ch, ok := h.pending[gatewayOrderID]
	h.mu.Unlock()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no payment awaiting %s", gatewayOrderID))
	}
	select {
	case ch <- o:
	default:
		// duplicate callback; first outcome wins
	}
	return nil
}

func (h *Hosted) release(id string) {
	h.mu.Lock()
	delete(h.pending, id)
	h.mu.Unlock()
}

func (h *Hosted) checkoutURL(checkout Checkout) string {
	returnBase := strings.TrimRight(h.cfg.ReturnBaseURL, "/")
	escaped := url.PathEscape(checkout.GatewayOrderID)
	q := url.Values{}
	q.Set("key_id", checkout.KeyID)
	q.Set("order_id", checkout.GatewayOrderID)
	q.Set("amount", strconv.FormatInt(checkout.Amount, 10))
	q.Set("currency", checkout.Currency)
	if checkout.Prefill.Name != "" {
		q.Set("prefill[name]", checkout.Prefill.Name)
	}
	if checkout.Prefill.Email != "" {
		q.Set("prefill[email]", checkout.Prefill.Email)
	}
	if checkout.Prefill.Phone != "" {
		q.Set("prefill[contact]", checkout.Prefill.Phone)
	}
	if returnBase != "" {
		q.Set("callback_url", fmt.Sprintf("%s/gateway/%s/success", returnBase, escaped))
		q.Set("cancel_url", fmt.Sprintf("%s/gateway/%s/cancel", returnBase, escaped))
	}
	sep := "?"
	if strings.Contains(h.cfg.CheckoutURL, "?") {
		sep = "&"
	}
	return h.cfg.CheckoutURL + sep + q.Encode()
}
