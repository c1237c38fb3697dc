package gateway

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/google/uuid"
)

func newTestHosted(t *testing.T, cfg HostedConfig) (*Hosted, chan Handoff) {
	t.Helper()
	presented := make(chan Handoff, 1)
	if cfg.CheckoutURL == "" {
		cfg.CheckoutURL = "https://pay.test/hosted"
	}
	h, err := NewHosted(cfg, func(_ context.Context, handoff Handoff) error {
		presented <- handoff
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("new hosted: %v", err)
	}
	return h, presented
}

type collectResult struct {
	res Result
	err error
}

func collectAsync(ctx context.Context, h *Hosted, checkout Checkout) chan collectResult {
	done := make(chan collectResult, 1)
	go func() {
		res, err := h.Collect(ctx, checkout)
		done <- collectResult{res: res, err: err}
	}()
	return done
}

func TestHostedCompleteDeliversResult(t *testing.T) {
	h, presented := newTestHosted(t, HostedConfig{ReturnBaseURL: "http://localhost:8090/"})
	checkout := Checkout{OrderID: uuid.New(), KeyID: "rzp_test", GatewayOrderID: "order_1", Amount: 186900, Currency: "INR"}
	done := collectAsync(context.Background(), h, checkout)

	handoff := <-presented
	parsed, err := url.Parse(handoff.URL)
	if err != nil {
		t.Fatalf("parse handoff url: %v", err)
	}
	if parsed.Query().Get("order_id") != "order_1" || parsed.Query().Get("amount") != "186900" {
		t.Fatalf("unexpected handoff url %s", handoff.URL)
	}
	if parsed.Query().Get("callback_url") != "http://localhost:8090/gateway/order_1/success" {
		t.Fatalf("unexpected callback url %s", parsed.Query().Get("callback_url"))
	}

	if err := h.Complete("order_1", Result{PaymentID: "pay_1", Signature: "sig"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got := <-done
	if got.err != nil {
		t.Fatalf("collect: %v", got.err)
	}
	if got.res.PaymentID != "pay_1" || got.res.GatewayOrderID != "order_1" {
		t.Fatalf("unexpected result %+v", got.res)
	}
	if len(h.Pending()) != 0 {
		t.Fatalf("handoff should be released, pending=%v", h.Pending())
	}
}

func TestHostedFailAndCancel(t *testing.T) {
	for _, tc := range []struct {
		name   string
		send   func(*Hosted) error
		reason string
	}{
		{name: "fail", send: func(h *Hosted) error { return h.Fail("order_2", "card declined") }, reason: ReasonFailed},
		{name: "cancel", send: func(h *Hosted) error { return h.Cancel("order_2") }, reason: ReasonCancelled},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h, presented := newTestHosted(t, HostedConfig{})
			done := collectAsync(context.Background(), h, Checkout{GatewayOrderID: "order_2"})
			<-presented
			if err := tc.send(h); err != nil {
				t.Fatalf("deliver: %v", err)
			}
			got := <-done
			if !pkgerrors.IsCode(got.err, pkgerrors.CodeGateway) {
				t.Fatalf("expected GATEWAY_ERROR, got %v", got.err)
			}
			if Reason(got.err) != tc.reason {
				t.Fatalf("expected reason %s, got %s", tc.reason, Reason(got.err))
			}
		})
	}
}

func TestHostedContextCancellation(t *testing.T) {
	h, presented := newTestHosted(t, HostedConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	done := collectAsync(ctx, h, Checkout{GatewayOrderID: "order_3"})
	<-presented
	cancel()
	got := <-done
	if !errors.Is(got.err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", got.err)
	}
	if err := h.Complete("order_3", Result{PaymentID: "late"}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("late callback should be NOT_FOUND, got %v", err)
	}
}

func TestHostedTimeoutIsGatewayFailure(t *testing.T) {
	h, presented := newTestHosted(t, HostedConfig{Timeout: 10 * time.Millisecond})
	done := collectAsync(context.Background(), h, Checkout{GatewayOrderID: "order_4"})
	<-presented
	got := <-done
	if Reason(got.err) != ReasonFailed {
		t.Fatalf("expected gateway failure on timeout, got %v", got.err)
	}
}

func TestHostedRejectsDuplicateHandoff(t *testing.T) {
	h, presented := newTestHosted(t, HostedConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = collectAsync(ctx, h, Checkout{GatewayOrderID: "order_5"})
	<-presented

	_, err := h.Collect(context.Background(), Checkout{GatewayOrderID: "order_5"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestHostedDuplicateCallbackIgnored(t *testing.T) {
	h, presented := newTestHosted(t, HostedConfig{})
	done := collectAsync(context.Background(), h, Checkout{GatewayOrderID: "order_6"})
	<-presented
	if err := h.Complete("order_6", Result{PaymentID: "pay_first"}); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	// second delivery may race the release; either ignored or NOT_FOUND
	if err := h.Cancel("order_6"); err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("unexpected error on duplicate: %v", err)
	}
	got := <-done
	if got.err != nil || got.res.PaymentID != "pay_first" {
		t.Fatalf("first outcome should win, got %+v", got)
	}
}

func TestHostedPresenterFailure(t *testing.T) {
	h, err := NewHosted(HostedConfig{CheckoutURL: "https://pay.test"}, func(context.Context, Handoff) error {
		return errors.New("no browser")
	}, nil)
	if err != nil {
		t.Fatalf("new hosted: %v", err)
	}
	_, err = h.Collect(context.Background(), Checkout{GatewayOrderID: "order_7"})
	if Reason(err) != ReasonFailed || !strings.Contains(err.Error(), "payment page") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCompleteRequiresPaymentID(t *testing.T) {
	h, _ := newTestHosted(t, HostedConfig{})
	if err := h.Complete("order_8", Result{}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
