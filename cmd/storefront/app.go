package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-core/internal/address"
	"github.com/angelmondragon/storefront-core/internal/cart"
	"github.com/angelmondragon/storefront-core/internal/checkout"
	"github.com/angelmondragon/storefront-core/internal/cron"
	"github.com/angelmondragon/storefront-core/internal/orders"
	"github.com/angelmondragon/storefront-core/internal/wishlist"
	"github.com/angelmondragon/storefront-core/pkg/auth"
	"github.com/angelmondragon/storefront-core/pkg/commerceapi"
	"github.com/angelmondragon/storefront-core/pkg/config"
	"github.com/angelmondragon/storefront-core/pkg/gateway"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
	"github.com/angelmondragon/storefront-core/pkg/redis"
)

// app holds the wired storefront components for one shopper session.
type app struct {
	cfg      *config.Config
	logg     *logger.Logger
	session  *auth.Session
	api      *commerceapi.Client
	redis    *redis.Client
	cart     *cart.Store
	wishlist *wishlist.Store
	book     *address.Book
	orders   orders.Service
	ledger   orders.Ledger
	gateway  *gateway.Hosted
	cron     *cron.Service

	checkoutMetrics *metrics.CheckoutMetrics
}

func newApp(ctx context.Context, cfg *config.Config, logg *logger.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{
		cfg:             cfg,
		logg:            logg,
		session:         auth.NewSession(cfg.API.AccessToken),
		checkoutMetrics: metrics.NewCheckoutMetrics(reg),
	}

	if token := cfg.API.AccessToken; token != "" {
		if err := auth.CheckExpiry(token, timeNow()); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "configured access token is not usable")
		}
	}

	client, err := commerceapi.NewClient(cfg.API.BaseURL,
		commerceapi.WithTimeout(cfg.API.Timeout),
		commerceapi.WithTokenSource(a.session),
		commerceapi.WithMetrics(metrics.NewAPIMetrics(reg)),
		commerceapi.WithLogger(logg),
	)
	if err != nil {
		return nil, fmt.Errorf("commerce client: %w", err)
	}
	a.api = client

	storeMetrics := metrics.NewStoreMetrics(reg)
	if a.cart, err = cart.NewStore(client, cart.WithLogger(logg), cart.WithMetrics(storeMetrics)); err != nil {
		return nil, err
	}
	if a.wishlist, err = wishlist.NewStore(client, wishlist.WithLogger(logg), wishlist.WithMetrics(storeMetrics)); err != nil {
		return nil, err
	}
	if a.book, err = address.NewBook(client, cfg.Checkout.Country, logg); err != nil {
		return nil, err
	}
	if a.orders, err = orders.NewService(client, logg); err != nil {
		return nil, err
	}

	var lock cron.Lock = &cron.LocalLock{}
	a.ledger = orders.NewMemoryLedger()
	if cfg.Redis.Enabled() {
		a.redis, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		if a.ledger, err = orders.NewRedisLedger(a.redis, 0); err != nil {
			return nil, err
		}
		if lock, err = cron.NewRedisLock(a.redis, a.redis.LockKey("pending-order-reconcile"), cfg.Reconcile.LockTTL); err != nil {
			return nil, err
		}
	} else {
		logg.Warn(ctx, "redis not configured; pending orders are tracked in memory only")
	}

	a.gateway, err = gateway.NewHosted(gateway.HostedConfig{
		CheckoutURL:   cfg.Gateway.CheckoutURL,
		ReturnBaseURL: cfg.Gateway.PublicBaseURL,
		Timeout:       cfg.Gateway.HandoffTimeout,
	}, a.presentHandoff, logg)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	registry := cron.NewRegistry()
	if cfg.Reconcile.Enabled {
		job, err := cron.NewPendingOrderReconcileJob(cron.PendingOrderReconcileJobParams{
			Logger: logg,
			Orders: client,
			Ledger: a.ledger,
			UserID: a.userID,
		})
		if err != nil {
			return nil, err
		}
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	a.cron, err = cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(reg),
		Interval:   cfg.Reconcile.Interval,
		JobTimeout: cfg.Reconcile.LockTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("cron service: %w", err)
	}

	return a, nil
}

// NewCheckout starts a checkout session over the shared cart and address book.
func (a *app) NewCheckout(ctx context.Context) (*checkout.Orchestrator, error) {
	userID, err := a.userID(ctx)
	if err != nil {
		return nil, err
	}
	return checkout.NewOrchestrator(checkout.Params{
		Addresses: a.book,
		Orders:    a.api,
		Cart:      a.cart,
		Gateway:   a.gateway,
		Ledger:    a.ledger,
		UserID:    userID,
		Currency:  a.cfg.Checkout.Currency,
		Logger:    a.logg,
		Metrics:   a.checkoutMetrics,
	})
}

// warm loads the cart, wishlist and order history so the first render has
// server state.
func (a *app) warm(ctx context.Context) {
	if _, err := a.session.Token(ctx); err != nil {
		a.logg.Info(ctx, "no shopper session; skipping cart and wishlist load")
		return
	}
	if snap, err := a.cart.Load(ctx); err != nil {
		a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "cart load failed")
	} else {
		a.logg.Info(a.logg.WithFields(ctx, map[string]any{"items": len(snap.Items), "total": snap.TotalPrice.String()}), "cart loaded")
	}
	if entries, err := a.wishlist.Load(ctx); err != nil {
		a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "wishlist load failed")
	} else {
		a.logg.Info(a.logg.WithField(ctx, "entries", len(entries)), "wishlist loaded")
	}
	if history, err := a.orders.List(ctx); err != nil {
		a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "order history load failed")
	} else {
		a.logg.Info(a.logg.WithFields(ctx, map[string]any{
			"orders":           len(history),
			"awaiting_gateway": awaitingPayment(history),
		}), "order history loaded")
	}
}

// awaitingPayment counts online orders the server still reports as unpaid.
func awaitingPayment(history []commerceapi.Order) int {
	n := 0
	for _, order := range history {
		if order.RequiresGateway() && !order.PaymentStatus.IsSettled() {
			n++
		}
	}
	return n
}

// userID prefers the id embedded in the live access token over configuration.
func (a *app) userID(ctx context.Context) (string, error) {
	if token, err := a.session.Token(ctx); err == nil {
		if id, err := auth.UserID(token); err == nil {
			return id, nil
		}
	}
	if id := strings.TrimSpace(a.cfg.API.UserID); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no shopper identity: set %s or %s", config.EnvAPIAccessToken, "STOREFRONT_API_USER_ID")
}

func (a *app) presentHandoff(ctx context.Context, h gateway.Handoff) error {
	a.logg.Info(a.logg.WithFields(ctx, map[string]any{
		"checkout_url": h.URL,
		"amount":       h.Checkout.Amount,
		"currency":     h.Checkout.Currency,
	}), "open the payment page to continue")
	return nil
}

func (a *app) close(ctx context.Context) {
	if a.redis == nil {
		return
	}
	if err := a.redis.Close(); err != nil {
		a.logg.Error(ctx, "error closing redis", err)
	}
}
