package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/storefront-core/pkg/commerceapi"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
	"github.com/shopspring/decimal"
)

const storeName = "cart"

// API is the slice of the commerce client the cart needs.
type API interface {
	GetCart(ctx context.Context) (*commerceapi.Cart, error)
	AddCartItem(ctx context.Context, req commerceapi.AddCartItemRequest) (*commerceapi.Cart, error)
	UpdateCartItem(ctx context.Context, itemID int64, quantity int) (*commerceapi.Cart, error)
	RemoveCartItem(ctx context.Context, itemID int64) (*commerceapi.Cart, error)
}

// Item is one cart line exactly as the server reported it.
type Item = commerceapi.CartItem

// Snapshot is the last cart state the server confirmed.
type Snapshot struct {
	Items      []Item
	TotalPrice decimal.Decimal
}

// AddInput selects what to add to the cart.
type AddInput struct {
	ProductID        int64
	SizeID           *int64
	VariantProductID *int64
	Quantity         int
}

// Store mirrors the server cart. Every successful mutation replaces the whole
// snapshot with the server response; failures leave it untouched.
type Store struct {
	api     API
	logg    *logger.Logger
	metrics *metrics.StoreMetrics

	mu     sync.RWMutex
	snap   Snapshot
	loaded bool
}

// Option configures optional store behavior.
type Option func(*Store)

// WithLogger enables mutation logging.
func WithLogger(logg *logger.Logger) Option {
	return func(s *Store) { s.logg = logg }
}

// WithMetrics counts mutations.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore builds an empty cart store.
func NewStore(api API, opts ...Option) (*Store, error) {
	if api == nil {
		return nil, errors.New("cart api required")
	}
	s := &Store{api: api}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Load fetches the server cart and replaces the snapshot.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	cart, err := s.api.GetCart(ctx)
	return s.commit(ctx, "load", cart, err)
}

// AddItem adds a product line; the server merges it with a matching line.
func (s *Store) AddItem(ctx context.Context, in AddInput) (Snapshot, error) {
	if in.ProductID <= 0 {
		return s.reject(ctx, "add", pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
	}
	if in.Quantity < 1 {
		return s.reject(ctx, "add", pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1"))
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"product_id": in.ProductID, "quantity": in.Quantity})
	cart, err := s.api.AddCartItem(ctx, commerceapi.AddCartItemRequest{
		ProductID:        in.ProductID,
		SizeID:           in.SizeID,
		VariantProductID: in.VariantProductID,
		Quantity:         in.Quantity,
	})
	return s.commit(ctx, "add", cart, err)
}

// UpdateQuantity sets an existing line's quantity.
func (s *Store) UpdateQuantity(ctx context.Context, itemID int64, quantity int) (Snapshot, error) {
	if quantity < 1 {
		return s.reject(ctx, "update", pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1"))
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"item_id": itemID, "quantity": quantity})
	cart, err := s.api.UpdateCartItem(ctx, itemID, quantity)
	return s.commit(ctx, "update", cart, err)
}

// RemoveItem deletes a line.
func (s *Store) RemoveItem(ctx context.Context, itemID int64) (Snapshot, error) {
	ctx = s.logg.WithField(ctx, "item_id", itemID)
	cart, err := s.api.RemoveCartItem(ctx, itemID)
	return s.commit(ctx, "remove", cart, err)
}

// Clear empties the local snapshot. It is used after the server has already
// consumed the cart into an order and makes no network call.
func (s *Store) Clear() {
	s.replace(Snapshot{TotalPrice: decimal.Zero})
	s.metrics.IncMutation(storeName, "clear", "ok")
}

// Snapshot returns a deep copy of the current cart.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSnapshot(s.snap)
}

// Loaded reports whether the snapshot has been populated from the server at least once.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snap.Items) == 0
}

// ItemCount sums line quantities.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, item := range s.snap.Items {
		total += item.Quantity
	}
	return total
}

func (s *Store) commit(ctx context.Context, op string, cart *commerceapi.Cart, err error) (Snapshot, error) {
	if err != nil {
		return s.reject(ctx, op, err)
	}
	if cart == nil {
		return s.reject(ctx, op, pkgerrors.New(pkgerrors.CodeInternal, "empty cart response"))
	}
	next := Snapshot{Items: cart.Items, TotalPrice: cart.TotalPrice}
	s.replace(next)
	s.metrics.IncMutation(storeName, op, "ok")
	s.logg.Debug(s.logg.WithField(ctx, "items", len(next.Items)), "cart."+op)
	return s.Snapshot(), nil
}

func (s *Store) reject(ctx context.Context, op string, err error) (Snapshot, error) {
	s.metrics.IncMutation(storeName, op, string(pkgerrors.CodeOf(err)))
	s.logg.Debug(s.logg.WithField(ctx, "error", err.Error()), "cart."+op+" rejected")
	return s.Snapshot(), err
}

// replace is the only path that writes the snapshot.
func (s *Store) replace(next Snapshot) {
	next = cloneSnapshot(next)
	s.mu.Lock()
	s.snap = next
	s.loaded = true
	s.mu.Unlock()
}

func cloneSnapshot(in Snapshot) Snapshot {
	out := Snapshot{TotalPrice: in.TotalPrice}
	if in.Items == nil {
		return out
	}
	out.Items = make([]Item, len(in.Items))
	for i, item := range in.Items {
		out.Items[i] = cloneItem(item)
	}
	return out
}

func cloneItem(in Item) Item {
	out := in
	out.Product = cloneProduct(in.Product)
	if in.SelectedSize != nil {
		size := *in.SelectedSize
		out.SelectedSize = &size
	}
	if in.VariantProduct != nil {
		variant := cloneProduct(*in.VariantProduct)
		out.VariantProduct = &variant
	}
	return out
}

func cloneProduct(in commerceapi.Product) commerceapi.Product {
	out := in
	if in.PrimaryImage != nil {
		img := *in.PrimaryImage
		out.PrimaryImage = &img
	}
	return out
}
