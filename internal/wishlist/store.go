package wishlist

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/storefront-core/pkg/commerceapi"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
)

const storeName = "wishlist"

// API is the slice of the commerce client the wishlist needs.
type API interface {
	ListWishlist(ctx context.Context) ([]commerceapi.Product, error)
	ToggleWishlist(ctx context.Context, productID int64) (bool, error)
	CheckWishlist(ctx context.Context, productIDs []int64) ([]int64, error)
}

// Entry is a saved product as the server last reported it.
type Entry = commerceapi.Product

// Store holds the saved products and the membership index derived from them.
// Callers serialize toggles per product id.
type Store struct {
	api     API
	logg    *logger.Logger
	metrics *metrics.StoreMetrics

	mu      sync.RWMutex
	entries []Entry
	index   Index
}

// Option configures optional store behavior.
type Option func(*Store)

// WithLogger enables logging.
func WithLogger(logg *logger.Logger) Option {
	return func(s *Store) { s.logg = logg }
}

// WithMetrics counts mutations and rollbacks.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore builds an empty wishlist store.
func NewStore(api API, opts ...Option) (*Store, error) {
	if api == nil {
		return nil, errors.New("wishlist api required")
	}
	s := &Store{api: api, index: NewIndex()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Load fetches the saved products and rebuilds the index from them.
func (s *Store) Load(ctx context.Context) ([]Entry, error) {
	entries, err := s.api.ListWishlist(ctx)
	if err != nil {
		s.metrics.IncMutation(storeName, "load", string(pkgerrors.CodeOf(err)))
		return nil, err
	}
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	s.mu.Lock()
	s.entries = cloneEntries(entries)
	s.index = NewIndex(ids...)
	s.mu.Unlock()
	s.metrics.IncMutation(storeName, "load", "ok")
	return s.Entries(), nil
}

// AddOptimistic marks id as saved locally. It is a no-op when already present.
func (s *Store) AddOptimistic(id int64) Flip {
	return s.applyLocal(Flip{ProductID: id, Added: true})
}

// RemoveOptimistic marks id as not saved locally. It is a no-op when absent.
func (s *Store) RemoveOptimistic(id int64) Flip {
	return s.applyLocal(Flip{ProductID: id, Added: false})
}

// Begin applies the optimistic half of a toggle based on current membership
// and returns the flip to confirm.
func (s *Store) Begin(id int64) Flip {
	s.mu.Lock()
	defer s.mu.Unlock()
	flip := FlipFor(s.index, id)
	s.index = flip.Apply(s.index)
	return flip
}

// Confirm sends the toggle to the server and reconciles the product's
// membership to the server's answer. On failure the index is left as is and
// the result carries the flip that undoes the optimistic change.
func (s *Store) Confirm(ctx context.Context, flip Flip) Result {
	ctx = s.logg.WithField(ctx, "product_id", flip.ProductID)
	inWishlist, err := s.api.ToggleWishlist(ctx, flip.ProductID)
	if err != nil {
		s.metrics.IncMutation(storeName, "toggle", string(pkgerrors.CodeOf(err)))
		s.logg.Debug(s.logg.WithField(ctx, "error", err.Error()), "wishlist.toggle rejected")
		return Err(err, flip.Inverse())
	}

	needEntry := false
	s.mu.Lock()
	if inWishlist {
		s.index = s.index.With(flip.ProductID)
		needEntry = indexOfEntry(s.entries, flip.ProductID) < 0
	} else {
		s.index = s.index.Without(flip.ProductID)
		if i := indexOfEntry(s.entries, flip.ProductID); i >= 0 {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
		}
	}
	s.mu.Unlock()
	s.metrics.IncMutation(storeName, "toggle", "ok")

	stale := false
	if needEntry {
		if err := s.refreshEntries(ctx); err != nil {
			stale = true
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "wishlist entries stale after toggle")
		}
	}
	return Ok(inWishlist, stale)
}

// Rollback undoes an optimistic change after the server rejected it.
func (s *Store) Rollback(flip Flip) {
	s.mu.Lock()
	s.index = flip.Apply(s.index)
	s.mu.Unlock()
	if !flip.Noop {
		s.metrics.IncRollback(storeName)
	}
}

// Toggle runs Begin, Confirm and, on failure, Rollback.
func (s *Store) Toggle(ctx context.Context, id int64) Result {
	res := s.Confirm(ctx, s.Begin(id))
	if !res.IsOk() {
		s.Rollback(res.Rollback)
	}
	return res
}

// CheckMembership reconciles the given working set against the server. Ids
// outside the set are untouched.
func (s *Store) CheckMembership(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	saved, err := s.api.CheckWishlist(ctx, ids)
	if err != nil {
		s.metrics.IncMutation(storeName, "check", string(pkgerrors.CodeOf(err)))
		return nil, err
	}
	server := NewIndex(saved...)
	s.mu.Lock()
	next := s.index.Clone()
	for _, id := range ids {
		if server.Has(id) {
			next.ids[id] = struct{}{}
		} else {
			delete(next.ids, id)
		}
	}
	s.index = next
	s.mu.Unlock()
	s.metrics.IncMutation(storeName, "check", "ok")
	return server.IDs(), nil
}

// Has reports local membership.
func (s *Store) Has(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Has(id)
}

// Index returns a copy of the membership index.
func (s *Store) Index() Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Clone()
}

// Entries returns a copy of the saved products.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(s.entries)
}

func (s *Store) applyLocal(flip Flip) Flip {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index.Has(flip.ProductID) == flip.Added {
		flip.Noop = true
		return flip
	}
	s.index = flip.Apply(s.index)
	return flip
}

// refreshEntries replaces entries only; the index keeps any pending flips.
func (s *Store) refreshEntries(ctx context.Context) error {
	entries, err := s.api.ListWishlist(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = cloneEntries(entries)
	s.mu.Unlock()
	return nil
}

func indexOfEntry(entries []Entry, id int64) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func cloneEntries(in []Entry) []Entry {
	if in == nil {
		return nil
	}
	out := make([]Entry, len(in))
	for i, e := range in {
		out[i] = e
		if e.PrimaryImage != nil {
			img := *e.PrimaryImage
			out[i].PrimaryImage = &img
		}
	}
	return out
}
