package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultLedgerTTL = 30 * 24 * time.Hour

// Ledger remembers server-created orders whose payment outcome the client has
// not observed, so they can be re-queried after an abandoned checkout.
type Ledger interface {
	Add(ctx context.Context, userID string, orderID uuid.UUID) error
	Remove(ctx context.Context, userID string, orderID uuid.UUID) error
	List(ctx context.Context, userID string) ([]uuid.UUID, error)
}

// MemoryLedger keeps pending orders for the lifetime of the process.
type MemoryLedger struct {
	mu      sync.Mutex
	pending map[string]map[uuid.UUID]struct{}
}

// NewMemoryLedger builds an empty in-process ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{pending: map[string]map[uuid.UUID]struct{}{}}
}

// Add implements Ledger.
func (m *MemoryLedger) Add(_ context.Context, userID string, orderID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.pending[userID]
	if !ok {
		set = map[uuid.UUID]struct{}{}
		m.pending[userID] = set
	}
	set[orderID] = struct{}{}
	return nil
}

// Remove implements Ledger.
func (m *MemoryLedger) Remove(_ context.Context, userID string, orderID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending[userID], orderID)
	return nil
}

// List implements Ledger.
func (m *MemoryLedger) List(_ context.Context, userID string) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uuid.UUID, 0, len(m.pending[userID]))
	for id := range m.pending[userID] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

type setStore interface {
	SAddWithTTL(ctx context.Context, key string, ttl time.Duration, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	PendingOrdersKey(userID string) string
}

// RedisLedger keeps pending orders in a redis set per user so they survive restarts.
type RedisLedger struct {
	store setStore
	ttl   time.Duration
}

// NewRedisLedger builds a redis-backed ledger. Entries expire after ttl
// without activity; zero uses a 30 day window.
func NewRedisLedger(store setStore, ttl time.Duration) (*RedisLedger, error) {
	if store == nil {
		return nil, errors.New("redis client required for ledger")
	}
	if ttl <= 0 {
		ttl = defaultLedgerTTL
	}
	return &RedisLedger{store: store, ttl: ttl}, nil
}

// Add implements Ledger.
func (r *RedisLedger) Add(ctx context.Context, userID string, orderID uuid.UUID) error {
	if err := r.store.SAddWithTTL(ctx, r.store.PendingOrdersKey(userID), r.ttl, orderID.String()); err != nil {
		return fmt.Errorf("record pending order: %w", err)
	}
	return nil
}

// Remove implements Ledger.
func (r *RedisLedger) Remove(ctx context.Context, userID string, orderID uuid.UUID) error {
	if err := r.store.SRem(ctx, r.store.PendingOrdersKey(userID), orderID.String()); err != nil {
		return fmt.Errorf("clear pending order: %w", err)
	}
	return nil
}

// List implements Ledger. Members that are not valid uuids are skipped.
func (r *RedisLedger) List(ctx context.Context, userID string) ([]uuid.UUID, error) {
	members, err := r.store.SMembers(ctx, r.store.PendingOrdersKey(userID))
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	out := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
