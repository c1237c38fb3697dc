package wishlist

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront-core/pkg/commerceapi"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
)

type stubAPI struct {
	entries    []commerceapi.Product
	listErr    error
	listCalls  int
	toggleResp bool
	toggleErr  error
	checkResp  []int64
	checkErr   error
}

func (s *stubAPI) ListWishlist(context.Context) ([]commerceapi.Product, error) {
	s.listCalls++
	return s.entries, s.listErr
}

func (s *stubAPI) ToggleWishlist(context.Context, int64) (bool, error) {
	return s.toggleResp, s.toggleErr
}

func (s *stubAPI) CheckWishlist(context.Context, []int64) ([]int64, error) {
	return s.checkResp, s.checkErr
}

func products(ids ...int64) []commerceapi.Product {
	out := make([]commerceapi.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, commerceapi.Product{ID: id, Title: "p"})
	}
	return out
}

func loadedStore(t *testing.T, api *stubAPI, ids ...int64) *Store {
	t.Helper()
	store, err := NewStore(api)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	api.entries = products(ids...)
	if _, err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	api.listCalls = 0
	return store
}

func TestLoadDerivesIndex(t *testing.T) {
	t.Parallel()

	store := loadedStore(t, &stubAPI{}, 1, 2, 3)
	if !store.Index().Equal(NewIndex(1, 2, 3)) {
		t.Fatalf("unexpected index %v", store.Index().IDs())
	}
	if len(store.Entries()) != 3 {
		t.Fatalf("expected 3 entries")
	}
}

func TestLoadFailureKeepsStaleIndex(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	store := loadedStore(t, api, 4, 9)
	api.entries = nil
	api.listErr = pkgerrors.New(pkgerrors.CodeAuth, "session expired")

	if _, err := store.Load(context.Background()); !pkgerrors.IsCode(err, pkgerrors.CodeAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if !store.Index().Equal(NewIndex(4, 9)) {
		t.Fatalf("index changed on failed load: %v", store.Index().IDs())
	}
	if len(store.Entries()) != 2 {
		t.Fatalf("entries changed on failed load: %d", len(store.Entries()))
	}
}

func TestRollbackRestoresIndexExactly(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name    string
		initial []int64
		target  int64
	}{
		{name: "add rejected", initial: []int64{1, 2}, target: 5},
		{name: "remove rejected", initial: []int64{1, 2}, target: 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			api := &stubAPI{toggleErr: pkgerrors.New(pkgerrors.CodeNetwork, "offline")}
			store := loadedStore(t, api, tc.initial...)
			before := store.Index()

			var flip Flip
			if before.Has(tc.target) {
				flip = store.RemoveOptimistic(tc.target)
			} else {
				flip = store.AddOptimistic(tc.target)
			}
			if store.Has(tc.target) == before.Has(tc.target) {
				t.Fatalf("optimistic change not visible")
			}

			res := store.Confirm(context.Background(), flip)
			if res.IsOk() || !pkgerrors.IsCode(res.Err, pkgerrors.CodeNetwork) {
				t.Fatalf("expected Err result, got %+v", res)
			}
			store.Rollback(res.Rollback)
			if !store.Index().Equal(before) {
				t.Fatalf("rollback did not restore index: before=%v after=%v", before.IDs(), store.Index().IDs())
			}
		})
	}
}

func TestOptimisticMutationsAreIdempotent(t *testing.T) {
	t.Parallel()

	store := loadedStore(t, &stubAPI{}, 1)
	before := store.Index()

	addFlip := store.AddOptimistic(1)
	removeFlip := store.RemoveOptimistic(9)
	if !addFlip.Noop || !removeFlip.Noop {
		t.Fatalf("expected no-op flips, got %+v %+v", addFlip, removeFlip)
	}
	if !store.Index().Equal(before) {
		t.Fatalf("no-op changed index: %v", store.Index().IDs())
	}

	store.Rollback(addFlip.Inverse())
	if !store.Index().Equal(before) {
		t.Fatalf("undoing a no-op must not change index")
	}
}

func TestFlipIsPure(t *testing.T) {
	t.Parallel()

	idx := NewIndex(1, 2)
	flip := FlipFor(idx, 3)
	next := flip.Apply(idx)
	if idx.Has(3) {
		t.Fatalf("Apply mutated its input")
	}
	if !next.Has(3) || !flip.Inverse().Apply(next).Equal(idx) {
		t.Fatalf("inverse should restore the original index")
	}
}

func TestToggleReconcilesToServerFlag(t *testing.T) {
	t.Parallel()

	api := &stubAPI{toggleResp: false}
	store := loadedStore(t, api, 1, 2)

	// local thinks 2 is saved, so toggle removes it; server agrees
	res := store.Toggle(context.Background(), 2)
	if !res.IsOk() || res.InWishlist {
		t.Fatalf("unexpected result %+v", res)
	}
	if store.Has(2) {
		t.Fatalf("index should follow server flag")
	}
	for _, e := range store.Entries() {
		if e.ID == 2 {
			t.Fatalf("entry should be dropped with membership")
		}
	}

	// server says 7 is saved even though local flip was a removal
	api.toggleResp = true
	api.entries = products(1, 7)
	store.AddOptimistic(7)
	res = store.Confirm(context.Background(), Flip{ProductID: 7, Added: false})
	if !res.IsOk() || !store.Has(7) {
		t.Fatalf("server membership should win, got %+v", res)
	}
}

func TestToggleOnRefreshesMissingEntry(t *testing.T) {
	t.Parallel()

	api := &stubAPI{toggleResp: true}
	store := loadedStore(t, api, 1)
	api.entries = products(1, 4)

	res := store.Toggle(context.Background(), 4)
	if !res.IsOk() || res.EntriesStale {
		t.Fatalf("unexpected result %+v", res)
	}
	if api.listCalls != 1 {
		t.Fatalf("expected one entry refresh, got %d", api.listCalls)
	}
	found := false
	for _, e := range store.Entries() {
		found = found || e.ID == 4
	}
	if !found {
		t.Fatalf("toggled-on product missing from entries")
	}
}

func TestToggleOnRefreshFailureMarksStale(t *testing.T) {
	t.Parallel()

	api := &stubAPI{toggleResp: true}
	store := loadedStore(t, api, 1)
	api.listErr = errors.New("boom")

	res := store.Toggle(context.Background(), 4)
	if !res.IsOk() || !res.EntriesStale {
		t.Fatalf("expected ok with stale entries, got %+v", res)
	}
	if !store.Has(4) {
		t.Fatalf("membership should still be reconciled")
	}
}

func TestToggleFailureRollsBack(t *testing.T) {
	t.Parallel()

	api := &stubAPI{toggleErr: pkgerrors.New(pkgerrors.CodeAuth, "login required")}
	store := loadedStore(t, api, 1)

	res := store.Toggle(context.Background(), 3)
	if res.IsOk() || !pkgerrors.IsCode(res.Err, pkgerrors.CodeAuth) {
		t.Fatalf("expected auth failure, got %+v", res)
	}
	if store.Has(3) || !store.Index().Equal(NewIndex(1)) {
		t.Fatalf("toggle failure should leave index unchanged")
	}
}

func TestCheckMembershipTouchesOnlyWorkingSet(t *testing.T) {
	t.Parallel()

	api := &stubAPI{checkResp: []int64{2, 3}}
	store := loadedStore(t, api, 1, 2, 9)

	got, err := store.CheckMembership(context.Background(), []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected server ids %v", got)
	}
	if !store.Index().Equal(NewIndex(2, 3, 9)) {
		t.Fatalf("unexpected index %v", store.Index().IDs())
	}

	api.checkErr = pkgerrors.New(pkgerrors.CodeNetwork, "offline")
	if _, err := store.CheckMembership(context.Background(), []int64{2}); err == nil {
		t.Fatalf("expected error")
	}
	if !store.Has(2) {
		t.Fatalf("failed check must not change index")
	}
}
