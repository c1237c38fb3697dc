package wishlist

// Result is the outcome of confirming a toggle with the server: either Ok
// with the authoritative membership, or Err carrying the reason and the flip
// the caller must apply to undo its optimistic change.
type Result struct {
	ok           bool
	InWishlist   bool
	EntriesStale bool
	Err          error
	Rollback     Flip
}

// Ok builds a successful result.
func Ok(inWishlist, entriesStale bool) Result {
	return Result{ok: true, InWishlist: inWishlist, EntriesStale: entriesStale}
}

// Err builds a failed result with its compensating flip.
func Err(err error, rollback Flip) Result {
	return Result{Err: err, Rollback: rollback}
}

// IsOk reports whether the server accepted the toggle.
func (r Result) IsOk() bool {
	return r.ok
}
