package wishlist

import "sort"

// Index is the set of wishlisted product ids. Its methods never modify the
// receiver; mutations return a new Index.
type Index struct {
	ids map[int64]struct{}
}

// NewIndex builds an index from ids.
func NewIndex(ids ...int64) Index {
	idx := Index{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		idx.ids[id] = struct{}{}
	}
	return idx
}

// Has reports membership.
func (i Index) Has(id int64) bool {
	_, ok := i.ids[id]
	return ok
}

// Len returns the number of members.
func (i Index) Len() int {
	return len(i.ids)
}

// With returns a copy of the index including id.
func (i Index) With(id int64) Index {
	out := i.Clone()
	out.ids[id] = struct{}{}
	return out
}

// Without returns a copy of the index excluding id.
func (i Index) Without(id int64) Index {
	out := i.Clone()
	delete(out.ids, id)
	return out
}

// Clone returns an independent copy.
func (i Index) Clone() Index {
	out := Index{ids: make(map[int64]struct{}, len(i.ids))}
	for id := range i.ids {
		out.ids[id] = struct{}{}
	}
	return out
}

// Equal reports whether both indexes hold the same ids.
func (i Index) Equal(other Index) bool {
	if len(i.ids) != len(other.ids) {
		return false
	}
	for id := range i.ids {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// IDs returns members in ascending order.
func (i Index) IDs() []int64 {
	out := make([]int64, 0, len(i.ids))
	for id := range i.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Flip is one optimistic membership change. Noop marks a flip that did not
// change the index when it was applied, so its inverse must not either.
type Flip struct {
	ProductID int64
	Added     bool
	Noop      bool
}

// FlipFor computes the flip that toggles id given the current index.
func FlipFor(idx Index, id int64) Flip {
	return Flip{ProductID: id, Added: !idx.Has(id)}
}

// Apply returns idx with the flip applied.
func (f Flip) Apply(idx Index) Index {
	if f.Noop {
		return idx.Clone()
	}
	if f.Added {
		return idx.With(f.ProductID)
	}
	return idx.Without(f.ProductID)
}

// Inverse returns the flip that undoes f.
func (f Flip) Inverse() Flip {
	return Flip{ProductID: f.ProductID, Added: !f.Added, Noop: f.Noop}
}
