package bptree

// Validate checks every structural invariant of the tree: key order inside
// and across nodes, separator bounds, node occupancy, uniform leaf depth, the
// leaf chain, the pair count and the node store. It returns an
// *InvariantError describing the first violation found.
func (t *Tree[K, V]) Validate() error {
	if t.root == InvalidNodeID {
		if t.size != 0 || t.height != 0 {
			return violation(InvalidNodeID, "empty tree reports size %d and height %d", t.size, t.height)
		}
		if live := t.liveNodes(); live != 0 {
			return violation(InvalidNodeID, "empty tree still holds %d nodes", live)
		}
		return nil
	}

	v := validator[K, V]{tree: t}
	if err := v.check(t.root, 1, nil, nil); err != nil {
		return err
	}
	if v.visited != t.liveNodes() {
		return violation(t.root, "reached %d nodes but the store holds %d", v.visited, t.liveNodes())
	}
	if v.pairs != t.size {
		return violation(t.root, "leaves hold %d pairs but size is %d", v.pairs, t.size)
	}
	return v.checkChain()
}

func (t *Tree[K, V]) liveNodes() int {
	live := 0
	for _, n := range t.nodes {
		if n != nil {
			live++
		}
	}
	return live
}

type validator[K any, V any] struct {
	tree    *Tree[K, V]
	leaves  []NodeID
	visited int
	pairs   int
}

// check verifies the subtree under id, whose keys must lie in [lo, hi).
// A nil bound is open.
func (v *validator[K, V]) check(id NodeID, depth int, lo, hi *K) error {
	t := v.tree
	v.visited++
	isRoot := id == t.root

	switch n := t.lookup(id).(type) {
	case *leafNode[K, V]:
		if depth != t.height {
			return violation(id, "leaf at depth %d, tree height is %d", depth, t.height)
		}
		if len(n.values) != len(n.keys) {
			return violation(id, "%d keys but %d values", len(n.keys), len(n.values))
		}
		if err := v.checkKeys(id, n.keys, isRoot, lo, hi); err != nil {
			return err
		}
		if isRoot && len(n.keys) == 0 {
			return violation(id, "root leaf is empty")
		}
		v.leaves = append(v.leaves, id)
		v.pairs += len(n.keys)
		return nil

	case *internalNode[K]:
		if depth >= t.height {
			return violation(id, "internal node at depth %d, tree height is %d", depth, t.height)
		}
		if len(n.children) != len(n.keys)+1 {
			return violation(id, "%d keys but %d children", len(n.keys), len(n.children))
		}
		if isRoot && len(n.keys) == 0 {
			return violation(id, "internal root has no separators")
		}
		if err := v.checkKeys(id, n.keys, isRoot, lo, hi); err != nil {
			return err
		}
		for i, child := range n.children {
			childLo, childHi := lo, hi
			if i > 0 {
				childLo = &n.keys[i-1]
			}
			if i < len(n.keys) {
				childHi = &n.keys[i]
			}
			if err := v.check(child, depth+1, childLo, childHi); err != nil {
				return err
			}
		}
		return nil

	default:
		return violation(id, "link points at a %s slot", kindOf(n))
	}
}

func (v *validator[K, V]) checkKeys(id NodeID, keys []K, isRoot bool, lo, hi *K) error {
	t := v.tree
	if len(keys) > t.capacity {
		return violation(id, "%d keys exceed capacity %d", len(keys), t.capacity)
	}
	if !isRoot && len(keys) < t.minKeys {
		return violation(id, "%d keys below minimum %d", len(keys), t.minKeys)
	}
	for i, k := range keys {
		if i > 0 && t.keyOrder(keys[i-1], k) >= 0 {
			return violation(id, "keys not strictly increasing at index %d", i)
		}
		if lo != nil && t.keyOrder(k, *lo) < 0 {
			return violation(id, "key %v below separator %v", k, *lo)
		}
		if hi != nil && t.keyOrder(k, *hi) >= 0 {
			return violation(id, "key %v not below separator %v", k, *hi)
		}
	}
	return nil
}

// checkChain verifies that following next links from the leftmost leaf
// visits exactly the leaves found by the descent, in the same order, and
// that keys keep increasing across leaf boundaries.
func (v *validator[K, V]) checkChain() error {
	t := v.tree
	for i, id := range v.leaves {
		want := InvalidNodeID
		if i+1 < len(v.leaves) {
			want = v.leaves[i+1]
		}
		l := t.leaf(id)
		if l.next != want {
			return violation(id, "next link is %d, expected %d", l.next, want)
		}
		if want == InvalidNodeID {
			continue
		}
		nextLeaf := t.leaf(want)
		if len(l.keys) > 0 && len(nextLeaf.keys) > 0 &&
			t.keyOrder(l.keys[len(l.keys)-1], nextLeaf.keys[0]) >= 0 {
			return violation(id, "last key is not below the next leaf's first key")
		}
	}
	return nil
}
