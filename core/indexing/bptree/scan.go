package bptree

import "iter"

// Iterator walks the leaf chain in ascending key order. It must not be used
// after the tree has been modified.
type Iterator[K any, V any] struct {
	tree    *Tree[K, V]
	leaf    NodeID
	slot    int
	upper   K
	bounded bool
	done    bool
}

// NewIterator returns an iterator over keys in [lower, upper]. It yields
// nothing when lower > upper or lower is above every key.
func (t *Tree[K, V]) NewIterator(lower, upper K) *Iterator[K, V] {
	it := t.IteratorFrom(lower)
	it.upper = upper
	it.bounded = true
	return it
}

// IteratorFrom returns an iterator over every key >= lower.
func (t *Tree[K, V]) IteratorFrom(lower K) *Iterator[K, V] {
	it := &Iterator[K, V]{tree: t}
	leafID, slot, _, _ := t.locate(lower)
	if leafID == InvalidNodeID {
		it.done = true
		return it
	}
	// slot may equal the leaf length; Next hops to the following leaf.
	it.leaf, it.slot = leafID, slot
	return it
}

// FullScan returns an iterator over the whole tree.
func (t *Tree[K, V]) FullScan() *Iterator[K, V] {
	it := &Iterator[K, V]{tree: t, leaf: t.leftmostLeaf()}
	if it.leaf == InvalidNodeID {
		it.done = true
	}
	return it
}

// Next returns the next pair, or false once the range or the chain is
// exhausted.
func (it *Iterator[K, V]) Next() (K, V, bool) {
	for !it.done {
		if it.leaf == InvalidNodeID {
			it.done = true
			break
		}
		l := it.tree.leaf(it.leaf)
		if it.slot >= len(l.keys) {
			it.leaf, it.slot = l.next, 0
			continue
		}
		k, v := l.keys[it.slot], l.values[it.slot]
		if it.bounded && it.tree.keyOrder(k, it.upper) > 0 {
			it.done = true
			break
		}
		it.slot++
		return k, v, true
	}
	var zeroK K
	var zeroV V
	return zeroK, zeroV, false
}

func (it *Iterator[K, V]) seq() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for k, v, ok := it.Next(); ok; k, v, ok = it.Next() {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Ascend yields the pairs with lower <= key <= upper in key order.
func (t *Tree[K, V]) Ascend(lower, upper K) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		t.NewIterator(lower, upper).seq()(yield)
	}
}

// AscendFrom yields the pairs with key >= lower in key order.
func (t *Tree[K, V]) AscendFrom(lower K) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		t.IteratorFrom(lower).seq()(yield)
	}
}

// All yields every pair in key order.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		t.FullScan().seq()(yield)
	}
}

// Range returns the values of all keys in [lower, upper], ordered by key.
// An empty tree, an inverted range or a lower bound above every key all
// produce an empty result.
func (t *Tree[K, V]) Range(lower, upper K) []V {
	var values []V
	for _, v := range t.Ascend(lower, upper) {
		values = append(values, v)
	}
	return values
}

// Keys returns every key in order.
func (t *Tree[K, V]) Keys() []K {
	keys := make([]K, 0, t.size)
	for k := range t.All() {
		keys = append(keys, k)
	}
	return keys
}
