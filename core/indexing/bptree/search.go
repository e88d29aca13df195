package bptree

import "slices"

// pathEntry is one step of a root-to-leaf descent. pos is the index of id
// within its parent's children, or -1 for the root.
type pathEntry struct {
	id  NodeID
	pos int
}

// locate descends from the root to the leaf responsible for key. slot is the
// key's index in that leaf when found, otherwise the index of the first key
// greater than it. path lists every node visited, root first.
func (t *Tree[K, V]) locate(key K) (leafID NodeID, slot int, found bool, path []pathEntry) {
	if t.root == InvalidNodeID {
		return InvalidNodeID, 0, false, nil
	}

	path = make([]pathEntry, 0, t.height)
	id, pos := t.root, -1
	for {
		path = append(path, pathEntry{id: id, pos: pos})
		switch n := t.lookup(id).(type) {
		case *internalNode[K]:
			pos = t.childIndex(n, key)
			id = n.children[pos]
		case *leafNode[K, V]:
			slot, found = slices.BinarySearchFunc(n.keys, key, t.keyOrder)
			return id, slot, found, path
		default:
			panic(violation(id, "descent reached a %s slot", kindOf(n)))
		}
	}
}

// childIndex picks the child to follow for key. A key equal to a separator
// belongs to the right subtree, whose minimum the separator copies.
func (t *Tree[K, V]) childIndex(n *internalNode[K], key K) int {
	i, found := slices.BinarySearchFunc(n.keys, key, t.keyOrder)
	if found {
		return i + 1
	}
	return i
}

// Search returns the value stored under key.
func (t *Tree[K, V]) Search(key K) (V, bool) {
	leafID, slot, found, _ := t.locate(key)
	if !found {
		var zeroV V
		return zeroV, false
	}
	return t.leaf(leafID).values[slot], true
}

// Contains reports whether key is present.
func (t *Tree[K, V]) Contains(key K) bool {
	_, _, found, _ := t.locate(key)
	return found
}

func (t *Tree[K, V]) leftmostLeaf() NodeID {
	id := t.root
	for id != InvalidNodeID {
		n, ok := t.lookup(id).(*internalNode[K])
		if !ok {
			return id
		}
		id = n.children[0]
	}
	return InvalidNodeID
}

func (t *Tree[K, V]) rightmostLeaf() NodeID {
	id := t.root
	for id != InvalidNodeID {
		n, ok := t.lookup(id).(*internalNode[K])
		if !ok {
			return id
		}
		id = n.children[len(n.children)-1]
	}
	return InvalidNodeID
}

// Min returns the smallest key and its value.
func (t *Tree[K, V]) Min() (K, V, bool) {
	id := t.leftmostLeaf()
	if id == InvalidNodeID {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	l := t.leaf(id)
	return l.keys[0], l.values[0], true
}

// Max returns the largest key and its value.
func (t *Tree[K, V]) Max() (K, V, bool) {
	id := t.rightmostLeaf()
	if id == InvalidNodeID {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	l := t.leaf(id)
	last := len(l.keys) - 1
	return l.keys[last], l.values[last], true
}
