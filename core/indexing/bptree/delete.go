package bptree

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Delete removes key from the tree. It returns ErrKeyNotFound, and leaves the
// tree untouched, when the key is absent.
func (t *Tree[K, V]) Delete(key K) error {
	if t.root == InvalidNodeID {
		return ErrKeyNotFound
	}

	leafID, slot, found, path := t.locate(key)
	if !found {
		return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}

	leaf := t.leaf(leafID)
	leaf.keys = slices.Delete(leaf.keys, slot, slot+1)
	leaf.values = slices.Delete(leaf.values, slot, slot+1)
	t.size--

	if len(path) == 1 {
		// The root has no minimum occupancy; it only disappears once empty.
		if len(leaf.keys) == 0 {
			t.release(leafID)
			t.root = InvalidNodeID
			t.height = 0
			t.logger.Debug("tree emptied")
		}
		return nil
	}
	if len(leaf.keys) >= t.minKeys {
		return nil
	}

	if t.rebalanceLeaf(path) {
		t.rebalanceInternal(path[:len(path)-1])
	}
	return nil
}

// rebalanceLeaf restores the occupancy of the underflowing leaf at the end of
// path: borrow from the right sibling, then the left one, and merge when
// neither can lend. It reports whether a merge removed a child from the parent.
func (t *Tree[K, V]) rebalanceLeaf(path []pathEntry) bool {
	self := path[len(path)-1]
	parentID := path[len(path)-2].id
	parent := t.internal(parentID)
	leaf := t.leaf(self.id)
	pos := self.pos

	var right *leafNode[K, V]
	if pos+1 < len(parent.children) {
		right = t.leaf(parent.children[pos+1])
		if len(right.keys) > t.minKeys {
			leaf.keys = append(leaf.keys, right.keys[0])
			leaf.values = append(leaf.values, right.values[0])
			right.keys = slices.Delete(right.keys, 0, 1)
			right.values = slices.Delete(right.values, 0, 1)
			parent.keys[pos] = right.keys[0]
			t.logger.Debug("leaf borrowed from right sibling",
				nodeField("leaf", self.id), nodeField("sibling", parent.children[pos+1]))
			return false
		}
	}

	var left *leafNode[K, V]
	if pos > 0 {
		left = t.leaf(parent.children[pos-1])
		if last := len(left.keys) - 1; last >= t.minKeys {
			leaf.keys = slices.Insert(leaf.keys, 0, left.keys[last])
			leaf.values = slices.Insert(leaf.values, 0, left.values[last])
			left.keys = slices.Delete(left.keys, last, last+1)
			left.values = slices.Delete(left.values, last, last+1)
			parent.keys[pos-1] = leaf.keys[0]
			t.logger.Debug("leaf borrowed from left sibling",
				nodeField("leaf", self.id), nodeField("sibling", parent.children[pos-1]))
			return false
		}
	}

	switch {
	case left != nil:
		left.keys = append(left.keys, leaf.keys...)
		left.values = append(left.values, leaf.values...)
		left.next = leaf.next
		t.dropChild(parent, pos-1, pos)
		t.release(self.id)
		t.logger.Debug("merged leaf into left sibling",
			nodeField("leaf", self.id), nodeField("into", parent.children[pos-1]))
	case right != nil:
		rightID := parent.children[pos+1]
		leaf.keys = append(leaf.keys, right.keys...)
		leaf.values = append(leaf.values, right.values...)
		leaf.next = right.next
		t.dropChild(parent, pos, pos+1)
		t.release(rightID)
		t.logger.Debug("merged right sibling into leaf",
			nodeField("leaf", self.id), nodeField("sibling", rightID))
	default:
		panic(violation(parentID, "internal node has a single child and no separator"))
	}
	return true
}

// rebalanceInternal walks up path, whose last entry just lost a child to a
// merge, fixing underflows level by level. It stops at the first node that
// still meets the minimum, or at the root, which collapses into its only
// child once it has no separators left.
func (t *Tree[K, V]) rebalanceInternal(path []pathEntry) {
	for level := len(path) - 1; level >= 0; level-- {
		entry := path[level]
		n := t.internal(entry.id)

		if level == 0 {
			if len(n.keys) == 0 {
				t.root = n.children[0]
				t.release(entry.id)
				t.height--
				t.logger.Debug("collapsed root",
					nodeField("root", t.root), zap.Int("height", t.height))
			}
			return
		}
		if len(n.keys) >= t.minKeys {
			return
		}

		parent := t.internal(path[level-1].id)
		if !t.rebalanceInternalNode(parent, entry, n) {
			return
		}
	}
}

// rebalanceInternalNode mirrors rebalanceLeaf one level up. Borrowing rotates
// a key through the parent: the separator comes down into the node and the
// sibling's boundary key goes up in its place, carrying one child across.
// Merging pulls the separator down between the two halves.
func (t *Tree[K, V]) rebalanceInternalNode(parent *internalNode[K], self pathEntry, n *internalNode[K]) bool {
	pos := self.pos

	var right *internalNode[K]
	if pos+1 < len(parent.children) {
		right = t.internal(parent.children[pos+1])
		if len(right.keys) > t.minKeys {
			n.keys = append(n.keys, parent.keys[pos])
			n.children = append(n.children, right.children[0])
			parent.keys[pos] = right.keys[0]
			right.keys = slices.Delete(right.keys, 0, 1)
			right.children = slices.Delete(right.children, 0, 1)
			t.logger.Debug("internal node borrowed from right sibling",
				nodeField("node", self.id), nodeField("sibling", parent.children[pos+1]))
			return false
		}
	}

	var left *internalNode[K]
	if pos > 0 {
		left = t.internal(parent.children[pos-1])
		if last := len(left.keys) - 1; last >= t.minKeys {
			n.keys = slices.Insert(n.keys, 0, parent.keys[pos-1])
			n.children = slices.Insert(n.children, 0, left.children[last+1])
			parent.keys[pos-1] = left.keys[last]
			left.keys = slices.Delete(left.keys, last, last+1)
			left.children = slices.Delete(left.children, last+1, last+2)
			t.logger.Debug("internal node borrowed from left sibling",
				nodeField("node", self.id), nodeField("sibling", parent.children[pos-1]))
			return false
		}
	}

	switch {
	case left != nil:
		left.keys = append(left.keys, parent.keys[pos-1])
		left.keys = append(left.keys, n.keys...)
		left.children = append(left.children, n.children...)
		t.dropChild(parent, pos-1, pos)
		t.release(self.id)
		t.logger.Debug("merged internal node into left sibling",
			nodeField("node", self.id), nodeField("into", parent.children[pos-1]))
	case right != nil:
		rightID := parent.children[pos+1]
		n.keys = append(n.keys, parent.keys[pos])
		n.keys = append(n.keys, right.keys...)
		n.children = append(n.children, right.children...)
		t.dropChild(parent, pos, pos+1)
		t.release(rightID)
		t.logger.Debug("merged right sibling into internal node",
			nodeField("node", self.id), nodeField("sibling", rightID))
	default:
		panic(violation(self.id, "internal node has no siblings below a non-root parent"))
	}
	return true
}

// dropChild removes separator keyIdx and child childIdx from parent.
func (t *Tree[K, V]) dropChild(parent *internalNode[K], keyIdx, childIdx int) {
	parent.keys = slices.Delete(parent.keys, keyIdx, keyIdx+1)
	parent.children = slices.Delete(parent.children, childIdx, childIdx+1)
}
