package bptree

import (
	"slices"

	"go.uber.org/zap"
)

// Insert stores value under key. An existing key has its value replaced in
// place; the structure and Len are left unchanged in that case.
func (t *Tree[K, V]) Insert(key K, value V) {
	if t.root == InvalidNodeID {
		t.root = t.alloc(&leafNode[K, V]{keys: []K{key}, values: []V{value}})
		t.height = 1
		t.size = 1
		return
	}

	leafID, slot, found, path := t.locate(key)
	leaf := t.leaf(leafID)
	if found {
		leaf.values[slot] = value
		return
	}

	leaf.keys = slices.Insert(leaf.keys, slot, key)
	leaf.values = slices.Insert(leaf.values, slot, value)
	t.size++
	if len(leaf.keys) <= t.capacity {
		return
	}

	separator, rightID := t.splitLeaf(leafID, leaf)
	t.propagateSplit(path, separator, rightID)
}

// splitLeaf moves the upper half of an overflowing leaf into a new right
// sibling and returns the separator for the parent. The separator is a copy
// of the right leaf's first key, which stays in the leaf.
func (t *Tree[K, V]) splitLeaf(id NodeID, leaf *leafNode[K, V]) (K, NodeID) {
	mid := len(leaf.keys) / 2
	right := &leafNode[K, V]{
		keys:   slices.Clone(leaf.keys[mid+1:]),
		values: slices.Clone(leaf.values[mid+1:]),
		next:   leaf.next,
	}
	leaf.keys = slices.Delete(leaf.keys, mid+1, len(leaf.keys))
	leaf.values = slices.Delete(leaf.values, mid+1, len(leaf.values))

	rightID := t.alloc(right)
	leaf.next = rightID

	t.logger.Debug("split leaf",
		nodeField("left", id), nodeField("right", rightID),
		zap.Int("leftKeys", len(leaf.keys)), zap.Int("rightKeys", len(right.keys)),
		zap.Any("separator", right.keys[0]))
	return right.keys[0], rightID
}

// splitInternal moves the keys above the middle into a new right sibling. The
// middle key is removed from both halves and returned for promotion.
func (t *Tree[K, V]) splitInternal(id NodeID, n *internalNode[K]) (K, NodeID) {
	mid := len(n.keys) / 2
	promoted := n.keys[mid]
	right := &internalNode[K]{
		keys:     slices.Clone(n.keys[mid+1:]),
		children: slices.Clone(n.children[mid+1:]),
	}
	n.keys = slices.Delete(n.keys, mid, len(n.keys))
	n.children = slices.Delete(n.children, mid+1, len(n.children))

	rightID := t.alloc(right)
	t.logger.Debug("split internal node",
		nodeField("left", id), nodeField("right", rightID),
		zap.Any("promoted", promoted))
	return promoted, rightID
}

// propagateSplit hands a separator and new right node to successive parents,
// walking the path upward, until a parent absorbs them without overflowing or
// the root itself splits and the tree grows a level.
func (t *Tree[K, V]) propagateSplit(path []pathEntry, separator K, rightID NodeID) {
	for level := len(path) - 1; level >= 0; level-- {
		child := path[level]
		if level == 0 {
			oldRoot := t.root
			t.root = t.alloc(&internalNode[K]{
				keys:     []K{separator},
				children: []NodeID{child.id, rightID},
			})
			t.height++
			t.logger.Debug("grew new root",
				nodeField("root", t.root), nodeField("previous", oldRoot),
				zap.Int("height", t.height))
			return
		}

		parentID := path[level-1].id
		parent := t.internal(parentID)
		parent.keys = slices.Insert(parent.keys, child.pos, separator)
		parent.children = slices.Insert(parent.children, child.pos+1, rightID)
		if len(parent.keys) <= t.capacity {
			return
		}
		separator, rightID = t.splitInternal(parentID, parent)
	}
}
