package bptree

import (
	"fmt"
	"slices"
	"strings"
)

// NodeView is a read-only copy of one node, handed to diagnostic
// collaborators such as renderers. Changing it does not affect the tree.
type NodeView[K any, V any] struct {
	ID       NodeID
	Kind     NodeKind
	Keys     []K
	Children []NodeID // internal nodes only
	Values   []V      // leaves only
	Next     NodeID   // leaves only; InvalidNodeID for the rightmost leaf
}

// IsLeaf reports whether the view describes a leaf.
func (v NodeView[K, V]) IsLeaf() bool { return v.Kind == KindLeaf }

// RootID returns the root's id, or InvalidNodeID for an empty tree.
func (t *Tree[K, V]) RootID() NodeID { return t.root }

// Node returns a snapshot of the node stored under id.
func (t *Tree[K, V]) Node(id NodeID) (NodeView[K, V], bool) {
	switch n := t.lookup(id).(type) {
	case *internalNode[K]:
		return NodeView[K, V]{
			ID:       id,
			Kind:     KindInternal,
			Keys:     slices.Clone(n.keys),
			Children: slices.Clone(n.children),
		}, true
	case *leafNode[K, V]:
		return NodeView[K, V]{
			ID:     id,
			Kind:   KindLeaf,
			Keys:   slices.Clone(n.keys),
			Values: slices.Clone(n.values),
			Next:   n.next,
		}, true
	default:
		return NodeView[K, V]{}, false
	}
}

// Walk visits every node depth-first, parents before children and children
// left to right. depth is 0 for the root. Returning false from fn stops the
// walk.
func (t *Tree[K, V]) Walk(fn func(view NodeView[K, V], depth int) bool) {
	if t.root == InvalidNodeID {
		return
	}
	t.walk(t.root, 0, fn)
}

func (t *Tree[K, V]) walk(id NodeID, depth int, fn func(NodeView[K, V], int) bool) bool {
	view, ok := t.Node(id)
	if !ok {
		return false
	}
	if !fn(view, depth) {
		return false
	}
	for _, child := range view.Children {
		if !t.walk(child, depth+1, fn) {
			return false
		}
	}
	return true
}

// String provides an indented dump of the tree for debugging.
func (t *Tree[K, V]) String() string {
	if t.root == InvalidNodeID {
		return "BPTree (empty)\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "BPTree (capacity: %d, height: %d, keys: %d)\n", t.capacity, t.height, t.size)
	t.Walk(func(v NodeView[K, V], depth int) bool {
		indent := strings.Repeat("  ", depth)
		if v.IsLeaf() {
			fmt.Fprintf(&b, "%sLeaf %d: %v -> %d\n", indent, v.ID, v.Keys, v.Next)
		} else {
			fmt.Fprintf(&b, "%sINode %d: %v children %v\n", indent, v.ID, v.Keys, v.Children)
		}
		return true
	})
	return b.String()
}
