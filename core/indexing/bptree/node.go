package bptree

// NodeID is the slot of a node in the tree's node store. Child links and the
// leaf chain are expressed as NodeIDs, never as pointers.
type NodeID uint32

// InvalidNodeID marks an absent link: the root of an empty tree or the next
// link of the rightmost leaf. Slot 0 of the store is never handed out.
const InvalidNodeID NodeID = 0

// NodeKind tells the two node variants apart.
type NodeKind uint8

const (
	KindInternal NodeKind = iota + 1
	KindLeaf
)

func (k NodeKind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindLeaf:
		return "leaf"
	default:
		return "invalid"
	}
}

// node is the sum type stored in the arena. Only *internalNode and *leafNode
// implement it.
type node interface {
	kind() NodeKind
	numKeys() int
}

// internalNode routes lookups: every key under children[i] is < keys[i] and
// every key under children[i+1] is >= keys[i].
type internalNode[K any] struct {
	keys     []K
	children []NodeID
}

func (n *internalNode[K]) kind() NodeKind { return KindInternal }
func (n *internalNode[K]) numKeys() int   { return len(n.keys) }

// leafNode holds the actual pairs. next does not own the sibling; it only
// threads the leaves together in key order.
type leafNode[K any, V any] struct {
	keys   []K
	values []V
	next   NodeID
}

func (n *leafNode[K, V]) kind() NodeKind { return KindLeaf }
func (n *leafNode[K, V]) numKeys() int   { return len(n.keys) }

func kindOf(n node) NodeKind {
	if n == nil {
		return 0
	}
	return n.kind()
}

// --- Node store ---

func (t *Tree[K, V]) alloc(n node) NodeID {
	if last := len(t.free) - 1; last >= 0 {
		id := t.free[last]
		t.free = t.free[:last]
		t.nodes[id] = n
		return id
	}
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree[K, V]) release(id NodeID) {
	t.nodes[id] = nil
	t.free = append(t.free, id)
}

func (t *Tree[K, V]) lookup(id NodeID) node {
	if id == InvalidNodeID || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

func (t *Tree[K, V]) leaf(id NodeID) *leafNode[K, V] {
	n := t.lookup(id)
	l, ok := n.(*leafNode[K, V])
	if !ok {
		panic(violation(id, "expected leaf, found %s", kindOf(n)))
	}
	return l
}

func (t *Tree[K, V]) internal(id NodeID) *internalNode[K] {
	n := t.lookup(id)
	in, ok := n.(*internalNode[K])
	if !ok {
		panic(violation(id, "expected internal node, found %s", kindOf(n)))
	}
	return in
}
