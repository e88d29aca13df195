package graphviz

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sushant-115/bptree/core/indexing/bptree"
)

func buildTree(t *testing.T, capacity int, keys ...int) *bptree.Tree[int, string] {
	t.Helper()
	tree, err := bptree.NewOrdered[int, string](capacity)
	require.NoError(t, err)
	for _, k := range keys {
		tree.Insert(k, "v")
	}
	return tree
}

func TestRender_EmptyTree(t *testing.T) {
	out := Render(buildTree(t, 2))
	require.Contains(t, out, "digraph")
	require.NotContains(t, out, "->")
	require.NotContains(t, out, "Leaf")
}

func TestRender_SingleLeaf(t *testing.T) {
	out := Render(buildTree(t, 4, 3, 1, 2))
	require.Contains(t, out, "{Leaf | 1 | 2 | 3}")
	require.NotContains(t, out, "INode")
	require.NotContains(t, out, "->")
}

// TestRender_Structure checks that every parent/child link and every leaf
// chain link shows up as an edge.
func TestRender_Structure(t *testing.T) {
	tree := buildTree(t, 2, 5, 15, 20, 25, 30, 35, 40, 45, 55)

	var links, leaves int
	tree.Walk(func(v bptree.NodeView[int, string], _ int) bool {
		if v.IsLeaf() {
			leaves++
		} else {
			links += len(v.Children)
		}
		return true
	})

	out := Render(tree)
	require.Equal(t, links+leaves-1, strings.Count(out, "->"))
	require.Equal(t, leaves-1, strings.Count(out, "dashed"))
	require.Contains(t, out, "constraint")
	require.Contains(t, out, "INode")

	root, ok := tree.Node(tree.RootID())
	require.True(t, ok)
	require.Contains(t, out, recordLabel("INode", root.Keys))
	require.Contains(t, out, "{Leaf | 5 | 15}")
}

// TestRender_EscapesStringKeys renders keys containing record and string
// metacharacters and checks each stays a single field of the quoted label.
func TestRender_EscapesStringKeys(t *testing.T) {
	tree, err := bptree.NewOrdered[string, string](4)
	require.NoError(t, err)
	for _, k := range []string{`a"b|c`, "a|b", "{x}", `back\slash`} {
		tree.Insert(k, "v")
	}

	out := Render(tree)
	require.Contains(t, out, `"{Leaf | a\"b\|c | a\|b | back\\slash | \{x\}}"`)
	require.NotContains(t, out, `\\|`, "a field separator must not follow an escaped backslash")
}

func TestWrite(t *testing.T) {
	tree := buildTree(t, 3, 1, 2, 3, 4)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tree))
	require.Equal(t, Render(tree), buf.String())
}
