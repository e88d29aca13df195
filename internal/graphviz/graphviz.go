// Package graphviz renders a bptree.Tree as a Graphviz DOT digraph: internal
// nodes and leaves as records, parent to child edges, and dashed edges along
// the leaf chain.
package graphviz

import (
	"fmt"
	"io"
	"strings"

	"github.com/emicklei/dot"
	"github.com/sushant-115/bptree/core/indexing/bptree"
)

// Render returns the DOT text for t. An empty tree renders as a digraph
// without nodes.
func Render[K, V any](t *bptree.Tree[K, V]) string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "TB")

	nodes := make(map[bptree.NodeID]dot.Node)
	var leaves []bptree.NodeView[K, V]
	var edges [][2]bptree.NodeID

	t.Walk(func(v bptree.NodeView[K, V], _ int) bool {
		n := g.Node(nodeName(v.ID))
		if v.IsLeaf() {
			n.Attr("label", labelAttr(recordLabel("Leaf", v.Keys))).Attr("shape", "record").Attr("color", "blue")
			leaves = append(leaves, v)
		} else {
			n.Attr("label", labelAttr(recordLabel("INode", v.Keys))).Attr("shape", "record").Attr("color", "black")
			for _, child := range v.Children {
				edges = append(edges, [2]bptree.NodeID{v.ID, child})
			}
		}
		nodes[v.ID] = n
		return true
	})

	for _, e := range edges {
		g.Edge(nodes[e[0]], nodes[e[1]])
	}
	for _, l := range leaves {
		if l.Next == bptree.InvalidNodeID {
			continue
		}
		g.Edge(nodes[l.ID], nodes[l.Next]).
			Attr("style", "dashed").
			Attr("color", "gray").
			Attr("label", "next").
			Attr("constraint", "false")
	}
	return g.String()
}

// Write renders t to w.
func Write[K, V any](w io.Writer, t *bptree.Tree[K, V]) error {
	if _, err := io.WriteString(w, Render(t)); err != nil {
		return fmt.Errorf("failed to write dot graph: %w", err)
	}
	return nil
}

func nodeName(id bptree.NodeID) string {
	return fmt.Sprintf("node%d", id)
}

// recordEscaper escapes a key for use as one field of a record label inside a
// quoted DOT string.
var recordEscaper = strings.NewReplacer(
	`\`, `\\`, `"`, `\"`,
	"|", `\|`, "{", `\{`, "}", `\}`, "<", `\<`, ">", `\>`,
)

// labelAttr quotes an already escaped record label. It is passed as a
// dot.Literal so the library writes it untouched.
func labelAttr(label string) dot.Literal {
	return dot.Literal(`"` + label + `"`)
}

func recordLabel[K any](kind string, keys []K) string {
	fields := make([]string, 0, len(keys)+1)
	fields = append(fields, kind)
	for _, k := range keys {
		fields = append(fields, recordEscaper.Replace(fmt.Sprint(k)))
	}
	return "{" + strings.Join(fields, " | ") + "}"
}
