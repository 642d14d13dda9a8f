// Package key builds structural signatures of possibly cyclic vertex
// subgraphs. Signatures drive hash-consing: two subgraphs traversed from
// corresponding roots are equivalent iff their signatures are equal.
package key

import (
	"strconv"
	"strings"

	"github.com/i5heu/typecanon/pkg/model"
)

// Key is a structural signature: either a Path or a Node.
type Key interface {
	isKey()
	String() string
}

// Path references a vertex that was already visited. Steps are the edge
// positions taken from the root to the first visit of that vertex.
type Path struct {
	Steps []int
}

// Edge is one successor inside a Node. Nested is nil for an external edge,
// in which case External holds the canonical id.
type Edge struct {
	External model.ID
	Nested   Key
}

// Node is a freshly visited vertex.
type Node struct {
	Label model.Label
	Edges []Edge
}

func (Path) isKey() {}
func (Node) isKey() {}

func (p Path) String() string {
	parts := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		parts[i] = strconv.Itoa(s)
	}
	return "^[" + strings.Join(parts, ".") + "]"
}

func (n Node) String() string {
	var b strings.Builder
	b.WriteString(string(n.Label))
	b.WriteByte('(')
	for i, e := range n.Edges {
		if i > 0 {
			b.WriteByte(',')
		}
		if e.Nested == nil {
			b.WriteString(strconv.Itoa(int(e.External)))
			continue
		}
		b.WriteString(e.Nested.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Signature returns the signature of the subgraph of vertices reachable
// from root. Internal edges are followed; external edges are recorded by id.
// The traversal is a depth-first walk in edge order and its cost is linear
// in the number of reachable vertices.
func Signature(vertices []model.Vertex, root int) Key { // A
	seen := make(map[int][]int, len(vertices))
	return signature(vertices, root, nil, seen)
}

// signature threads seen, which maps every visited index to the path of its
// first visit. A revisit yields a Path and stops the recursion there.
func signature(
	vertices []model.Vertex,
	at int,
	path []int,
	seen map[int][]int,
) Key {
	if first, ok := seen[at]; ok {
		return Path{Steps: first}
	}
	own := make([]int, len(path))
	copy(own, path)
	seen[at] = own

	v := vertices[at]
	n := Node{Label: v.Label, Edges: make([]Edge, len(v.Edges))}
	for pos, e := range v.Edges {
		if !e.IsInternal() {
			n.Edges[pos] = Edge{External: e.ID()}
			continue
		}
		n.Edges[pos] = Edge{
			External: model.NoID,
			Nested:   signature(vertices, e.Index(), append(own, pos), seen),
		}
	}
	return n
}

// Equal reports structural equality of two keys.
func Equal(a, b Key) bool {
	return Encode(a) == Encode(b)
}

// Fingerprint is Encode(Signature(vertices, root)).
func Fingerprint(vertices []model.Vertex, root int) string {
	return Encode(Signature(vertices, root))
}
