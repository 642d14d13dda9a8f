// Package testutil holds generators and a brute-force bisimulation oracle
// shared by the package tests.
package testutil

import (
	"flag"
	"testing"

	"pgregory.net/rapid"

	"github.com/i5heu/typecanon/pkg/model"
)

var RunLong = flag.Bool("long", false, "run long/heavy tests")

func RequireLong(t *testing.T) {
	t.Helper()
	if !*RunLong {
		t.Skip("skipping long test (use -long to enable)")
	}
}

func IsLongEnabled() bool {
	return *RunLong
}

// Graph is a caller-side definition graph: definition i has Labels[i] and
// successors Succs[i], all indices into the graph.
type Graph struct {
	Labels []model.Label
	Succs  [][]int
}

// Len returns the number of definitions.
func (g Graph) Len() int { return len(g.Labels) }

// Vertices returns the graph as a vertex set with only internal edges.
func (g Graph) Vertices() []model.Vertex {
	vs := make([]model.Vertex, g.Len())
	for i := range vs {
		edges := make([]model.Edge, len(g.Succs[i]))
		for j, s := range g.Succs[i] {
			edges[j] = model.Internal(s)
		}
		vs[i] = model.NewVertex(model.Placeholder(i), g.Labels[i], edges)
	}
	return vs
}

// Bisimilar computes the greatest bisimulation of vs as a relation matrix
// by naive pairwise refinement. External ids are equal only to themselves.
func Bisimilar(vs []model.Vertex) [][]bool { // A
	n := len(vs)
	rel := make([][]bool, n)
	for i := range rel {
		rel[i] = make([]bool, n)
		for j := range rel[i] {
			rel[i][j] = vs[i].SameShape(vs[j])
		}
	}
	for changed := true; changed; {
		changed = false
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if !rel[i][j] {
					continue
				}
				for pos := range vs[i].Edges {
					a, b := vs[i].Edges[pos], vs[j].Edges[pos]
					ok := false
					switch {
					case a.IsInternal() && b.IsInternal():
						ok = rel[a.Index()][b.Index()]
					case !a.IsInternal() && !b.IsInternal():
						ok = a == b
					}
					if !ok {
						rel[i][j] = false
						changed = true
						break
					}
				}
			}
		}
	}
	return rel
}

var labels = []model.Label{"A", "B", "C"}

// RandomVertices draws up to maxN vertices whose internal edges stay in
// range and whose external edges name ids below maxExternal.
func RandomVertices(t *rapid.T, maxN int, maxExternal int) []model.Vertex {
	n := rapid.IntRange(1, maxN).Draw(t, "n")
	vs := make([]model.Vertex, n)
	for i := range vs {
		arity := rapid.IntRange(0, 2).Draw(t, "arity")
		edges := make([]model.Edge, arity)
		for j := range edges {
			if maxExternal == 0 || rapid.Bool().Draw(t, "internal") {
				edges[j] = model.Internal(rapid.IntRange(0, n-1).Draw(t, "target"))
			} else {
				edges[j] = model.External(model.ID(rapid.IntRange(0, maxExternal-1).Draw(t, "external")))
			}
		}
		vs[i] = model.NewVertex(model.Placeholder(i), rapid.SampledFrom(labels).Draw(t, "label"), edges)
	}
	return vs
}

// RandomGraph draws a definition graph of up to maxN definitions. Small
// label and arity alphabets make structurally equal definitions common.
func RandomGraph(t *rapid.T, maxN int) Graph {
	n := rapid.IntRange(1, maxN).Draw(t, "n")
	g := Graph{Labels: make([]model.Label, n), Succs: make([][]int, n)}
	for i := 0; i < n; i++ {
		g.Labels[i] = rapid.SampledFrom(labels[:2]).Draw(t, "label")
		arity := rapid.IntRange(0, 2).Draw(t, "arity")
		g.Succs[i] = make([]int, arity)
		for j := range g.Succs[i] {
			g.Succs[i][j] = rapid.IntRange(0, n-1).Draw(t, "succ")
		}
	}
	return g
}
