package scc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/i5heu/typecanon/internal/testutil"
)

func adjacency(edges [][]int) func(int) []int {
	return func(i int) []int { return edges[i] }
}

func TestComponentsLeavesFirst(t *testing.T) { // A
	// 0 -> 1 <-> 2 -> 3, 4 -> 4
	edges := [][]int{{1}, {2}, {1, 3}, {}, {4}}
	got := Components(len(edges), adjacency(edges))

	assert.Equal(t, [][]int{{3}, {1, 2}, {0}, {4}}, got)
	assert.True(t, Recursive([]int{4}, adjacency(edges)))
	assert.False(t, Recursive([]int{3}, adjacency(edges)))
	assert.True(t, Recursive([]int{1, 2}, adjacency(edges)))
}

func TestComponentsDeepChain(t *testing.T) { // A
	const n = 100000
	edges := make([][]int, n)
	for i := 0; i < n-1; i++ {
		edges[i] = []int{i + 1}
	}
	edges[n-1] = []int{0}

	got := Components(n, adjacency(edges))
	assert.Len(t, got, 1)
	assert.Len(t, got[0], n)
}

func TestComponentsProperties(t *testing.T) { // A
	rapid.Check(t, func(t *rapid.T) {
		g := testutil.RandomGraph(t, 10)
		succs := adjacency(g.Succs)
		comps := Components(g.Len(), succs)

		position := make([]int, g.Len())
		seen := 0
		for ci, comp := range comps {
			for _, v := range comp {
				position[v] = ci
				seen++
			}
		}
		if seen != g.Len() {
			t.Fatalf("components cover %d of %d nodes", seen, g.Len())
		}

		reach := reachability(g.Succs)
		for v := 0; v < g.Len(); v++ {
			for _, w := range g.Succs[v] {
				// a successor is in an earlier or the same component
				if position[w] > position[v] {
					t.Fatalf("edge %d->%d goes to a later component", v, w)
				}
			}
			for w := 0; w < g.Len(); w++ {
				same := position[v] == position[w]
				mutual := reach[v][w] && reach[w][v]
				if v != w && same != mutual {
					t.Fatalf("nodes %d,%d: same component %v, mutually reachable %v", v, w, same, mutual)
				}
			}
		}
	})
}

func reachability(succs [][]int) [][]bool {
	n := len(succs)
	r := make([][]bool, n)
	for v := range r {
		r[v] = make([]bool, n)
		queue := append([]int(nil), succs[v]...)
		for len(queue) > 0 {
			w := queue[0]
			queue = queue[1:]
			if r[v][w] {
				continue
			}
			r[v][w] = true
			queue = append(queue, succs[w]...)
		}
	}
	return r
}
