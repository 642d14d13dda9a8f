// Package scc decomposes a definition graph into strongly connected
// components in the order the repository needs them: every component comes
// after all components it references.
package scc

import "sort"

// Components returns the strongly connected components of the graph with
// nodes 0..n-1 and successor function succs. Components are emitted leaves
// first and the members of each component are sorted ascending.
//
// The walk is Tarjan's algorithm with an explicit call stack, so deep
// definition chains do not grow the goroutine stack.
func Components(n int, succs func(int) []int) [][]int { // A
	const unvisited = -1

	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}

	type frame struct {
		node int
		edge int
	}

	var (
		counter int
		stack   []int
		out     [][]int
	)

	for start := 0; start < n; start++ {
		if index[start] != unvisited {
			continue
		}
		calls := []frame{{node: start}}
		index[start], low[start] = counter, counter
		counter++
		stack = append(stack, start)
		onStack[start] = true

		for len(calls) > 0 {
			f := &calls[len(calls)-1]
			next := succs(f.node)

			if f.edge < len(next) {
				w := next[f.edge]
				f.edge++
				switch {
				case index[w] == unvisited:
					index[w], low[w] = counter, counter
					counter++
					stack = append(stack, w)
					onStack[w] = true
					calls = append(calls, frame{node: w})
				case onStack[w] && index[w] < low[f.node]:
					low[f.node] = index[w]
				}
				continue
			}

			v := f.node
			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				parent := calls[len(calls)-1].node
				if low[v] < low[parent] {
					low[parent] = low[v]
				}
			}
			if low[v] != index[v] {
				continue
			}

			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			sort.Ints(comp)
			out = append(out, comp)
		}
	}
	return out
}

// Recursive reports whether comp is recursive: it has more than one member
// or its single member references itself.
func Recursive(comp []int, succs func(int) []int) bool {
	if len(comp) != 1 {
		return true
	}
	for _, w := range succs(comp[0]) {
		if w == comp[0] {
			return true
		}
	}
	return false
}
