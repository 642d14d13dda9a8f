package repository

import (
	"github.com/i5heu/typecanon/pkg/model"
)

// lockstep maps every vertex of vs onto c by walking both from (root,
// start) in parallel. It is only called after vs rooted at root and c
// rooted at start produced the same signature, so any disagreement is an
// internal inconsistency.
func lockstep(vs []model.Vertex, root int, c *model.Component, start int) []int { // A
	m := make([]int, len(vs))
	for i := range m {
		m[i] = -1
	}
	m[root] = start
	work := []int{root}

	for len(work) > 0 {
		a := work[len(work)-1]
		work = work[:len(work)-1]
		va, vb := vs[a], c.Vertices[m[a]]
		if !va.SameShape(vb) {
			violation("signature hit on component %d, but vertex %d is %v, not %v", c.ID, a, vb, va)
		}
		for pos, e := range va.Edges {
			f := vb.Edges[pos]
			if !e.IsInternal() {
				if f.IsInternal() || f.ID() != e.ID() {
					violation("signature hit on component %d disagrees at vertex %d edge %d", c.ID, a, pos)
				}
				continue
			}
			if !f.IsInternal() {
				violation("signature hit on component %d disagrees at vertex %d edge %d", c.ID, a, pos)
			}
			t := e.Index()
			switch m[t] {
			case -1:
				m[t] = f.Index()
				work = append(work, t)
			case f.Index():
			default:
				violation("signature hit on component %d maps vertex %d twice", c.ID, t)
			}
		}
	}

	for i, b := range m {
		if b < 0 {
			violation("vertex %d is not reachable from the root; the batch is not an SCC", i)
		}
	}
	return m
}

// bisimulate tries to map vs onto the vertices of a published component,
// rooting vertex 0 of vs at start. An external edge of vs must name the id
// its counterpart resolves to; an internal one must meet an internal one.
// Several vertices of vs may land on one vertex of c: the batch need not be
// minimal, c always is.
func bisimulate(vs []model.Vertex, c *model.Component, start int) ([]int, bool) { // A
	m := make([]int, len(vs))
	for i := range m {
		m[i] = -1
	}
	m[0] = start
	work := []int{0}

	for len(work) > 0 {
		a := work[len(work)-1]
		work = work[:len(work)-1]
		va, vb := vs[a], c.Vertices[m[a]]
		if !va.SameShape(vb) {
			return nil, false
		}
		for pos, e := range va.Edges {
			f := vb.Edges[pos]
			if !e.IsInternal() {
				if e.ID() != c.Resolve(f) {
					return nil, false
				}
				continue
			}
			if !f.IsInternal() {
				return nil, false
			}
			t := e.Index()
			switch m[t] {
			case -1:
				m[t] = f.Index()
				work = append(work, t)
			case f.Index():
			default:
				return nil, false
			}
		}
	}

	for _, b := range m {
		if b < 0 {
			return nil, false
		}
	}
	return m, true
}
