// Package minimize computes the coarsest bisimulation partition of a vertex
// set by Moore-style partition refinement.
//
// Two vertices end up in one block iff their labels are equal and, for every
// edge position, their successors are the identical external id or lie in
// the same block. External ids are never merged with each other or with an
// internal block.
package minimize

import (
	"encoding/binary"

	"github.com/i5heu/typecanon/pkg/model"
)

// Partition maps every vertex to a block. Blocks are numbered by the first
// vertex that belongs to them, so the representative of a block is its
// smallest member and block order follows vertex order.
type Partition struct {
	block   []int
	members [][]int
}

// NumBlocks returns the number of blocks.
func (p *Partition) NumBlocks() int { return len(p.members) }

// BlockOf returns the block of vertex v.
func (p *Partition) BlockOf(v int) int { return p.block[v] }

// Members returns the vertices of block b in ascending order.
func (p *Partition) Members(b int) []int { return p.members[b] }

// Size returns the number of vertices in block b.
func (p *Partition) Size(b int) int { return len(p.members[b]) }

// Representative returns the smallest member of block b.
func (p *Partition) Representative(b int) int { return p.members[b][0] }

// Len returns the number of partitioned vertices.
func (p *Partition) Len() int { return len(p.block) }

// Minimize partitions vertices. Every internal edge must point inside the
// slice.
func Minimize(vertices []model.Vertex) *Partition { // A
	n := len(vertices)
	for i, v := range vertices {
		for pos, e := range v.Edges {
			if e.IsInternal() && e.Index() >= n {
				model.Violation("minimize: vertex %d edge %d points at %d of %d", i, pos, e.Index(), n)
			}
		}
	}

	buf := make([]byte, 0, 64)
	block, count := relabel(n, func(i int) []byte {
		v := vertices[i]
		buf = buf[:0]
		buf = binary.AppendUvarint(buf, uint64(len(v.Edges)))
		buf = append(buf, v.Label...)
		return buf
	})

	for {
		prev := block
		next, nc := relabel(n, func(i int) []byte {
			buf = buf[:0]
			buf = binary.AppendUvarint(buf, uint64(prev[i]))
			for _, e := range vertices[i].Edges {
				if e.IsInternal() {
					buf = append(buf, 'b')
					buf = binary.AppendUvarint(buf, uint64(prev[e.Index()]))
					continue
				}
				buf = append(buf, 'x')
				buf = binary.AppendUvarint(buf, uint64(e.ID()))
			}
			return buf
		})
		block = next
		// every round refines the previous one, so an unchanged count is
		// the fixpoint
		if nc == count {
			break
		}
		count = nc
	}

	p := &Partition{block: block, members: make([][]int, count)}
	for v, b := range block {
		p.members[b] = append(p.members[b], v)
	}
	return p
}

// relabel groups vertices by the signature returned from sig and numbers
// the groups by first occurrence.
func relabel(n int, sig func(int) []byte) ([]int, int) {
	ids := make(map[string]int, n)
	out := make([]int, n)
	for i := 0; i < n; i++ {
		s := sig(i)
		b, ok := ids[string(s)]
		if !ok {
			b = len(ids)
			ids[string(s)] = b
		}
		out[i] = b
	}
	return out, len(ids)
}
