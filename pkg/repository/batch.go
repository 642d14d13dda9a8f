package repository

import (
	"github.com/i5heu/typecanon/pkg/model"
)

// Ref is one successor reference of a Definition: either another definition
// of the caller's batch or an already published id.
type Ref struct {
	index     int
	id        model.ID
	published bool
}

// Local references definition i of the batch passed to AddSCC.
func Local(i int) Ref { return Ref{index: i, id: model.NoID} }

// Canonical references a published id directly.
func Canonical(id model.ID) Ref { return Ref{index: -1, id: id, published: true} }

// Definition is one caller definition: its label and ordered successors.
type Definition struct {
	Label model.Label
	Succs []Ref
}

// NewMapping returns an output mapping of n unassigned slots.
func NewMapping(n int) []model.ID {
	out := make([]model.ID, n)
	for i := range out {
		out[i] = model.NoID
	}
	return out
}

// buildBatch turns the definitions of one SCC into unpublished vertices.
// References into the SCC become internal edges numbered by position in
// scc; every other reference must already carry a published id.
func (r *Repository) buildBatch(
	scc []int,
	defs []Definition,
	out []model.ID,
) ([]model.Vertex, bool) {
	if len(scc) == 0 {
		violation("empty SCC")
	}
	if len(out) < len(defs) {
		violation("output mapping has %d slots for %d definitions", len(out), len(defs))
	}

	local := make(map[int]int, len(scc))
	for pos, idx := range scc {
		if idx < 0 || idx >= len(defs) {
			violation("SCC member %d outside the %d definitions", idx, len(defs))
		}
		if _, dup := local[idx]; dup {
			violation("SCC member %d listed twice", idx)
		}
		if out[idx] != model.NoID {
			violation("definition %d already mapped to id %d", idx, out[idx])
		}
		local[idx] = pos
	}

	vertices := make([]model.Vertex, len(scc))
	recursive := len(scc) > 1
	for pos, idx := range scc {
		def := defs[idx]
		edges := make([]model.Edge, len(def.Succs))
		for j, ref := range def.Succs {
			edges[j] = r.resolve(idx, j, ref, local, out)
			if edges[j].IsInternal() {
				recursive = true
			}
		}
		vertices[pos] = model.NewVertex(model.Placeholder(idx), def.Label, edges)
	}
	return vertices, recursive
}

func (r *Repository) resolve(
	from, pos int,
	ref Ref,
	local map[int]int,
	out []model.ID,
) model.Edge {
	if ref.published {
		if !r.store.Has(ref.id) {
			violation("definition %d edge %d names unpublished id %d", from, pos, ref.id)
		}
		return model.External(ref.id)
	}
	if ref.index < 0 || ref.index >= len(out) {
		violation("definition %d edge %d references unknown definition %d", from, pos, ref.index)
	}
	if p, ok := local[ref.index]; ok {
		return model.Internal(p)
	}
	id := out[ref.index]
	if id == model.NoID || !r.store.Has(id) {
		violation("definition %d edge %d references unresolved definition %d", from, pos, ref.index)
	}
	return model.External(id)
}
