package repository

import (
	"sort"

	"github.com/i5heu/typecanon/pkg/minimize"
	"github.com/i5heu/typecanon/pkg/model"
)

// candidates returns the published components that hold every external
// edge of vs in their unrolled index, ascending. A batch can only collapse
// onto a component whose vertices reproduce all of its external edges, so
// no other component can share a vertex with it.
func (r *Repository) candidates(vs []model.Vertex) []model.CompID { // A
	var set map[model.CompID]struct{}
	for _, v := range vs {
		for pos, e := range v.Edges {
			if e.IsInternal() {
				continue
			}
			found := r.store.ComponentsWithEdge(model.UnrolledEdge{
				Label:    v.Label,
				Position: pos,
				Target:   e.ID(),
			})
			if set == nil {
				set = make(map[model.CompID]struct{}, len(found))
				for _, c := range found {
					set[c] = struct{}{}
				}
			} else {
				keep := make(map[model.CompID]struct{}, len(set))
				for _, c := range found {
					if _, ok := set[c]; ok {
						keep[c] = struct{}{}
					}
				}
				set = keep
			}
			if len(set) == 0 {
				return nil
			}
		}
	}

	out := make([]model.CompID, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// probe tries a direct bisimulation of vs against every vertex of every
// candidate. It only ever finds what minimization would find.
func (r *Repository) probe(vs []model.Vertex, cands []model.CompID) ([]model.ID, bool) {
	r.stats.ProbeAttempts++
	for _, cid := range cands {
		c := r.store.Component(cid)
		for start := range c.Vertices {
			m, ok := bisimulate(vs, c, start)
			if !ok {
				continue
			}
			ids := make([]model.ID, len(vs))
			for i, b := range m {
				ids[i] = c.IDOf(b)
			}
			return ids, true
		}
	}
	return nil, false
}

// probeAllowed reports whether the combined size of the batch and its
// candidates is small enough for the probe.
func (r *Repository) probeAllowed(vs []model.Vertex, cands []model.CompID) bool {
	if r.opts.DisableProbe || len(cands) == 0 {
		return false
	}
	size := len(vs)
	for _, cid := range cands {
		size += r.store.Component(cid).Len()
	}
	return size <= r.opts.ProbeLimit
}

// combined lays out vs followed by every candidate's vertices. Edges into
// candidate components become internal, everything else stays external.
// owner[k] is the published id of combined vertex len(vs)+k.
func (r *Repository) combined(
	vs []model.Vertex,
	cands []model.CompID,
) ([]model.Vertex, []model.ID) {
	offset := make(map[model.CompID]int, len(cands))
	total := len(vs)
	for _, cid := range cands {
		offset[cid] = total
		total += r.store.Component(cid).Len()
	}

	reencode := func(e model.Edge, base int) model.Edge {
		if e.IsInternal() {
			return model.Internal(base + e.Index())
		}
		ent := r.store.Entry(e.ID())
		if off, ok := offset[ent.Component]; ok {
			return model.Internal(off + ent.VertexIndex())
		}
		return e
	}

	out := make([]model.Vertex, 0, total)
	owner := make([]model.ID, 0, total-len(vs))
	add := func(v model.Vertex, base int) {
		edges := make([]model.Edge, len(v.Edges))
		for j, e := range v.Edges {
			edges[j] = reencode(e, base)
		}
		out = append(out, model.NewVertex(model.Placeholder(len(out)), v.Label, edges))
	}
	for _, v := range vs {
		add(v, 0)
	}
	for _, cid := range cands {
		c := r.store.Component(cid)
		for i, v := range c.Vertices {
			add(v, offset[cid])
			owner = append(owner, c.IDOf(i))
		}
	}
	return out, owner
}

// reduction is the outcome of minimizing a batch against its candidates.
type reduction struct {
	// ids holds the published id of every batch vertex that collapsed onto
	// a candidate vertex, NoID elsewhere.
	ids []model.ID

	// block maps every remaining batch vertex to its vertex in mini.
	block []int

	// mini is the minimized set of genuinely new vertices.
	mini []model.Vertex
}

// reduce runs the minimizer over the batch and its candidates.
func (r *Repository) reduce(vs []model.Vertex, cands []model.CompID) reduction { // A
	all, owner := r.combined(vs, cands)
	p := minimize.Minimize(all)
	n := len(vs)

	r.stats.Minimizations++
	if r.opts.Observer != nil {
		r.opts.Observer.Minimized(len(all), p.NumBlocks())
	}
	r.log.Debug("minimized batch",
		keySize, n,
		keyCandidates, len(cands),
		keyCombined, len(all),
		keyBlocks, p.NumBlocks(),
	)

	// published vertices are pairwise distinct, so a block holds at most
	// one of them
	old := make([]model.ID, p.NumBlocks())
	for b := range old {
		old[b] = model.NoID
		for _, v := range p.Members(b) {
			if v < n {
				continue
			}
			if old[b] != model.NoID {
				violation("published ids %d and %d are bisimilar", old[b], owner[v-n])
			}
			old[b] = owner[v-n]
		}
	}

	red := reduction{ids: make([]model.ID, n), block: make([]int, n)}
	compact := make(map[int]int)
	var reps []int
	for i := 0; i < n; i++ {
		b := p.BlockOf(i)
		red.ids[i] = old[b]
		red.block[i] = -1
		if old[b] != model.NoID {
			continue
		}
		k, ok := compact[b]
		if !ok {
			k = len(reps)
			compact[b] = k
			reps = append(reps, i)
		}
		red.block[i] = k
	}

	red.mini = make([]model.Vertex, len(reps))
	for k, rep := range reps {
		v := all[rep]
		edges := make([]model.Edge, len(v.Edges))
		for j, e := range v.Edges {
			switch {
			case !e.IsInternal():
				edges[j] = e
			case old[p.BlockOf(e.Index())] != model.NoID:
				edges[j] = model.External(old[p.BlockOf(e.Index())])
			default:
				edges[j] = model.Internal(compact[p.BlockOf(e.Index())])
			}
		}
		red.mini[k] = model.NewVertex(model.Placeholder(rep), v.Label, edges)
	}
	return red
}
