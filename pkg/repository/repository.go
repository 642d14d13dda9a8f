// Package repository implements incremental canonicalization of recursive
// structural type definitions.
//
// Callers submit one strongly connected component (SCC) of their definition
// graph at a time, leaves first. AddSCC assigns every definition a canonical
// id such that two definitions get equal ids iff they are bisimilar. The
// repository never revisits or rewrites a published id.
//
// A Repository is not safe for concurrent use. A full AddSCC call must run
// as one unit under a single writer; readers of published entries may share
// the repository while no AddSCC is in progress.
package repository

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/i5heu/typecanon/pkg/key"
	"github.com/i5heu/typecanon/pkg/model"
	"github.com/i5heu/typecanon/pkg/storage"
	"github.com/i5heu/typecanon/pkg/validate"
)

// DefaultProbeLimit bounds the combined vertex count of a batch and its
// candidates for the isomorphism probe.
const DefaultProbeLimit = 64

// Options configure a Repository. The zero value is usable.
type Options struct {
	// Logger receives debug events. Nil discards them.
	Logger *slog.Logger

	// ProbeLimit is the largest combined size the probe is tried on.
	// Zero means DefaultProbeLimit.
	ProbeLimit int

	// DisableProbe skips the isomorphism probe. Results are identical
	// either way.
	DisableProbe bool

	// Check validates every batch and the whole storage after each
	// insertion. Debug instrumentation; it is slow.
	Check bool

	// CheckWorkers is the worker count of the storage check. Zero picks a
	// default.
	CheckWorkers int

	// Observer, if set, is told about every insertion.
	Observer Observer
}

// Repository is the canonical, deduplicated repository of recursive type
// definitions.
type Repository struct {
	log   *slog.Logger
	opts  Options
	store *storage.Storage
	stats Stats
}

// New returns an empty repository.
func New(opts Options) *Repository { // A
	if opts.ProbeLimit <= 0 {
		opts.ProbeLimit = DefaultProbeLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Repository{
		log:   logger,
		opts:  opts,
		store: storage.New(),
	}
}

// Storage exposes the canonical storage for read-only inspection.
func (r *Repository) Storage() *storage.Storage { return r.store }

// Lookup returns the id table entry of id and a copy of its component.
// An unknown id is a contract violation.
func (r *Repository) Lookup(id model.ID) (model.Entry, *model.Component) {
	e := r.store.Entry(id)
	return e, r.store.Component(e.Component).Clone()
}

// Stats returns a snapshot of the insertion counters.
func (r *Repository) Stats() Stats {
	s := r.stats
	s.IDs = r.store.NumIDs()
	s.Components = r.store.NumComponents()
	s.Vertices = r.store.NumVertices()
	s.Keys = r.store.NumKeys()
	return s
}

// AddSCC canonicalizes the definitions listed in scc and writes their ids to
// out. scc must be one strongly connected component of the graph formed by
// defs. A Local reference to a definition outside scc must already have its
// id in out, and out must hold NoID for every member of scc.
//
// Contract violations panic with an error wrapping ErrContractViolation.
func (r *Repository) AddSCC(scc []int, defs []Definition, out []model.ID) { // A
	vs, recursive := r.buildBatch(scc, defs, out)
	if r.opts.Check {
		r.checkBatch(scc, defs, out)
	}
	r.stats.Insertions++

	ids, outcome := r.insert(vs, recursive)
	r.stats.record(outcome)
	for pos, idx := range scc {
		out[idx] = ids[pos]
	}

	r.log.Debug("scc canonicalized",
		keyOutcome, string(outcome),
		keySize, len(vs),
	)
	if r.opts.Observer != nil {
		r.opts.Observer.Decision(outcome)
		r.opts.Observer.Sizes(r.store.NumIDs(), r.store.NumComponents(), r.store.NumVertices())
	}
	if r.opts.Check {
		if err := validate.Storage(r.store, r.opts.CheckWorkers); err != nil {
			r.log.Error("storage invariant broken", keyError, err)
			violation("storage check after insertion: %v", err)
		}
	}
}

// insert runs the decision tree for one batch.
func (r *Repository) insert(vs []model.Vertex, recursive bool) ([]model.ID, Outcome) { // A
	enc := key.Fingerprint(vs, 0)
	if id, ok := r.store.LookupKey(enc); ok {
		if !recursive {
			return []model.ID{id}, OutcomeSingletonFound
		}
		c, start := r.store.ComponentOf(id)
		return r.mapOnto(vs, lockstep(vs, 0, c, start), c), OutcomeExactFound
	}
	if recursive {
		r.stats.ExactMissed++
	}

	cands := r.candidates(vs)
	if len(cands) > 0 {
		r.stats.CandidateGathers++
		r.stats.Candidates += len(cands)
	}

	if !recursive && len(cands) == 0 {
		c := r.publish(vs, false)
		return []model.ID{c.First}, OutcomeSingletonNew
	}

	if r.probeAllowed(vs, cands) {
		if ids, ok := r.probe(vs, cands); ok {
			return ids, OutcomeProbeFound
		}
	}

	red := r.reduce(vs, cands)
	if len(red.mini) == 0 {
		return red.ids, OutcomeCollapsed
	}

	ids := red.ids
	if len(red.mini) < len(vs) {
		// the minimized form may already be published under another
		// encoding
		if id, ok := r.store.LookupKey(key.Fingerprint(red.mini, 0)); ok {
			c, start := r.store.ComponentOf(id)
			m := lockstep(red.mini, 0, c, start)
			for i, k := range red.block {
				if k >= 0 {
					ids[i] = c.IDOf(m[k])
				}
			}
			return ids, OutcomeMinimizedFound
		}
	}

	miniRecursive := false
	for _, v := range red.mini {
		if v.HasInternalEdge() {
			miniRecursive = true
		}
	}
	c := r.publish(red.mini, miniRecursive)
	for i, k := range red.block {
		if k >= 0 {
			ids[i] = c.IDOf(k)
		}
	}
	if !recursive {
		return ids, OutcomeSingletonNew
	}
	return ids, OutcomePublished
}

func (r *Repository) mapOnto(vs []model.Vertex, m []int, c *model.Component) []model.ID {
	ids := make([]model.ID, len(vs))
	for i, b := range m {
		ids[i] = c.IDOf(b)
	}
	return ids
}

// publish appends vs as a new component and registers one signature per
// vertex.
func (r *Repository) publish(vs []model.Vertex, recursive bool) *model.Component {
	c := r.store.Publish(vs, recursive)
	for i := range c.Vertices {
		r.store.PutKey(key.Fingerprint(c.Vertices, i), c.IDOf(i))
	}
	r.log.Debug("component published",
		keyComponent, int(c.ID),
		keyFirstID, int(c.First),
		keySize, c.Len(),
	)
	return c
}

func (r *Repository) checkBatch(members []int, defs []Definition, out []model.ID) {
	succs := func(i int) []int {
		var next []int
		for _, ref := range defs[i].Succs {
			if !ref.published {
				next = append(next, ref.index)
			}
		}
		return next
	}
	resolved := func(i int) bool { return out[i] != model.NoID }
	if err := validate.Batch(members, len(defs), succs, resolved); err != nil {
		violation("%v", err)
	}
}

// String summarizes the repository size.
func (r *Repository) String() string {
	return fmt.Sprintf("repository{ids: %d, components: %d, keys: %d}",
		r.store.NumIDs(), r.store.NumComponents(), r.store.NumKeys())
}
