package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i5heu/typecanon/pkg/model"
	"github.com/i5heu/typecanon/pkg/validate"
)

func def(label string, succs ...Ref) Definition {
	return Definition{Label: model.Label(label), Succs: succs}
}

// add submits defs as one SCC made of all of its members.
func add(r *Repository, defs ...Definition) []model.ID {
	members := make([]int, len(defs))
	for i := range members {
		members[i] = i
	}
	out := NewMapping(len(defs))
	r.AddSCC(members, defs, out)
	return out
}

func requireViolation(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		rec := recover()
		require.NotNil(t, rec, "expected a contract violation")
		err, ok := rec.(error)
		require.True(t, ok, "panic value %v is not an error", rec)
		assert.True(t, errors.Is(err, ErrContractViolation), "unexpected panic: %v", err)
	}()
	fn()
}

func TestExactDuplicateReuse(t *testing.T) { // A
	r := New(Options{Check: true})

	a := add(r, def("L"))
	assert.Equal(t, []model.ID{0}, a)

	b := add(r, def("L"))
	assert.Equal(t, []model.ID{0}, b)

	s := r.Stats()
	assert.Equal(t, 1, s.SingletonNew)
	assert.Equal(t, 1, s.SingletonFound)
	assert.Equal(t, 1, s.IDs)
	assert.Equal(t, 1, s.Components)
	assert.Equal(t, 2, s.Insertions)

	entry, c := r.Lookup(0)
	assert.Equal(t, model.Entry{Component: 0, Index: -1}, entry)
	assert.False(t, c.Recursive)
}

func TestSameLabelTwoCycleCollapsesToOneID(t *testing.T) { // A
	r := New(Options{Check: true})
	add(r, def("A"))
	add(r, def("B"))

	// X = L2 -> Y, Y = L2 -> X is the same infinite type as Z = L2 -> Z,
	// so both get one id rather than two
	ids := add(r, def("L2", Local(1)), def("L2", Local(0)))
	assert.Equal(t, []model.ID{2, 2}, ids)

	entry, c := r.Lookup(2)
	assert.Equal(t, 0, entry.Index)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, []model.Edge{model.Internal(0)}, c.Vertices[0].Edges)

	self := add(r, def("L2", Local(0)))
	assert.Equal(t, []model.ID{2}, self)
	assert.Equal(t, 1, r.Stats().ExactFound)
}

func TestDistinctLabelTwoCycleGetsTwoIDs(t *testing.T) { // A
	r := New(Options{Check: true})
	add(r, def("A"))
	add(r, def("B"))

	ids := add(r, def("P", Local(1)), def("Q", Local(0)))
	assert.Equal(t, []model.ID{2, 3}, ids)

	// same cycle, listed the other way round
	again := add(r, def("Q", Local(1)), def("P", Local(0)))
	assert.Equal(t, []model.ID{3, 2}, again)

	s := r.Stats()
	assert.Equal(t, 1, s.ExactFound)
	assert.Equal(t, 4, s.IDs)

	// different cycle length
	longer := add(r, def("P", Local(1)), def("Q", Local(2)), def("P", Local(3)), def("Q", Local(0)))
	assert.Equal(t, []model.ID{2, 3, 2, 3}, longer)
	assert.Equal(t, 1, r.Stats().MinimizedFound)

	// different label
	other := add(r, def("P", Local(1)), def("R", Local(0)))
	assert.Equal(t, []model.ID{4, 5}, other)
}

func TestStructurallyDifferentTargetsStayApart(t *testing.T) { // A
	r := New(Options{Check: true})
	i := add(r, def("int"))[0]
	b := add(r, def("bool"))[0]

	li := add(r, def("list", Canonical(i), Local(1)), def("cons", Local(0)))
	lb := add(r, def("list", Canonical(b), Local(1)), def("cons", Local(0)))
	assert.NotEqual(t, li[0], lb[0])
	assert.NotEqual(t, li[1], lb[1])
}

func TestUnrolledEdgeMakesCandidate(t *testing.T) { // A
	for _, disable := range []bool{false, true} {
		t.Run(fmt.Sprintf("disableProbe=%v", disable), func(t *testing.T) {
			r := New(Options{Check: true, DisableProbe: disable})
			intID := add(r, def("int"))[0]

			// node = {value int; next node}
			node := add(r, def("node", Canonical(intID), Local(0)))[0]
			_, c := r.Lookup(node)
			assert.Contains(t, c.Unrolled, model.UnrolledEdge{Label: "node", Position: 0, Target: intID})
			assert.Contains(t, c.Unrolled, model.UnrolledEdge{Label: "node", Position: 1, Target: node})

			// one unrolling of node written as a plain definition
			unrolled := add(r, def("node", Canonical(intID), Canonical(node)))
			assert.Equal(t, []model.ID{node}, unrolled)

			// a two step unrolling; its int edges make node a candidate
			twice := add(r, def("node", Canonical(intID), Local(1)), def("node", Canonical(intID), Local(0)))
			assert.Equal(t, []model.ID{node, node}, twice)

			s := r.Stats()
			assert.Equal(t, 2, s.IDs)
			assert.GreaterOrEqual(t, s.CandidateGathers, 1)
			if disable {
				assert.Zero(t, s.ProbeAttempts)
				assert.GreaterOrEqual(t, s.Collapsed, 1)
			} else {
				assert.GreaterOrEqual(t, s.ProbeFound, 1)
			}
		})
	}
}

func TestRecursiveSCCCollapsesOntoCandidate(t *testing.T) { // A
	for _, disable := range []bool{false, true} {
		r := New(Options{Check: true, DisableProbe: disable})
		n := add(r, def("pair", Local(0), Local(0)))[0]

		ids := add(r, def("pair", Local(0), Canonical(n)))
		assert.Equal(t, []model.ID{n}, ids)

		ids = add(r, def("pair", Local(1), Canonical(n)), def("pair", Canonical(n), Local(0)))
		assert.Equal(t, []model.ID{n, n}, ids)
		assert.Equal(t, 1, r.Stats().IDs)
	}
}

func TestMixedBatchAcrossCalls(t *testing.T) { // A
	r := New(Options{Check: true})

	// defs: 0 = int, 1 = list(0, 2), 2 = cons(1)
	defs := []Definition{
		def("int"),
		def("list", Local(0), Local(2)),
		def("cons", Local(1)),
	}
	out := NewMapping(len(defs))
	r.AddSCC([]int{0}, defs, out)
	r.AddSCC([]int{1, 2}, defs, out)
	assert.Equal(t, []model.ID{0, 1, 2}, out)

	// the same graph again under a different numbering
	defs2 := []Definition{
		def("cons", Local(2)),
		def("int"),
		def("list", Local(1), Local(0)),
	}
	out2 := NewMapping(len(defs2))
	r.AddSCC([]int{1}, defs2, out2)
	r.AddSCC([]int{2, 0}, defs2, out2)
	assert.Equal(t, []model.ID{2, 0, 1}, out2)
}

func TestContractViolations(t *testing.T) { // A
	r := New(Options{})
	add(r, def("int"))

	requireViolation(t, func() { r.AddSCC(nil, nil, nil) })
	requireViolation(t, func() { add(r, def("ptr", Canonical(7))) })
	requireViolation(t, func() {
		defs := []Definition{def("int"), def("ptr", Local(0))}
		r.AddSCC([]int{1}, defs, NewMapping(2))
	})
	requireViolation(t, func() {
		defs := []Definition{def("ptr", Local(5))}
		r.AddSCC([]int{0}, defs, NewMapping(1))
	})
	requireViolation(t, func() {
		defs := []Definition{def("a", Local(0))}
		r.AddSCC([]int{0, 0}, defs, NewMapping(1))
	})
	requireViolation(t, func() {
		defs := []Definition{def("a")}
		out := []model.ID{0}
		r.AddSCC([]int{0}, defs, out)
	})
	requireViolation(t, func() {
		defs := []Definition{def("a")}
		r.AddSCC([]int{0}, defs, nil)
	})

	// violations are detected before anything is published
	assert.Equal(t, 1, r.Stats().IDs)
}

func TestLookupUnknownIDIsViolation(t *testing.T) { // A
	r := New(Options{})
	requireViolation(t, func() { r.Lookup(0) })
	add(r, def("int"))
	requireViolation(t, func() { r.Lookup(1) })
}

func TestLookupReturnsCopy(t *testing.T) { // A
	r := New(Options{})
	intID := add(r, def("int"))[0]
	node := add(r, def("node", Canonical(intID), Local(0)))[0]

	_, c := r.Lookup(node)
	c.Vertices[0].Label = "changed"
	c.Vertices[0].Edges[1] = model.External(intID)

	_, again := r.Lookup(node)
	assert.Equal(t, model.Label("node"), again.Vertices[0].Label)
	assert.Equal(t, model.Internal(0), again.Vertices[0].Edges[1])
	require.NoError(t, validate.Storage(r.Storage(), 1))
}

func TestCheckRejectsNonSCCBatch(t *testing.T) { // A
	r := New(Options{Check: true})
	defs := []Definition{def("a", Local(1)), def("b")}
	requireViolation(t, func() { r.AddSCC([]int{0, 1}, defs, NewMapping(2)) })
}

type countingObserver struct {
	decisions map[Outcome]int
	minimized int
	ids       int
}

func (o *countingObserver) Decision(outcome Outcome) { o.decisions[outcome]++ }
func (o *countingObserver) Minimized(int, int)        { o.minimized++ }
func (o *countingObserver) Sizes(ids, _, _ int)       { o.ids = ids }

func TestObserverSeesEveryInsertion(t *testing.T) { // A
	obs := &countingObserver{decisions: map[Outcome]int{}}
	r := New(Options{Observer: obs})

	add(r, def("int"))
	add(r, def("int"))
	add(r, def("L", Local(1)), def("L", Local(0)))

	assert.Equal(t, 1, obs.decisions[OutcomeSingletonNew])
	assert.Equal(t, 1, obs.decisions[OutcomeSingletonFound])
	assert.Equal(t, 1, obs.decisions[OutcomePublished])
	assert.Equal(t, 1, obs.minimized)
	assert.Equal(t, 2, obs.ids)
	assert.Equal(t, "repository{ids: 2, components: 2, keys: 2}", r.String())
}
