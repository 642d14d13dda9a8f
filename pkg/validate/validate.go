// Package validate holds deep invariant checks over canonical storage and
// over caller batches. The checks are debug and test instrumentation; the
// repository only runs them when asked to.
package validate

import (
	"errors"
	"fmt"

	"github.com/i5heu/typecanon/pkg/key"
	"github.com/i5heu/typecanon/pkg/minimize"
	"github.com/i5heu/typecanon/pkg/model"
	"github.com/i5heu/typecanon/pkg/scc"
	"github.com/i5heu/typecanon/pkg/storage"
	workerpool "github.com/i5heu/typecanon/pkg/workerPool"
)

var (
	ErrTableSize    = errors.New("validate: table sizes disagree")
	ErrIDTable      = errors.New("validate: id table entry broken")
	ErrEdge         = errors.New("validate: edge out of range")
	ErrShape        = errors.New("validate: component shape broken")
	ErrNotMinimal   = errors.New("validate: component not minimal")
	ErrUnrolled     = errors.New("validate: unrolled index broken")
	ErrKey          = errors.New("validate: key table broken")
	ErrNotSCC       = errors.New("validate: batch is not a strongly connected component")
	ErrUnresolved   = errors.New("validate: batch references an unresolved definition")
	ErrBatchMembers = errors.New("validate: batch members invalid")
)

// Storage checks every invariant of s and returns all findings joined.
// Components are checked in parallel on workers goroutines; workers < 1
// picks one per CPU. s must not be written to while Storage runs.
func Storage(s *storage.Storage, workers int) error { // A
	var errs []error

	total := 0
	for c := 0; c < s.NumComponents(); c++ {
		total += s.Component(model.CompID(c)).Len()
	}
	if total != s.NumIDs() || total != s.NumVertices() {
		errs = append(errs, fmt.Errorf("%w: %d ids, %d vertices, components hold %d",
			ErrTableSize, s.NumIDs(), s.NumVertices(), total))
	}

	for id := model.ID(0); int(id) < s.NumIDs(); id++ {
		if err := checkEntry(s, id); err != nil {
			errs = append(errs, err)
		}
	}

	wp := workerpool.NewWorkerPool(workerpool.Config{WorkerCount: workers})
	defer wp.Close()
	room := wp.CreateRoom()
	for c := 0; c < s.NumComponents(); c++ {
		comp := s.Component(model.CompID(c))
		room.NewTaskWaitForFreeSlot(func() error {
			return checkComponent(s, comp)
		})
	}
	if err := room.Collect(); err != nil {
		errs = append(errs, err)
	}

	s.EachKey(func(enc string, id model.ID) {
		if err := checkKey(s, enc, id); err != nil {
			errs = append(errs, err)
		}
	})

	return errors.Join(errs...)
}

func checkEntry(s *storage.Storage, id model.ID) error {
	e := s.Entry(id)
	if e.Component < 0 || int(e.Component) >= s.NumComponents() {
		return fmt.Errorf("%w: id %d names component %d", ErrIDTable, id, e.Component)
	}
	c := s.Component(e.Component)
	if !c.Contains(id) || c.IDOf(e.VertexIndex()) != id {
		return fmt.Errorf("%w: id %d maps to index %d of component %d starting at %d",
			ErrIDTable, id, e.Index, c.ID, c.First)
	}
	if (e.Index < 0) == c.Recursive {
		return fmt.Errorf("%w: id %d has index %d in a component with recursive=%v",
			ErrIDTable, id, e.Index, c.Recursive)
	}
	v := c.Vertices[e.VertexIndex()]
	if !v.Published() {
		return fmt.Errorf("%w: vertex of id %d was never published", ErrIDTable, id)
	}
	if got, _ := v.ID(); got != id {
		return fmt.Errorf("%w: vertex of id %d carries identity %d", ErrIDTable, id, got)
	}
	return nil
}

// checkComponent runs on a worker and only reads published entries.
func checkComponent(s *storage.Storage, c *model.Component) error { // A
	var errs []error
	n := c.Len()
	internal := make([][]int, n)
	for i, v := range c.Vertices {
		for pos, e := range v.Edges {
			switch {
			case e.IsInternal() && e.Index() >= n:
				errs = append(errs, fmt.Errorf("%w: component %d vertex %d edge %d -> @%d",
					ErrEdge, c.ID, i, pos, e.Index()))
			case e.IsInternal():
				internal[i] = append(internal[i], e.Index())
			case e.ID() >= c.First:
				errs = append(errs, fmt.Errorf("%w: component %d vertex %d edge %d names newer id %d",
					ErrEdge, c.ID, i, pos, e.ID()))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	succs := func(i int) []int { return internal[i] }
	if c.Recursive {
		comps := scc.Components(n, succs)
		if len(comps) != 1 || !scc.Recursive(comps[0], succs) {
			errs = append(errs, fmt.Errorf("%w: recursive component %d splits into %d SCCs",
				ErrShape, c.ID, len(comps)))
		}
	} else if n != 1 || len(internal[0]) != 0 {
		errs = append(errs, fmt.Errorf("%w: non-recursive component %d has %d vertices",
			ErrShape, c.ID, n))
	}

	if p := minimize.Minimize(c.Vertices); p.NumBlocks() != n {
		errs = append(errs, fmt.Errorf("%w: component %d has %d vertices in %d classes",
			ErrNotMinimal, c.ID, n, p.NumBlocks()))
	}

	want := model.Unroll(c.First, c.Vertices)
	if len(want) != len(c.Unrolled) {
		errs = append(errs, fmt.Errorf("%w: component %d records %d of %d edges",
			ErrUnrolled, c.ID, len(c.Unrolled), len(want)))
	} else {
		for i, u := range want {
			if c.Unrolled[i] != u {
				errs = append(errs, fmt.Errorf("%w: component %d edge %d is %v, want %v",
					ErrUnrolled, c.ID, i, c.Unrolled[i], u))
				continue
			}
			if !containsComp(s.ComponentsWithEdge(u), c.ID) {
				errs = append(errs, fmt.Errorf("%w: component %d missing from index of %v",
					ErrUnrolled, c.ID, u))
			}
		}
	}

	for i := range c.Vertices {
		enc := key.Fingerprint(c.Vertices, i)
		if id, ok := s.LookupKey(enc); !ok || id != c.IDOf(i) {
			errs = append(errs, fmt.Errorf("%w: signature of id %d is not registered to it",
				ErrKey, c.IDOf(i)))
		}
	}
	return errors.Join(errs...)
}

func checkKey(s *storage.Storage, enc string, id model.ID) error {
	if _, err := key.Decode(enc); err != nil {
		return fmt.Errorf("%w: key of id %d: %v", ErrKey, id, err)
	}
	if !s.Has(id) {
		return fmt.Errorf("%w: key maps to unpublished id %d", ErrKey, id)
	}
	c, i := s.ComponentOf(id)
	if key.Fingerprint(c.Vertices, i) != enc {
		return fmt.Errorf("%w: key of id %d does not re-derive", ErrKey, id)
	}
	return nil
}

func containsComp(list []model.CompID, c model.CompID) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

// Batch checks the caller precondition of one insertion over a graph of n
// definitions: members are distinct and in range, every successor outside
// members is resolved, and members form exactly one SCC.
func Batch(
	members []int,
	n int,
	succs func(int) []int,
	resolved func(int) bool,
) error {
	if len(members) == 0 {
		return fmt.Errorf("%w: empty", ErrBatchMembers)
	}
	local := make(map[int]int, len(members))
	for i, m := range members {
		if m < 0 || m >= n {
			return fmt.Errorf("%w: member %d outside %d definitions", ErrBatchMembers, m, n)
		}
		if _, dup := local[m]; dup {
			return fmt.Errorf("%w: member %d listed twice", ErrBatchMembers, m)
		}
		local[m] = i
	}

	inner := make([][]int, len(members))
	for i, m := range members {
		for _, w := range succs(m) {
			if j, ok := local[w]; ok {
				inner[i] = append(inner[i], j)
				continue
			}
			if w < 0 || w >= n || !resolved(w) {
				return fmt.Errorf("%w: %d -> %d", ErrUnresolved, m, w)
			}
		}
	}

	comps := scc.Components(len(members), func(i int) []int { return inner[i] })
	if len(comps) != 1 {
		return fmt.Errorf("%w: members split into %d components", ErrNotSCC, len(comps))
	}
	return nil
}
