// Package storage holds the canonical tables of the repository: the id
// table, the component table, the key table and the unrolled-edge index.
//
// All tables only grow. Nothing is rewritten once an id, a component or a
// key has been handed out, so readers may share published entries freely
// while no writer is active.
package storage

import (
	"github.com/i5heu/typecanon/pkg/key"
	"github.com/i5heu/typecanon/pkg/model"
)

type keyEntry struct {
	enc string
	id  model.ID
}

// Storage is the canonical storage of one repository.
type Storage struct {
	ids        []model.Entry
	components []*model.Component
	vertices   int

	// keys buckets encoded signatures by their xxhash digest.
	keys    map[uint64][]keyEntry
	numKeys int

	unrolled map[model.UnrolledEdge][]model.CompID
}

// New returns empty storage.
func New() *Storage { // A
	return &Storage{
		keys:     make(map[uint64][]keyEntry),
		unrolled: make(map[model.UnrolledEdge][]model.CompID),
	}
}

// NumIDs returns the number of published ids, which is also the next id.
func (s *Storage) NumIDs() int { return len(s.ids) }

// NumComponents returns the number of published components.
func (s *Storage) NumComponents() int { return len(s.components) }

// NumVertices returns the number of published vertices.
func (s *Storage) NumVertices() int { return s.vertices }

// NumKeys returns the number of registered signatures.
func (s *Storage) NumKeys() int { return s.numKeys }

// Has reports whether id has been published.
func (s *Storage) Has(id model.ID) bool {
	return id >= 0 && int(id) < len(s.ids)
}

// Entry returns the id table row of id.
func (s *Storage) Entry(id model.ID) model.Entry {
	if !s.Has(id) {
		model.Violation("storage: id %d not published", id)
	}
	return s.ids[id]
}

// Component returns the published component c.
func (s *Storage) Component(c model.CompID) *model.Component {
	if c < 0 || int(c) >= len(s.components) {
		model.Violation("storage: component %d not published", c)
	}
	return s.components[c]
}

// ComponentOf returns the component holding id and the vertex index of id
// inside it.
func (s *Storage) ComponentOf(id model.ID) (*model.Component, int) {
	e := s.Entry(id)
	return s.components[e.Component], e.VertexIndex()
}

// VertexOf returns the published vertex of id.
func (s *Storage) VertexOf(id model.ID) model.Vertex {
	c, i := s.ComponentOf(id)
	return c.Vertices[i]
}

// LookupKey returns the id registered for an encoded signature.
func (s *Storage) LookupKey(enc string) (model.ID, bool) {
	for _, e := range s.keys[key.Digest(enc)] {
		if e.enc == enc {
			return e.id, true
		}
	}
	return model.NoID, false
}

// PutKey registers enc for id. Rebinding a key to a different id panics;
// registering the same binding twice is a no-op.
func (s *Storage) PutKey(enc string, id model.ID) { // A
	if !s.Has(id) {
		model.Violation("storage: key registered for unpublished id %d", id)
	}
	d := key.Digest(enc)
	for _, e := range s.keys[d] {
		if e.enc == enc {
			if e.id != id {
				model.Violation("storage: key already bound to id %d, not %d", e.id, id)
			}
			return
		}
	}
	s.keys[d] = append(s.keys[d], keyEntry{enc: enc, id: id})
	s.numKeys++
}

// EachKey calls fn for every registered key.
func (s *Storage) EachKey(fn func(enc string, id model.ID)) {
	for _, bucket := range s.keys {
		for _, e := range bucket {
			fn(e.enc, e.id)
		}
	}
}

// Publish appends a component made of vertices. Ids are allocated
// contiguously from NumIDs. Internal edges must stay within vertices and
// external edges must name already published ids. A non-recursive
// component must be a single vertex without internal edges and gets the
// id table index -1.
func (s *Storage) Publish(vertices []model.Vertex, recursive bool) *model.Component { // A
	if len(vertices) == 0 {
		model.Violation("storage: publishing an empty component")
	}
	if !recursive && (len(vertices) != 1 || vertices[0].HasInternalEdge()) {
		model.Violation("storage: non-recursive component must be a single vertex without internal edges")
	}
	first := model.ID(len(s.ids))
	for i, v := range vertices {
		for pos, e := range v.Edges {
			if e.IsInternal() && e.Index() >= len(vertices) {
				model.Violation("storage: vertex %d edge %d leaves the component", i, pos)
			}
			if !e.IsInternal() && e.ID() >= first {
				model.Violation("storage: vertex %d edge %d names unpublished id %d", i, pos, e.ID())
			}
		}
	}

	c := &model.Component{
		ID:        model.CompID(len(s.components)),
		First:     first,
		Recursive: recursive,
		Vertices:  make([]model.Vertex, len(vertices)),
	}
	for i, v := range vertices {
		c.Vertices[i] = v.Publish(c.IDOf(i))
		idx := i
		if !recursive {
			idx = -1
		}
		s.ids = append(s.ids, model.Entry{Component: c.ID, Index: idx})
	}
	c.Unrolled = model.Unroll(first, c.Vertices)

	seen := make(map[model.UnrolledEdge]struct{}, len(c.Unrolled))
	for _, u := range c.Unrolled {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		s.unrolled[u] = append(s.unrolled[u], c.ID)
	}

	s.components = append(s.components, c)
	s.vertices += len(vertices)
	return c
}

// ComponentsWithEdge returns the components whose unrolled index holds u,
// in publication order.
func (s *Storage) ComponentsWithEdge(u model.UnrolledEdge) []model.CompID {
	return s.unrolled[u]
}
