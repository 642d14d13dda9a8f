package model

// CompID identifies a published component.
type CompID int

// Entry is one row of the id table.
type Entry struct {
	// Component owning the id.
	Component CompID

	// Index within the component, -1 for a non-recursive singleton.
	Index int
}

// VertexIndex returns the position of the id's vertex in its component.
func (e Entry) VertexIndex() int {
	if e.Index < 0 {
		return 0
	}
	return e.Index
}

// UnrolledEdge records one edge of a published vertex: the vertex label,
// the edge position and the final id the edge resolves to.
type UnrolledEdge struct {
	Label    Label
	Position int
	Target   ID
}

// Component is an immutable, published strongly connected set of vertices.
// Vertex i carries id First+i. Internal edges keep the internal encoding and
// refer to indices within the same component.
type Component struct {
	ID        CompID
	First     ID
	Recursive bool
	Vertices  []Vertex

	// Unrolled lists every edge of every vertex, resolved to final ids.
	Unrolled []UnrolledEdge
}

// Len returns the number of vertices.
func (c *Component) Len() int { return len(c.Vertices) }

// IDOf returns the id of vertex i.
func (c *Component) IDOf(i int) ID { return c.First + ID(i) }

// Contains reports whether id belongs to c.
func (c *Component) Contains(id ID) bool {
	return id >= c.First && id < c.First+ID(len(c.Vertices))
}

// Resolve turns an edge of one of c's vertices into a final id.
func (c *Component) Resolve(e Edge) ID {
	if e.IsInternal() {
		return c.IDOf(e.Index())
	}
	return e.ID()
}

// Unroll computes the unrolled-edge triples of vertices whose ids start at
// first.
func Unroll(first ID, vertices []Vertex) []UnrolledEdge { // A
	var out []UnrolledEdge
	for _, v := range vertices {
		for pos, e := range v.Edges {
			target := ID(e)
			if e.IsInternal() {
				target = first + ID(e.Index())
			}
			out = append(out, UnrolledEdge{Label: v.Label, Position: pos, Target: target})
		}
	}
	return out
}

// Clone returns a deep copy of c. Changing the copy leaves c untouched.
func (c *Component) Clone() *Component {
	out := &Component{
		ID:        c.ID,
		First:     c.First,
		Recursive: c.Recursive,
		Vertices:  make([]Vertex, len(c.Vertices)),
		Unrolled:  append([]UnrolledEdge(nil), c.Unrolled...),
	}
	for i, v := range c.Vertices {
		v.Edges = append([]Edge(nil), v.Edges...)
		out.Vertices[i] = v
	}
	return out
}
