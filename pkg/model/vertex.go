// Package model defines the core data types of the canonical type
// repository: vertices, edges, components and id table entries.
package model

import (
	"strconv"
)

// ID is a canonical identifier. Two definitions are structurally equal iff
// their IDs are equal.
type ID int

// NoID marks an unassigned slot in a caller mapping.
const NoID ID = -1

// Label is the structural descriptor of a vertex. The repository never
// looks inside a label; it only compares labels for equality.
type Label string

// Placeholder is the batch-local index a vertex carries before it is
// published.
type Placeholder int

// Vertex represents one type definition: its label, its ordered successor
// edges and its identity.
//
// A vertex starts out with a Placeholder identity. Publish performs the one
// allowed transition to a final ID; nothing else about a published vertex
// may change afterwards.
type Vertex struct {
	// Label distinguishes vertex "colors".
	Label Label

	// Edges are the ordered successors, see Edge for the encoding.
	Edges []Edge

	ident     int
	published bool
}

// NewVertex builds an unpublished vertex for batch index p.
func NewVertex(p Placeholder, label Label, edges []Edge) Vertex { // A
	return Vertex{Label: label, Edges: edges, ident: int(p)}
}

// Placeholder returns the batch index of an unpublished vertex.
func (v Vertex) Placeholder() (Placeholder, bool) {
	if v.published {
		return 0, false
	}
	return Placeholder(v.ident), true
}

// ID returns the canonical id of a published vertex.
func (v Vertex) ID() (ID, bool) {
	if !v.published {
		return NoID, false
	}
	return ID(v.ident), true
}

// Published reports whether Publish has been applied.
func (v Vertex) Published() bool { return v.published }

// Publish returns a copy of v carrying the final id. The edge slice is
// copied so the published vertex shares no memory with its batch form.
// Publishing an already published vertex panics.
func (v Vertex) Publish(id ID) Vertex { // A
	if v.published {
		Violation("model: vertex %d published twice", v.ident)
	}
	if id < 0 {
		Violation("model: cannot publish vertex with id %d", id)
	}
	edges := make([]Edge, len(v.Edges))
	copy(edges, v.Edges)
	return Vertex{Label: v.Label, Edges: edges, ident: int(id), published: true}
}

// HasInternalEdge reports whether any successor is an internal reference.
func (v Vertex) HasInternalEdge() bool {
	for _, e := range v.Edges {
		if e.IsInternal() {
			return true
		}
	}
	return false
}

// SameShape reports whether v and w carry the same label and arity.
func (v Vertex) SameShape(w Vertex) bool {
	return v.Label == w.Label && len(v.Edges) == len(w.Edges)
}

func (v Vertex) String() string { // H
	s := string(v.Label) + "("
	for i, e := range v.Edges {
		if i > 0 {
			s += ","
		}
		s += e.String()
	}
	s += ")"
	if v.published {
		return "#" + strconv.Itoa(v.ident) + ":" + s
	}
	return "?" + strconv.Itoa(v.ident) + ":" + s
}
