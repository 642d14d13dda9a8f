package model

import (
	"strconv"
)

// Edge is one successor reference. A non-negative value is an external,
// already canonical ID. A negative value is an internal reference to the
// local index -e-1 of the vertex set that contains the edge.
type Edge int

// External encodes a reference to a published id.
func External(id ID) Edge { // H
	if id < 0 {
		Violation("model: external edge to invalid id %d", id)
	}
	return Edge(id)
}

// Internal encodes a reference to local index i.
func Internal(i int) Edge { // H
	if i < 0 {
		Violation("model: internal edge to invalid index %d", i)
	}
	return Edge(-i - 1)
}

// IsInternal reports whether e points into the containing vertex set.
func (e Edge) IsInternal() bool { return e < 0 }

// Index returns the local index of an internal edge.
func (e Edge) Index() int {
	if e >= 0 {
		Violation("model: Index called on external edge %d", int(e))
	}
	return int(-e - 1)
}

// ID returns the canonical id of an external edge.
func (e Edge) ID() ID {
	if e < 0 {
		Violation("model: ID called on internal edge %d", int(e))
	}
	return ID(e)
}

func (e Edge) String() string {
	if e.IsInternal() {
		return "@" + strconv.Itoa(e.Index())
	}
	return strconv.Itoa(int(e))
}
