package collide

import (
	"fmt"

	"github.com/san-kum/rigidsim/internal/geom"
)

// EdgeNumber names one side of a box, 1..4 in Box.Points order. NoEdge is zero.
type EdgeNumber uint8

const (
	NoEdge EdgeNumber = iota
	Edge1
	Edge2
	Edge3
	Edge4
)

// EdgePair records which edges of the two boxes produced a clip vertex.
type EdgePair struct {
	InEdge1  EdgeNumber
	OutEdge1 EdgeNumber
	InEdge2  EdgeNumber
	OutEdge2 EdgeNumber
}

// Swap exchanges the box 1 and box 2 edges.
func (e EdgePair) Swap() EdgePair {
	return EdgePair{
		InEdge1:  e.InEdge2,
		OutEdge1: e.OutEdge2,
		InEdge2:  e.InEdge1,
		OutEdge2: e.OutEdge1,
	}
}

// ContactID identifies a contact across steps. The zero value, NoID, is the
// identity of circle contacts; any two NoIDs compare equal with ==.
type ContactID struct {
	edges    EdgePair
	hasEdges bool
}

var NoID = ContactID{}

func EdgeID(e EdgePair) ContactID {
	return ContactID{edges: e, hasEdges: true}
}

// Edges returns the edge pair and whether the id carries one.
func (id ContactID) Edges() (EdgePair, bool) {
	return id.edges, id.hasEdges
}

func (id ContactID) String() string {
	if !id.hasEdges {
		return "none"
	}
	e := id.edges
	return fmt.Sprintf("edges(%d,%d,%d,%d)", e.InEdge1, e.OutEdge1, e.InEdge2, e.OutEdge2)
}

// Contact is one point of a collision manifold. Normal is a unit vector
// pointing from the first body toward the second; Separation is negative
// while the bodies penetrate. Pn, Pt and Pnb are the accumulated normal,
// tangent and normal-bias impulses kept by the solver.
type Contact struct {
	Separation float64
	Position   geom.Vec2
	Normal     geom.Vec2
	ID         ContactID

	Pn  float64
	Pt  float64
	Pnb float64
}
