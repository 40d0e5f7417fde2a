package collide

import (
	"math"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
)

// Axis selection tolerances: a later axis must beat the current best by a
// relative and an absolute margin, which keeps the normal from flickering
// between nearly tied faces.
const (
	relativeTolerance = 0.95
	absoluteTolerance = 0.01
)

type axis int

const (
	faceAX axis = iota
	faceAY
	faceBX
	faceBY
)

type clipVertex struct {
	v  geom.Vec2
	ep EdgePair
}

// incidentEdge returns the edge of the box (h, pos, rot) most anti-parallel to normal.
func incidentEdge(h, pos geom.Vec2, rot geom.Mat22, normal geom.Vec2) [2]clipVertex {
	n := rot.Transpose().MulVec(normal).Neg()
	var c [2]clipVertex

	if math.Abs(n.X) > math.Abs(n.Y) {
		if n.X > 0 {
			c[0] = clipVertex{geom.V(h.X, -h.Y), EdgePair{InEdge2: Edge3, OutEdge2: Edge4}}
			c[1] = clipVertex{geom.V(h.X, h.Y), EdgePair{InEdge2: Edge4, OutEdge2: Edge1}}
		} else {
			c[0] = clipVertex{geom.V(-h.X, h.Y), EdgePair{InEdge2: Edge1, OutEdge2: Edge2}}
			c[1] = clipVertex{geom.V(-h.X, -h.Y), EdgePair{InEdge2: Edge2, OutEdge2: Edge3}}
		}
	} else {
		if n.Y > 0 {
			c[0] = clipVertex{geom.V(h.X, h.Y), EdgePair{InEdge2: Edge4, OutEdge2: Edge1}}
			c[1] = clipVertex{geom.V(-h.X, h.Y), EdgePair{InEdge2: Edge1, OutEdge2: Edge2}}
		} else {
			c[0] = clipVertex{geom.V(-h.X, -h.Y), EdgePair{InEdge2: Edge2, OutEdge2: Edge3}}
			c[1] = clipVertex{geom.V(h.X, -h.Y), EdgePair{InEdge2: Edge3, OutEdge2: Edge4}}
		}
	}

	c[0].v = pos.Add(rot.MulVec(c[0].v))
	c[1].v = pos.Add(rot.MulVec(c[1].v))
	return c
}

// clipSegment keeps the part of the segment behind the plane dot(normal, x) = offset.
// A vertex created on the plane records clipEdge as the edge it crosses.
func clipSegment(in []clipVertex, normal geom.Vec2, offset float64, clipEdge EdgeNumber) []clipVertex {
	out := make([]clipVertex, 0, 2)

	d0 := normal.Dot(in[0].v) - offset
	d1 := normal.Dot(in[1].v) - offset

	if d0 <= 0 {
		out = append(out, in[0])
	}
	if d1 <= 0 {
		out = append(out, in[1])
	}

	if d0*d1 < 0 {
		t := d0 / (d0 - d1)
		cv := clipVertex{v: in[0].v.Add(in[1].v.Sub(in[0].v).Scale(t))}
		if d0 > 0 {
			cv.ep = in[0].ep
			cv.ep.InEdge1 = clipEdge
			cv.ep.InEdge2 = NoEdge
		} else {
			cv.ep = in[1].ep
			cv.ep.OutEdge1 = clipEdge
			cv.ep.OutEdge2 = NoEdge
		}
		out = append(out, cv)
	}
	return out
}

func boxBox(a, b *body.Body) []Contact {
	ha := a.Shape.(shape.Box).Half()
	hb := b.Shape.(shape.Box).Half()

	posA, posB := a.Position, b.Position
	rotA := geom.Rotation(a.Rotation)
	rotB := geom.Rotation(b.Rotation)
	rotAT := rotA.Transpose()
	rotBT := rotB.Transpose()

	dp := posB.Sub(posA)
	dA := rotAT.MulVec(dp)
	dB := rotBT.MulVec(dp)

	absC := rotAT.Mul(rotB).Abs()
	absCT := absC.Transpose()

	faceA := geom.Abs(dA).Sub(ha).Sub(absC.MulVec(hb))
	if faceA.X > 0 || faceA.Y > 0 {
		return nil
	}
	faceB := geom.Abs(dB).Sub(absCT.MulVec(ha)).Sub(hb)
	if faceB.X > 0 || faceB.Y > 0 {
		return nil
	}

	ax := faceAX
	separation := faceA.X
	normal := orient(rotA.Col1(), dA.X)

	if faceA.Y > relativeTolerance*separation+absoluteTolerance*ha.Y {
		ax = faceAY
		separation = faceA.Y
		normal = orient(rotA.Col2(), dA.Y)
	}
	if faceB.X > relativeTolerance*separation+absoluteTolerance*hb.X {
		ax = faceBX
		separation = faceB.X
		normal = orient(rotB.Col1(), dB.X)
	}
	if faceB.Y > relativeTolerance*separation+absoluteTolerance*hb.Y {
		ax = faceBY
		normal = orient(rotB.Col2(), dB.Y)
	}

	var (
		frontNormal, sideNormal geom.Vec2
		front, negSide, posSide float64
		negEdge, posEdge        EdgeNumber
		incident                [2]clipVertex
	)
	switch ax {
	case faceAX:
		frontNormal = normal
		front = posA.Dot(frontNormal) + ha.X
		sideNormal = rotA.Col2()
		side := posA.Dot(sideNormal)
		negSide, posSide = -side+ha.Y, side+ha.Y
		negEdge, posEdge = Edge3, Edge1
		incident = incidentEdge(hb, posB, rotB, frontNormal)
	case faceAY:
		frontNormal = normal
		front = posA.Dot(frontNormal) + ha.Y
		sideNormal = rotA.Col1()
		side := posA.Dot(sideNormal)
		negSide, posSide = -side+ha.X, side+ha.X
		negEdge, posEdge = Edge2, Edge4
		incident = incidentEdge(hb, posB, rotB, frontNormal)
	case faceBX:
		frontNormal = normal.Neg()
		front = posB.Dot(frontNormal) + hb.X
		sideNormal = rotB.Col2()
		side := posB.Dot(sideNormal)
		negSide, posSide = -side+hb.Y, side+hb.Y
		negEdge, posEdge = Edge3, Edge1
		incident = incidentEdge(ha, posA, rotA, frontNormal)
	case faceBY:
		frontNormal = normal.Neg()
		front = posB.Dot(frontNormal) + hb.Y
		sideNormal = rotB.Col1()
		side := posB.Dot(sideNormal)
		negSide, posSide = -side+hb.X, side+hb.X
		negEdge, posEdge = Edge2, Edge4
		incident = incidentEdge(ha, posA, rotA, frontNormal)
	}

	clip1 := clipSegment(incident[:], sideNormal.Neg(), negSide, negEdge)
	if len(clip1) < 2 {
		return nil
	}
	clip2 := clipSegment(clip1, sideNormal, posSide, posEdge)
	if len(clip2) < 2 {
		return nil
	}

	flip := ax == faceBX || ax == faceBY
	contacts := make([]Contact, 0, 2)
	for _, cv := range clip2 {
		sep := frontNormal.Dot(cv.v) - front
		if sep > 0 {
			continue
		}
		ep := cv.ep
		if flip {
			ep = ep.Swap()
		}
		contacts = append(contacts, Contact{
			Separation: sep,
			Position:   cv.v.Sub(frontNormal.Scale(sep)),
			Normal:     normal,
			ID:         EdgeID(ep),
		})
	}
	return contacts
}

// orient flips dir so it points along the sign of d; d == 0 counts as negative.
func orient(dir geom.Vec2, d float64) geom.Vec2 {
	if d <= 0 {
		return dir.Neg()
	}
	return dir
}
