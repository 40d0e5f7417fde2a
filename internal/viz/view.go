package viz

import (
	"math"

	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/solver"
	"github.com/san-kum/rigidsim/internal/world"
)

// Viewport maps world coordinates onto canvas sub-pixels. Both spaces have
// y growing downward, so no flip is needed.
type Viewport struct {
	MinX, MinY float64
	// Scale is sub-pixels per world unit.
	Scale float64
	W, H  int
}

const viewPadding = 0.1

// FitViewport frames every body in w on a cols x rows character canvas.
func FitViewport(w *world.World, cols, rows int) Viewport {
	pw, ph := cols*2, rows*4
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(p geom.Vec2) {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	for _, b := range w.Bodies() {
		switch s := b.Shape.(type) {
		case shape.Box:
			for _, p := range s.Points(b.Position, b.Rotation) {
				grow(p)
			}
		case shape.Circle:
			grow(b.Position.Sub(geom.V(s.Radius, s.Radius)))
			grow(b.Position.Add(geom.V(s.Radius, s.Radius)))
		}
	}
	if math.IsInf(minX, 1) {
		minX, minY, maxX, maxY = -100, -100, 100, 100
	}

	dx, dy := maxX-minX, maxY-minY
	dx, dy = math.Max(dx*(1+2*viewPadding), 1), math.Max(dy*(1+2*viewPadding), 1)
	scale := math.Min(float64(pw)/dx, float64(ph)/dy)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	return Viewport{
		MinX:  cx - float64(pw)/scale/2,
		MinY:  cy - float64(ph)/scale/2,
		Scale: scale,
		W:     pw,
		H:     ph,
	}
}

func (v Viewport) Project(p geom.Vec2) (int, int) {
	return int(math.Round((p.X - v.MinX) * v.Scale)), int(math.Round((p.Y - v.MinY) * v.Scale))
}

// Unproject returns the world point under sub-pixel (x, y).
func (v Viewport) Unproject(x, y int) geom.Vec2 {
	return geom.V(v.MinX+float64(x)/v.Scale, v.MinY+float64(y)/v.Scale)
}

// Width and Height are the framed world extents.
func (v Viewport) Width() float64  { return float64(v.W) / v.Scale }
func (v Viewport) Height() float64 { return float64(v.H) / v.Scale }

// DrawWorld outlines every body and joint of w.
func DrawWorld(c *Canvas, v Viewport, w *world.World) {
	for _, b := range w.Bodies() {
		switch s := b.Shape.(type) {
		case shape.Box:
			corners := s.Points(b.Position, b.Rotation)
			pts := make([][2]int, len(corners))
			for i, p := range corners {
				x, y := v.Project(p)
				pts[i] = [2]int{x, y}
			}
			c.DrawPolygon(pts)
		case shape.Circle:
			cx, cy := v.Project(b.Position)
			c.DrawCircle(cx, cy, int(math.Round(s.Radius*v.Scale)))
			// spoke shows the rotation
			ex, ey := v.Project(b.Position.Add(geom.Rotation(b.Rotation).MulVec(geom.V(s.Radius, 0))))
			c.DrawLine(cx, cy, ex, ey)
		}
	}

	for _, j := range w.Joints() {
		rj, ok := j.(*solver.Joint)
		if !ok {
			continue
		}
		a1, a2 := rj.Anchors()
		x0, y0 := v.Project(rj.Body1.Position)
		x1, y1 := v.Project(a1)
		c.DrawLine(x0, y0, x1, y1)
		x0, y0 = v.Project(rj.Body2.Position)
		x1, y1 = v.Project(a2)
		c.DrawLine(x0, y0, x1, y1)
	}
}
