package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/viz"
	"github.com/san-kum/rigidsim/internal/world"
)

var palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#8888ff"}

func header(sb *strings.Builder, width, height float64) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))
}

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	pw, ph := canvas.PixelSize()
	var sb strings.Builder
	header(&sb, float64(pw)*scale, float64(ph)*scale)
	sb.WriteString(`<g fill="#00ff00">` + "\n")

	dotRadius := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, dotRadius))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// frame maps world points onto an SVG of the given size, keeping the
// aspect ratio. World and SVG both have y growing downward.
type frame struct {
	minX, minY float64
	scale      float64
	offX, offY float64
}

func fit(minX, minY, maxX, maxY float64, width, height int) frame {
	rangeX := math.Max(maxX-minX, 1)
	rangeY := math.Max(maxY-minY, 1)
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	scale := math.Min(float64(width)/rangeX, float64(height)/rangeY)
	return frame{
		minX:  minX,
		minY:  minY,
		scale: scale,
		offX:  (float64(width) - rangeX*scale) / 2,
		offY:  (float64(height) - rangeY*scale) / 2,
	}
}

func (f frame) point(p geom.Vec2) (float64, float64) {
	return f.offX + (p.X-f.minX)*f.scale, f.offY + (p.Y-f.minY)*f.scale
}

// TrajectoryToSVG draws the path of every body through the recorded frames.
func TrajectoryToSVG(frames []sim.Frame, width, height int) string {
	paths := make(map[world.BodyID][]geom.Vec2)
	var order []world.BodyID
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, fr := range frames {
		for _, b := range fr.Bodies {
			if _, ok := paths[b.ID]; !ok {
				order = append(order, b.ID)
			}
			paths[b.ID] = append(paths[b.ID], geom.V(b.X, b.Y))
			minX, maxX = math.Min(minX, b.X), math.Max(maxX, b.X)
			minY, maxY = math.Min(minY, b.Y), math.Max(maxY, b.Y)
		}
	}
	if len(order) == 0 {
		return ""
	}

	f := fit(minX, minY, maxX, maxY, width, height)
	var sb strings.Builder
	header(&sb, float64(width), float64(height))

	for i, id := range order {
		pts := paths[id]
		color := palette[i%len(palette)]
		if len(pts) == 1 {
			x, y := f.point(pts[0])
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2" fill="%s"/>`+"\n", x, y, color))
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path id="body-%d" fill="none" stroke="%s" stroke-width="1.5" d="`, id, color))
		for j, p := range pts {
			x, y := f.point(p)
			if j == 0 {
				sb.WriteString(fmt.Sprintf("M%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString(`"/>` + "\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// WorldToSVG draws the outline of every body in w.
func WorldToSVG(w *world.World, width, height int) string {
	bodies := w.Bodies()
	if len(bodies) == 0 {
		return ""
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range bodies {
		r := b.Bounds().Width / 2
		minX, maxX = math.Min(minX, b.Position.X-r), math.Max(maxX, b.Position.X+r)
		minY, maxY = math.Min(minY, b.Position.Y-r), math.Max(maxY, b.Position.Y+r)
	}

	f := fit(minX, minY, maxX, maxY, width, height)
	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	sb.WriteString(`<g fill="none" stroke-width="1.5">` + "\n")

	for i, b := range bodies {
		color := palette[i%len(palette)]
		if b.Static() {
			color = "#888888"
		}
		switch s := b.Shape.(type) {
		case shape.Box:
			pts := s.Points(b.Position, b.Rotation)
			coords := make([]string, len(pts))
			for j, p := range pts {
				x, y := f.point(p)
				coords[j] = fmt.Sprintf("%.1f,%.1f", x, y)
			}
			sb.WriteString(fmt.Sprintf(`<polygon stroke="%s" points="%s"/>`+"\n", color, strings.Join(coords, " ")))
		case shape.Circle:
			x, y := f.point(b.Position)
			sb.WriteString(fmt.Sprintf(`<circle stroke="%s" cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", color, x, y, s.Radius*f.scale))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
