// Package scene reads and writes the persisted world format:
//
//	{"version": 1, "bodies": [{"x": 0, "y": 0, "r": 0, "m": 1, "w": 10, "h": 10}]}
//
// One record per body, boxes only. Immovable bodies store the largest
// finite float64 as their mass since JSON has no infinity.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/world"
)

const Version = 1

var (
	ErrUnsupportedShape = errors.New("scene: only box bodies can be saved")
	ErrVersion          = errors.New("scene: unsupported version")
)

type Record struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
	M float64 `json:"m"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type Document struct {
	Version int      `json:"version"`
	Bodies  []Record `json:"bodies"`
}

// Snapshot captures the world's bodies in insertion order.
func Snapshot(w *world.World) (*Document, error) {
	doc := &Document{Version: Version, Bodies: make([]Record, 0, w.Len())}
	for i, b := range w.Bodies() {
		box, ok := b.Shape.(shape.Box)
		if !ok {
			return nil, fmt.Errorf("body %d (%s): %w", i, b.Shape.Kind(), ErrUnsupportedShape)
		}
		m := b.Mass()
		if body.IsInfinite(m) {
			m = math.MaxFloat64
		}
		doc.Bodies = append(doc.Bodies, Record{
			X: b.Position.X,
			Y: b.Position.Y,
			R: b.Rotation,
			M: m,
			W: box.Width(),
			H: box.Height(),
		})
	}
	return doc, nil
}

// Build constructs a fresh world holding one box body per record.
func (d *Document) Build(gravity geom.Vec2, opts ...world.Option) (*world.World, error) {
	if d.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, d.Version)
	}
	w := world.New(gravity, opts...)
	for i, r := range d.Bodies {
		b, err := body.New(shape.NewBox(r.W, r.H), r.M)
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		b.Position = geom.V(r.X, r.Y)
		b.Rotation = r.R
		w.AddBody(b)
	}
	return w, nil
}

func Serialize(w *world.World) ([]byte, error) {
	doc, err := Snapshot(w)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func Deserialize(data []byte, gravity geom.Vec2, opts ...world.Option) (*world.World, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("scene: decode: %w", err)
	}
	return doc.Build(gravity, opts...)
}

// Encode writes the world as indented JSON.
func Encode(out io.Writer, w *world.World) error {
	doc, err := Snapshot(w)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func Decode(in io.Reader, gravity geom.Vec2, opts ...world.Option) (*world.World, error) {
	var doc Document
	if err := json.NewDecoder(in).Decode(&doc); err != nil {
		return nil, fmt.Errorf("scene: decode: %w", err)
	}
	return doc.Build(gravity, opts...)
}
