package model

import "math"

// Vec2 is a point or offset on the canvas plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

// Size2 is a width/height pair.
type Size2 struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Box is an axis-aligned rectangle in canvas coordinates.
type Box struct {
	Position Vec2
	Size     Size2
}

func NewBox(x, y, w, h float64) Box {
	return Box{Position: Vec2{X: x, Y: y}, Size: Size2{W: w, H: h}}
}

func (b Box) Center() Vec2 {
	return Vec2{X: b.Position.X + b.Size.W/2, Y: b.Position.Y + b.Size.H/2}
}

func (b Box) Max() Vec2 {
	return Vec2{X: b.Position.X + b.Size.W, Y: b.Position.Y + b.Size.H}
}

// Distance returns the euclidean distance between two points.
func Distance(a, b Vec2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
