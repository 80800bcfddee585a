package model

import "math"

// Router computes the raw curve connecting two boxes. Pads move the
// anchors away from the box edges so arrow tips stay visible.
type Router interface {
	Route(from, to Box, padStart, padEnd float64) CurveInfo
}

// BoxToBox anchors the curve at the midpoints of the sides the two boxes
// face each other with. Control points leave each anchor along the side's
// outward normal at half the anchor distance.
type BoxToBox struct{}

type side struct {
	anchor Vec2
	normal Vec2
}

func sides(b Box, pad float64) [4]side {
	c := b.Center()
	max := b.Max()
	return [4]side{
		{Vec2{c.X, b.Position.Y - pad}, Vec2{0, -1}},
		{Vec2{max.X + pad, c.Y}, Vec2{1, 0}},
		{Vec2{c.X, max.Y + pad}, Vec2{0, 1}},
		{Vec2{b.Position.X - pad, c.Y}, Vec2{-1, 0}},
	}
}

// faces reports whether p lies in front of s.
func (s side) faces(p Vec2) bool {
	d := p.Sub(s.anchor)
	return d.X*s.normal.X+d.Y*s.normal.Y > 0
}

func (BoxToBox) Route(from, to Box, padStart, padEnd float64) CurveInfo {
	starts := sides(from, padStart)
	ends := sides(to, padEnd)

	var best [2]side
	bestDist := math.Inf(1)
	found := false
	for pass := 0; pass < 2 && !found; pass++ {
		for _, s := range starts {
			for _, e := range ends {
				if pass == 0 && (!s.faces(e.anchor) || !e.faces(s.anchor)) {
					continue
				}
				if d := Distance(s.anchor, e.anchor); d < bestDist {
					bestDist, best, found = d, [2]side{s, e}, true
				}
			}
		}
	}

	s, e := best[0], best[1]
	off := bestDist / 2
	c1 := Vec2{X: s.anchor.X + s.normal.X*off, Y: s.anchor.Y + s.normal.Y*off}
	c2 := Vec2{X: e.anchor.X + e.normal.X*off, Y: e.anchor.Y + e.normal.Y*off}
	return CurveInfo{
		SX: s.anchor.X, SY: s.anchor.Y,
		C1X: c1.X, C1Y: c1.Y,
		C2X: c2.X, C2Y: c2.Y,
		EX: e.anchor.X, EY: e.anchor.Y,
		AE: degrees(math.Atan2(e.anchor.Y-c2.Y, e.anchor.X-c2.X)),
		AS: degrees(math.Atan2(s.anchor.Y-c1.Y, s.anchor.X-c1.X)),
	}
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
