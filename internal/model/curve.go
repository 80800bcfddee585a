package model

import "math"

// DefaultArrowThickness is the margin added around an arrow's control
// points when computing its bounding box.
const DefaultArrowThickness = 30

// CurveInfo is a cubic Bézier from (SX,SY) to (EX,EY) with control points
// C1 and C2. AE and AS are the arrow-head angles at the end and the start,
// in degrees.
type CurveInfo struct {
	SX  float64 `json:"sx"`
	SY  float64 `json:"sy"`
	C1X float64 `json:"c1x"`
	C1Y float64 `json:"c1y"`
	C2X float64 `json:"c2x"`
	C2Y float64 `json:"c2y"`
	EX  float64 `json:"ex"`
	EY  float64 `json:"ey"`
	AE  float64 `json:"ae"`
	AS  float64 `json:"as"`
}

func (c CurveInfo) points() [4]Vec2 {
	return [4]Vec2{{c.SX, c.SY}, {c.C1X, c.C1Y}, {c.C2X, c.C2Y}, {c.EX, c.EY}}
}

// relativeTo returns the curve shifted by -origin, keeping the angles.
func (c CurveInfo) relativeTo(origin Vec2) CurveInfo {
	return CurveInfo{
		SX: c.SX - origin.X, SY: c.SY - origin.Y,
		C1X: c.C1X - origin.X, C1Y: c.C1Y - origin.Y,
		C2X: c.C2X - origin.X, C2Y: c.C2Y - origin.Y,
		EX: c.EX - origin.X, EY: c.EY - origin.Y,
		AE: c.AE, AS: c.AS,
	}
}

// ArrowBoundingBox returns the box enclosing the four control points of
// curve, grown by thickness on every side.
func ArrowBoundingBox(curve CurveInfo, thickness float64) (Vec2, Size2) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range curve.points() {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return Vec2{X: minX - thickness, Y: minY - thickness},
		Size2{W: maxX - minX + 2*thickness, H: maxY - minY + 2*thickness}
}

// RecalculateCurve routes a curve between two boxes and re-expresses it in
// the coordinate frame of its own bounding box. The returned position and
// size are the bounding box in the boxes' frame.
func RecalculateCurve(from, to Box, padStart, padEnd float64, router Router) (CurveInfo, Vec2, Size2) {
	if router == nil {
		router = BoxToBox{}
	}
	base := router.Route(from, to, padStart, padEnd)
	pos, size := ArrowBoundingBox(base, DefaultArrowThickness)
	return base.relativeTo(pos), pos, size
}

// CurvePoint is a sample along a curve together with the tangent angle in
// radians at that sample.
type CurvePoint struct {
	Point Vec2
	Angle float64
}

// CurvePoints samples n+1 evenly spaced points (by parameter) along curve.
func CurvePoints(curve CurveInfo, n int) []CurvePoint {
	if n <= 0 {
		n = 100
	}
	out := make([]CurvePoint, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		u := 1 - t
		x := u*u*u*curve.SX + 3*u*u*t*curve.C1X + 3*u*t*t*curve.C2X + t*t*t*curve.EX
		y := u*u*u*curve.SY + 3*u*u*t*curve.C1Y + 3*u*t*t*curve.C2Y + t*t*t*curve.EY
		dx := 3*u*u*(curve.C1X-curve.SX) + 6*u*t*(curve.C2X-curve.C1X) + 3*t*t*(curve.EX-curve.C2X)
		dy := 3*u*u*(curve.C1Y-curve.SY) + 6*u*t*(curve.C2Y-curve.C1Y) + 3*t*t*(curve.EY-curve.C2Y)
		out = append(out, CurvePoint{Point: Vec2{X: x, Y: y}, Angle: math.Atan2(dy, dx)})
	}
	return out
}
