package tool

import (
	"math"

	"github.com/inamate/whiteboard/internal/geom"
)

// Simplify reduces a polyline with the Ramer-Douglas-Peucker algorithm,
// dropping points closer than tolerance to the chord of their run. The
// first and last points are always kept.
func Simplify(pts []geom.Point, tolerance float64) []geom.Point {
	if len(pts) < 3 || tolerance <= 0 {
		return append([]geom.Point(nil), pts...)
	}
	keep := make([]bool, len(pts))
	keep[0], keep[len(pts)-1] = true, true

	type span struct{ lo, hi int }
	stack := []span{{0, len(pts) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		maxDist, idx := 0.0, -1
		for i := s.lo + 1; i < s.hi; i++ {
			if d := segmentDistance(pts[i], pts[s.lo], pts[s.hi]); d > maxDist {
				maxDist, idx = d, i
			}
		}
		if idx >= 0 && maxDist > tolerance {
			keep[idx] = true
			stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
		}
	}

	out := make([]geom.Point, 0, len(pts))
	for i, p := range pts {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// segmentDistance is the distance from p to the segment a-b.
func segmentDistance(p, a, b geom.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
