package metrics

import (
	"math"

	"github.com/matzehuels/modelgraph/pkg/diagram"
	"github.com/matzehuels/modelgraph/pkg/model"
)

// Segment is a straight line between two points.
type Segment struct {
	A, B model.Position
}

func ccw(a, b, c model.Position) bool {
	return (c.Y-a.Y)*(b.X-a.X) > (b.Y-a.Y)*(c.X-a.X)
}

// SegmentsIntersect reports whether s and t properly cross, using the
// counter-clockwise orientation test on both segments. Collinear and
// touching segments do not count.
func SegmentsIntersect(s, t Segment) bool {
	return ccw(s.A, t.A, t.B) != ccw(s.B, t.A, t.B) &&
		ccw(s.A, s.B, t.A) != ccw(s.A, s.B, t.B)
}

// linesIntersect solves the line/line intersection and reports whether the
// parameters of both segments lie in [0, 1].
func linesIntersect(s, t Segment) bool {
	den := (t.B.Y-t.A.Y)*(s.B.X-s.A.X) - (t.B.X-t.A.X)*(s.B.Y-s.A.Y)
	if den == 0 {
		return false
	}
	ua := ((t.B.X-t.A.X)*(s.A.Y-t.A.Y) - (t.B.Y-t.A.Y)*(s.A.X-t.A.X)) / den
	ub := ((s.B.X-s.A.X)*(s.A.Y-t.A.Y) - (s.B.Y-s.A.Y)*(s.A.X-t.A.X)) / den
	return ua >= 0 && ua <= 1 && ub >= 0 && ub <= 1
}

// SegmentIntersectsRect reports whether s crosses any of the four sides
// of r.
func SegmentIntersectsRect(s Segment, r diagram.Rect) bool {
	tl := model.Position{X: r.X, Y: r.Y}
	tr := model.Position{X: r.X + r.W, Y: r.Y}
	bl := model.Position{X: r.X, Y: r.Y + r.H}
	br := model.Position{X: r.X + r.W, Y: r.Y + r.H}
	return linesIntersect(s, Segment{tl, tr}) ||
		linesIntersect(s, Segment{tr, br}) ||
		linesIntersect(s, Segment{br, bl}) ||
		linesIntersect(s, Segment{bl, tl})
}

// PointInRect reports whether p lies inside r or on its border.
func PointInRect(p model.Position, r diagram.Rect) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// AngleBetween returns the angle in degrees between the directions of s
// and t, in [0, 180]. Degenerate segments give 0.
func AngleBetween(s, t Segment) float64 {
	ax, ay := s.B.X-s.A.X, s.B.Y-s.A.Y
	bx, by := t.B.X-t.A.X, t.B.Y-t.A.Y
	la, lb := math.Hypot(ax, ay), math.Hypot(bx, by)
	if la == 0 || lb == 0 {
		return 0
	}
	cos := (ax*bx + ay*by) / (la * lb)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}
