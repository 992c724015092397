// Package geom provides the planar vector math used by the arena simulation.
//
// The arena is top-down: X runs east and Y runs north. Heights are the
// rendering layer's concern and never reach the simulation.
package geom

import "math"

// Vec is a 2D vector or point on the arena floor.
type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// V is shorthand for Vec{X: x, Y: y}.
func V(x, y float64) Vec { return Vec{X: x, Y: y} }

func (v Vec) Add(o Vec) Vec        { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec        { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(f float64) Vec  { return Vec{v.X * f, v.Y * f} }
func (v Vec) Dot(o Vec) float64    { return v.X*o.X + v.Y*o.Y }
func (v Vec) LenSq() float64       { return v.X*v.X + v.Y*v.Y }
func (v Vec) Len() float64         { return math.Sqrt(v.LenSq()) }
func (v Vec) DistSq(o Vec) float64 { return v.Sub(o).LenSq() }
func (v Vec) Dist(o Vec) float64   { return v.Sub(o).Len() }
func (v Vec) IsZero() bool         { return v.X == 0 && v.Y == 0 }
func (v Vec) Angle() float64       { return math.Atan2(v.Y, v.X) }

// Normalize returns the unit vector in v's direction, or the zero vector when
// v has no length.
func (v Vec) Normalize() Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{v.X / l, v.Y / l}
}

// ClampLen returns v scaled down so its length does not exceed max.
//
// Precondition: max >= 0.
func (v Vec) ClampLen(max float64) Vec {
	sq := v.LenSq()
	if sq <= max*max || sq == 0 {
		return v
	}
	return v.Scale(max / math.Sqrt(sq))
}

// Rotate returns v rotated counter-clockwise by rad radians.
func (v Vec) Rotate(rad float64) Vec {
	s, c := math.Sincos(rad)
	return Vec{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// FromAngle returns the unit vector at rad radians from +X.
func FromAngle(rad float64) Vec {
	s, c := math.Sincos(rad)
	return Vec{c, s}
}

// RotateTowards turns the unit facing from toward the direction to, by at most
// maxStep radians, and returns the new unit facing.
//
// A zero from is treated as already facing to.
func RotateTowards(from, to Vec, maxStep float64) Vec {
	if to.IsZero() {
		return from
	}
	want := to.Normalize()
	if from.IsZero() {
		return want
	}
	delta := angleDiff(from.Angle(), want.Angle())
	if math.Abs(delta) <= maxStep {
		return want
	}
	if delta < 0 {
		maxStep = -maxStep
	}
	return from.Normalize().Rotate(maxStep)
}

func angleDiff(a, b float64) float64 {
	d := math.Mod(b-a+math.Pi, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	return d - math.Pi
}
