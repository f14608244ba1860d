package gamemath

import "math"

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampMagnitude scales (x, y) down to length max when it is longer.
// Shorter vectors are returned unscaled.
func ClampMagnitude(x, y, max float64) (float64, float64) {
	l := math.Hypot(x, y)
	if l <= max || l == 0 {
		return x, y
	}
	s := max / l
	return x * s, y * s
}

// Normalize returns the unit vector of (x, y), or (0, 0) for a zero vector.
func Normalize(x, y float64) (float64, float64) {
	l := math.Hypot(x, y)
	if l == 0 {
		return 0, 0
	}
	return x / l, y / l
}

// Dist2 is the squared distance between two points.
func Dist2(ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	return dx*dx + dy*dy
}

// Finite reports whether every value is neither NaN nor infinite.
func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
