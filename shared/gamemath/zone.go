package gamemath

import "math"

// ZoneSector returns which of n equal angular sectors the offset (dx, dy)
// from the zone center falls in. Sector 0 starts at angle 0 (the +X axis)
// and sectors advance counter-clockwise in math orientation.
func ZoneSector(dx, dy float64, n int) int {
	if n <= 0 {
		return 0
	}
	theta := math.Atan2(dy, dx)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	s := int(math.Floor(theta/(2*math.Pi)*float64(n))) % n
	if s < 0 {
		s += n
	}
	return s
}
