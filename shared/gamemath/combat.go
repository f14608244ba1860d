package gamemath

import "math"

// HitChance is the probability an attack connects.
// dodge must already be capped by the caller.
func HitChance(baseHit, agiDelta, agiHitCoef, dodge, minHit, maxHit float64) float64 {
	return Clamp(baseHit+agiDelta*agiHitCoef-dodge, minHit, maxHit)
}

// Mitigation returns the fraction of damage that gets through a defense
// value. kDef is the defense at which exactly half is mitigated.
func Mitigation(def, kDef float64) float64 {
	if def <= 0 {
		return 1
	}
	return 1 - def/(def+kDef)
}

// SpeedFactor scales a base rate by agility, capped at limit.
// A non-positive limit disables the cap.
func SpeedFactor(agi, coef, limit float64) float64 {
	f := 1 + agi*coef
	if f <= 0 {
		f = 1
	}
	if limit > 0 && f > limit {
		return limit
	}
	return f
}

// ScaledCooldownMs divides a cooldown by a speed factor.
func ScaledCooldownMs(baseMs int64, factor float64) int64 {
	if factor <= 0 {
		return baseMs
	}
	return int64(math.Round(float64(baseMs) / factor))
}

// FloorDamage floors raw damage to an integer with a minimum of one.
func FloorDamage(raw float64) int {
	if math.IsNaN(raw) || raw < 1 {
		return 1
	}
	return int(math.Floor(raw))
}
