// Package combat resolves attacks and fruit pickups. Everything here is a
// pure function of its inputs plus an injected random source.
package combat

import (
	"github.com/automoto/dragonsons/config"
	"github.com/automoto/dragonsons/shared/gamemath"
	"github.com/automoto/dragonsons/shared/netconfig"
)

// Roller is the random source for hit and crit rolls. *math/rand/v2.Rand
// satisfies it.
type Roller interface {
	Float64() float64
}

// Actor is the combat-relevant view of a player or monster.
type Actor struct {
	ID           string
	Element      netconfig.Element
	ZoneElement  netconfig.Element
	HasZone      bool
	BaseAtk      float64
	FruitAtkFlat float64
	Def          float64
	Crit         float64 // 0..1
	CritDmg      float64 // >= 1
	Agi          float64
	Dodge        float64
}

// Skill is the part of a skill or basic attack the resolver needs.
type Skill struct {
	ID    string
	Power float64
}

// Basic is the plain melee attack.
var Basic = Skill{ID: "basic", Power: 1}

// Outcome describes one resolved attack.
type Outcome struct {
	Damage int
	Hit    bool
	Crit   bool
}

// HitChance returns the clamped probability that attacker hits defender.
func HitChance(bal *config.Balance, attacker, defender *Actor) float64 {
	dodge := defender.Dodge
	if bal.DodgeMax > 0 && dodge > bal.DodgeMax {
		dodge = bal.DodgeMax
	}
	return gamemath.HitChance(bal.BaseHit, attacker.Agi-defender.Agi, bal.AgiHitCoef, dodge, bal.MinHit, bal.MaxHit)
}

// ResolveAttack returns the damage dealt: 0 on a miss, at least 1 on a hit.
func ResolveAttack(bal *config.Balance, matrix config.ElementMatrix, attacker, defender *Actor, skill Skill, rng Roller) int {
	return Resolve(bal, matrix, attacker, defender, skill, rng).Damage
}

// Resolve runs the full attack pipeline: hit roll, zone modifiers,
// effective attack, element multiplier, crit roll, mitigation.
func Resolve(bal *config.Balance, matrix config.ElementMatrix, attacker, defender *Actor, skill Skill, rng Roller) Outcome {
	if rng.Float64() >= HitChance(bal, attacker, defender) {
		return Outcome{}
	}

	zoneAtk := 1.0
	if attacker.HasZone && attacker.ZoneElement == attacker.Element {
		zoneAtk = 1 + bal.ZoneBuffAtkPct
	}
	zoneDef := 1.0
	if defender.HasZone && matrix.IsCounter(defender.ZoneElement, defender.Element) {
		zoneDef = 1 - bal.ZoneDebuffDefPct
	}

	effAtk := (attacker.BaseAtk + attacker.FruitAtkFlat) * zoneAtk * skill.Power
	elemMul := matrix.Multiplier(attacker.Element, defender.Element)

	critChance := attacker.Crit
	if bal.CritMax > 0 && critChance > bal.CritMax {
		critChance = bal.CritMax
	}
	critMul, crit := 1.0, false
	if rng.Float64() < critChance {
		critMul, crit = attacker.CritDmg, true
	}

	mit := gamemath.Mitigation(defender.Def, bal.KDef)
	raw := effAtk * elemMul * critMul * mit * zoneDef
	return Outcome{Damage: gamemath.FloorDamage(raw), Hit: true, Crit: crit}
}

// Mitigate applies only the defense curve to a raw amount, flooring to a
// minimum of one. Used for monster damage and hazards against monsters.
func Mitigate(bal *config.Balance, raw, def float64) int {
	return gamemath.FloorDamage(raw * gamemath.Mitigation(def, bal.KDef))
}
