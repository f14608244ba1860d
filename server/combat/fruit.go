package combat

import (
	"math"

	"github.com/automoto/dragonsons/config"
	"github.com/automoto/dragonsons/shared/netconfig"
)

// FruitProgress is the per-player fruit bookkeeping.
type FruitProgress struct {
	SameFruitStacks [netconfig.ElementCount]int
	Gains           config.StatBundle // cumulative secondary gains
}

// FruitResult reports what a pickup actually granted. Discarded is the
// part of the same-element gain clamped away by the cap.
type FruitResult struct {
	SameElement bool
	AtkGained   float64
	Discarded   float64
	Secondary   config.StatBundle
}

// ApplyFruitPickup grants a fruit to actor. Same-element fruit adds flat
// attack up to the global cap, with diminishing returns past the stack
// threshold; the stack counter always increments. Other-element fruit adds
// the secondary bundle, each stat clamped to its own cumulative cap.
func ApplyFruitPickup(bal *config.Balance, fruit config.FruitDef, actor *Actor, prog *FruitProgress) FruitResult {
	if !fruit.Element.Valid() {
		return FruitResult{}
	}
	if fruit.Element == actor.Element {
		stacks := prog.SameFruitStacks[fruit.Element]
		mul := 1.0
		if stacks >= bal.SameFruitDiminishStart {
			mul = bal.SameFruitDiminishRate
		}
		gain := math.Round(fruit.SelfAtkFlat * mul)
		granted := 0.0
		if total := math.Min(actor.FruitAtkFlat+gain, bal.SameFruitAtkCap); total > actor.FruitAtkFlat {
			granted = total - actor.FruitAtkFlat
			actor.FruitAtkFlat = total
		}
		prog.SameFruitStacks[fruit.Element] = stacks + 1
		return FruitResult{SameElement: true, AtkGained: granted, Discarded: math.Max(0, gain-granted)}
	}

	g, c := fruit.Other.Grant, fruit.Other.Cap
	var got config.StatBundle
	// Rates stop at 1; only what fits under that counts toward the cap.
	got.CritRatePct = grant(&prog.Gains.CritRatePct, math.Min(g.CritRatePct, 1-actor.Crit), c.CritRatePct)
	got.CritDmg = grant(&prog.Gains.CritDmg, g.CritDmg, c.CritDmg)
	got.DefFlat = grant(&prog.Gains.DefFlat, g.DefFlat, c.DefFlat)
	got.AgiFlat = grant(&prog.Gains.AgiFlat, g.AgiFlat, c.AgiFlat)
	got.DodgePct = grant(&prog.Gains.DodgePct, math.Min(g.DodgePct, 1-actor.Dodge), c.DodgePct)

	actor.Crit = math.Min(1, actor.Crit+got.CritRatePct)
	actor.CritDmg += got.CritDmg
	actor.Def += got.DefFlat
	actor.Agi += got.AgiFlat
	actor.Dodge = math.Min(1, actor.Dodge+got.DodgePct)
	return FruitResult{Secondary: got}
}

// grant adds want to *total without passing limit and returns the amount
// actually added.
func grant(total *float64, want, limit float64) float64 {
	if want <= 0 {
		return 0
	}
	add := math.Max(0, math.Min(want, limit-*total))
	*total += add
	return add
}
