package world

import (
	"math"

	"github.com/automoto/dragonsons/components"
	"github.com/automoto/dragonsons/config"
	"github.com/automoto/dragonsons/server/combat"
	"github.com/automoto/dragonsons/shared/gamemath"
	"github.com/automoto/dragonsons/tags"
)

// Pickup reports what HandlePickup consumed.
type Pickup struct {
	Entity components.EntityID
	Kind   components.EntityKind
	Fruit  combat.FruitResult
	ItemID string
}

// HandlePickup consumes at most one fruit or item within pickup radius of
// the player, choosing the lowest entity id when several overlap.
func (w *World) HandlePickup(playerID string) (Pickup, bool) {
	p, ok := w.players[playerID]
	if !ok || !p.Alive() || p.obj == nil {
		return Pickup{}, false
	}
	w.syncPlayerObject(p)
	coll := p.obj.Check(0, 0, tags.ResolvFruit, tags.ResolvItem)
	if coll == nil {
		return Pickup{}, false
	}

	r2 := w.bal.PickupRadius * w.bal.PickupRadius
	var pick components.EntityID
	for _, o := range coll.Objects {
		id, ok := o.Data.(components.EntityID)
		if !ok {
			continue
		}
		entry, ok := w.entry(id)
		if !ok {
			continue
		}
		b := components.Body.Get(entry)
		if b.Kind != components.KindFruit && b.Kind != components.KindItem {
			continue
		}
		if gamemath.Dist2(p.X, p.Y, b.X, b.Y) > r2 {
			continue
		}
		if pick == 0 || id < pick {
			pick = id
		}
	}
	if pick == 0 {
		return Pickup{}, false
	}

	entry, _ := w.entry(pick)
	res := Pickup{Entity: pick, Kind: components.Body.Get(entry).Kind}
	switch res.Kind {
	case components.KindFruit:
		elem := components.Fruit.Get(entry).Element
		if def, ok := w.content.Fruit(elem); ok {
			res.Fruit = combat.ApplyFruitPickup(w.bal, def, &p.Actor, &p.FruitProgress)
		}
	case components.KindItem:
		res.ItemID = components.Item.Get(entry).ItemID
		p.Bag[res.ItemID]++
	}
	w.removeEntity(pick)
	return res, true
}

// DamagePlayer applies amount of damage from an attacker. Invulnerable
// players take nothing; shields absorb first. It returns the damage that
// landed and whether the hit was lethal. Unknown or dead targets are
// ignored.
func (w *World) DamagePlayer(from, to string, amount int, skill string, crit bool, now int64) (int, bool) {
	p, ok := w.players[to]
	if !ok || !p.Alive() || amount <= 0 || p.Invulnerable(now) {
		return 0, false
	}
	dmg := float64(amount)
	if p.ShieldHP > 0 {
		absorbed := math.Min(p.ShieldHP, dmg)
		p.ShieldHP -= absorbed
		dmg -= absorbed
	}
	p.HP = math.Max(0, p.HP-dmg)
	w.emit(Event{Kind: EventHit, From: from, To: to, Skill: skill, Damage: amount, HP: p.HP, Crit: crit})
	if p.Alive() {
		return amount, false
	}
	p.VX, p.VY, p.Casting = 0, 0, nil
	w.emit(Event{Kind: EventKill, From: from, To: to, Skill: skill})
	return amount, true
}

// UseBomb drops a bomb at the player's feet.
func (w *World) UseBomb(playerID string, now int64) (components.EntityID, bool) {
	p, ok := w.players[playerID]
	if !ok || !p.Alive() {
		return 0, false
	}
	return w.placeBomb(p.ID, p.X, p.Y, now), true
}

// UseTrap places a trap at the player's position.
func (w *World) UseTrap(playerID string) (components.EntityID, bool) {
	p, ok := w.players[playerID]
	if !ok || !p.Alive() {
		return 0, false
	}
	return w.placeTrap(p.ID, p.X, p.Y), true
}

// UseBlink moves the player BlinkDistance along its current velocity,
// clamped to the map. A standing player cannot blink.
func (w *World) UseBlink(playerID string) bool {
	p, ok := w.players[playerID]
	if !ok || !p.Alive() {
		return false
	}
	nx, ny := gamemath.Normalize(p.VX, p.VY)
	if nx == 0 && ny == 0 {
		return false
	}
	d := w.bal.BlinkDistance
	p.X, p.Y = w.clampPoint(p.X+nx*d, p.Y+ny*d)
	p.ZoneElement, p.HasZone = w.ZoneElementAt(p.X, p.Y), true
	w.syncPlayerObject(p)
	return true
}

// UseItem applies one owned item and takes it out of the bag. Cooldowns
// are the caller's business.
func (w *World) UseItem(playerID, itemID string, now int64) bool {
	p, ok := w.players[playerID]
	if !ok || !p.Alive() || !p.Owns(itemID) {
		return false
	}
	def, ok := w.content.Item(itemID)
	if !ok {
		return false
	}
	switch def.Type {
	case config.ItemInvulnerable:
		p.InvulnUntil = max(p.InvulnUntil, now+def.DurationMs)
	case config.ItemSpeed:
		mul := def.Multiplier
		if mul <= 0 {
			mul = 1.5
		}
		p.SpeedUntil = now + def.DurationMs
		p.SpeedMul = math.Max(mul, 1)
	case config.ItemHeal:
		p.Heal(def.Amount)
	case config.ItemShield:
		p.ShieldHP += def.Amount
	case config.ItemBomb:
		w.UseBomb(playerID, now)
	case config.ItemTrap:
		w.UseTrap(playerID)
	case config.ItemBlink:
		if !w.UseBlink(playerID) {
			return false
		}
	default:
		return false
	}
	if p.Bag[itemID]--; p.Bag[itemID] <= 0 {
		delete(p.Bag, itemID)
	}
	return true
}

// ApplyEffects puts a cast's status effects on a player.
func (w *World) ApplyEffects(playerID string, fx *config.SkillEffects, now int64) {
	p, ok := w.players[playerID]
	if !ok || !p.Alive() || fx == nil {
		return
	}
	if fx.StunMs > 0 {
		p.StunUntil = max(p.StunUntil, now+fx.StunMs)
		p.Casting = nil
	}
	if fx.RootMs > 0 {
		p.RootUntil = max(p.RootUntil, now+fx.RootMs)
	}
	if fx.SilenceMs > 0 {
		p.SilenceUntil = max(p.SilenceUntil, now+fx.SilenceMs)
		p.Casting = nil
	}
	if fx.SlowMs > 0 && fx.SlowMul > 0 {
		p.SlowUntil = now + fx.SlowMs
		p.SlowMul = math.Min(1, fx.SlowMul)
	}
	if fx.BleedMs > 0 {
		p.BleedUntil, p.BleedDps = now+fx.BleedMs, fx.BleedDps
	}
	if fx.BurnMs > 0 {
		p.BurnUntil, p.BurnDps = now+fx.BurnMs, fx.BurnDps
	}
}
