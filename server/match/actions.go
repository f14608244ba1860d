package match

import (
	"math"
	"strconv"

	"github.com/automoto/dragonsons/components"
	"github.com/automoto/dragonsons/config"
	"github.com/automoto/dragonsons/server/combat"
	"github.com/automoto/dragonsons/server/world"
	"github.com/automoto/dragonsons/shared/gamemath"
	"github.com/automoto/dragonsons/shared/netconfig"
)

func (m *Match) playing() bool { return m.phase == netconfig.MatchStatePlaying }

// livePlayer returns a player that may act at now.
func (m *Match) livePlayer(id string, now int64) (*world.Player, bool) {
	p, ok := m.world.Player(id)
	if !ok || !p.Alive() || p.Stunned(now) {
		return nil, false
	}
	return p, true
}

// Move sets a player's velocity intent. The vector is expected to be
// validated already. Dead players keep still.
func (m *Match) Move(playerID string, vx, vy float64) {
	p, ok := m.world.Player(playerID)
	if !ok || !p.Alive() {
		return
	}
	p.VX, p.VY = vx, vy
}

// Pickup collects one nearby ground entity while playing.
func (m *Match) Pickup(playerID string) (world.Pickup, bool) {
	if !m.playing() {
		return world.Pickup{}, false
	}
	return m.world.HandlePickup(playerID)
}

// UseItem applies an owned item while playing.
func (m *Match) UseItem(playerID, itemID string, now int64) bool {
	if !m.playing() {
		return false
	}
	if _, ok := m.livePlayer(playerID, now); !ok {
		return false
	}
	return m.world.UseItem(playerID, itemID, now)
}

// Attack is a basic melee attack on a player id or a monster entity id.
// It reports whether the swing happened; a miss still counts.
func (m *Match) Attack(playerID, target string, now int64) bool {
	if !m.playing() || playerID == target {
		return false
	}
	p, ok := m.livePlayer(playerID, now)
	if !ok {
		return false
	}
	bal := m.bal()

	if t, ok := m.world.Player(target); ok {
		if !t.Alive() || !inRange(p, t.X, t.Y, bal.AttackRange) {
			return false
		}
		p.LastAttackAt = now
		m.strike(p, t, combat.Basic, "", nil, now)
		return true
	}

	id, err := strconv.ParseUint(target, 10, 64)
	if err != nil {
		return false
	}
	_, body, ok := m.world.Monster(components.EntityID(id))
	if !ok || !inRange(p, body.X, body.Y, bal.AttackRange) {
		return false
	}
	p.LastAttackAt = now
	m.world.DamageMonster(components.EntityID(id), p.BaseAtk+p.FruitAtkFlat, p.ID)
	return true
}

// BeginCast starts casting one of the player's active skills. The cast
// resolves on the first tick at or after its cast time.
func (m *Match) BeginCast(playerID, skillID, target string, now int64) bool {
	if !m.playing() {
		return false
	}
	p, ok := m.livePlayer(playerID, now)
	if !ok || p.Silenced(now) || p.Casting != nil || !p.HasSkill(skillID) {
		return false
	}
	def, ok := m.world.Content().Skill(skillID)
	if !ok || def.IsPassive() {
		return false
	}
	p.Casting = &world.Cast{SkillID: skillID, TargetID: target, EndAt: now + def.CastMs}
	return true
}

func (m *Match) resolveCasts(now int64) {
	for _, p := range m.world.Players() {
		c := p.Casting
		if c == nil || now < c.EndAt {
			continue
		}
		p.Casting = nil
		if !p.Alive() || p.Stunned(now) || p.Silenced(now) {
			continue
		}
		def, ok := m.world.Content().Skill(c.SkillID)
		if !ok {
			continue
		}
		m.castSkill(p, def, c.TargetID, now)
	}
}

// castSkill hits the target, everything within the skill radius of it,
// and then chains to nearby players.
func (m *Match) castSkill(caster *world.Player, def *config.SkillDef, targetID string, now int64) {
	bal := m.bal()
	power := def.Power
	if def.Element != nil && caster.HasZone && *def.Element == caster.ZoneElement {
		power *= 1 + bal.SkillZoneBonusPct
	}
	skill := combat.Skill{ID: def.ID, Power: power}

	if id, err := strconv.ParseUint(targetID, 10, 64); err == nil {
		if _, body, ok := m.world.Monster(components.EntityID(id)); ok && inRange(caster, body.X, body.Y, def.Range) {
			m.world.DamageMonster(components.EntityID(id), (caster.BaseAtk+caster.FruitAtkFlat)*power, caster.ID)
		}
		return
	}

	cx, cy := caster.X, caster.Y
	hit := map[string]bool{caster.ID: true}
	var targets []*world.Player
	if t, ok := m.world.Player(targetID); ok && t.ID != caster.ID && t.Alive() && inRange(caster, t.X, t.Y, def.Range) {
		targets = append(targets, t)
		hit[t.ID] = true
		cx, cy = t.X, t.Y
	} else if targetID != "" && def.Radius <= 0 {
		return
	}
	if def.Radius > 0 {
		for _, o := range m.world.Players() {
			if !hit[o.ID] && o.Alive() && gamemath.Dist2(cx, cy, o.X, o.Y) <= def.Radius*def.Radius {
				targets = append(targets, o)
				hit[o.ID] = true
			}
		}
	}
	if len(targets) > 0 && def.ChainCount > 0 {
		last := targets[len(targets)-1]
		for range def.ChainCount {
			next := m.nearestUnhit(last, def.Range, hit)
			if next == nil {
				break
			}
			targets = append(targets, next)
			hit[next.ID] = true
			last = next
		}
	}

	for _, t := range targets {
		m.strike(caster, t, skill, def.ID, def.Effects, now)
	}
}

func (m *Match) nearestUnhit(from *world.Player, reach float64, hit map[string]bool) *world.Player {
	var best *world.Player
	var bestD float64
	for _, o := range m.world.Players() {
		if hit[o.ID] || !o.Alive() {
			continue
		}
		d := gamemath.Dist2(from.X, from.Y, o.X, o.Y)
		if reach > 0 && d > reach*reach {
			continue
		}
		if best == nil || d < bestD {
			best, bestD = o, d
		}
	}
	return best
}

// strike resolves one attack and applies its side effects: lifesteal for
// the attacker, reflected damage from the defender and status effects.
func (m *Match) strike(a, d *world.Player, skill combat.Skill, label string, fx *config.SkillEffects, now int64) {
	w := m.world
	out := combat.Resolve(m.bal(), w.Content().ElementMatrix, a.Combatant(), d.Combatant(), skill, w.Rand())
	if !out.Hit {
		return
	}
	dealt, _ := w.DamagePlayer(a.ID, d.ID, out.Damage, label, out.Crit, now)
	if dealt <= 0 {
		return
	}
	if a.LifestealPct > 0 {
		a.Heal(float64(dealt) * a.LifestealPct)
	}
	if d.ReflectPct > 0 && d.Alive() {
		if back := int(math.Floor(float64(dealt) * d.ReflectPct)); back > 0 {
			w.DamagePlayer(d.ID, a.ID, back, "reflect", false, now)
		}
	}
	w.ApplyEffects(d.ID, fx, now)
}

// inRange reports whether (x, y) is within reach of p. A reach of zero or
// less means unlimited.
func inRange(p *world.Player, x, y, reach float64) bool {
	return reach <= 0 || gamemath.Dist2(p.X, p.Y, x, y) <= reach*reach
}
