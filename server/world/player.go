package world

import (
	"math"

	"github.com/automoto/dragonsons/config"
	"github.com/automoto/dragonsons/server/combat"
	"github.com/automoto/dragonsons/shared/netconfig"
	"github.com/automoto/dragonsons/tags"
	"github.com/solarlune/resolv"
)

// Stats used when a character table entry leaves a field empty.
const (
	defaultBaseAtk = 100
	defaultDef     = 80
	defaultCrit    = 0.1
	defaultCritDmg = 1.5
)

// PlayerState is every persistent field of a player: what a rejoin
// snapshot carries. Velocity, the in-flight cast and the broadphase object
// are transient and live on Player.
type PlayerState struct {
	combat.Actor
	combat.FruitProgress

	CharacterID string
	X, Y        float64
	HP, MaxHP   float64

	InvulnUntil  int64
	SpeedUntil   int64
	SpeedMul     float64
	StunUntil    int64
	RootUntil    int64
	SilenceUntil int64
	SlowUntil    int64
	SlowMul      float64
	BleedUntil   int64
	BleedDps     float64
	BurnUntil    int64
	BurnDps      float64
	ShieldHP     float64

	// Passive modifiers
	LifestealPct   float64
	ReflectPct     float64
	CdReductionPct float64
	MoveSpeedPct   float64

	Bag          map[string]int
	Cooldowns    map[string]int64 // key -> ready-at, unix ms
	Slots        []string
	Skills       []string
	LastAttackAt int64
}

// Cast is a skill whose cast time has not elapsed yet.
type Cast struct {
	SkillID  string
	TargetID string
	EndAt    int64
}

// Player is a live player in the world.
type Player struct {
	PlayerState

	VX, VY  float64
	Casting *Cast

	obj *resolv.Object
}

func (p *Player) Alive() bool                 { return p.HP > 0 }
func (p *Player) Invulnerable(now int64) bool { return now < p.InvulnUntil }
func (p *Player) Stunned(now int64) bool      { return now < p.StunUntil }
func (p *Player) Rooted(now int64) bool       { return now < p.RootUntil }
func (p *Player) Silenced(now int64) bool     { return now < p.SilenceUntil }

// Combatant returns the player's combat view. It aliases the player, so
// fruit pickups applied through it stick.
func (p *Player) Combatant() *combat.Actor { return &p.Actor }

// Owns reports whether the bag holds at least one of itemID.
func (p *Player) Owns(itemID string) bool { return p.Bag[itemID] > 0 }

// SlotItem returns the item equipped in slot.
func (p *Player) SlotItem(slot int) (string, bool) {
	if slot < 0 || slot >= len(p.Slots) || p.Slots[slot] == "" {
		return "", false
	}
	return p.Slots[slot], true
}

// HasSkill reports whether skillID was drawn for this player.
func (p *Player) HasSkill(skillID string) bool {
	for _, s := range p.Skills {
		if s == skillID {
			return true
		}
	}
	return false
}

// Heal restores hp up to max.
func (p *Player) Heal(amount float64) {
	if amount <= 0 || !p.Alive() {
		return
	}
	p.HP = math.Min(p.MaxHP, p.HP+amount)
}

func (p *Player) expireEffects(now int64) {
	if p.InvulnUntil != 0 && now >= p.InvulnUntil {
		p.InvulnUntil = 0
	}
	if p.SpeedUntil != 0 && now >= p.SpeedUntil {
		p.SpeedUntil, p.SpeedMul = 0, 1
	}
	if p.SlowUntil != 0 && now >= p.SlowUntil {
		p.SlowUntil, p.SlowMul = 0, 1
	}
	if p.BleedUntil != 0 && now >= p.BleedUntil {
		p.BleedUntil, p.BleedDps = 0, 0
	}
	if p.BurnUntil != 0 && now >= p.BurnUntil {
		p.BurnUntil, p.BurnDps = 0, 0
	}
	if p.StunUntil != 0 && now >= p.StunUntil {
		p.StunUntil = 0
	}
	if p.RootUntil != 0 && now >= p.RootUntil {
		p.RootUntil = 0
	}
	if p.SilenceUntil != 0 && now >= p.SilenceUntil {
		p.SilenceUntil = 0
	}
}

// NewPlayerState builds the fresh-spawn state for characterID. An unknown
// character falls back to the first one in the table.
func (w *World) NewPlayerState(id, characterID string) PlayerState {
	bal := w.bal
	ch, ok := w.content.Character(characterID)
	if !ok && len(w.content.Characters) > 0 {
		ch = &w.content.Characters[0]
	}
	if ch == nil {
		ch = &config.CharacterDef{Element: config.RandomElement}
	}

	elem, err := netconfig.ParseElement(ch.Element)
	if err != nil {
		elem = w.randomElement()
	}
	st := PlayerState{
		Actor: combat.Actor{
			ID:      id,
			Element: elem,
			BaseAtk: orDefault(ch.Atk, defaultBaseAtk),
			Def:     orDefault(ch.Def, defaultDef),
			Crit:    orDefault(ch.Crit, defaultCrit),
			CritDmg: orDefault(ch.CritDmg, defaultCritDmg),
			Agi:     ch.Agi,
			Dodge:   ch.Dodge,
		},
		CharacterID: ch.ID,
		MaxHP:       orDefault(ch.MaxHp, bal.PlayerMaxHp),
		SpeedMul:    1,
		SlowMul:     1,
		Bag:         map[string]int{},
		Cooldowns:   map[string]int64{},
		Slots:       make([]string, max(0, bal.SlotCount)),
		Skills:      w.drawSkills(elem),
	}
	for _, sid := range st.Skills {
		if def, ok := w.content.Skill(sid); ok && def.IsPassive() && def.Passive != nil {
			applyPassive(&st, def.Passive)
		}
	}
	st.HP = st.MaxHP
	return st
}

func applyPassive(st *PlayerState, m *config.PassiveMods) {
	st.BaseAtk += m.AtkFlat
	st.Def += m.DefFlat
	st.Agi += m.AgiFlat
	st.Crit = math.Min(1, st.Crit+m.CritRatePct)
	st.CritDmg += m.CritDmg
	st.Dodge = math.Min(1, st.Dodge+m.DodgePct)
	st.LifestealPct += m.LifestealPct
	st.ReflectPct += m.ReflectPct
	st.CdReductionPct = math.Min(0.9, st.CdReductionPct+m.CdReductionPct)
	st.MoveSpeedPct += m.MoveSpeedPct
	st.MaxHP += m.MaxHpFlat
	st.ShieldHP += m.ShieldFlat
}

// drawSkills picks SkillsPerPlayer distinct skills by weight from the
// element's table, or uniformly from the active skills when it has none.
func (w *World) drawSkills(elem netconfig.Element) []string {
	n := w.bal.SkillsPerPlayer
	pool := append([]config.WeightedID(nil), w.content.ElementSkillWeights[elem]...)
	if len(pool) == 0 {
		for _, s := range w.content.Skills {
			if !s.IsPassive() {
				pool = append(pool, config.WeightedID{ID: s.ID, Weight: 1})
			}
		}
	}
	out := make([]string, 0, n)
	for len(out) < n && len(pool) > 0 {
		total := 0.0
		for _, c := range pool {
			total += math.Max(0, c.Weight)
		}
		pick := len(pool) - 1
		if total > 0 {
			r := w.rng.Float64() * total
			for i, c := range pool {
				r -= math.Max(0, c.Weight)
				if r < 0 {
					pick = i
					break
				}
			}
		} else {
			pick = w.rng.IntN(len(pool))
		}
		out = append(out, pool[pick].ID)
		pool = append(pool[:pick], pool[pick+1:]...)
	}
	return out
}

// SpawnPlayer creates a fresh player for characterID at a spawn point and
// adds it to the world.
func (w *World) SpawnPlayer(id, characterID string) *Player {
	st := w.NewPlayerState(id, characterID)
	pt := w.playerSpawnPoint()
	st.X, st.Y = pt.X, pt.Y
	return w.RestorePlayer(st)
}

// RestorePlayer adds a player built from st, replacing any player with the
// same id. Transient fields start empty and the zone is recomputed.
func (w *World) RestorePlayer(st PlayerState) *Player {
	p := &Player{PlayerState: st}
	if p.Bag == nil {
		p.Bag = map[string]int{}
	}
	if p.Cooldowns == nil {
		p.Cooldowns = map[string]int64{}
	}
	p.X, p.Y = w.clampPoint(p.X, p.Y)
	p.ZoneElement, p.HasZone = w.ZoneElementAt(p.X, p.Y), true
	w.AddPlayer(p)
	return p
}

// AddPlayer registers p and its broadphase object.
func (w *World) AddPlayer(p *Player) {
	if old, ok := w.players[p.ID]; ok && old.obj != nil {
		w.space.Remove(old.obj)
	}
	size := w.pickupSize()
	p.obj = resolv.NewObject(p.X-size/2, p.Y-size/2, size, size, tags.ResolvPlayer)
	p.obj.Data = p.ID
	w.space.Add(p.obj)
	w.players[p.ID] = p
}

// RemovePlayer drops the player and returns it, or nil if it is unknown.
func (w *World) RemovePlayer(id string) *Player {
	p, ok := w.players[id]
	if !ok {
		return nil
	}
	if p.obj != nil {
		w.space.Remove(p.obj)
		p.obj = nil
	}
	delete(w.players, id)
	return p
}

// Player looks up a player by id.
func (w *World) Player(id string) (*Player, bool) {
	p, ok := w.players[id]
	return p, ok
}

// Players returns all players ordered by id.
func (w *World) Players() []*Player {
	return w.sortedPlayers()
}

// PlayerCount is the number of players, alive or not.
func (w *World) PlayerCount() int { return len(w.players) }

func (w *World) pickupSize() float64 {
	return padded(w.bal.PickupRadius)
}

func (w *World) syncPlayerObject(p *Player) {
	if p.obj == nil {
		return
	}
	size := w.pickupSize()
	p.obj.W, p.obj.H = size, size
	p.obj.X, p.obj.Y = p.X-size/2, p.Y-size/2
	p.obj.Update()
}

func (w *World) playerSpawnPoint() Point {
	if n := len(w.cfg.PlayerSpawns); n > 0 {
		return w.cfg.PlayerSpawns[len(w.players)%n]
	}
	// Somewhere inside the safe zone, away from the storm edge.
	r := w.radius * 0.6 * math.Sqrt(w.rng.Float64())
	theta := w.rng.Float64() * 2 * math.Pi
	x, y := w.clampPoint(w.cfg.Center.X+r*math.Cos(theta), w.cfg.Center.Y+r*math.Sin(theta))
	return Point{x, y}
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
