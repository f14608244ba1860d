// Package world is the authoritative simulation of one room: players,
// monsters, ground entities and the shrinking zone. A World is not safe for
// concurrent use; its room goroutine owns it.
package world

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/automoto/dragonsons/components"
	"github.com/automoto/dragonsons/config"
	"github.com/automoto/dragonsons/shared/gamemath"
	"github.com/automoto/dragonsons/shared/netconfig"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
)

// cellSize is the resolv broadphase cell edge in world units.
const cellSize = 4

// Point is a map position.
type Point struct {
	X, Y float64
}

// Config describes the map a world runs on. Zero fields fall back to the
// balance values; a zero center means the middle of the map.
type Config struct {
	Width         float64
	Height        float64
	InitialRadius float64
	Center        Point
	PlayerSpawns  []Point
	MonsterSpawns []Point
}

// World owns one room's state.
type World struct {
	cfg     Config
	bal     *config.Balance
	content *config.Content
	rng     *rand.Rand

	ecs      donburi.World
	space    *resolv.Space
	players  map[string]*Player
	entities map[components.EntityID]donburi.Entity
	nextID   components.EntityID

	tick      uint64
	elapsed   float64 // simulated seconds
	lastSpawn float64
	radius    float64
	shrinkIdx int

	events []Event
}

// New creates a world for snap. rng drives every random decision,
// including combat rolls made through Rand.
func New(snap *config.Snapshot, cfg Config, rng *rand.Rand) *World {
	if cfg.Width <= 0 {
		cfg.Width = snap.Balance.MapWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = snap.Balance.MapHeight
	}
	if cfg.InitialRadius <= 0 {
		cfg.InitialRadius = snap.Balance.InitialRadius
	}
	if cfg.Center == (Point{}) {
		cfg.Center = Point{cfg.Width / 2, cfg.Height / 2}
	}
	w := &World{
		cfg:      cfg,
		rng:      rng,
		ecs:      donburi.NewWorld(),
		space:    resolv.NewSpace(int(math.Ceil(cfg.Width)), int(math.Ceil(cfg.Height)), cellSize, cellSize),
		players:  make(map[string]*Player),
		entities: make(map[components.EntityID]donburi.Entity),
		radius:   cfg.InitialRadius,
	}
	w.SetConfig(snap)
	return w
}

// SetConfig installs a new balance snapshot. Callers swap it between ticks.
func (w *World) SetConfig(snap *config.Snapshot) {
	w.bal = &snap.Balance
	w.content = &snap.Content
}

func (w *World) Balance() *config.Balance { return w.bal }
func (w *World) Content() *config.Content { return w.content }
func (w *World) Rand() *rand.Rand         { return w.rng }
func (w *World) Tick() uint64             { return w.tick }
func (w *World) Elapsed() float64         { return w.elapsed }
func (w *World) Radius() float64          { return w.radius }
func (w *World) Center() Point            { return w.cfg.Center }

// Stage is the storm stage in effect: the index of the last applied shrink.
func (w *World) Stage() int {
	return max(0, w.shrinkIdx-1)
}

// Update advances the world by one tick of dt seconds at wall clock now
// (unix ms).
func (w *World) Update(dt float64, now int64) {
	if dt < 0 || !gamemath.Finite(dt) {
		dt = 0
	}
	w.tick++
	w.elapsed += dt

	w.applyShrink()
	w.updatePlayers(dt, now)
	w.updateMonsters(dt, now)
	w.updateHazards(now)
	w.spawnMonsters()
}

// applyShrink consumes every stage whose time has passed, in order.
func (w *World) applyShrink() {
	times := w.bal.RingShrinkTimes
	for w.shrinkIdx < len(times) && w.elapsed >= times[w.shrinkIdx] {
		w.radius *= w.bal.RingShrinkFactor
		w.shrinkIdx++
	}
}

// ZoneElementAt returns the element of the zone sector containing (x, y).
func (w *World) ZoneElementAt(x, y float64) netconfig.Element {
	elems := w.content.Elements
	if len(elems) == 0 {
		elems = netconfig.Elements[:]
	}
	return elems[gamemath.ZoneSector(x-w.cfg.Center.X, y-w.cfg.Center.Y, len(elems))]
}

// OutsideZone reports whether (x, y) lies beyond the current safe radius.
func (w *World) OutsideZone(x, y float64) bool {
	return gamemath.Dist2(x, y, w.cfg.Center.X, w.cfg.Center.Y) > w.radius*w.radius
}

func (w *World) updatePlayers(dt float64, now int64) {
	bal := w.bal
	for _, p := range w.sortedPlayers() {
		if !p.Alive() {
			continue
		}
		if !p.Stunned(now) && !p.Rooted(now) {
			speed := bal.BaseMove * (1 + p.Agi*bal.AgiMoveCoef) * (1 + p.MoveSpeedPct)
			if now < p.SpeedUntil {
				speed *= p.SpeedMul
			}
			if now < p.SlowUntil {
				speed *= p.SlowMul
			}
			p.X = gamemath.Clamp(p.X+p.VX*speed*dt, 0, w.cfg.Width)
			p.Y = gamemath.Clamp(p.Y+p.VY*speed*dt, 0, w.cfg.Height)
			w.syncPlayerObject(p)
		}
		p.ZoneElement, p.HasZone = w.ZoneElementAt(p.X, p.Y), true

		if w.OutsideZone(p.X, p.Y) {
			w.drain(p, bal.StormDps(w.Stage())*p.MaxHP*dt, "storm")
		}
		if now < p.BleedUntil {
			w.drain(p, p.BleedDps*dt, "bleed")
		}
		if now < p.BurnUntil {
			w.drain(p, p.BurnDps*dt, "burn")
		}
		p.expireEffects(now)
	}
}

// drain removes hp without attribution. It ignores shields and
// invulnerability and floors at zero.
func (w *World) drain(p *Player, amount float64, source string) {
	if amount <= 0 || !p.Alive() {
		return
	}
	p.HP = math.Max(0, p.HP-amount)
	if !p.Alive() {
		w.emit(Event{Kind: EventKill, To: p.ID, Skill: source})
	}
}

// sortedPlayers returns the players ordered by id so every phase iterates
// deterministically.
func (w *World) sortedPlayers() []*Player {
	out := make([]*Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// nearestPlayer returns the closest live player within reach of (x, y).
// Ties go to the lowest id.
func (w *World) nearestPlayer(x, y, reach float64) *Player {
	var best *Player
	var bestD float64
	for _, p := range w.sortedPlayers() {
		if !p.Alive() {
			continue
		}
		d := gamemath.Dist2(x, y, p.X, p.Y)
		if d > reach*reach {
			continue
		}
		if best == nil || d < bestD {
			best, bestD = p, d
		}
	}
	return best
}

func (w *World) emit(e Event) {
	w.events = append(w.events, e)
}

// DrainEvents returns and clears the events produced since the last call.
func (w *World) DrainEvents() []Event {
	ev := w.events
	w.events = nil
	return ev
}

func (w *World) randomPoint() Point {
	return Point{w.rng.Float64() * w.cfg.Width, w.rng.Float64() * w.cfg.Height}
}

func (w *World) randomElement() netconfig.Element {
	elems := w.content.Elements
	if len(elems) == 0 {
		elems = netconfig.Elements[:]
	}
	return elems[w.rng.IntN(len(elems))]
}

func (w *World) clampPoint(x, y float64) (float64, float64) {
	return gamemath.Clamp(x, 0, w.cfg.Width), gamemath.Clamp(y, 0, w.cfg.Height)
}
