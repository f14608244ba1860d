package world

import (
	"math"
	"sort"
	"strconv"

	"github.com/automoto/dragonsons/components"
	"github.com/automoto/dragonsons/server/combat"
	"github.com/automoto/dragonsons/shared/gamemath"
	"github.com/automoto/dragonsons/shared/netconfig"
	"github.com/automoto/dragonsons/tags"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

// padded returns the broadphase edge for something that reaches r units
// from its center. resolv maps an object to cells using X..X+W-1, so one
// unit of padding per side keeps every point within r covered.
func padded(r float64) float64 {
	return 2*math.Max(0, r) + 2
}

var (
	monsterQuery = donburi.NewQuery(filter.Contains(components.Monster))
	bombQuery    = donburi.NewQuery(filter.Contains(components.Bomb))
	trapQuery    = donburi.NewQuery(filter.Contains(components.Trap))
)

// MonsterLabel is the attacker name used in events for a monster.
func MonsterLabel(id components.EntityID) string {
	return "monster:" + strconv.FormatUint(uint64(id), 10)
}

func (w *World) create(kind components.EntityKind, x, y float64, comps ...donburi.IComponentType) *donburi.Entry {
	w.nextID++
	id := w.nextID
	e := w.ecs.Create(append([]donburi.IComponentType{components.Body}, comps...)...)
	entry := w.ecs.Entry(e)
	x, y = w.clampPoint(x, y)
	components.Body.SetValue(entry, components.BodyData{ID: id, Kind: kind, X: x, Y: y})
	w.entities[id] = e
	return entry
}

// attachObject links entry to a new broadphase object centered on its body.
func (w *World) attachObject(entry *donburi.Entry, size float64, tag string) {
	b := components.Body.Get(entry)
	obj := resolv.NewObject(b.X-size/2, b.Y-size/2, size, size, tag)
	obj.Data = b.ID
	w.space.Add(obj)
	components.Object.SetValue(entry, components.ObjectData{Object: obj})
}

func (w *World) entry(id components.EntityID) (*donburi.Entry, bool) {
	e, ok := w.entities[id]
	if !ok || !w.ecs.Valid(e) {
		return nil, false
	}
	return w.ecs.Entry(e), true
}

func (w *World) removeEntity(id components.EntityID) {
	entry, ok := w.entry(id)
	if ok {
		if entry.HasComponent(components.Object) {
			if obj := components.Object.Get(entry).Object; obj != nil {
				w.space.Remove(obj)
			}
		}
		w.ecs.Remove(entry.Entity())
	}
	delete(w.entities, id)
}

// collect returns the ids of every entity matching q, ascending.
func (w *World) collect(q *donburi.Query) []components.EntityID {
	var ids []components.EntityID
	q.Each(w.ecs, func(entry *donburi.Entry) {
		ids = append(ids, components.Body.Get(entry).ID)
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// EntityCount is the number of monsters and ground entities.
func (w *World) EntityCount() int { return len(w.entities) }

// SpawnMonster places a monster with balance stats.
func (w *World) SpawnMonster(x, y float64, elem netconfig.Element) components.EntityID {
	entry := w.create(components.KindMonster, x, y, components.Monster)
	components.Monster.SetValue(entry, components.MonsterData{
		Element: elem,
		HP:      w.bal.MonsterHp,
		MaxHP:   w.bal.MonsterHp,
		Def:     w.bal.MonsterDef,
	})
	return components.Body.Get(entry).ID
}

// SpawnFruit drops a fruit of elem.
func (w *World) SpawnFruit(x, y float64, elem netconfig.Element) components.EntityID {
	entry := w.create(components.KindFruit, x, y, components.Object, components.Fruit)
	components.Fruit.SetValue(entry, components.FruitData{Element: elem})
	w.attachObject(entry, padded(0), tags.ResolvFruit)
	return components.Body.Get(entry).ID
}

// SpawnItem drops a bag item.
func (w *World) SpawnItem(x, y float64, itemID string) components.EntityID {
	entry := w.create(components.KindItem, x, y, components.Object, components.Item)
	components.Item.SetValue(entry, components.ItemData{ItemID: itemID})
	w.attachObject(entry, padded(0), tags.ResolvItem)
	return components.Body.Get(entry).ID
}

func (w *World) placeBomb(owner string, x, y float64, now int64) components.EntityID {
	entry := w.create(components.KindBomb, x, y, components.Object, components.Bomb)
	components.Bomb.SetValue(entry, components.BombData{
		OwnerID:   owner,
		Radius:    w.bal.BombRadius,
		Damage:    w.bal.BombDamage,
		ExplodeAt: now + w.bal.BombFuseMs,
	})
	w.attachObject(entry, padded(w.bal.BombRadius), tags.ResolvBomb)
	return components.Body.Get(entry).ID
}

func (w *World) placeTrap(owner string, x, y float64) components.EntityID {
	entry := w.create(components.KindTrap, x, y, components.Object, components.Trap)
	components.Trap.SetValue(entry, components.TrapData{
		OwnerID: owner,
		Radius:  w.bal.TrapRadius,
		Damage:  w.bal.TrapDamage,
	})
	w.attachObject(entry, padded(w.bal.TrapRadius), tags.ResolvTrap)
	return components.Body.Get(entry).ID
}

// Monster returns a copy of a monster's data and body.
func (w *World) Monster(id components.EntityID) (components.MonsterData, components.BodyData, bool) {
	entry, ok := w.entry(id)
	if !ok || !entry.HasComponent(components.Monster) {
		return components.MonsterData{}, components.BodyData{}, false
	}
	return *components.Monster.Get(entry), *components.Body.Get(entry), true
}

// DamageMonster applies raw damage through the defense curve, at least 1.
// from is credited if the monster dies. Unknown ids are ignored.
func (w *World) DamageMonster(id components.EntityID, raw float64, from string) int {
	entry, ok := w.entry(id)
	if !ok || !entry.HasComponent(components.Monster) {
		return 0
	}
	m := components.Monster.Get(entry)
	if m.HP <= 0 {
		return 0
	}
	dmg := combat.Mitigate(w.bal, raw, m.Def)
	m.HP = math.Max(0, m.HP-float64(dmg))
	if from != "" {
		m.LastHitBy = from
		w.emit(Event{Kind: EventHit, From: from, To: MonsterLabel(id), Damage: dmg, HP: m.HP})
	}
	return dmg
}

func (w *World) updateMonsters(dt float64, now int64) {
	bal := w.bal
	var dead []components.EntityID
	for _, id := range w.collect(monsterQuery) {
		entry, _ := w.entry(id)
		m := components.Monster.Get(entry)
		b := components.Body.Get(entry)
		if m.HP <= 0 {
			dead = append(dead, id)
			continue
		}
		target := w.nearestPlayer(b.X, b.Y, bal.MonsterAggroRange)
		if target == nil {
			m.VX, m.VY = 0, 0
			continue
		}
		dx, dy := target.X-b.X, target.Y-b.Y
		dist := math.Sqrt(dx*dx + dy*dy)
		if dist > bal.MonsterAttackRange {
			nx, ny := gamemath.Normalize(dx, dy)
			step := math.Min(bal.MonsterSpeed*dt, dist-bal.MonsterAttackRange)
			b.X, b.Y = w.clampPoint(b.X+nx*step, b.Y+ny*step)
			m.VX, m.VY = nx*bal.MonsterSpeed, ny*bal.MonsterSpeed
			dist -= step
		} else {
			m.VX, m.VY = 0, 0
		}
		if dist <= bal.MonsterAttackRange && now-m.LastAttackAt >= bal.MonsterAttackCooldownMs {
			m.LastAttackAt = now
			w.DamagePlayer(MonsterLabel(id), target.ID, gamemath.FloorDamage(bal.MonsterDamage), "", false, now)
		}
	}
	for _, id := range dead {
		w.killMonster(id)
	}
}

// killMonster removes a dead monster and drops its fruit and maybe an item.
func (w *World) killMonster(id components.EntityID) {
	entry, ok := w.entry(id)
	if !ok {
		return
	}
	m := *components.Monster.Get(entry)
	b := *components.Body.Get(entry)
	w.removeEntity(id)

	w.SpawnFruit(b.X, b.Y, m.Element)
	if items := w.content.Items; len(items) > 0 && w.rng.Float64() < w.bal.ItemDropChance {
		w.SpawnItem(b.X, b.Y, items[w.rng.IntN(len(items))].ID)
	}
	if m.LastHitBy != "" {
		w.emit(Event{Kind: EventMonsterKilled, From: m.LastHitBy, To: MonsterLabel(id)})
	}
}

func (w *World) updateHazards(now int64) {
	for _, id := range w.collect(bombQuery) {
		entry, _ := w.entry(id)
		bomb := *components.Bomb.Get(entry)
		if now < bomb.ExplodeAt {
			continue
		}
		b := components.Body.Get(entry)
		obj := components.Object.Get(entry).Object
		for _, p := range w.playersTouching(obj, b.X, b.Y, bomb.Radius) {
			w.DamagePlayer(bomb.OwnerID, p.ID, gamemath.FloorDamage(bomb.Damage), "bomb", false, now)
		}
		w.removeEntity(id)
	}

	for _, id := range w.collect(trapQuery) {
		entry, _ := w.entry(id)
		trap := *components.Trap.Get(entry)
		b := components.Body.Get(entry)
		obj := components.Object.Get(entry).Object
		for _, p := range w.playersTouching(obj, b.X, b.Y, trap.Radius) {
			if p.ID == trap.OwnerID {
				continue
			}
			w.DamagePlayer(trap.OwnerID, p.ID, gamemath.FloorDamage(trap.Damage), "trap", false, now)
			w.removeEntity(id)
			break
		}
	}
}

// playersTouching returns the live players within radius of (x, y), using
// obj's broadphase cells to find candidates. Ordered by id.
func (w *World) playersTouching(obj *resolv.Object, x, y, radius float64) []*Player {
	if obj == nil {
		return nil
	}
	coll := obj.Check(0, 0, tags.ResolvPlayer)
	if coll == nil {
		return nil
	}
	var out []*Player
	for _, o := range coll.Objects {
		id, ok := o.Data.(string)
		if !ok {
			continue
		}
		p, ok := w.players[id]
		if !ok || !p.Alive() {
			continue
		}
		if gamemath.Dist2(x, y, p.X, p.Y) <= radius*radius {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) spawnMonsters() {
	bal := w.bal
	if bal.MobSpawnEvery <= 0 || w.elapsed-w.lastSpawn < bal.MobSpawnEvery {
		return
	}
	w.lastSpawn = w.elapsed
	for range bal.MobSpawnBatch {
		pt := w.randomPoint()
		if n := len(w.cfg.MonsterSpawns); n > 0 {
			pt = w.cfg.MonsterSpawns[w.rng.IntN(n)]
		}
		w.SpawnMonster(pt.X, pt.Y, w.randomElement())
	}
}
