package world

import (
	"github.com/automoto/dragonsons/components"
	"github.com/automoto/dragonsons/shared/messages"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

var bodyQuery = donburi.NewQuery(filter.Contains(components.Body))

// Snapshot returns the public view of the world. Match metadata is left
// for the caller.
func (w *World) Snapshot() messages.Snapshot {
	snap := messages.Snapshot{
		Tick: w.tick,
		Zone: messages.ZoneState{
			X:      w.cfg.Center.X,
			Y:      w.cfg.Center.Y,
			Radius: w.radius,
			Stage:  w.Stage(),
		},
		Players:  make([]messages.PlayerView, 0, len(w.players)),
		Entities: make([]messages.EntityView, 0, len(w.entities)),
	}
	for _, p := range w.sortedPlayers() {
		v := messages.PlayerView{
			ID:      p.ID,
			X:       p.X,
			Y:       p.Y,
			HP:      p.HP,
			MaxHP:   p.MaxHP,
			Element: p.Element,
			Zone:    p.ZoneElement,
		}
		if p.Casting != nil {
			v.Casting = p.Casting.SkillID
		}
		snap.Players = append(snap.Players, v)
	}
	for _, id := range w.collect(bodyQuery) {
		entry, _ := w.entry(id)
		b := components.Body.Get(entry)
		v := messages.EntityView{ID: uint64(b.ID), Kind: b.Kind.String(), X: b.X, Y: b.Y}
		switch b.Kind {
		case components.KindMonster:
			m := components.Monster.Get(entry)
			elem := m.Element
			v.Element, v.HP, v.MaxHP = &elem, m.HP, m.MaxHP
		case components.KindFruit:
			elem := components.Fruit.Get(entry).Element
			v.Element = &elem
		case components.KindItem:
			v.ItemID = components.Item.Get(entry).ItemID
		}
		snap.Entities = append(snap.Entities, v)
	}
	return snap
}
