package components

import "github.com/yohamta/donburi"

// EntityID identifies a monster or ground entity within one world. IDs are
// handed out in increasing order and never reused.
type EntityID uint64

// EntityKind tags which variant of the ground-entity union an entity is.
type EntityKind uint8

const (
	KindMonster EntityKind = iota
	KindFruit
	KindItem
	KindBomb
	KindTrap
)

var kindNames = [...]string{
	KindMonster: "monster",
	KindFruit:   "fruit",
	KindItem:    "item",
	KindBomb:    "bomb",
	KindTrap:    "trap",
}

func (k EntityKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// BodyData is shared by every world entity.
type BodyData struct {
	ID   EntityID
	Kind EntityKind
	X, Y float64
}

var Body = donburi.NewComponentType[BodyData]()
