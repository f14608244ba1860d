package components

import "github.com/yohamta/donburi"

// BombData is a placed bomb. It splashes everyone in Radius at ExplodeAt,
// its owner included.
type BombData struct {
	OwnerID   string
	Radius    float64
	Damage    float64
	ExplodeAt int64 // unix ms
}

// TrapData is an armed trap. The first non-owner to touch it takes Damage
// and the trap is spent.
type TrapData struct {
	OwnerID string
	Radius  float64
	Damage  float64
}

var Bomb = donburi.NewComponentType[BombData]()
var Trap = donburi.NewComponentType[TrapData]()
