package components

import (
	"github.com/automoto/dragonsons/shared/netconfig"
	"github.com/yohamta/donburi"
)

type MonsterData struct {
	Element      netconfig.Element
	HP           float64
	MaxHP        float64
	Def          float64
	LastAttackAt int64 // unix ms
	LastHitBy    string
	VX, VY       float64
}

var Monster = donburi.NewComponentType[MonsterData]()
