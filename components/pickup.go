package components

import (
	"github.com/automoto/dragonsons/shared/netconfig"
	"github.com/yohamta/donburi"
)

type FruitData struct {
	Element netconfig.Element
}

type ItemData struct {
	ItemID string
}

var Fruit = donburi.NewComponentType[FruitData]()
var Item = donburi.NewComponentType[ItemData]()
