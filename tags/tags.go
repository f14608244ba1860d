package tags

// Resolv tags for broadphase queries
const (
	ResolvPlayer = "player"
	ResolvFruit  = "fruit"
	ResolvItem   = "item"
	ResolvBomb   = "bomb"
	ResolvTrap   = "trap"
)
