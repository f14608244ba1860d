package world

// EventKind distinguishes world events.
type EventKind uint8

const (
	// EventHit is damage landing on a player. From is a player id, a
	// monster label, or empty for unattributed damage.
	EventHit EventKind = iota
	// EventKill is a player's hp reaching zero. Skill names the source
	// for unattributed deaths (storm, bleed, burn).
	EventKill
	// EventMonsterKilled is a monster dying to a player.
	EventMonsterKilled
)

// Event is something the match layer reports or scores.
type Event struct {
	Kind   EventKind
	From   string
	To     string
	Skill  string
	Damage int
	HP     float64
	Crit   bool
}
