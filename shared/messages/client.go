package messages

// Meta is embedded in every client message. Sig is the hex HMAC of the
// message's canonical form when the server requires signed messages.
type Meta struct {
	Sig string `json:"sig,omitempty"`
}

// Signature returns the attached signature, if any.
func (m Meta) Signature() string { return m.Sig }

// Signed is implemented by every client message.
type Signed interface {
	Signature() string
}

// Ping keeps the session alive; the server answers with Pong.
type Ping struct{ Meta }

// Move sets the player's velocity intent. The server clamps its length.
type Move struct {
	Meta
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// Pickup asks to collect the nearest ground entity in reach.
type Pickup struct{ Meta }

// AssignSlot equips an owned item into an ability slot. An empty ItemID
// clears the slot.
type AssignSlot struct {
	Meta
	Slot   int    `json:"slot"`
	ItemID string `json:"itemId"`
}

// UseSlot uses the item equipped in a slot.
type UseSlot struct {
	Meta
	Slot int `json:"slot"`
}

// UseItem uses an item straight from the bag.
type UseItem struct {
	Meta
	ItemID string `json:"itemId"`
}

// Attack is a basic melee attack on a player id or a monster entity id.
type Attack struct {
	Meta
	Target string `json:"target"`
}

// Cast starts casting a skill. Target may be empty for self-centered skills.
type Cast struct {
	Meta
	SkillID string `json:"skillId"`
	Target  string `json:"target,omitempty"`
}

// Spectate gives up the player slot and watches the room.
type Spectate struct{ Meta }

// Start asks the room to begin the countdown from the lobby.
type Start struct{ Meta }

// Rejoin restores a previous player with its rejoin token.
type Rejoin struct {
	Meta
	Token string `json:"token"`
}

// ListRooms asks for the room list.
type ListRooms struct{ Meta }

// CreateRoom creates a room with the given id.
type CreateRoom struct {
	Meta
	ID string `json:"id"`
}

// JoinRoom moves the connection to another room.
type JoinRoom struct {
	Meta
	ID string `json:"id"`
}

// LeaderboardQuery pages the global leaderboard. By is "wins" or "kills".
type LeaderboardQuery struct {
	Meta
	By   string `json:"by"`
	Page int    `json:"page"`
	Size int    `json:"size"`
}

// RoomBoardQuery pages the current room's standings. By is "kills" or
// "damage"; FilterID narrows the page to one player.
type RoomBoardQuery struct {
	Meta
	By       string `json:"by"`
	Page     int    `json:"page"`
	Size     int    `json:"size"`
	FilterID string `json:"filterId,omitempty"`
}
