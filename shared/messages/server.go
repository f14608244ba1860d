package messages

import "github.com/automoto/dragonsons/shared/netconfig"

// Hello is sent when a connection is accepted into a room.
type Hello struct {
	ID      string            `json:"id"`
	Element netconfig.Element `json:"element"`
	Room    string            `json:"room"`
	Token   string            `json:"token"`
}

type Pong struct{}

// Hit is sent to both sides of a damaging attack or cast.
type Hit struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Skill  string  `json:"skill,omitempty"`
	Damage int     `json:"damage"`
	HP     float64 `json:"hp"`
	Crit   bool    `json:"crit,omitempty"`
}

// ZoneState is the safe zone as of a snapshot.
type ZoneState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Stage  int     `json:"stage"`
}

// PlayerView is the public part of a player.
type PlayerView struct {
	ID      string            `json:"id"`
	X       float64           `json:"x"`
	Y       float64           `json:"y"`
	HP      float64           `json:"hp"`
	MaxHP   float64           `json:"maxHp"`
	Element netconfig.Element `json:"element"`
	Zone    netconfig.Element `json:"zone"`
	Casting string            `json:"casting,omitempty"`
}

// EntityView is one monster or ground entity.
type EntityView struct {
	ID      uint64             `json:"id"`
	Kind    string             `json:"kind"`
	X       float64            `json:"x"`
	Y       float64            `json:"y"`
	Element *netconfig.Element `json:"element,omitempty"`
	ItemID  string             `json:"itemId,omitempty"`
	HP      float64            `json:"hp,omitempty"`
	MaxHP   float64            `json:"maxHp,omitempty"`
}

// Standing is one row of a room leaderboard.
type Standing struct {
	ID     string `json:"id"`
	Kills  int    `json:"kills"`
	Alive  bool   `json:"alive"`
	Damage int    `json:"damage"`
}

// MatchView is the match-phase metadata carried by every snapshot.
type MatchView struct {
	Phase       string     `json:"phase"`
	CountdownAt int64      `json:"countdownAt,omitempty"`
	EndAt       int64      `json:"endAt,omitempty"`
	Leaderboard []Standing `json:"leaderboard"`
}

// Snapshot is broadcast once per tick.
type Snapshot struct {
	Tick     uint64       `json:"tick"`
	Zone     ZoneState    `json:"zone"`
	Players  []PlayerView `json:"players"`
	Entities []EntityView `json:"entities"`
	Match    MatchView    `json:"match"`
}

type Countdown struct {
	EndAt int64 `json:"endAt"`
}

type CountdownCancel struct{}

// MatchStart announces the playing phase and its end deadline.
type MatchStart struct {
	EndAt int64 `json:"endAt"`
}

// Settlement is the end-of-match summary.
type Settlement struct {
	Winner  string     `json:"winner"`
	MVP     string     `json:"mvp"`
	Leaders []Standing `json:"leaders"`
}

type RejoinOK struct {
	ID      string            `json:"id"`
	Room    string            `json:"room"`
	Element netconfig.Element `json:"element"`
	Token   string            `json:"token"`
}

type RejoinFail struct {
	Reason string `json:"reason"`
}

// RoomInfo is one row of the room list.
type RoomInfo struct {
	ID       string `json:"id"`
	Players  int    `json:"players"`
	Capacity int    `json:"capacity"`
	Phase    string `json:"phase"`
}

type Rooms struct {
	Rooms []RoomInfo `json:"rooms"`
}

type RoomCreated struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// Joined confirms a room switch. Players joining mid-match come in as
// spectators and get an empty ID.
type Joined struct {
	Room    string            `json:"room"`
	ID      string            `json:"id,omitempty"`
	Element netconfig.Element `json:"element"`
	Token   string            `json:"token,omitempty"`
}

// LeaderEntry is one row of the global leaderboard.
type LeaderEntry struct {
	ID    string `json:"id"`
	Wins  int    `json:"wins"`
	Kills int    `json:"kills"`
}

type LeaderboardPage struct {
	By      string        `json:"by"`
	Page    int           `json:"page"`
	Size    int           `json:"size"`
	Total   int           `json:"total"`
	Entries []LeaderEntry `json:"entries"`
}

type RoomBoardPage struct {
	By      string     `json:"by"`
	Page    int        `json:"page"`
	Size    int        `json:"size"`
	Total   int        `json:"total"`
	Entries []Standing `json:"entries"`
}
