// Package match drives one world through lobby, countdown, playing and
// ended. Deadlines are plain timestamps compared on every tick, so a
// countdown can fall back to the lobby without cancelling any timer.
package match

import (
	"errors"
	"log/slog"

	"github.com/automoto/dragonsons/config"
	"github.com/automoto/dragonsons/server/persist"
	"github.com/automoto/dragonsons/server/world"
	"github.com/automoto/dragonsons/shared/messages"
	"github.com/automoto/dragonsons/shared/netconfig"
)

var ErrInProgress = errors.New("match in progress")

// ResultSink receives settled matches. Submit must not block.
type ResultSink interface {
	Submit(res persist.MatchResult) bool
}

// Standing is one player's scoreboard line.
type Standing struct {
	ID     string
	Kills  int
	Alive  bool
	Damage int
}

// Match wraps a world with its phase machine and scoreboard.
type Match struct {
	id     string
	world  *world.World
	sink   ResultSink
	logger *slog.Logger

	phase       netconfig.MatchStateID
	countdownAt int64 // countdown deadline
	endAt       int64 // playing deadline
	endedAt     int64
	floor       int // cancel threshold for the running countdown

	standings  map[string]*Standing
	settlement *messages.Settlement
}

// New creates a match in the lobby phase.
func New(id string, w *world.World, sink ResultSink, logger *slog.Logger) *Match {
	if logger == nil {
		logger = slog.Default()
	}
	return &Match{
		id:        id,
		world:     w,
		sink:      sink,
		logger:    logger.With(slog.String("component", "match"), slog.String("room", id)),
		phase:     netconfig.MatchStateLobby,
		standings: make(map[string]*Standing),
	}
}

func (m *Match) ID() string                    { return m.id }
func (m *Match) World() *world.World           { return m.world }
func (m *Match) Phase() netconfig.MatchStateID { return m.phase }
func (m *Match) CountdownAt() int64            { return m.countdownAt }
func (m *Match) EndAt() int64                  { return m.endAt }
func (m *Match) EndedAt() int64                { return m.endedAt }

// Settlement returns the final summary once the match has ended.
func (m *Match) Settlement() (messages.Settlement, bool) {
	if m.settlement == nil {
		return messages.Settlement{}, false
	}
	return *m.settlement, true
}

// SetConfig swaps the balance snapshot. Called between ticks.
func (m *Match) SetConfig(snap *config.Snapshot) {
	m.world.SetConfig(snap)
}

func (m *Match) bal() *config.Balance { return m.world.Balance() }

// Joinable reports whether new players can enter as combatants.
func (m *Match) Joinable() bool {
	return m.phase == netconfig.MatchStateLobby || m.phase == netconfig.MatchStateCountdown
}

// Join spawns a fresh player. Only lobby and countdown accept joins.
func (m *Match) Join(playerID, characterID string) (*world.Player, error) {
	if !m.Joinable() {
		return nil, ErrInProgress
	}
	p := m.world.SpawnPlayer(playerID, characterID)
	m.standing(playerID)
	return p, nil
}

// Restore puts a rejoining player back with its saved state, in any phase.
func (m *Match) Restore(st world.PlayerState) *world.Player {
	p := m.world.RestorePlayer(st)
	m.standing(st.ID).Alive = p.Alive()
	return p
}

// Leave removes a player and returns its state for a later rejoin. Once
// the match is playing the scoreboard line stays; before that the player
// never counted and its line goes too.
func (m *Match) Leave(playerID string) (world.PlayerState, bool) {
	p := m.world.RemovePlayer(playerID)
	if p == nil {
		return world.PlayerState{}, false
	}
	if m.Joinable() {
		delete(m.standings, playerID)
	} else if s, ok := m.standings[playerID]; ok {
		s.Alive = false
	}
	return p.PlayerState, true
}

// ActiveCount is the number of combatants in the world.
func (m *Match) ActiveCount() int { return m.world.PlayerCount() }

func (m *Match) standing(id string) *Standing {
	s, ok := m.standings[id]
	if !ok {
		s = &Standing{ID: id, Alive: true}
		m.standings[id] = s
	}
	return s
}

// Start forces the countdown from the lobby. The countdown then only
// cancels if players drop below the count present now, capped at the
// configured minimum.
func (m *Match) Start(now int64) bool {
	active := m.ActiveCount()
	if m.phase != netconfig.MatchStateLobby || active == 0 {
		return false
	}
	m.beginCountdown(now, min(m.bal().MinPlayers, active))
	return true
}

func (m *Match) beginCountdown(now int64, floor int) {
	m.phase = netconfig.MatchStateCountdown
	m.countdownAt = now + m.bal().CountdownMs
	m.floor = max(floor, 1)
	m.logger.Info("countdown started", slog.Int64("endAt", m.countdownAt), slog.Int("players", m.ActiveCount()))
}

// Tick advances the phase machine and, while playing, the world. It
// returns the messages produced this tick; Hit messages are meant for the
// two players involved, everything else for the whole room.
func (m *Match) Tick(now int64) []any {
	var out []any
	bal := m.bal()
	switch m.phase {
	case netconfig.MatchStateLobby:
		if bal.MinPlayers > 0 && m.ActiveCount() >= bal.MinPlayers {
			m.beginCountdown(now, bal.MinPlayers)
			out = append(out, messages.Countdown{EndAt: m.countdownAt})
		}

	case netconfig.MatchStateCountdown:
		switch {
		case m.ActiveCount() < m.floor:
			m.phase = netconfig.MatchStateLobby
			m.countdownAt, m.floor = 0, 0
			m.logger.Info("countdown cancelled", slog.Int("players", m.ActiveCount()))
			out = append(out, messages.CountdownCancel{})
		case now >= m.countdownAt:
			m.phase = netconfig.MatchStatePlaying
			m.endAt = now + bal.MatchDurationMs
			for _, p := range m.world.Players() {
				m.standing(p.ID).Alive = p.Alive()
			}
			m.logger.Info("match started", slog.Int64("endAt", m.endAt))
			out = append(out, messages.MatchStart{EndAt: m.endAt})
		}

	case netconfig.MatchStatePlaying:
		m.world.Update(bal.TickSeconds(), now)
		m.resolveCasts(now)
		out = append(out, m.collectEvents()...)
		m.refreshAlive()
		if now >= m.endAt {
			s := m.settle(now)
			out = append(out, s)
		}

	case netconfig.MatchStateEnded:
	}
	return out
}

// collectEvents turns world events into scoreboard updates and hit
// messages.
func (m *Match) collectEvents() []any {
	var out []any
	for _, e := range m.world.DrainEvents() {
		switch e.Kind {
		case world.EventHit:
			if _, ok := m.world.Player(e.To); ok {
				if s, ok := m.standings[e.From]; ok && e.From != e.To {
					s.Damage += e.Damage
				}
			}
			out = append(out, messages.Hit{From: e.From, To: e.To, Skill: e.Skill, Damage: e.Damage, HP: e.HP, Crit: e.Crit})
		case world.EventKill:
			if s, ok := m.standings[e.From]; ok && e.From != e.To {
				s.Kills++
			}
			if s, ok := m.standings[e.To]; ok {
				s.Alive = false
			}
		}
	}
	return out
}

func (m *Match) refreshAlive() {
	for id, s := range m.standings {
		p, ok := m.world.Player(id)
		s.Alive = ok && p.Alive()
	}
}
