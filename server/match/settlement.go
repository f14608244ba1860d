package match

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/automoto/dragonsons/server/persist"
	"github.com/automoto/dragonsons/shared/messages"
	"github.com/automoto/dragonsons/shared/netconfig"
)

// settle ends the match: picks the winner and MVP, hands the result to the
// sink without waiting, and returns the summary to broadcast.
func (m *Match) settle(now int64) messages.Settlement {
	m.refreshAlive()
	leaders := m.Leaderboard()

	var winner, mvp *messages.Standing
	for i := range leaders {
		s := &leaders[i]
		if s.Alive && (winner == nil || s.Kills > winner.Kills) {
			winner = s
		}
		if mvp == nil || s.Damage > mvp.Damage {
			mvp = s
		}
	}
	if winner == nil && len(leaders) > 0 {
		winner = &leaders[0]
	}

	out := messages.Settlement{Leaders: leaders}
	if winner != nil {
		out.Winner = winner.ID
	}
	if mvp != nil {
		out.MVP = mvp.ID
	}

	m.phase = netconfig.MatchStateEnded
	m.endedAt = now
	m.settlement = &out

	if m.sink != nil {
		res := persist.MatchResult{RoomID: m.id, Winner: out.Winner, MVP: out.MVP}
		for _, s := range leaders {
			res.Players = append(res.Players, persist.PlayerResult{ID: s.ID, Kills: s.Kills})
		}
		m.sink.Submit(res)
	}
	m.logger.Info("match settled",
		slog.String("winner", out.Winner),
		slog.String("mvp", out.MVP),
		slog.Int("players", len(leaders)))
	return out
}

// Leaderboard returns the standings ordered by kills, then damage, then id.
func (m *Match) Leaderboard() []messages.Standing {
	out := make([]messages.Standing, 0, len(m.standings))
	for _, s := range m.standings {
		out = append(out, messages.Standing{ID: s.ID, Kills: s.Kills, Alive: s.Alive, Damage: s.Damage})
	}
	slices.SortFunc(out, func(a, b messages.Standing) int {
		return cmp.Or(cmp.Compare(b.Kills, a.Kills), cmp.Compare(b.Damage, a.Damage), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Standing returns one player's scoreboard line.
func (m *Match) Standing(id string) (Standing, bool) {
	s, ok := m.standings[id]
	if !ok {
		return Standing{}, false
	}
	return *s, true
}

// RoomBoard pages the standings by "kills" or "damage". A filter id
// narrows the result to that player.
func (m *Match) RoomBoard(by string, page, size int, filterID string) messages.RoomBoardPage {
	rows := m.Leaderboard()
	if by == "damage" {
		slices.SortStableFunc(rows, func(a, b messages.Standing) int {
			return cmp.Compare(b.Damage, a.Damage)
		})
	} else {
		by = "kills"
	}
	if filterID != "" {
		rows = slices.DeleteFunc(rows, func(s messages.Standing) bool { return s.ID != filterID })
	}
	entries, page, size := persist.Paginate(rows, page, size)
	return messages.RoomBoardPage{By: by, Page: page, Size: size, Total: len(rows), Entries: entries}
}

// Snapshot is the per-tick broadcast: world state plus phase metadata.
func (m *Match) Snapshot() messages.Snapshot {
	snap := m.world.Snapshot()
	snap.Match = messages.MatchView{
		Phase:       m.phase.String(),
		CountdownAt: m.countdownAt,
		EndAt:       m.endAt,
		Leaderboard: m.Leaderboard(),
	}
	return snap
}
