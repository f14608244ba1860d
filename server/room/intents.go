package room

import (
	"errors"
	"log/slog"
	"time"

	"github.com/automoto/dragonsons/server/session"
	"github.com/automoto/dragonsons/server/world"
	"github.com/automoto/dragonsons/shared/messages"
)

// apply validates one intent and hands it to the match. Rejected intents
// are dropped; only unexpected errors are logged.
func (r *Room) apply(connID string, msg any, now int64) {
	s, ok := r.sessions[connID]
	if !ok {
		return
	}
	s.Touch(now)
	if signed, ok := msg.(messages.Signed); ok {
		if err := r.deps.Guard.Verify(signed); err != nil {
			r.logger.Debug("dropping unsigned intent", slog.String("conn", connID), slog.Any("err", err))
			return
		}
	}

	switch m := msg.(type) {
	case messages.Ping:
		r.sender.Send(connID, messages.Pong{})
	case messages.Spectate:
		r.releasePlayer(s, false)
	case messages.Start:
		r.match.Start(now)
	case messages.Rejoin:
		r.rejoin(s, m.Token, now)
	case messages.RoomBoardQuery:
		r.sender.Send(connID, r.match.RoomBoard(m.By, m.Page, m.Size, m.FilterID))
	default:
		p, ok := r.player(s)
		if !ok {
			return
		}
		if err := r.act(s, p, msg, now); err != nil && !rejected(err) {
			r.logger.Warn("intent failed", slog.String("player", p.ID), slog.String("kind", messages.Kind(msg)), slog.Any("err", err))
		}
	}
}

func rejected(err error) bool {
	for _, target := range []error{
		session.ErrInvalidIntent, session.ErrThrottled, session.ErrCooldown, session.ErrNotOwned,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (r *Room) player(s *session.Session) (*world.Player, bool) {
	if s.PlayerID == "" {
		return nil, false
	}
	return r.match.World().Player(s.PlayerID)
}

// act runs a gameplay intent for a live player.
func (r *Room) act(s *session.Session, p *world.Player, msg any, now int64) error {
	g := r.deps.Guard
	bal := r.match.World().Balance()
	content := r.match.World().Content()

	switch m := msg.(type) {
	case messages.Move:
		vx, vy, err := g.Move(bal, s, m.VX, m.VY, now)
		if err != nil {
			return err
		}
		r.match.Move(p.ID, vx, vy)
		s.Record(p.X, p.Y, now)

	case messages.Pickup:
		r.match.Pickup(p.ID)

	case messages.AssignSlot:
		return g.Assign(bal, p, m.Slot, m.ItemID)

	case messages.UseSlot:
		id, err := g.Slot(bal, p, m.Slot)
		if err != nil {
			return err
		}
		return r.useItem(p, id, now)

	case messages.UseItem:
		return r.useItem(p, m.ItemID, now)

	case messages.Attack:
		if err := g.Attack(bal, p, now); err != nil {
			return err
		}
		r.match.Attack(p.ID, m.Target, now)

	case messages.Cast:
		def, _ := content.Skill(m.SkillID)
		if err := g.Cast(p, def, now); err != nil {
			return err
		}
		if r.match.BeginCast(p.ID, m.SkillID, m.Target, now) {
			g.CommitCast(bal, p, def, now)
		}
	}
	return nil
}

func (r *Room) useItem(p *world.Player, itemID string, now int64) error {
	def, _ := r.match.World().Content().Item(itemID)
	if err := r.deps.Guard.Item(p, def, now); err != nil {
		return err
	}
	if r.match.UseItem(p.ID, itemID, now) {
		r.deps.Guard.CommitItem(p, def, now)
	}
	return nil
}

// rejoin swaps the session's current player, if any, for the saved one.
func (r *Room) rejoin(s *session.Session, token string, now int64) {
	g, err := r.deps.Rejoin.ClaimFor(token, now, r.id, func(id string) bool {
		_, present := r.byPlayer[id]
		return present
	})
	if err != nil {
		reason := "unknown"
		if errors.Is(err, session.ErrTokenExpired) {
			reason = "expired"
		}
		r.logger.Info("rejoin refused", slog.String("conn", s.ConnID), slog.String("reason", reason), slog.Any("err", err))
		r.sender.Send(s.ConnID, messages.RejoinFail{Reason: reason})
		return
	}

	// A stand-in spawned in the lobby leaves no scoreboard line behind.
	r.releasePlayer(s, false)
	p := r.match.Restore(g.State)
	r.byPlayer[p.ID] = s.ConnID
	s.PlayerID = p.ID
	s.Token, _, err = r.deps.Tokens.Issue(p.ID, r.id, time.UnixMilli(now))
	if err != nil {
		r.logger.Warn("token issue failed", slog.String("player", p.ID), slog.Any("err", err))
	}
	r.logger.Info("player rejoined", slog.String("conn", s.ConnID), slog.String("player", p.ID))
	r.sender.Send(s.ConnID, messages.RejoinOK{ID: p.ID, Room: r.id, Element: p.Element, Token: s.Token})
}
