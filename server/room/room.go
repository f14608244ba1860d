// Package room runs one goroutine per room. Each room owns a match and the
// sessions connected to it; everything that touches them happens on that
// goroutine.
package room

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"github.com/automoto/dragonsons/config"
	"github.com/automoto/dragonsons/server/match"
	"github.com/automoto/dragonsons/server/session"
	"github.com/automoto/dragonsons/server/world"
	"github.com/automoto/dragonsons/shared/messages"
	"github.com/automoto/dragonsons/shared/netconfig"
	"github.com/google/uuid"
)

var (
	ErrRoomFull     = errors.New("room full")
	ErrRoomExists   = errors.New("room exists")
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomStopped  = errors.New("room stopped")
	ErrTooManyRooms = errors.New("too many rooms")
)

const inboxSize = 256

// Sender delivers server messages to connections. Implementations must not
// block the caller.
type Sender interface {
	Send(connID string, msg any)
	Close(connID string)
}

// ConfigSource hands out the latest config snapshot.
type ConfigSource interface {
	Snapshot() *config.Snapshot
}

type attachCmd struct {
	connID string
	moved  bool // arriving from another room
	reply  chan error
}

type detachCmd struct {
	connID string
	reply  chan struct{}
}

type intentCmd struct {
	connID string
	msg    any
}

// Room is one arena with its match and sessions.
type Room struct {
	id     string
	deps   *Deps
	sender Sender
	logger *slog.Logger

	inbox   chan any
	pending []intentCmd
	done    chan struct{}

	snap      *config.Snapshot
	match     *match.Match
	sessions  map[string]*session.Session // by connection id
	byPlayer  map[string]string           // player id -> connection id
	info      atomic.Pointer[messages.RoomInfo]
	stopped   atomic.Bool
	lastPhase netconfig.MatchStateID
}

func newRoom(id string, deps *Deps, sender Sender) *Room {
	r := &Room{
		id:       id,
		deps:     deps,
		sender:   sender,
		logger:   deps.Logger.With(slog.String("component", "room"), slog.String("room", id)),
		inbox:    make(chan any, inboxSize),
		done:     make(chan struct{}),
		sessions: make(map[string]*session.Session),
		byPlayer: make(map[string]string),
	}
	r.snap = deps.Config.Snapshot()
	r.match = r.newMatch()
	r.publish()
	return r
}

func (r *Room) newMatch() *match.Match {
	w := world.New(r.snap, r.deps.arenaFor(r.id), r.deps.Rand())
	return match.New(r.id, w, r.deps.Results, r.deps.Logger)
}

func (r *Room) ID() string { return r.id }

// Info is the latest published summary, safe to read from any goroutine.
func (r *Room) Info() messages.RoomInfo { return *r.info.Load() }

func (r *Room) publish() {
	r.info.Store(&messages.RoomInfo{
		ID:       r.id,
		Players:  len(r.sessions),
		Capacity: r.snap.Balance.RoomCapacity,
		Phase:    r.match.Phase().String(),
	})
}

// Run ticks the room until stop is closed.
func (r *Room) Run(stop <-chan struct{}) {
	defer func() {
		r.stopped.Store(true)
		close(r.done)
	}()
	bal := r.snap.Balance
	rate := bal.TickRate
	tick := time.NewTicker(time.Second / time.Duration(rate))
	defer tick.Stop()
	liveness := time.NewTicker(durationMs(bal.LivenessCheckMs, 5000))
	defer liveness.Stop()

	r.logger.Info("room started", slog.Int("tickRate", rate))
	for {
		select {
		case <-stop:
			r.logger.Info("room stopped")
			return
		case cmd := <-r.inbox:
			r.handle(cmd)
		case <-tick.C:
			r.Step(r.deps.Now())
			if r.snap.Balance.TickRate != rate {
				rate = r.snap.Balance.TickRate
				tick.Reset(time.Second / time.Duration(rate))
			}
		case <-liveness.C:
			r.EvictIdle(r.deps.Now())
		}
	}
}

func durationMs(ms, fallback int64) time.Duration {
	if ms <= 0 {
		ms = fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// call hands a control command to the room goroutine and waits for it.
func (r *Room) call(cmd any) error {
	if r.stopped.Load() {
		return ErrRoomStopped
	}
	select {
	case r.inbox <- cmd:
	case <-r.done:
		return ErrRoomStopped
	}
	switch c := cmd.(type) {
	case attachCmd:
		select {
		case err := <-c.reply:
			return err
		case <-r.done:
			return ErrRoomStopped
		}
	case detachCmd:
		select {
		case <-c.reply:
		case <-r.done:
		}
	}
	return nil
}

func (r *Room) attach(connID string, moved bool) error {
	return r.call(attachCmd{connID: connID, moved: moved, reply: make(chan error, 1)})
}

func (r *Room) detach(connID string) {
	_ = r.call(detachCmd{connID: connID, reply: make(chan struct{}, 1)})
}

// enqueue buffers an intent for the next tick. A full inbox drops it.
func (r *Room) enqueue(connID string, msg any) bool {
	select {
	case r.inbox <- intentCmd{connID: connID, msg: msg}:
		return true
	default:
		r.logger.Warn("inbox full, dropping intent", slog.String("conn", connID), slog.String("kind", messages.Kind(msg)))
		return false
	}
}

// handle runs control commands right away and buffers intents.
func (r *Room) handle(cmd any) {
	switch c := cmd.(type) {
	case attachCmd:
		c.reply <- r.onAttach(c.connID, c.moved)
	case detachCmd:
		r.onDetach(c.connID)
		c.reply <- struct{}{}
	case intentCmd:
		r.pending = append(r.pending, c)
	}
}

// onAttach greets with Hello on a fresh connection and Joined after a
// room switch. Connections to a match in progress spectate.
func (r *Room) onAttach(connID string, moved bool) error {
	if _, ok := r.sessions[connID]; ok {
		return nil
	}
	if c := r.snap.Balance.RoomCapacity; c > 0 && len(r.sessions) >= c {
		return fmt.Errorf("%w: %s has %d connections", ErrRoomFull, r.id, c)
	}
	now := r.deps.Now()
	s := session.New(connID, now)
	r.sessions[connID] = s

	hello := messages.Hello{Room: r.id}
	if p, ok := r.spawn(s, newPlayerID()); ok {
		hello.ID, hello.Element, hello.Token = p.ID, p.Element, s.Token
	}
	if moved {
		r.sender.Send(connID, messages.Joined{Room: r.id, ID: hello.ID, Element: hello.Element, Token: hello.Token})
	} else {
		r.sender.Send(connID, hello)
	}
	r.logger.Info("session attached",
		slog.String("conn", connID),
		slog.String("player", s.PlayerID),
		slog.Bool("spectator", s.Spectating()))
	r.publish()
	return nil
}

// spawn puts a fresh player for s into the match if it still accepts
// players, and issues its rejoin token.
func (r *Room) spawn(s *session.Session, playerID string) (*world.Player, bool) {
	p, err := r.match.Join(playerID, "")
	if err != nil {
		return nil, false
	}
	token, _, err := r.deps.Tokens.Issue(p.ID, r.id, time.UnixMilli(r.deps.Now()))
	if err != nil {
		r.logger.Warn("token issue failed", slog.String("player", p.ID), slog.Any("err", err))
	}
	s.PlayerID, s.Token = p.ID, token
	r.byPlayer[p.ID] = s.ConnID
	return p, true
}

// onDetach drops the session. A live player's state is kept for a rejoin.
func (r *Room) onDetach(connID string) {
	s, ok := r.sessions[connID]
	if !ok {
		return
	}
	delete(r.sessions, connID)
	playerID := s.PlayerID
	r.releasePlayer(s, true)
	r.logger.Info("session detached", slog.String("conn", connID), slog.String("player", playerID))
	r.publish()
}

func (r *Room) releasePlayer(s *session.Session, keep bool) {
	if s.PlayerID == "" {
		return
	}
	delete(r.byPlayer, s.PlayerID)
	st, ok := r.match.Leave(s.PlayerID)
	if ok && keep && s.Token != "" {
		if err := r.deps.Rejoin.Save(s.Token, st, r.deps.Now(), r.snap.Balance.RejoinTTLMs); err != nil {
			r.logger.Warn("rejoin snapshot failed", slog.String("player", s.PlayerID), slog.Any("err", err))
		}
	}
	s.PlayerID, s.Token = "", ""
}

// EvictIdle disconnects sessions not heard from within the idle timeout.
func (r *Room) EvictIdle(now int64) {
	timeout := r.snap.Balance.IdleTimeoutMs
	for connID, s := range r.sessions {
		if !s.Idle(now, timeout) {
			continue
		}
		r.logger.Info("evicting idle session", slog.String("conn", connID), slog.Int64("lastSeen", s.LastSeen()))
		r.onDetach(connID)
		r.sender.Close(connID)
	}
}

// Step runs one tick: config swap, buffered intents, the match tick and
// the broadcast.
func (r *Room) Step(now int64) {
	if snap := r.deps.Config.Snapshot(); snap != r.snap {
		r.snap = snap
		r.match.SetConfig(snap)
	}

drain:
	for {
		select {
		case cmd := <-r.inbox:
			r.handle(cmd)
		default:
			break drain
		}
	}
	pending := r.pending
	r.pending = nil
	for _, in := range pending {
		r.applySafely(in, now)
	}

	r.maybeRecycle(now)

	for _, ev := range r.match.Tick(now) {
		r.dispatch(ev)
	}
	snap := r.match.Snapshot()
	for connID := range r.sessions {
		r.sender.Send(connID, snap)
	}

	if ph := r.match.Phase(); ph != r.lastPhase {
		r.lastPhase = ph
		r.logger.Info("phase changed", slog.String("phase", ph.String()))
	}
	r.publish()
}

func (r *Room) applySafely(in intentCmd, now int64) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("intent panicked",
				slog.String("conn", in.connID),
				slog.String("kind", messages.Kind(in.msg)),
				slog.Any("panic", v))
		}
	}()
	r.apply(in.connID, in.msg, now)
}

// dispatch routes a match event: hits to the two players involved, the
// rest to everyone.
func (r *Room) dispatch(ev any) {
	hit, ok := ev.(messages.Hit)
	if !ok {
		for connID := range r.sessions {
			r.sender.Send(connID, ev)
		}
		return
	}
	if connID, ok := r.byPlayer[hit.From]; ok {
		if s := r.sessions[connID]; s != nil && hit.From != hit.To {
			s.Damage += hit.Damage
		}
		r.sender.Send(connID, hit)
	}
	if connID, ok := r.byPlayer[hit.To]; ok && hit.To != hit.From {
		r.sender.Send(connID, hit)
	}
}

// maybeRecycle replaces an ended match with a fresh lobby once the results
// hold has passed. Everyone connected joins the new lobby.
func (r *Room) maybeRecycle(now int64) {
	hold := r.snap.Balance.ResultsHoldMs
	if r.match.Phase() != netconfig.MatchStateEnded || hold <= 0 || now < r.match.EndedAt()+hold {
		return
	}
	r.match = r.newMatch()
	r.byPlayer = make(map[string]string)
	for connID, s := range r.sessions {
		id := s.PlayerID
		if id == "" {
			id = newPlayerID()
		}
		s.PlayerID, s.Token = "", ""
		joined := messages.Joined{Room: r.id}
		if p, ok := r.spawn(s, id); ok {
			joined.ID, joined.Element, joined.Token = p.ID, p.Element, s.Token
		}
		r.sender.Send(connID, joined)
	}
	r.logger.Info("match recycled", slog.Int("players", r.match.ActiveCount()))
}

func newPlayerID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func defaultRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
