package room

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/automoto/dragonsons/server/match"
	"github.com/automoto/dragonsons/server/session"
	"github.com/automoto/dragonsons/server/world"
	"github.com/automoto/dragonsons/shared/messages"
)

// DefaultRoom is created with the registry and receives new connections.
const DefaultRoom = "main"

var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// Leaderboard serves global leaderboard pages.
type Leaderboard interface {
	Leaderboard(by string, page, size int) messages.LeaderboardPage
}

// Deps are the process-wide collaborators every room shares. A room whose
// id has an entry in Arenas plays on that map; the rest use Arena.
type Deps struct {
	Config  ConfigSource
	Guard   *session.Guard
	Tokens  *session.TokenIssuer
	Rejoin  *session.RejoinStore
	Results match.ResultSink
	Board   Leaderboard
	Arena   world.Config
	Arenas  map[string]world.Config
	Logger  *slog.Logger
	Now     func() int64 // unix ms
	Rand    func() *rand.Rand
}

func (d *Deps) arenaFor(roomID string) world.Config {
	if cfg, ok := d.Arenas[roomID]; ok {
		return cfg
	}
	return d.Arena
}

func (d *Deps) fill() {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = func() int64 { return time.Now().UnixMilli() }
	}
	if d.Rand == nil {
		d.Rand = defaultRand
	}
	if d.Guard == nil {
		d.Guard = session.NewGuard(nil)
	}
	if d.Tokens == nil {
		d.Tokens = session.NewTokenIssuer(nil)
	}
	if d.Rejoin == nil {
		d.Rejoin = session.NewRejoinStore(d.Tokens)
	}
}

// Registry owns the rooms and routes connections to them. Transports call
// OnOpen, OnMessage and OnClose from their own goroutines.
type Registry struct {
	deps   Deps
	logger *slog.Logger

	mu     sync.RWMutex
	sender Sender
	rooms  map[string]*Room
	routes map[string]string // connection id -> room id
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewRegistry creates the registry and its default room. Rooms start
// ticking once Run is called.
func NewRegistry(deps Deps, sender Sender) *Registry {
	deps.fill()
	r := &Registry{
		deps:   deps,
		logger: deps.Logger.With(slog.String("component", "registry")),
		sender: sender,
		rooms:  make(map[string]*Room),
		routes: make(map[string]string),
	}
	r.rooms[DefaultRoom] = newRoom(DefaultRoom, &r.deps, sender)
	return r
}

// Run ticks every room until ctx is done and sweeps expired rejoin
// entries in the meantime.
func (r *Registry) Run(ctx context.Context) error {
	r.mu.Lock()
	r.stop = make(chan struct{})
	for _, room := range r.rooms {
		r.start(room)
	}
	r.mu.Unlock()

	sweep := time.NewTicker(durationMs(r.deps.Config.Snapshot().Balance.LivenessCheckMs, 5000))
	defer sweep.Stop()
	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			close(r.stop)
			r.mu.Unlock()
			r.wg.Wait()
			return nil
		case <-sweep.C:
			if n := r.deps.Rejoin.Sweep(r.deps.Now()); n > 0 {
				r.logger.Debug("swept rejoin entries", slog.Int("count", n))
			}
		}
	}
}

// start must be called with mu held.
func (r *Registry) start(room *Room) {
	stop := r.stop
	r.wg.Go(func() { room.Run(stop) })
}

// Create adds a room. The id must be new and made of letters, digits,
// dashes or underscores.
func (r *Registry) Create(id string) (*Room, error) {
	if !roomIDPattern.MatchString(id) {
		return nil, fmt.Errorf("%w: bad room id %q", ErrRoomNotFound, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomExists, id)
	}
	if limit := r.deps.Config.Snapshot().Balance.MaxRooms; limit > 0 && len(r.rooms) >= limit {
		return nil, fmt.Errorf("%w: limit %d", ErrTooManyRooms, limit)
	}
	room := newRoom(id, &r.deps, r.sender)
	r.rooms[id] = room
	if r.stop != nil {
		r.start(room)
	}
	r.logger.Info("room created", slog.String("room", id))
	return room, nil
}

// Room looks a room up by id.
func (r *Registry) Room(id string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// List returns every room ordered by id.
func (r *Registry) List() []messages.RoomInfo {
	r.mu.RLock()
	out := make([]messages.RoomInfo, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room.Info())
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b messages.RoomInfo) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Leaderboard pages the global leaderboard; empty without a board.
func (r *Registry) Leaderboard(by string, page, size int) messages.LeaderboardPage {
	if r.deps.Board == nil {
		return messages.LeaderboardPage{By: by}
	}
	return r.deps.Board.Leaderboard(by, page, size)
}

func (r *Registry) route(connID string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[r.routes[connID]]
	return room, ok
}

func (r *Registry) setRoute(connID, roomID string) {
	r.mu.Lock()
	if roomID == "" {
		delete(r.routes, connID)
	} else {
		r.routes[connID] = roomID
	}
	r.mu.Unlock()
}

// OnOpen attaches a new connection to the default room. A full default
// room closes the connection.
func (r *Registry) OnOpen(connID string) {
	room, _ := r.Room(DefaultRoom)
	if err := room.attach(connID, false); err != nil {
		r.logger.Warn("connection refused", slog.String("conn", connID), slog.Any("err", err))
		r.sender.Close(connID)
		return
	}
	r.setRoute(connID, DefaultRoom)
}

// OnClose detaches the connection from its room.
func (r *Registry) OnClose(connID string) {
	room, ok := r.route(connID)
	r.setRoute(connID, "")
	if ok {
		room.detach(connID)
	}
}

// OnMessage handles registry-level requests and forwards everything else
// to the connection's room.
func (r *Registry) OnMessage(connID string, msg any) {
	if signed, ok := msg.(messages.Signed); ok {
		switch msg.(type) {
		case messages.ListRooms, messages.CreateRoom, messages.JoinRoom, messages.LeaderboardQuery:
			if err := r.deps.Guard.Verify(signed); err != nil {
				return
			}
		}
	}

	switch m := msg.(type) {
	case messages.ListRooms:
		r.sender.Send(connID, messages.Rooms{Rooms: r.List()})

	case messages.CreateRoom:
		_, err := r.Create(m.ID)
		if err != nil {
			r.logger.Info("create room refused", slog.String("conn", connID), slog.Any("err", err))
		}
		r.sender.Send(connID, messages.RoomCreated{ID: m.ID, Created: err == nil})

	case messages.JoinRoom:
		if err := r.move(connID, m.ID); err != nil {
			r.logger.Info("join room refused", slog.String("conn", connID), slog.Any("err", err))
		}

	case messages.LeaderboardQuery:
		r.sender.Send(connID, r.Leaderboard(m.By, m.Page, m.Size))

	case messages.Rejoin:
		// The token names its room; go there first.
		if c, err := r.deps.Tokens.Parse(m.Token); err == nil {
			if cur, ok := r.route(connID); ok && cur.ID() != c.Room {
				if err := r.move(connID, c.Room); err != nil {
					r.sender.Send(connID, messages.RejoinFail{Reason: "room"})
					return
				}
			}
		}
		r.forward(connID, msg)

	default:
		r.forward(connID, msg)
	}
}

func (r *Registry) forward(connID string, msg any) {
	if room, ok := r.route(connID); ok {
		room.enqueue(connID, msg)
	}
}

// move switches a connection to another room. The old room keeps the
// player's state for a rejoin, as on a disconnect.
func (r *Registry) move(connID, roomID string) error {
	target, ok := r.Room(roomID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	cur, ok := r.route(connID)
	if ok && cur == target {
		return nil
	}
	if err := target.attach(connID, true); err != nil {
		return err
	}
	if ok {
		cur.detach(connID)
	}
	r.setRoute(connID, roomID)
	return nil
}
