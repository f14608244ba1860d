// Package session tracks connections, validates their intents and keeps
// disconnected players' state around for a rejoin.
package session

import (
	"errors"
	"sync/atomic"
)

var (
	ErrInvalidIntent = errors.New("invalid intent")
	ErrThrottled     = errors.New("throttled")
	ErrCooldown      = errors.New("on cooldown")
	ErrNotOwned      = errors.New("not owned")
	ErrBadSignature  = errors.New("bad signature")
	ErrTokenExpired  = errors.New("rejoin token expired")
	ErrTokenUnknown  = errors.New("rejoin token unknown")
	ErrWrongRoom     = errors.New("rejoin token saved in another room")
	ErrPlayerPresent = errors.New("player already present")
)

const trailSize = 32

// TrailPoint is one recorded position.
type TrailPoint struct {
	X, Y float64
	At   int64
}

// Trail is a fixed-size ring of recent positions.
type Trail struct {
	buf  [trailSize]TrailPoint
	head int
	n    int
}

// Push records a point, overwriting the oldest once full.
func (t *Trail) Push(p TrailPoint) {
	t.buf[t.head] = p
	t.head = (t.head + 1) % trailSize
	if t.n < trailSize {
		t.n++
	}
}

// Points returns the recorded points, oldest first.
func (t *Trail) Points() []TrailPoint {
	out := make([]TrailPoint, 0, t.n)
	start := (t.head - t.n + trailSize) % trailSize
	for i := range t.n {
		out = append(out, t.buf[(start+i)%trailSize])
	}
	return out
}

func (t *Trail) Len() int { return t.n }

// Session is one connection's state inside a room.
type Session struct {
	ConnID   string
	PlayerID string // empty while spectating
	Token    string
	Damage   int

	lastSeen atomic.Int64 // unix ms
	lastMove int64
	moved    bool
	trail    Trail
}

// New returns a session last seen at now.
func New(connID string, now int64) *Session {
	s := &Session{ConnID: connID}
	s.lastSeen.Store(now)
	return s
}

// Touch marks the connection as alive at now.
func (s *Session) Touch(now int64) {
	s.lastSeen.Store(now)
}

func (s *Session) LastSeen() int64 {
	return s.lastSeen.Load()
}

// Idle reports whether nothing was heard for longer than timeoutMs.
// A non-positive timeout disables the check.
func (s *Session) Idle(now, timeoutMs int64) bool {
	if timeoutMs <= 0 {
		return false
	}
	return now-s.lastSeen.Load() > timeoutMs
}

func (s *Session) Spectating() bool { return s.PlayerID == "" }

// Record appends a position to the trail.
func (s *Session) Record(x, y float64, now int64) {
	s.trail.Push(TrailPoint{X: x, Y: y, At: now})
}

func (s *Session) Trail() []TrailPoint { return s.trail.Points() }
