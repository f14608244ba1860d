package session

import (
	"fmt"
	"sync"

	"github.com/automoto/dragonsons/server/world"
	"github.com/hashicorp/go-msgpack/v2/codec"
)

var msgpackHandle codec.MsgpackHandle

// Grant is a claimed rejoin: who, where and the saved state.
type Grant struct {
	PlayerID string
	Room     string
	State    world.PlayerState
}

type rejoinEntry struct {
	playerID string
	room     string
	data     []byte
	expires  int64
}

// RejoinStore keeps msgpack snapshots of disconnected players keyed by
// token id. Entries are single-use and expire by comparison at lookup.
type RejoinStore struct {
	mu      sync.Mutex
	tokens  *TokenIssuer
	entries map[string]rejoinEntry
}

func NewRejoinStore(tokens *TokenIssuer) *RejoinStore {
	return &RejoinStore{tokens: tokens, entries: make(map[string]rejoinEntry)}
}

// Save stores st under token until now+ttlMs.
func (r *RejoinStore) Save(token string, st world.PlayerState, now, ttlMs int64) error {
	claims, err := r.tokens.Parse(token)
	if err != nil {
		return err
	}
	var data []byte
	if err := codec.NewEncoderBytes(&data, &msgpackHandle).Encode(st); err != nil {
		return fmt.Errorf("encode rejoin state: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[claims.ID] = rejoinEntry{
		playerID: claims.Subject,
		room:     claims.Room,
		data:     data,
		expires:  now + ttlMs,
	}
	return nil
}

// Claim redeems token. A valid entry is consumed whether or not it has
// expired.
func (r *RejoinStore) Claim(token string, now int64) (Grant, error) {
	return r.ClaimFor(token, now, "", nil)
}

// ClaimFor is Claim limited to one room. An entry saved for another room,
// or whose player inUse reports as still present, is refused and stays
// claimable. An empty room or nil inUse skips that check.
func (r *RejoinStore) ClaimFor(token string, now int64, room string, inUse func(playerID string) bool) (Grant, error) {
	claims, err := r.tokens.Parse(token)
	if err != nil {
		return Grant{}, err
	}
	r.mu.Lock()
	e, ok := r.entries[claims.ID]
	switch {
	case !ok:
		r.mu.Unlock()
		return Grant{}, ErrTokenUnknown
	case now >= e.expires:
		delete(r.entries, claims.ID)
		r.mu.Unlock()
		return Grant{}, ErrTokenExpired
	case room != "" && e.room != room:
		r.mu.Unlock()
		return Grant{}, fmt.Errorf("%w: saved in %s", ErrWrongRoom, e.room)
	case inUse != nil && inUse(e.playerID):
		r.mu.Unlock()
		return Grant{}, fmt.Errorf("%w: %s", ErrPlayerPresent, e.playerID)
	}
	delete(r.entries, claims.ID)
	r.mu.Unlock()

	var st world.PlayerState
	if err := codec.NewDecoderBytes(e.data, &msgpackHandle).Decode(&st); err != nil {
		return Grant{}, fmt.Errorf("decode rejoin state: %w", err)
	}
	return Grant{PlayerID: e.playerID, Room: e.room, State: st}, nil
}

// Sweep drops expired entries and returns how many were removed.
func (r *RejoinStore) Sweep(now int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.entries {
		if now >= e.expires {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

func (r *RejoinStore) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
