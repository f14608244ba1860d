package messages

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownKind = errors.New("unknown message kind")
	ErrMalformed   = errors.New("malformed message")
)

// Kind returns the logical name of a message, or "" if it is not part of
// the vocabulary. Client and server "start" share a name.
func Kind(msg any) string {
	switch msg.(type) {
	case Ping:
		return "ping"
	case Move:
		return "move"
	case Pickup:
		return "pickup"
	case AssignSlot:
		return "assignSlot"
	case UseSlot:
		return "useSlot"
	case UseItem:
		return "useItem"
	case Attack:
		return "attack"
	case Cast:
		return "cast"
	case Spectate:
		return "spectate"
	case Start, MatchStart:
		return "start"
	case Rejoin:
		return "rejoin"
	case ListRooms, Rooms:
		return "rooms"
	case CreateRoom:
		return "createRoom"
	case JoinRoom:
		return "joinRoom"
	case LeaderboardQuery, LeaderboardPage:
		return "leaderboard"
	case RoomBoardQuery, RoomBoardPage:
		return "roomBoard"
	case Hello:
		return "hello"
	case Pong:
		return "pong"
	case Hit:
		return "hit"
	case Snapshot:
		return "snapshot"
	case Countdown:
		return "countdown"
	case CountdownCancel:
		return "countdown_cancel"
	case Settlement:
		return "settlement"
	case RejoinOK:
		return "rejoin_ok"
	case RejoinFail:
		return "rejoin_fail"
	case RoomCreated:
		return "roomCreated"
	case Joined:
		return "joined"
	}
	return ""
}

func decodeAs[T any](data []byte) (any, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

var inbound = map[string]func([]byte) (any, error){
	"ping":        decodeAs[Ping],
	"move":        decodeAs[Move],
	"pickup":      decodeAs[Pickup],
	"assignSlot":  decodeAs[AssignSlot],
	"useSlot":     decodeAs[UseSlot],
	"useItem":     decodeAs[UseItem],
	"attack":      decodeAs[Attack],
	"cast":        decodeAs[Cast],
	"spectate":    decodeAs[Spectate],
	"start":       decodeAs[Start],
	"rejoin":      decodeAs[Rejoin],
	"rooms":       decodeAs[ListRooms],
	"createRoom":  decodeAs[CreateRoom],
	"joinRoom":    decodeAs[JoinRoom],
	"leaderboard": decodeAs[LeaderboardQuery],
	"roomBoard":   decodeAs[RoomBoardQuery],
}

// DecodeJSON parses a client frame of the form {"t":"move","vx":1,...}
// into its typed message value.
func DecodeJSON(data []byte) (any, error) {
	var env struct {
		T string `json:"t"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	decode, ok := inbound[env.T]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.T)
	}
	return decode(data)
}

// EncodeJSON renders a message as a flat JSON object with its kind in "t".
func EncodeJSON(msg any) ([]byte, error) {
	kind := Kind(msg)
	if kind == "" {
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, msg)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(body) + len(kind) + 8)
	buf.WriteString(`{"t":`)
	k, _ := json.Marshal(kind)
	buf.Write(k)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Canonical returns the bytes a message signature is computed over: the
// message's JSON form with its kind added and the signature removed, keys
// sorted.
func Canonical(msg any) ([]byte, error) {
	kind := Kind(msg)
	if kind == "" {
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, msg)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	delete(fields, "sig")
	fields["t"] = kind
	return json.Marshal(fields)
}
