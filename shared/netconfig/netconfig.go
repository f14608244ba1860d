// Package netconfig defines lightweight types shared between the server and
// its clients for network serialization. It must have zero dependencies so
// that every package can import it.
package netconfig

import "fmt"

// MatchStateID represents the current phase of a match.
type MatchStateID int

const (
	MatchStateLobby     MatchStateID = iota // Waiting for players
	MatchStateCountdown                     // Pre-match countdown
	MatchStatePlaying                       // Active gameplay
	MatchStateEnded                         // Match settled, results shown
)

var matchStateNames = [...]string{
	MatchStateLobby:     "lobby",
	MatchStateCountdown: "countdown",
	MatchStatePlaying:   "playing",
	MatchStateEnded:     "ended",
}

func (s MatchStateID) String() string {
	if s >= 0 && int(s) < len(matchStateNames) {
		return matchStateNames[s]
	}
	return "unknown"
}

// Element is one of the five elements in the combat cycle.
type Element uint8

const (
	Metal Element = iota
	Wood
	Water
	Fire
	Earth
	ElementCount // Must be last - used for array sizing
)

// Elements lists every element in declaration order. Zone sectors are
// assigned from this order.
var Elements = [ElementCount]Element{Metal, Wood, Water, Fire, Earth}

var elementNames = [ElementCount]string{
	Metal: "metal",
	Wood:  "wood",
	Water: "water",
	Fire:  "fire",
	Earth: "earth",
}

func (e Element) String() string {
	if e < ElementCount {
		return elementNames[e]
	}
	return "unknown"
}

// Valid reports whether e is one of the five elements.
func (e Element) Valid() bool {
	return e < ElementCount
}

// ParseElement maps a lowercase element name to its Element.
func ParseElement(name string) (Element, error) {
	for i, n := range elementNames {
		if n == name {
			return Element(i), nil
		}
	}
	return 0, fmt.Errorf("unknown element %q", name)
}

// MarshalText encodes the element as its name so JSON config and
// messages stay human readable.
func (e Element) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("invalid element %d", e)
	}
	return []byte(e.String()), nil
}

func (e *Element) UnmarshalText(b []byte) error {
	v, err := ParseElement(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
