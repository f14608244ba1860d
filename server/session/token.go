package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the body of a rejoin token.
type Claims struct {
	Room string `json:"room"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 rejoin tokens. The token names the
// player and room; how long it stays redeemable is up to the RejoinStore.
type TokenIssuer struct {
	key    []byte
	parser *jwt.Parser
}

// NewTokenIssuer uses key, or a random one when key is empty. A random
// key invalidates every token on restart.
func NewTokenIssuer(key []byte) *TokenIssuer {
	if len(key) == 0 {
		a, b := uuid.New(), uuid.New()
		key = append(a[:], b[:]...)
	}
	return &TokenIssuer{
		key:    key,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Issue returns a signed token and its unique id.
func (ti *TokenIssuer) Issue(playerID, roomID string, now time.Time) (token, jti string, err error) {
	jti = uuid.NewString()
	claims := Claims{
		Room: roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  playerID,
			ID:       jti,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.key)
	if err != nil {
		return "", "", fmt.Errorf("sign rejoin token: %w", err)
	}
	return token, jti, nil
}

// Parse verifies the signature and returns the claims.
func (ti *TokenIssuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := ti.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return ti.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrTokenUnknown, err)
	case claims.ID == "" || claims.Subject == "":
		return nil, fmt.Errorf("%w: incomplete claims", ErrTokenUnknown)
	}
	return claims, nil
}
