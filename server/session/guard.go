package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/automoto/dragonsons/config"
	"github.com/automoto/dragonsons/server/world"
	"github.com/automoto/dragonsons/shared/gamemath"
	"github.com/automoto/dragonsons/shared/messages"
)

// SkillKey and ItemKey name entries of PlayerState.Cooldowns.
func SkillKey(id string) string { return "skill:" + id }
func ItemKey(id string) string  { return "item:" + id }

// Guard validates intents before they reach the match. Checks never
// mutate the player; the Commit methods start cooldowns once the action
// actually happened.
type Guard struct {
	secret []byte
}

// NewGuard returns a guard. An empty secret disables signature checks.
func NewGuard(secret []byte) *Guard {
	return &Guard{secret: secret}
}

func (g *Guard) Signed() bool { return len(g.secret) > 0 }

// Verify checks the HMAC-SHA256 signature of msg's canonical form.
func (g *Guard) Verify(msg messages.Signed) error {
	if !g.Signed() {
		return nil
	}
	sig := msg.Signature()
	if sig == "" {
		return fmt.Errorf("%w: missing", ErrBadSignature)
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return fmt.Errorf("%w: not hex", ErrBadSignature)
	}
	want, err := digest(g.secret, msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !hmac.Equal(got, want) {
		return fmt.Errorf("%w: mismatch", ErrBadSignature)
	}
	return nil
}

// Sign returns the hex signature a client attaches to msg.
func Sign(secret []byte, msg any) (string, error) {
	d, err := digest(secret, msg)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(d), nil
}

func digest(secret []byte, msg any) ([]byte, error) {
	body, err := messages.Canonical(msg)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil), nil
}

// Move throttles move intents per session and clamps the vector length.
func (g *Guard) Move(bal *config.Balance, s *Session, vx, vy float64, now int64) (float64, float64, error) {
	if !gamemath.Finite(vx, vy) {
		return 0, 0, fmt.Errorf("%w: non-finite move", ErrInvalidIntent)
	}
	if s.moved && now-s.lastMove < bal.MoveThrottleMs {
		return 0, 0, ErrThrottled
	}
	s.moved, s.lastMove = true, now
	if bal.MaxMoveMagnitude > 0 {
		vx, vy = gamemath.ClampMagnitude(vx, vy, bal.MaxMoveMagnitude)
	}
	return vx, vy, nil
}

// AttackInterval is the agility-scaled attack cooldown.
func AttackInterval(bal *config.Balance, p *world.Player) int64 {
	return gamemath.ScaledCooldownMs(bal.AttackCooldownMs, gamemath.SpeedFactor(p.Agi, bal.AgiAspdCoef, bal.AspdCap))
}

// Attack enforces the attack cooldown measured from the last swing.
func (g *Guard) Attack(bal *config.Balance, p *world.Player, now int64) error {
	if p.LastAttackAt != 0 && now < p.LastAttackAt+AttackInterval(bal, p) {
		return ErrCooldown
	}
	return nil
}

// SkillCooldown is the skill cooldown after passive reduction and cast
// speed scaling.
func SkillCooldown(bal *config.Balance, p *world.Player, def *config.SkillDef) int64 {
	base := int64(math.Round(float64(def.CooldownMs) * (1 - p.CdReductionPct)))
	return gamemath.ScaledCooldownMs(base, gamemath.SpeedFactor(p.Agi, bal.AgiCastCoef, bal.CastCap))
}

// Cast requires an owned active skill that is off cooldown.
func (g *Guard) Cast(p *world.Player, def *config.SkillDef, now int64) error {
	if def == nil || def.IsPassive() {
		return fmt.Errorf("%w: not an active skill", ErrInvalidIntent)
	}
	if !p.HasSkill(def.ID) {
		return fmt.Errorf("%w: skill %s", ErrNotOwned, def.ID)
	}
	if now < p.Cooldowns[SkillKey(def.ID)] {
		return ErrCooldown
	}
	return nil
}

func (g *Guard) CommitCast(bal *config.Balance, p *world.Player, def *config.SkillDef, now int64) {
	setCooldown(p, SkillKey(def.ID), now+SkillCooldown(bal, p, def))
}

// Item requires the item in the bag and off cooldown.
func (g *Guard) Item(p *world.Player, def *config.ItemDef, now int64) error {
	if def == nil {
		return fmt.Errorf("%w: unknown item", ErrInvalidIntent)
	}
	if !p.Owns(def.ID) {
		return fmt.Errorf("%w: item %s", ErrNotOwned, def.ID)
	}
	if now < p.Cooldowns[ItemKey(def.ID)] {
		return ErrCooldown
	}
	return nil
}

func (g *Guard) CommitItem(p *world.Player, def *config.ItemDef, now int64) {
	setCooldown(p, ItemKey(def.ID), now+def.CooldownMs)
}

// Slot resolves an equipped slot to its item. The item must still be in
// the bag.
func (g *Guard) Slot(bal *config.Balance, p *world.Player, slot int) (string, error) {
	if slot < 0 || slot >= bal.SlotCount {
		return "", fmt.Errorf("%w: slot %d", ErrInvalidIntent, slot)
	}
	id, ok := p.SlotItem(slot)
	if !ok {
		return "", fmt.Errorf("%w: slot %d is empty", ErrInvalidIntent, slot)
	}
	if !p.Owns(id) {
		return "", fmt.Errorf("%w: item %s", ErrNotOwned, id)
	}
	return id, nil
}

// Assign equips itemID into slot, or clears it when itemID is empty.
func (g *Guard) Assign(bal *config.Balance, p *world.Player, slot int, itemID string) error {
	if slot < 0 || slot >= bal.SlotCount {
		return fmt.Errorf("%w: slot %d", ErrInvalidIntent, slot)
	}
	if itemID != "" && !p.Owns(itemID) {
		return fmt.Errorf("%w: item %s", ErrNotOwned, itemID)
	}
	if len(p.Slots) < bal.SlotCount {
		p.Slots = append(p.Slots, make([]string, bal.SlotCount-len(p.Slots))...)
	}
	p.Slots[slot] = itemID
	return nil
}

func setCooldown(p *world.Player, key string, readyAt int64) {
	if p.Cooldowns == nil {
		p.Cooldowns = map[string]int64{}
	}
	p.Cooldowns[key] = readyAt
}
