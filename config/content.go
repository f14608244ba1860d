package config

import (
	"fmt"

	"github.com/automoto/dragonsons/shared/netconfig"
)

// RandomElement is the character element value meaning "roll at spawn".
const RandomElement = "random"

// CharacterDef is a playable character template.
type CharacterDef struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Element string  `json:"element"` // element name or "random"
	Atk     float64 `json:"atk"`
	Def     float64 `json:"def"`
	Agi     float64 `json:"agi"`
	Dodge   float64 `json:"dodge"`   // 0..1
	Crit    float64 `json:"crit"`    // 0..1
	CritDmg float64 `json:"critDmg"` // >= 1
	MaxHp   float64 `json:"maxHp"`   // 0 uses Balance.PlayerMaxHp
}

// StatBundle is the set of secondary stats a fruit of another element can
// grant. Every field is optional; zero grants nothing.
type StatBundle struct {
	CritRatePct float64 `json:"critRatePct,omitempty"`
	CritDmg     float64 `json:"critDmg,omitempty"`
	DefFlat     float64 `json:"defFlat,omitempty"`
	AgiFlat     float64 `json:"agiFlat,omitempty"`
	DodgePct    float64 `json:"dodgePct,omitempty"`
}

// FruitOther is what a fruit grants to players of a different element.
// Cap bounds the cumulative per-player gain of each stat independently.
type FruitOther struct {
	Grant StatBundle `json:"grant"`
	Cap   StatBundle `json:"cap"`
}

// FruitDef describes the fruit dropped for one element.
type FruitDef struct {
	Element     netconfig.Element `json:"element"`
	SelfAtkFlat float64           `json:"selfAtkFlat"`
	Other       FruitOther        `json:"other"`
}

// ItemType selects the effect applied when an item is used.
type ItemType string

const (
	ItemInvulnerable ItemType = "invulnerable"
	ItemSpeed        ItemType = "speed"
	ItemHeal         ItemType = "heal"
	ItemShield       ItemType = "shield"
	ItemBomb         ItemType = "bomb"
	ItemTrap         ItemType = "trap"
	ItemBlink        ItemType = "blink"
)

// ItemDef is a bag item.
type ItemDef struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       ItemType `json:"type"`
	DurationMs int64    `json:"durationMs,omitempty"`
	CooldownMs int64    `json:"cooldownMs,omitempty"`
	Multiplier float64  `json:"multiplier,omitempty"`
	Amount     float64  `json:"amount,omitempty"` // heal or shield amount
}

// SkillKind separates cast skills from spawn-time passives.
type SkillKind string

const (
	SkillActive  SkillKind = "active"
	SkillPassive SkillKind = "passive"
)

// PassiveMods are applied once when a player spawns with a passive skill.
type PassiveMods struct {
	AtkFlat        float64 `json:"atkFlat,omitempty"`
	DefFlat        float64 `json:"defFlat,omitempty"`
	AgiFlat        float64 `json:"agiFlat,omitempty"`
	CritRatePct    float64 `json:"critRatePct,omitempty"`
	CritDmg        float64 `json:"critDmg,omitempty"`
	DodgePct       float64 `json:"dodgePct,omitempty"`
	LifestealPct   float64 `json:"lifestealPct,omitempty"`
	ReflectPct     float64 `json:"reflectPct,omitempty"`
	CdReductionPct float64 `json:"cdReductionPct,omitempty"`
	MoveSpeedPct   float64 `json:"moveSpeedPct,omitempty"`
	MaxHpFlat      float64 `json:"maxHpFlat,omitempty"`
	ShieldFlat     float64 `json:"shieldFlat,omitempty"`
}

// SkillEffects are status effects applied to every target a cast damages.
type SkillEffects struct {
	StunMs    int64   `json:"stunMs,omitempty"`
	RootMs    int64   `json:"rootMs,omitempty"`
	SilenceMs int64   `json:"silenceMs,omitempty"`
	SlowMs    int64   `json:"slowMs,omitempty"`
	SlowMul   float64 `json:"slowMul,omitempty"`
	BleedMs   int64   `json:"bleedMs,omitempty"`
	BleedDps  float64 `json:"bleedDps,omitempty"`
	BurnMs    int64   `json:"burnMs,omitempty"`
	BurnDps   float64 `json:"burnDps,omitempty"`
}

// SkillDef is an active or passive skill.
type SkillDef struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Kind       SkillKind          `json:"kind"`
	Element    *netconfig.Element `json:"element,omitempty"`
	Rarity     string             `json:"rarity,omitempty"`
	Power      float64            `json:"power"`
	CooldownMs int64              `json:"cooldownMs"`
	CastMs     int64              `json:"castMs"`
	Radius     float64            `json:"radius,omitempty"`
	Range      float64            `json:"range,omitempty"`
	ChainCount int                `json:"chainCount,omitempty"`
	Passive    *PassiveMods       `json:"passive,omitempty"`
	Effects    *SkillEffects      `json:"effects,omitempty"`
}

// IsPassive reports whether the skill only applies spawn modifiers.
func (s *SkillDef) IsPassive() bool {
	return s.Kind == SkillPassive || (s.Kind == "" && s.Passive != nil)
}

// WeightedID is one entry of a weighted skill table.
type WeightedID struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
}

// Content holds the game content tables.
type Content struct {
	Elements            []netconfig.Element                  `json:"elements"`
	ElementMatrix       ElementMatrix                        `json:"elementMatrix"`
	Characters          []CharacterDef                       `json:"characters"`
	Fruits              []FruitDef                           `json:"fruits"`
	Items               []ItemDef                            `json:"items"`
	Skills              []SkillDef                           `json:"skills"`
	ElementSkillWeights map[netconfig.Element][]WeightedID `json:"elementSkillWeights,omitempty"`
}

// Fruit returns the fruit definition for an element.
func (c *Content) Fruit(e netconfig.Element) (FruitDef, bool) {
	for _, f := range c.Fruits {
		if f.Element == e {
			return f, true
		}
	}
	return FruitDef{}, false
}

// Item looks up an item by id.
func (c *Content) Item(id string) (*ItemDef, bool) {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// Skill looks up a skill by id.
func (c *Content) Skill(id string) (*SkillDef, bool) {
	for i := range c.Skills {
		if c.Skills[i].ID == id {
			return &c.Skills[i], true
		}
	}
	return nil, false
}

// Character looks up a character by id.
func (c *Content) Character(id string) (*CharacterDef, bool) {
	for i := range c.Characters {
		if c.Characters[i].ID == id {
			return &c.Characters[i], true
		}
	}
	return nil, false
}

// Validate checks cross references between the tables.
func (c *Content) Validate() error {
	if len(c.Characters) == 0 {
		return fmt.Errorf("%w: no characters", ErrInvalidConfig)
	}
	for _, e := range c.Elements {
		if !e.Valid() {
			return fmt.Errorf("%w: element %d", ErrInvalidConfig, e)
		}
	}
	for _, ch := range c.Characters {
		if ch.Element != RandomElement {
			if _, err := netconfig.ParseElement(ch.Element); err != nil {
				return fmt.Errorf("%w: character %q: %v", ErrInvalidConfig, ch.ID, err)
			}
		}
		if ch.CritDmg < 1 {
			return fmt.Errorf("%w: character %q critDmg below 1", ErrInvalidConfig, ch.ID)
		}
	}
	for _, it := range c.Items {
		switch it.Type {
		case ItemInvulnerable, ItemSpeed, ItemHeal, ItemShield, ItemBomb, ItemTrap, ItemBlink:
		default:
			return fmt.Errorf("%w: item %q has unknown type %q", ErrInvalidConfig, it.ID, it.Type)
		}
	}
	for _, s := range c.Skills {
		if s.Power < 0 || s.CooldownMs < 0 || s.CastMs < 0 {
			return fmt.Errorf("%w: skill %q has negative numbers", ErrInvalidConfig, s.ID)
		}
	}
	for e, table := range c.ElementSkillWeights {
		for _, w := range table {
			if _, ok := c.Skill(w.ID); !ok {
				return fmt.Errorf("%w: %s skill weight references unknown skill %q", ErrInvalidConfig, e, w.ID)
			}
		}
	}
	return nil
}
