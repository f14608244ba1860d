package config

import (
	"errors"
	"fmt"

	"github.com/automoto/dragonsons/shared/netconfig"
)

// ErrInvalidConfig is returned when a balance file fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Balance contains every tunable numeric constant of the simulation.
// Durations with a Ms suffix are milliseconds; plain time values are seconds.
type Balance struct {
	// Tick and movement
	TickRate    int     `json:"tickRate"`
	BaseMove    float64 `json:"baseMove"` // units per second at agility 0
	AgiMoveCoef float64 `json:"agiMoveCoef"`
	AgiAspdCoef float64 `json:"agiAspdCoef"`
	AgiCastCoef float64 `json:"agiCastCoef"`
	AspdCap     float64 `json:"aspdCap"`
	CastCap     float64 `json:"castCap"`

	// Mitigation and zone
	KDef             float64   `json:"kDef"`
	ZoneBuffAtkPct   float64   `json:"zoneBuffAtkPct"`
	ZoneDebuffDefPct float64   `json:"zoneDebuffDefPct"`
	StormDpsPct      []float64 `json:"stormDpsPct"`
	RingShrinkTimes  []float64 `json:"ringShrinkTimes"`
	RingShrinkFactor float64   `json:"ringShrinkFactor"`

	// Fruit stacking
	SameFruitAtkCap        float64 `json:"sameFruitAtkCap"`
	SameFruitDiminishStart int     `json:"sameFruitDiminishStart"`
	SameFruitDiminishRate  float64 `json:"sameFruitDiminishRate"`

	// Spawning and drops
	MobSpawnEvery  float64 `json:"mobSpawnEvery"`
	MobSpawnBatch  int     `json:"mobSpawnBatch"`
	ItemDropChance float64 `json:"itemDropChance"`

	// Hit chance
	BaseHit    float64 `json:"baseHit"`
	AgiHitCoef float64 `json:"agiHitCoef"`
	MinHit     float64 `json:"minHit"`
	MaxHit     float64 `json:"maxHit"`

	AttackCooldownMs int64   `json:"attackCooldownMs"`
	AttackRange      float64 `json:"attackRange"` // 0 disables the range check
	SlotCount        int     `json:"slotCount"`

	// Monsters
	MonsterHp               float64 `json:"monsterHp"`
	MonsterSpeed            float64 `json:"monsterSpeed"`
	MonsterAggroRange       float64 `json:"monsterAggroRange"`
	MonsterAttackRange      float64 `json:"monsterAttackRange"`
	MonsterAttackCooldownMs int64   `json:"monsterAttackCooldownMs"`
	MonsterDamage           float64 `json:"monsterDamage"`
	MonsterDef              float64 `json:"monsterDef"`

	// Global caps
	CritMax  float64 `json:"critMax"`
	DodgeMax float64 `json:"dodgeMax"`

	// Throwables, traps, blink
	BombRadius    float64 `json:"bombRadius"`
	BombDamage    float64 `json:"bombDamage"`
	BombFuseMs    int64   `json:"bombFuseMs"`
	TrapRadius    float64 `json:"trapRadius"`
	TrapDamage    float64 `json:"trapDamage"`
	BlinkDistance float64 `json:"blinkDistance"`
	PickupRadius  float64 `json:"pickupRadius"`

	SkillZoneBonusPct float64 `json:"skillZoneBonusPct"`
	SkillsPerPlayer   int     `json:"skillsPerPlayer"`

	// Map
	MapWidth      float64 `json:"mapWidth"`
	MapHeight     float64 `json:"mapHeight"`
	InitialRadius float64 `json:"initialRadius"`
	PlayerMaxHp   float64 `json:"playerMaxHp"`

	// Rooms and match flow
	RoomCapacity    int   `json:"roomCapacity"`
	MaxRooms        int   `json:"maxRooms"` // including the default room; 0 = unlimited
	MinPlayers      int   `json:"minPlayers"`
	CountdownMs     int64 `json:"countdownMs"`
	MatchDurationMs int64 `json:"matchDurationMs"`
	ResultsHoldMs   int64 `json:"resultsHoldMs"` // 0 keeps ended rooms ended

	// Sessions
	MoveThrottleMs   int64   `json:"moveThrottleMs"`
	MaxMoveMagnitude float64 `json:"maxMoveMagnitude"`
	RejoinTTLMs      int64   `json:"rejoinTtlMs"`
	IdleTimeoutMs    int64   `json:"idleTimeoutMs"`
	LivenessCheckMs  int64   `json:"livenessCheckMs"`
}

// StormDps returns the storm damage fraction of max hp per second for a
// shrink stage, clamped to the last configured stage.
func (b *Balance) StormDps(stage int) float64 {
	if len(b.StormDpsPct) == 0 {
		return 0
	}
	if stage < 0 {
		stage = 0
	}
	if stage >= len(b.StormDpsPct) {
		stage = len(b.StormDpsPct) - 1
	}
	return b.StormDpsPct[stage]
}

// TickSeconds is the fixed simulation step.
func (b *Balance) TickSeconds() float64 {
	return 1 / float64(b.TickRate)
}

// Validate checks the invariants the simulation relies on.
func (b *Balance) Validate() error {
	switch {
	case b.TickRate <= 0:
		return fmt.Errorf("%w: tickRate must be positive", ErrInvalidConfig)
	case b.KDef <= 0:
		return fmt.Errorf("%w: kDef must be positive", ErrInvalidConfig)
	case b.MinHit > b.MaxHit:
		return fmt.Errorf("%w: minHit %v above maxHit %v", ErrInvalidConfig, b.MinHit, b.MaxHit)
	case b.RingShrinkFactor <= 0 || b.RingShrinkFactor > 1:
		return fmt.Errorf("%w: ringShrinkFactor must be in (0,1]", ErrInvalidConfig)
	case len(b.StormDpsPct) == 0:
		return fmt.Errorf("%w: stormDpsPct is empty", ErrInvalidConfig)
	case b.MapWidth <= 0 || b.MapHeight <= 0:
		return fmt.Errorf("%w: map size must be positive", ErrInvalidConfig)
	case b.InitialRadius <= 0:
		return fmt.Errorf("%w: initialRadius must be positive", ErrInvalidConfig)
	case b.SameFruitAtkCap < 0:
		return fmt.Errorf("%w: sameFruitAtkCap is negative", ErrInvalidConfig)
	case b.SlotCount < 0:
		return fmt.Errorf("%w: slotCount is negative", ErrInvalidConfig)
	case b.PlayerMaxHp <= 0:
		return fmt.Errorf("%w: playerMaxHp must be positive", ErrInvalidConfig)
	case b.MaxRooms < 0:
		return fmt.Errorf("%w: maxRooms is negative", ErrInvalidConfig)
	}
	for i := 1; i < len(b.RingShrinkTimes); i++ {
		if b.RingShrinkTimes[i] < b.RingShrinkTimes[i-1] {
			return fmt.Errorf("%w: ringShrinkTimes not ascending at %d", ErrInvalidConfig, i)
		}
	}
	return nil
}

// ElementMatrix holds the attacker -> defender damage multipliers.
// Missing entries are neutral.
type ElementMatrix map[netconfig.Element]map[netconfig.Element]float64

// Multiplier looks up attacker -> defender, defaulting to 1.
func (m ElementMatrix) Multiplier(attacker, defender netconfig.Element) float64 {
	if row, ok := m[attacker]; ok {
		if v, ok := row[defender]; ok {
			return v
		}
	}
	return 1
}

// IsCounter reports whether attacker beats defender.
func (m ElementMatrix) IsCounter(attacker, defender netconfig.Element) bool {
	return m.Multiplier(attacker, defender) > 1
}
