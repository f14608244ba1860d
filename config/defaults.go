package config

import "github.com/automoto/dragonsons/shared/netconfig"

// Default is the built-in snapshot used when no balance file is given and
// as the base that a balance file overrides.
var Default *Snapshot

func init() {
	Default = defaults()
}

// defaults builds a fresh snapshot each call so overlays never alias the
// package default's maps or slices.
func defaults() *Snapshot {
	s := &Snapshot{
		Balance: Balance{
			TickRate:    20,
			BaseMove:    8.0,   // units per second
			AgiMoveCoef: 0.002, // +20% speed at 100 agility
			AgiAspdCoef: 0.004,
			AgiCastCoef: 0.003,
			AspdCap:     2.0,
			CastCap:     1.8,

			KDef:             200.0, // def 200 halves incoming damage
			ZoneBuffAtkPct:   0.10,
			ZoneDebuffDefPct: 0.10,
			StormDpsPct:      []float64{0.01, 0.02, 0.04, 0.08, 0.16},
			RingShrinkTimes:  []float64{60, 120, 180, 240},
			RingShrinkFactor: 0.75,

			SameFruitAtkCap:        64,
			SameFruitDiminishStart: 5,
			SameFruitDiminishRate:  0.5,

			MobSpawnEvery:  20,
			MobSpawnBatch:  3,
			ItemDropChance: 0.10,

			BaseHit:    0.90,
			AgiHitCoef: 0.001,
			MinHit:     0.20,
			MaxHit:     0.98,

			AttackCooldownMs: 600,
			AttackRange:      3.0,
			SlotCount:        4,

			MonsterHp:               50,
			MonsterSpeed:            3.0,
			MonsterAggroRange:       12.0,
			MonsterAttackRange:      1.5,
			MonsterAttackCooldownMs: 1000,
			MonsterDamage:           8,
			MonsterDef:              20,

			CritMax:  0.75,
			DodgeMax: 0.50,

			BombRadius:    4.0,
			BombDamage:    40,
			BombFuseMs:    1500,
			TrapRadius:    1.5,
			TrapDamage:    30,
			BlinkDistance: 6.0,
			PickupRadius:  1.0,

			SkillZoneBonusPct: 0.15,
			SkillsPerPlayer:   2,

			MapWidth:      200,
			MapHeight:     200,
			InitialRadius: 100,
			PlayerMaxHp:   1000,

			RoomCapacity:    16,
			MaxRooms:        64,
			MinPlayers:      2,
			CountdownMs:     10_000,
			MatchDurationMs: 300_000, // 5 minutes
			ResultsHoldMs:   15_000,

			MoveThrottleMs:   30,
			MaxMoveMagnitude: 1.0,
			RejoinTTLMs:      60_000,
			IdleTimeoutMs:    30_000,
			LivenessCheckMs:  5_000,
		},
	}

	s.Content = Content{
		Elements: append([]netconfig.Element(nil), netconfig.Elements[:]...),
		ElementMatrix: ElementMatrix{
			netconfig.Metal: {netconfig.Wood: 1.25, netconfig.Fire: 0.85, netconfig.Water: 1.1, netconfig.Earth: 0.95},
			netconfig.Wood:  {netconfig.Earth: 1.25, netconfig.Metal: 0.85, netconfig.Fire: 1.1, netconfig.Water: 0.95},
			netconfig.Water: {netconfig.Fire: 1.25, netconfig.Earth: 0.85, netconfig.Wood: 1.1, netconfig.Metal: 0.95},
			netconfig.Fire:  {netconfig.Metal: 1.25, netconfig.Water: 0.85, netconfig.Earth: 1.1, netconfig.Wood: 0.95},
			netconfig.Earth: {netconfig.Water: 1.25, netconfig.Wood: 0.85, netconfig.Metal: 1.1, netconfig.Fire: 0.95},
		},
		Characters: []CharacterDef{
			{ID: "wanderer", Name: "Wanderer", Element: RandomElement, Atk: 100, Def: 80, Agi: 100, Dodge: 0.05, Crit: 0.10, CritDmg: 1.5},
			{ID: "bulwark", Name: "Bulwark", Element: "earth", Atk: 90, Def: 140, Agi: 60, Dodge: 0.02, Crit: 0.05, CritDmg: 1.5, MaxHp: 1200},
			{ID: "duelist", Name: "Duelist", Element: "metal", Atk: 115, Def: 60, Agi: 130, Dodge: 0.08, Crit: 0.18, CritDmg: 1.7},
		},
		Fruits: []FruitDef{
			{Element: netconfig.Metal, SelfAtkFlat: 8, Other: FruitOther{
				Grant: StatBundle{CritRatePct: 0.02},
				Cap:   StatBundle{CritRatePct: 0.20},
			}},
			{Element: netconfig.Wood, SelfAtkFlat: 8, Other: FruitOther{
				Grant: StatBundle{AgiFlat: 5},
				Cap:   StatBundle{AgiFlat: 50},
			}},
			{Element: netconfig.Water, SelfAtkFlat: 8, Other: FruitOther{
				Grant: StatBundle{DodgePct: 0.01},
				Cap:   StatBundle{DodgePct: 0.10},
			}},
			{Element: netconfig.Fire, SelfAtkFlat: 8, Other: FruitOther{
				Grant: StatBundle{CritDmg: 0.05},
				Cap:   StatBundle{CritDmg: 0.50},
			}},
			{Element: netconfig.Earth, SelfAtkFlat: 8, Other: FruitOther{
				Grant: StatBundle{DefFlat: 6},
				Cap:   StatBundle{DefFlat: 60},
			}},
		},
		Items: []ItemDef{
			{ID: "invuln", Name: "Jade Ward", Type: ItemInvulnerable, DurationMs: 3000, CooldownMs: 15000},
			{ID: "boots", Name: "Wind Boots", Type: ItemSpeed, DurationMs: 6000, CooldownMs: 12000, Multiplier: 1.6},
			{ID: "potion", Name: "Peach Elixir", Type: ItemHeal, CooldownMs: 8000, Amount: 250},
			{ID: "aegis", Name: "Bronze Aegis", Type: ItemShield, CooldownMs: 15000, Amount: 200},
			{ID: "bomb", Name: "Thunder Pot", Type: ItemBomb, CooldownMs: 3000},
			{ID: "trap", Name: "Snare", Type: ItemTrap, CooldownMs: 5000},
			{ID: "blink", Name: "Cloud Step", Type: ItemBlink, CooldownMs: 6000},
		},
		Skills: []SkillDef{
			{ID: "metal_slash", Name: "Metal Slash", Kind: SkillActive, Element: elem(netconfig.Metal), Power: 1.4, CooldownMs: 4000, CastMs: 300, Range: 4},
			{ID: "chain_spark", Name: "Chain Spark", Kind: SkillActive, Element: elem(netconfig.Metal), Power: 0.9, CooldownMs: 7000, CastMs: 400, Range: 10, ChainCount: 2},
			{ID: "wood_entangle", Name: "Entangle", Kind: SkillActive, Element: elem(netconfig.Wood), Power: 0.8, CooldownMs: 8000, CastMs: 500, Range: 8,
				Effects: &SkillEffects{RootMs: 1500}},
			{ID: "thorn_lash", Name: "Thorn Lash", Kind: SkillActive, Element: elem(netconfig.Wood), Power: 1.0, CooldownMs: 6000, CastMs: 300, Range: 4,
				Effects: &SkillEffects{BleedMs: 4000, BleedDps: 10}},
			{ID: "tidal_wave", Name: "Tidal Wave", Kind: SkillActive, Element: elem(netconfig.Water), Power: 1.1, CooldownMs: 6000, CastMs: 600, Range: 10, Radius: 4,
				Effects: &SkillEffects{SlowMs: 2000, SlowMul: 0.6}},
			{ID: "hush", Name: "Hush", Kind: SkillActive, Element: elem(netconfig.Water), Power: 0.5, CooldownMs: 9000, CastMs: 200, Range: 8,
				Effects: &SkillEffects{SilenceMs: 2000}},
			{ID: "fire_bolt", Name: "Fire Bolt", Kind: SkillActive, Element: elem(netconfig.Fire), Power: 1.6, CooldownMs: 5000, CastMs: 700, Range: 12,
				Effects: &SkillEffects{BurnMs: 3000, BurnDps: 15}},
			{ID: "earth_quake", Name: "Quake", Kind: SkillActive, Element: elem(netconfig.Earth), Power: 1.0, CooldownMs: 10000, CastMs: 900, Range: 6, Radius: 6,
				Effects: &SkillEffects{StunMs: 800}},
			{ID: "iron_skin", Name: "Iron Skin", Kind: SkillPassive, Element: elem(netconfig.Earth), Passive: &PassiveMods{DefFlat: 20, MaxHpFlat: 100}},
			{ID: "swift", Name: "Swift", Kind: SkillPassive, Element: elem(netconfig.Wood), Passive: &PassiveMods{AgiFlat: 15, MoveSpeedPct: 0.10}},
			{ID: "vampiric", Name: "Vampiric", Kind: SkillPassive, Element: elem(netconfig.Fire), Passive: &PassiveMods{LifestealPct: 0.08}},
			{ID: "thorns", Name: "Thorns", Kind: SkillPassive, Element: elem(netconfig.Metal), Passive: &PassiveMods{ReflectPct: 0.10}},
			{ID: "focus", Name: "Focus", Kind: SkillPassive, Element: elem(netconfig.Water), Passive: &PassiveMods{CdReductionPct: 0.10, ShieldFlat: 50}},
		},
		ElementSkillWeights: map[netconfig.Element][]WeightedID{
			netconfig.Metal: {{ID: "metal_slash", Weight: 3}, {ID: "chain_spark", Weight: 2}, {ID: "thorns", Weight: 1}},
			netconfig.Wood:  {{ID: "wood_entangle", Weight: 2}, {ID: "thorn_lash", Weight: 3}, {ID: "swift", Weight: 1}},
			netconfig.Water: {{ID: "tidal_wave", Weight: 3}, {ID: "hush", Weight: 2}, {ID: "focus", Weight: 1}},
			netconfig.Fire:  {{ID: "fire_bolt", Weight: 4}, {ID: "vampiric", Weight: 1}},
			netconfig.Earth: {{ID: "earth_quake", Weight: 3}, {ID: "iron_skin", Weight: 2}},
		},
	}
	return s
}

func elem(e netconfig.Element) *netconfig.Element {
	return &e
}
