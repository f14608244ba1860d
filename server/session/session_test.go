package session

import (
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/automoto/dragonsons/config"
	"github.com/automoto/dragonsons/server/world"
	"github.com/automoto/dragonsons/shared/messages"
	"github.com/automoto/dragonsons/shared/netconfig"
)

func testBalance() *config.Balance {
	b := config.Default.Balance
	b.MoveThrottleMs = 30
	b.MaxMoveMagnitude = 1
	b.AttackCooldownMs = 600
	b.AgiAspdCoef = 0.01
	b.AspdCap = 2
	b.AgiCastCoef = 0.01
	b.CastCap = 1.5
	b.SlotCount = 4
	return &b
}

func testPlayer(t *testing.T) *world.Player {
	t.Helper()
	snap := *config.Default
	w := world.New(&snap, world.Config{}, rand.New(rand.NewPCG(3, 4)))
	st := w.NewPlayerState("p1", "wanderer")
	st.Agi = 0
	st.CdReductionPct = 0
	st.Skills = []string{"fire_bolt"}
	return w.RestorePlayer(st)
}

func TestTrailKeepsNewest(t *testing.T) {
	var tr Trail
	for i := range trailSize + 5 {
		tr.Push(TrailPoint{X: float64(i), At: int64(i)})
	}
	pts := tr.Points()
	if len(pts) != trailSize {
		t.Fatalf("len = %d", len(pts))
	}
	if pts[0].X != 5 || pts[len(pts)-1].X != trailSize+4 {
		t.Fatalf("oldest %v newest %v", pts[0].X, pts[len(pts)-1].X)
	}
}

func TestSessionIdle(t *testing.T) {
	s := New("c1", 1000)
	if s.Idle(30_000, 30_000) {
		t.Fatal("idle at exactly the timeout")
	}
	if !s.Idle(31_001, 30_000) {
		t.Fatal("not idle past the timeout")
	}
	s.Touch(31_000)
	if s.Idle(31_001, 30_000) {
		t.Fatal("touch did not refresh")
	}
	if s.Idle(1<<40, 0) {
		t.Fatal("zero timeout should disable eviction")
	}
}

func TestMoveThrottleAndClamp(t *testing.T) {
	g := NewGuard(nil)
	bal := testBalance()
	s := New("c1", 0)

	vx, vy, err := g.Move(bal, s, 3, 4, 100)
	if err != nil {
		t.Fatalf("first move: %v", err)
	}
	if math.Abs(math.Hypot(vx, vy)-1) > 1e-9 {
		t.Fatalf("clamped length = %v", math.Hypot(vx, vy))
	}
	if _, _, err := g.Move(bal, s, 0.1, 0, 110); !errors.Is(err, ErrThrottled) {
		t.Fatalf("move inside throttle window: %v", err)
	}
	vx, vy, err = g.Move(bal, s, 0.3, 0.4, 130)
	if err != nil || vx != 0.3 || vy != 0.4 {
		t.Fatalf("short vector altered: %v %v %v", vx, vy, err)
	}
	for _, bad := range [][2]float64{{math.NaN(), 0}, {0, math.Inf(1)}} {
		if _, _, err := g.Move(bal, s, bad[0], bad[1], 1000); !errors.Is(err, ErrInvalidIntent) {
			t.Fatalf("non-finite %v accepted: %v", bad, err)
		}
	}
}

func TestAttackCooldownScalesWithAgility(t *testing.T) {
	g := NewGuard(nil)
	bal := testBalance()
	p := testPlayer(t)

	if err := g.Attack(bal, p, 1); err != nil {
		t.Fatalf("first attack: %v", err)
	}
	p.LastAttackAt = 1000
	if err := g.Attack(bal, p, 1599); !errors.Is(err, ErrCooldown) {
		t.Fatalf("attack at 599ms: %v", err)
	}
	if err := g.Attack(bal, p, 1600); err != nil {
		t.Fatalf("attack at 600ms: %v", err)
	}

	p.Agi = 500 // factor capped at 2
	if got := AttackInterval(bal, p); got != 300 {
		t.Fatalf("interval = %d, want 300", got)
	}
}

func TestCastCooldown(t *testing.T) {
	g := NewGuard(nil)
	bal := testBalance()
	p := testPlayer(t)
	bolt, _ := config.Default.Skill("fire_bolt")
	quake, _ := config.Default.Skill("earth_quake")

	if err := g.Cast(p, quake, 0); !errors.Is(err, ErrNotOwned) {
		t.Fatalf("unowned skill: %v", err)
	}
	if err := g.Cast(p, bolt, 0); err != nil {
		t.Fatalf("cast: %v", err)
	}
	p.CdReductionPct = 0.2
	p.Agi = 50 // cast factor 1.5
	g.CommitCast(bal, p, bolt, 1000)
	// 5000 * 0.8 / 1.5
	want := int64(1000 + 2667)
	if p.Cooldowns[SkillKey("fire_bolt")] != want {
		t.Fatalf("ready at %d, want %d", p.Cooldowns[SkillKey("fire_bolt")], want)
	}
	if err := g.Cast(p, bolt, want-1); !errors.Is(err, ErrCooldown) {
		t.Fatalf("cast on cooldown: %v", err)
	}
	if err := g.Cast(p, bolt, want); err != nil {
		t.Fatalf("cast when ready: %v", err)
	}
}

func TestSlotsRequireOwnership(t *testing.T) {
	g := NewGuard(nil)
	bal := testBalance()
	p := testPlayer(t)

	if err := g.Assign(bal, p, 0, "potion"); !errors.Is(err, ErrNotOwned) {
		t.Fatalf("assign unowned: %v", err)
	}
	p.Bag["potion"] = 1
	if err := g.Assign(bal, p, 4, "potion"); !errors.Is(err, ErrInvalidIntent) {
		t.Fatalf("assign out of range: %v", err)
	}
	if err := g.Assign(bal, p, 1, "potion"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if id, err := g.Slot(bal, p, 1); err != nil || id != "potion" {
		t.Fatalf("slot 1 = %q, %v", id, err)
	}
	if _, err := g.Slot(bal, p, 0); !errors.Is(err, ErrInvalidIntent) {
		t.Fatalf("empty slot: %v", err)
	}

	delete(p.Bag, "potion")
	if _, err := g.Slot(bal, p, 1); !errors.Is(err, ErrNotOwned) {
		t.Fatalf("slot with used-up item: %v", err)
	}
}

func TestItemCooldown(t *testing.T) {
	g := NewGuard(nil)
	p := testPlayer(t)
	potion, _ := config.Default.Item("potion")

	if err := g.Item(p, potion, 0); !errors.Is(err, ErrNotOwned) {
		t.Fatalf("unowned item: %v", err)
	}
	p.Bag["potion"] = 2
	g.CommitItem(p, potion, 100)
	if err := g.Item(p, potion, 100+potion.CooldownMs-1); !errors.Is(err, ErrCooldown) {
		t.Fatalf("item on cooldown: %v", err)
	}
	if err := g.Item(p, potion, 100+potion.CooldownMs); err != nil {
		t.Fatalf("item ready: %v", err)
	}
}

func TestSignature(t *testing.T) {
	secret := []byte("s3cret")
	g := NewGuard(secret)

	msg := messages.Move{VX: 0.5, VY: -0.25}
	if err := g.Verify(msg); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("unsigned message: %v", err)
	}
	sig, err := Sign(secret, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	msg.Sig = sig
	if err := g.Verify(msg); err != nil {
		t.Fatalf("signed message rejected: %v", err)
	}

	msg.VX = 0.6
	if err := g.Verify(msg); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("tampered message accepted: %v", err)
	}

	if err := NewGuard(nil).Verify(messages.Ping{}); err != nil {
		t.Fatalf("unsigned channel rejected: %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer([]byte("key"))
	tok, jti, err := ti.Issue("p1", "main", time.Unix(100, 0))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	c, err := ti.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Subject != "p1" || c.Room != "main" || c.ID != jti {
		t.Fatalf("claims = %+v", c)
	}

	if _, err := NewTokenIssuer([]byte("other")).Parse(tok); !errors.Is(err, ErrTokenUnknown) {
		t.Fatalf("foreign key: %v", err)
	}
	other, _, _ := ti.Issue("p2", "main", time.Unix(100, 0))
	parts := strings.Split(tok, ".")
	parts[1] = strings.Split(other, ".")[1]
	if _, err := ti.Parse(strings.Join(parts, ".")); !errors.Is(err, ErrTokenUnknown) {
		t.Fatalf("tampered token: %v", err)
	}
}

func fullState(t *testing.T) world.PlayerState {
	t.Helper()
	st := testPlayer(t).PlayerState
	st.X, st.Y = 12.5, 40.25
	st.HP = 432.5
	st.FruitAtkFlat = 16
	st.SameFruitStacks[netconfig.Fire] = 3
	st.Gains.CritRatePct = 0.04
	st.InvulnUntil, st.SpeedUntil, st.SpeedMul = 5000, 6000, 1.6
	st.BurnUntil, st.BurnDps = 7000, 15
	st.ShieldHP = 80
	st.Bag = map[string]int{"potion": 2, "bomb": 1}
	st.Cooldowns = map[string]int64{SkillKey("fire_bolt"): 9000}
	st.Slots = []string{"potion", "", "bomb", ""}
	st.LastAttackAt = 4500
	return st
}

func TestRejoinRoundTrip(t *testing.T) {
	ti := NewTokenIssuer(nil)
	store := NewRejoinStore(ti)
	tok, _, _ := ti.Issue("p1", "main", time.Unix(0, 0))
	st := fullState(t)

	if err := store.Save(tok, st, 1000, 60_000); err != nil {
		t.Fatalf("Save: %v", err)
	}
	g, err := store.Claim(tok, 60_999)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if g.PlayerID != "p1" || g.Room != "main" {
		t.Fatalf("grant = %s in %s", g.PlayerID, g.Room)
	}
	if !reflect.DeepEqual(g.State, st) {
		t.Fatalf("state changed in transit:\n got %+v\nwant %+v", g.State, st)
	}
	if _, err := store.Claim(tok, 61_000); !errors.Is(err, ErrTokenUnknown) {
		t.Fatalf("second claim: %v", err)
	}
}

func TestRejoinExpiry(t *testing.T) {
	ti := NewTokenIssuer(nil)
	store := NewRejoinStore(ti)
	tok, _, _ := ti.Issue("p1", "main", time.Unix(0, 0))

	store.Save(tok, fullState(t), 1000, 60_000)
	if _, err := store.Claim(tok, 61_000); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("claim at expiry: %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("expired entry not consumed")
	}

	if _, err := store.Claim("garbage", 0); !errors.Is(err, ErrTokenUnknown) {
		t.Fatalf("garbage token: %v", err)
	}
}

func TestClaimForLeavesRefusedEntries(t *testing.T) {
	ti := NewTokenIssuer(nil)
	store := NewRejoinStore(ti)
	tok, _, _ := ti.Issue("p1", "main", time.Unix(0, 0))
	store.Save(tok, fullState(t), 1000, 60_000)

	if _, err := store.ClaimFor(tok, 2000, "arena", nil); !errors.Is(err, ErrWrongRoom) {
		t.Fatalf("wrong room: %v", err)
	}
	present := func(id string) bool { return id == "p1" }
	if _, err := store.ClaimFor(tok, 2000, "main", present); !errors.Is(err, ErrPlayerPresent) {
		t.Fatalf("present player: %v", err)
	}
	if store.Len() != 1 {
		t.Fatal("refused claim consumed the entry")
	}

	g, err := store.ClaimFor(tok, 2000, "main", func(string) bool { return false })
	if err != nil || g.PlayerID != "p1" {
		t.Fatalf("claim = %+v, %v", g, err)
	}
	if store.Len() != 0 {
		t.Fatal("granted entry not consumed")
	}
}

func TestRejoinSweep(t *testing.T) {
	ti := NewTokenIssuer(nil)
	store := NewRejoinStore(ti)
	for i, ttl := range []int64{10, 20, 1000} {
		tok, _, _ := ti.Issue("p"+string(rune('a'+i)), "main", time.Unix(0, 0))
		store.Save(tok, world.PlayerState{}, 0, ttl)
	}
	if n := store.Sweep(20); n != 2 {
		t.Fatalf("swept %d, want 2", n)
	}
	if store.Len() != 1 {
		t.Fatalf("left %d", store.Len())
	}
}
