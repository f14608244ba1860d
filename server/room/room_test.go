package room

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/automoto/dragonsons/config"
	"github.com/automoto/dragonsons/server/session"
	"github.com/automoto/dragonsons/shared/messages"
	"github.com/automoto/dragonsons/shared/netconfig"
)

type staticConfig struct {
	mu   sync.Mutex
	snap *config.Snapshot
}

func (c *staticConfig) Snapshot() *config.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *staticConfig) set(s *config.Snapshot) {
	c.mu.Lock()
	c.snap = s
	c.mu.Unlock()
}

// fakeSender records everything sent, per connection.
type fakeSender struct {
	mu     sync.Mutex
	sent   map[string][]any
	closed map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: map[string][]any{}, closed: map[string]bool{}}
}

func (f *fakeSender) Send(connID string, msg any) {
	f.mu.Lock()
	f.sent[connID] = append(f.sent[connID], msg)
	f.mu.Unlock()
}

func (f *fakeSender) Close(connID string) {
	f.mu.Lock()
	f.closed[connID] = true
	f.mu.Unlock()
}

func (f *fakeSender) isClosed(connID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed[connID]
}

func (f *fakeSender) reset(connID string) {
	f.mu.Lock()
	delete(f.sent, connID)
	f.mu.Unlock()
}

// last returns the newest message of type T sent to connID.
func last[T any](f *fakeSender, connID string) (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.sent[connID]
	for i := len(msgs) - 1; i >= 0; i-- {
		if m, ok := msgs[i].(T); ok {
			return m, true
		}
	}
	var zero T
	return zero, false
}

type clock struct{ now int64 }

func (c *clock) Now() int64 { return c.now }

type harness struct {
	room   *Room
	sender *fakeSender
	clock  *clock
	cfg    *staticConfig
	deps   *Deps
}

func testSnapshot(mut func(b *config.Balance)) *config.Snapshot {
	snap := *config.Default
	snap.Balance.MobSpawnEvery = 0
	snap.Balance.MinPlayers = 2
	snap.Balance.RoomCapacity = 3
	snap.Balance.CountdownMs = 1000
	snap.Balance.MatchDurationMs = 10_000
	snap.Balance.ResultsHoldMs = 0
	snap.Balance.RejoinTTLMs = 60_000
	snap.Balance.IdleTimeoutMs = 30_000
	snap.Balance.MoveThrottleMs = 0
	if mut != nil {
		mut(&snap.Balance)
	}
	return &snap
}

func newHarness(t *testing.T, mut func(b *config.Balance)) *harness {
	t.Helper()
	h := &harness{sender: newFakeSender(), clock: &clock{now: 1_000}}
	h.cfg = &staticConfig{snap: testSnapshot(mut)}
	var seed uint64
	h.deps = &Deps{
		Config: h.cfg,
		Tokens: session.NewTokenIssuer([]byte("test")),
		Now:    h.clock.Now,
		Rand: func() *rand.Rand {
			seed++
			return rand.New(rand.NewPCG(seed, 99))
		},
	}
	h.deps.fill()
	h.room = newRoom("main", h.deps, h.sender)
	return h
}

func (h *harness) attach(t *testing.T, connID string) messages.Hello {
	t.Helper()
	if err := h.room.onAttach(connID, false); err != nil {
		t.Fatalf("attach %s: %v", connID, err)
	}
	hello, ok := last[messages.Hello](h.sender, connID)
	if !ok {
		t.Fatalf("no hello for %s", connID)
	}
	return hello
}

func (h *harness) send(connID string, msg any) {
	h.room.handle(intentCmd{connID: connID, msg: msg})
}

func (h *harness) step(ms int64) {
	h.clock.now += ms
	h.room.Step(h.clock.now)
}

func TestAttachGreetsAndEnforcesCapacity(t *testing.T) {
	h := newHarness(t, nil)
	hello := h.attach(t, "c1")
	if hello.ID == "" || hello.Token == "" || hello.Room != "main" {
		t.Fatalf("hello = %+v", hello)
	}
	h.attach(t, "c2")
	h.attach(t, "c3")
	if err := h.room.onAttach("c4", false); err == nil {
		t.Fatal("fourth connection accepted at capacity 3")
	}
	if info := h.room.Info(); info.Players != 3 || info.Capacity != 3 {
		t.Fatalf("info = %+v", info)
	}
}

func TestIntentsWaitForTheTick(t *testing.T) {
	h := newHarness(t, nil)
	h.attach(t, "c1")
	h.send("c1", messages.Ping{})
	if _, ok := last[messages.Pong](h.sender, "c1"); ok {
		t.Fatal("ping answered before the tick")
	}
	h.step(50)
	if _, ok := last[messages.Pong](h.sender, "c1"); !ok {
		t.Fatal("no pong after the tick")
	}
	if _, ok := last[messages.Snapshot](h.sender, "c1"); !ok {
		t.Fatal("no snapshot broadcast")
	}
}

func TestMoveIsClampedAndRecorded(t *testing.T) {
	h := newHarness(t, nil)
	hello := h.attach(t, "c1")
	h.send("c1", messages.Move{VX: 30, VY: 40})
	h.step(50)

	p, _ := h.room.match.World().Player(hello.ID)
	if math.Abs(p.VX-0.6) > 1e-9 || math.Abs(p.VY-0.8) > 1e-9 {
		t.Fatalf("velocity = %v,%v, want 0.6,0.8", p.VX, p.VY)
	}
	if n := len(h.room.sessions["c1"].Trail()); n != 1 {
		t.Fatalf("trail has %d points", n)
	}
}

func TestCountdownBroadcast(t *testing.T) {
	h := newHarness(t, nil)
	h.attach(t, "c1")
	h.attach(t, "c2")
	h.step(50)
	for _, c := range []string{"c1", "c2"} {
		if _, ok := last[messages.Countdown](h.sender, c); !ok {
			t.Fatalf("%s missed the countdown", c)
		}
	}
	if h.room.Info().Phase != "countdown" {
		t.Fatalf("phase = %s", h.room.Info().Phase)
	}
}

func TestLateJoinerSpectates(t *testing.T) {
	h := newHarness(t, nil)
	h.attach(t, "c1")
	h.attach(t, "c2")
	h.step(50)
	h.step(1000)
	if h.room.match.Phase() != netconfig.MatchStatePlaying {
		t.Fatalf("phase = %v", h.room.match.Phase())
	}
	hello := h.attach(t, "c3")
	if hello.ID != "" || hello.Token != "" {
		t.Fatalf("late joiner got a player: %+v", hello)
	}
	if !h.room.sessions["c3"].Spectating() {
		t.Fatal("late joiner is not spectating")
	}
}

func TestDisconnectAndRejoin(t *testing.T) {
	h := newHarness(t, nil)
	first := h.attach(t, "c1")
	p, _ := h.room.match.World().Player(first.ID)
	p.X, p.Y, p.HP = 42, 24, 321
	p.Bag["potion"] = 3

	h.room.onDetach("c1")
	if _, ok := h.room.match.World().Player(first.ID); ok {
		t.Fatal("player still in the world after disconnect")
	}
	if h.deps.Rejoin.Len() != 1 {
		t.Fatal("no rejoin snapshot saved")
	}

	fresh := h.attach(t, "c2")
	h.step(30_000)
	h.send("c2", messages.Rejoin{Token: first.Token})
	h.step(50)

	ok, found := last[messages.RejoinOK](h.sender, "c2")
	if !found || ok.ID != first.ID || ok.Token == "" || ok.Token == first.Token {
		t.Fatalf("rejoin_ok = %+v (found %v)", ok, found)
	}
	back, exists := h.room.match.World().Player(first.ID)
	if !exists || back.HP != 321 || back.Bag["potion"] != 3 || back.X != 42 {
		t.Fatalf("restored player = %+v", back)
	}
	if _, exists := h.room.match.World().Player(fresh.ID); exists {
		t.Fatal("placeholder player left behind")
	}

	board := h.room.match.RoomBoard("kills", 1, 10, "")
	if board.Total != 1 || board.Entries[0].ID != first.ID {
		t.Fatalf("scoreboard after rejoin = %+v", board.Entries)
	}

	h.send("c2", messages.Rejoin{Token: first.Token})
	h.step(50)
	if fail, found := last[messages.RejoinFail](h.sender, "c2"); !found || fail.Reason != "unknown" {
		t.Fatalf("reused token: %+v %v", fail, found)
	}
}

func TestRefusedRejoinKeepsTheEntry(t *testing.T) {
	h := newHarness(t, nil)
	first := h.attach(t, "c1")
	h.room.onDetach("c1")

	other := newRoom("arena", h.deps, h.sender)
	if err := other.onAttach("c2", false); err != nil {
		t.Fatalf("attach arena: %v", err)
	}
	other.handle(intentCmd{connID: "c2", msg: messages.Rejoin{Token: first.Token}})
	other.Step(h.clock.now + 50)
	if _, found := last[messages.RejoinFail](h.sender, "c2"); !found {
		t.Fatal("rejoin into the wrong room accepted")
	}
	if h.deps.Rejoin.Len() != 1 {
		t.Fatal("refused rejoin consumed the entry")
	}

	h.attach(t, "c3")
	h.send("c3", messages.Rejoin{Token: first.Token})
	h.step(50)
	if ok, found := last[messages.RejoinOK](h.sender, "c3"); !found || ok.ID != first.ID {
		t.Fatalf("rejoin_ok = %+v (found %v)", ok, found)
	}
}

func TestRejoinAfterTTLFails(t *testing.T) {
	h := newHarness(t, nil)
	first := h.attach(t, "c1")
	h.room.onDetach("c1")

	fresh := h.attach(t, "c2")
	h.step(60_001)
	h.send("c2", messages.Rejoin{Token: first.Token})
	h.step(50)

	if fail, ok := last[messages.RejoinFail](h.sender, "c2"); !ok || fail.Reason != "expired" {
		t.Fatalf("rejoin_fail = %+v %v", fail, ok)
	}
	p, ok := h.room.match.World().Player(fresh.ID)
	if !ok || p.HP != p.MaxHP {
		t.Fatal("fresh player disturbed by a failed rejoin")
	}
}

func TestIdleSessionsAreEvicted(t *testing.T) {
	h := newHarness(t, nil)
	h.attach(t, "c1")
	h.attach(t, "c2")

	h.clock.now += 20_000
	h.send("c2", messages.Ping{})
	h.room.Step(h.clock.now)

	h.clock.now += 10_001
	h.room.EvictIdle(h.clock.now)
	if !h.sender.isClosed("c1") {
		t.Fatal("idle session not closed")
	}
	if h.sender.isClosed("c2") {
		t.Fatal("live session closed")
	}
	if _, ok := h.room.sessions["c1"]; ok {
		t.Fatal("idle session still registered")
	}
	if h.deps.Rejoin.Len() != 1 {
		t.Fatal("eviction kept no rejoin snapshot")
	}
}

// boom panics when its signature is checked.
type boom struct{ messages.Meta }

func (boom) Signature() string { panic("boom") }

func TestPanickingIntentIsContained(t *testing.T) {
	h := newHarness(t, nil)
	h.deps.Guard = session.NewGuard([]byte("k"))
	h.attach(t, "c1")
	h.sender.reset("c1")

	h.send("c1", boom{})
	h.step(50)
	if _, ok := last[messages.Snapshot](h.sender, "c1"); !ok {
		t.Fatal("tick did not finish after a panicking intent")
	}
}

func TestUnsignedIntentsDropped(t *testing.T) {
	h := newHarness(t, nil)
	secret := []byte("k")
	h.deps.Guard = session.NewGuard(secret)
	h.attach(t, "c1")

	h.send("c1", messages.Ping{})
	h.step(50)
	if _, ok := last[messages.Pong](h.sender, "c1"); ok {
		t.Fatal("unsigned ping answered")
	}

	sig, _ := session.Sign(secret, messages.Ping{})
	h.send("c1", messages.Ping{Meta: messages.Meta{Sig: sig}})
	h.step(50)
	if _, ok := last[messages.Pong](h.sender, "c1"); !ok {
		t.Fatal("signed ping dropped")
	}
}

func TestEndedMatchRecycles(t *testing.T) {
	h := newHarness(t, func(b *config.Balance) {
		b.MinPlayers = 1
		b.CountdownMs = 0
		b.MatchDurationMs = 100
		b.ResultsHoldMs = 500
	})
	h.attach(t, "c1")
	h.step(10) // countdown
	h.step(10) // playing
	h.step(100)
	if h.room.match.Phase() != netconfig.MatchStateEnded {
		t.Fatalf("phase = %v", h.room.match.Phase())
	}
	if _, ok := last[messages.Settlement](h.sender, "c1"); !ok {
		t.Fatal("no settlement broadcast")
	}
	old := h.room.match

	h.step(400)
	if h.room.match != old {
		t.Fatal("recycled before the hold passed")
	}
	h.step(100)
	if h.room.match == old {
		t.Fatal("ended match not recycled")
	}
	joined, ok := last[messages.Joined](h.sender, "c1")
	if !ok || joined.ID == "" {
		t.Fatalf("joined = %+v %v", joined, ok)
	}
}

func TestConfigSwapAppliesNextTick(t *testing.T) {
	h := newHarness(t, nil)
	h.attach(t, "c1")
	h.cfg.set(testSnapshot(func(b *config.Balance) { b.RoomCapacity = 9 }))
	h.step(50)
	if h.room.Info().Capacity != 9 {
		t.Fatalf("capacity = %d after reload", h.room.Info().Capacity)
	}
}

func TestRunStopsOnSignal(t *testing.T) {
	h := newHarness(t, nil)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		h.room.Run(stop)
		close(done)
	}()
	if err := h.room.attach("c1", false); err != nil {
		t.Fatalf("attach via Run: %v", err)
	}
	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("room did not stop")
	}
	if err := h.room.attach("c2", false); err == nil {
		t.Fatal("attach to a stopped room succeeded")
	}
}
