package room

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/automoto/dragonsons/config"
	"github.com/automoto/dragonsons/server/world"
	"github.com/automoto/dragonsons/shared/messages"
)

type fakeBoard struct{}

func (fakeBoard) Leaderboard(by string, page, size int) messages.LeaderboardPage {
	return messages.LeaderboardPage{By: by, Page: page, Size: size, Total: 1,
		Entries: []messages.LeaderEntry{{ID: "champ", Wins: 9}}}
}

// eventually polls until the newest T sent to connID satisfies ok.
func eventually[T any](t *testing.T, f *fakeSender, connID string, ok func(T) bool) T {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m, found := last[T](f, connID); found && ok(m) {
			return m
		}
		time.Sleep(5 * time.Millisecond)
	}
	var zero T
	t.Fatalf("timed out waiting for %T on %s", zero, connID)
	return zero
}

func runRegistry(t *testing.T) (*Registry, *fakeSender) {
	t.Helper()
	sender := newFakeSender()
	reg := NewRegistry(Deps{
		Config: &staticConfig{snap: testSnapshot(nil)},
		Board:  fakeBoard{},
	}, sender)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("registry did not stop")
		}
	})
	return reg, sender
}

func TestRegistryRoutesAndLists(t *testing.T) {
	reg, sender := runRegistry(t)

	reg.OnOpen("c1")
	hello, ok := last[messages.Hello](sender, "c1")
	if !ok || hello.Room != DefaultRoom || hello.ID == "" {
		t.Fatalf("hello = %+v %v", hello, ok)
	}

	reg.OnMessage("c1", messages.CreateRoom{ID: "arena"})
	if rc, _ := last[messages.RoomCreated](sender, "c1"); !rc.Created {
		t.Fatalf("create arena = %+v", rc)
	}
	reg.OnMessage("c1", messages.CreateRoom{ID: "arena"})
	if rc, _ := last[messages.RoomCreated](sender, "c1"); rc.Created {
		t.Fatal("duplicate room created")
	}
	reg.OnMessage("c1", messages.CreateRoom{ID: "no spaces"})
	if rc, _ := last[messages.RoomCreated](sender, "c1"); rc.Created {
		t.Fatal("bad id accepted")
	}

	reg.OnMessage("c1", messages.ListRooms{})
	rooms, _ := last[messages.Rooms](sender, "c1")
	if len(rooms.Rooms) != 2 || rooms.Rooms[0].ID != "arena" || rooms.Rooms[1].Players != 1 {
		t.Fatalf("rooms = %+v", rooms.Rooms)
	}

	reg.OnMessage("c1", messages.JoinRoom{ID: "arena"})
	joined, ok := last[messages.Joined](sender, "c1")
	if !ok || joined.Room != "arena" || joined.ID == "" {
		t.Fatalf("joined = %+v %v", joined, ok)
	}
	if r, _ := reg.route("c1"); r.ID() != "arena" {
		t.Fatalf("routed to %s", r.ID())
	}
	main, _ := reg.Room(DefaultRoom)
	if main.Info().Players != 0 {
		t.Fatalf("main still counts %d", main.Info().Players)
	}

	reg.OnMessage("c1", messages.JoinRoom{ID: "missing"})
	if r, _ := reg.route("c1"); r.ID() != "arena" {
		t.Fatal("join of a missing room moved the connection")
	}

	reg.OnMessage("c1", messages.LeaderboardQuery{By: "wins", Page: 1, Size: 5})
	if page, _ := last[messages.LeaderboardPage](sender, "c1"); page.Total != 1 || page.Entries[0].ID != "champ" {
		t.Fatalf("leaderboard = %+v", page)
	}

	reg.OnClose("c1")
	arena, _ := reg.Room("arena")
	if arena.Info().Players != 0 {
		t.Fatal("closed connection still counted")
	}
	if _, ok := reg.route("c1"); ok {
		t.Fatal("route kept after close")
	}
}

func TestRegistryForwardsIntents(t *testing.T) {
	reg, sender := runRegistry(t)
	reg.OnOpen("c1")
	reg.OnMessage("c1", messages.Ping{})
	eventually(t, sender, "c1", func(messages.Pong) bool { return true })
}

func TestRejoinFollowsTheTokenRoom(t *testing.T) {
	reg, sender := runRegistry(t)
	reg.OnOpen("c1")
	hello, _ := last[messages.Hello](sender, "c1")

	// The player walks away from main; main keeps its state.
	reg.Create("arena")
	reg.OnMessage("c1", messages.JoinRoom{ID: "arena"})

	reg.OnMessage("c1", messages.Rejoin{Token: hello.Token})
	ok := eventually(t, sender, "c1", func(m messages.RejoinOK) bool { return m.ID == hello.ID })
	if ok.Room != DefaultRoom {
		t.Fatalf("rejoined into %s", ok.Room)
	}
	if r, _ := reg.route("c1"); r.ID() != DefaultRoom {
		t.Fatalf("routed to %s", r.ID())
	}
}

func TestFullDefaultRoomClosesConnection(t *testing.T) {
	reg, sender := runRegistry(t)
	for _, c := range []string{"c1", "c2", "c3"} {
		reg.OnOpen(c)
	}
	reg.OnOpen("c4")
	if !sender.isClosed("c4") {
		t.Fatal("connection over capacity left open")
	}
	if _, ok := reg.route("c4"); ok {
		t.Fatal("refused connection routed")
	}
}

func TestCreateStopsAtMaxRooms(t *testing.T) {
	snap := testSnapshot(func(b *config.Balance) { b.MaxRooms = 2 })
	sender := newFakeSender()
	reg := NewRegistry(Deps{Config: &staticConfig{snap: snap}}, sender)

	if _, err := reg.Create("arena"); err != nil {
		t.Fatalf("Create arena: %v", err)
	}
	if _, err := reg.Create("pit"); !errors.Is(err, ErrTooManyRooms) {
		t.Fatalf("third room err = %v", err)
	}
	if n := len(reg.List()); n != 2 {
		t.Fatalf("%d rooms listed", n)
	}

	reg.OnOpen("c1")
	reg.OnMessage("c1", messages.CreateRoom{ID: "pit"})
	if rc, _ := last[messages.RoomCreated](sender, "c1"); rc.Created {
		t.Fatal("room created over the limit")
	}
}

func TestRoomsUseTheirOwnArena(t *testing.T) {
	pit := world.Config{Width: 500, Height: 500, Center: world.Point{X: 250, Y: 250}, InitialRadius: 200}
	reg := NewRegistry(Deps{
		Config: &staticConfig{snap: testSnapshot(nil)},
		Arena:  world.Config{Width: 300, Height: 300, Center: world.Point{X: 150, Y: 150}, InitialRadius: 120},
		Arenas: map[string]world.Config{"pit": pit},
	}, newFakeSender())

	room, err := reg.Create("pit")
	if err != nil {
		t.Fatalf("Create pit: %v", err)
	}
	if w := room.match.World(); w.Center() != pit.Center || w.Radius() != 200 {
		t.Fatalf("pit center %+v radius %v", w.Center(), w.Radius())
	}
	main, _ := reg.Room(DefaultRoom)
	if c := main.match.World().Center(); c != (world.Point{X: 150, Y: 150}) {
		t.Fatalf("main center %+v", c)
	}
}
