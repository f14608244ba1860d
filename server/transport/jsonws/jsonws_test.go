package jsonws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/automoto/dragonsons/server/transport"
	"github.com/automoto/dragonsons/shared/messages"
	"github.com/coder/websocket"
)

type recorder struct {
	out *transport.Outbox

	mu     sync.Mutex
	opened []string
	closed []string
	got    []any
}

func (r *recorder) OnOpen(connID string) {
	r.mu.Lock()
	r.opened = append(r.opened, connID)
	r.mu.Unlock()
	r.out.Send(connID, messages.Hello{ID: "p1", Room: "main"})
}

func (r *recorder) OnMessage(connID string, msg any) {
	r.mu.Lock()
	r.got = append(r.got, msg)
	r.mu.Unlock()
	if _, ok := msg.(messages.Ping); ok {
		r.out.Send(connID, messages.Pong{})
	}
}

func (r *recorder) OnClose(connID string) {
	r.mu.Lock()
	r.closed = append(r.closed, connID)
	r.mu.Unlock()
}

func (r *recorder) counts() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.opened), len(r.closed), len(r.got)
}

func readText(t *testing.T, ctx context.Context, c *websocket.Conn) string {
	t.Helper()
	typ, data, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("frame type = %v", typ)
	}
	return string(data)
}

func TestRoundTrip(t *testing.T) {
	out := transport.NewOutbox(8, nil)
	rec := &recorder{out: out}
	srv := httptest.NewServer(New(rec, out, nil).Routes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	if hello := readText(t, ctx, c); !strings.Contains(hello, `"t":"hello"`) || !strings.Contains(hello, `"id":"p1"`) {
		t.Fatalf("hello = %s", hello)
	}

	if err := c.Write(ctx, websocket.MessageText, []byte(`{"t":"nonsense"}`)); err != nil {
		t.Fatal(err)
	}
	if err := c.Write(ctx, websocket.MessageText, []byte(`{"t":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if pong := readText(t, ctx, c); pong != `{"t":"pong"}` {
		t.Fatalf("pong = %s", pong)
	}
	if _, _, n := rec.counts(); n != 1 {
		t.Fatalf("handler saw %d messages, want only the ping", n)
	}

	c.Close(websocket.StatusNormalClosure, "")
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, closed, _ := rec.counts(); closed == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("OnClose not called")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if out.Len() != 0 {
		t.Fatal("outbox kept the connection")
	}
}

func TestServerCloseDisconnects(t *testing.T) {
	out := transport.NewOutbox(8, nil)
	rec := &recorder{out: out}
	srv := httptest.NewServer(New(rec, out, nil).Routes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	readText(t, ctx, c)

	rec.mu.Lock()
	id := rec.opened[0]
	rec.mu.Unlock()
	out.Close(id)

	_, _, err = c.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		t.Fatalf("read after server close: %v", err)
	}
}
