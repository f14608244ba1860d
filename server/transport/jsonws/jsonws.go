// Package jsonws serves the game as flat JSON text frames over WebSocket.
package jsonws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/automoto/dragonsons/server/transport"
	"github.com/automoto/dragonsons/shared/messages"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const readLimit = 64 << 10

// Server accepts WebSocket connections and hands frames to a Handler.
type Server struct {
	handler transport.Handler
	out     *transport.Outbox
	logger  *slog.Logger
	origins []string
}

// New creates the transport. An empty origins list accepts any origin.
func New(handler transport.Handler, out *transport.Outbox, logger *slog.Logger, origins ...string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		handler: handler,
		out:     out,
		logger:  logger.With(slog.String("component", "jsonws")),
		origins: origins,
	}
}

// Routes mounts /ws and /healthz, plus GET /rooms and GET /leaderboard
// when the handler is also a Directory. Everything is traced with otelhttp.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if d, ok := s.handler.(Directory); ok {
		mux.HandleFunc("GET /rooms", s.listRooms(d))
		mux.HandleFunc("GET /leaderboard", s.leaderboard(d))
	}
	return otelhttp.NewHandler(mux, "jsonws")
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: len(s.origins) == 0,
		OriginPatterns:     s.origins,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to accept", slog.Any("err", err))
		return
	}
	conn.SetReadLimit(readLimit)

	id := uuid.NewString()
	s.logger.DebugContext(ctx, "accepted new connection", slog.String("conn", id))
	s.out.Add(id, &wsConn{conn: conn})
	defer func() {
		s.handler.OnClose(id)
		s.out.Remove(id)
	}()
	s.handler.OnOpen(id)

	err = s.readLoop(ctx, id, conn)

	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
		s.logger.DebugContext(ctx, "connection closed", slog.String("conn", id))
		return
	}
	s.logger.InfoContext(ctx, "connection closed", slog.String("conn", id), slog.Any("err", err))
	_ = conn.CloseNow()
}

// readLoop decodes frames until the connection fails. Frames that do not
// decode are dropped.
func (s *Server) readLoop(ctx context.Context, id string, conn *websocket.Conn) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}
		msg, err := messages.DecodeJSON(data)
		if err != nil {
			s.logger.DebugContext(ctx, "dropping frame", slog.String("conn", id), slog.Any("err", err))
			continue
		}
		s.handler.OnMessage(id, msg)
	}
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Write(ctx context.Context, msg any) error {
	data, err := messages.EncodeJSON(msg)
	if err != nil {
		return err
	}
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close(reason string) error {
	return c.conn.Close(websocket.StatusPolicyViolation, reason)
}
