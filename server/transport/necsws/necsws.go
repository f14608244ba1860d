// Package necsws serves the game over the necs binary WebSocket transport.
// necs keeps its router in package state, so only one Server may exist per
// process.
package necsws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/automoto/dragonsons/server/transport"
	"github.com/automoto/dragonsons/shared/messages"
	"github.com/coder/websocket"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
)

// ConnPrefix keeps necs connection ids apart from the JSON transport's.
const ConnPrefix = "necs-"

// Server wires the necs router callbacks to a transport.Handler.
type Server struct {
	handler   transport.Handler
	out       *transport.Outbox
	logger    *slog.Logger
	transport *transports.WsServerTransport
}

// New registers the router callbacks. Call it once.
func New(handler transport.Handler, out *transport.Outbox, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		handler: handler,
		out:     out,
		logger:  logger.With(slog.String("component", "necsws")),
	}
	s.setupRouterCallbacks()
	return s
}

// Start listens on port and blocks until the transport fails.
func (s *Server) Start(port uint) error {
	s.transport = transports.NewWsServerTransport(port, "", nil)
	s.logger.Info("necs transport listening", slog.Uint64("port", uint64(port)))
	if err := s.transport.Start(); err != nil {
		return fmt.Errorf("necs transport: %w", err)
	}
	return nil
}

func connID(client *router.NetworkClient) string { return ConnPrefix + client.Id() }

func (s *Server) setupRouterCallbacks() {
	router.OnConnect(func(client *router.NetworkClient) {
		id := connID(client)
		s.logger.Info("client connected", slog.String("conn", id))
		s.out.Add(id, &clientConn{client: client})
		s.handler.OnOpen(id)
	})

	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		id := connID(client)
		if err != nil {
			s.logger.Info("client disconnected", slog.String("conn", id), slog.Any("err", err))
		} else {
			s.logger.Info("client disconnected", slog.String("conn", id))
		}
		s.handler.OnClose(id)
		s.out.Remove(id)
	})

	router.OnError(func(client *router.NetworkClient, err error) {
		s.logger.Warn("client error", slog.String("conn", connID(client)), slog.Any("err", err))
	})

	on[messages.Ping](s)
	on[messages.Move](s)
	on[messages.Pickup](s)
	on[messages.AssignSlot](s)
	on[messages.UseSlot](s)
	on[messages.UseItem](s)
	on[messages.Attack](s)
	on[messages.Cast](s)
	on[messages.Spectate](s)
	on[messages.Start](s)
	on[messages.Rejoin](s)
	on[messages.ListRooms](s)
	on[messages.CreateRoom](s)
	on[messages.JoinRoom](s)
	on[messages.LeaderboardQuery](s)
	on[messages.RoomBoardQuery](s)
}

func on[T any](s *Server) {
	router.On(func(client *router.NetworkClient, msg T) {
		s.handler.OnMessage(connID(client), msg)
	})
}

// clientConn writes router-serialized frames to a necs client.
type clientConn struct {
	client *router.NetworkClient
}

func (c *clientConn) Write(ctx context.Context, msg any) error {
	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", messages.Kind(msg), err)
	}
	return c.client.Write(ctx, websocket.MessageBinary, payload)
}

func (c *clientConn) Close(reason string) error {
	return c.client.Close(websocket.StatusNormalClosure, reason)
}
