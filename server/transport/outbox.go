// Package transport holds what the wire transports share: a per-connection
// outbox that lets the room goroutines send without ever blocking on I/O.
package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/automoto/dragonsons/shared/messages"
)

const (
	DefaultQueueSize = 64
	writeTimeout     = 5 * time.Second
)

// Conn is one open client connection.
type Conn interface {
	Write(ctx context.Context, msg any) error
	Close(reason string) error
}

type peer struct {
	conn     Conn
	queue    chan any
	done     chan struct{} // connection gone
	kill     chan struct{} // server wants it gone
	doneOnce sync.Once
	killOnce sync.Once
}

// Outbox fans server messages out to connections, one writer goroutine per
// connection. It implements room.Sender.
type Outbox struct {
	logger *slog.Logger
	size   int

	mu    sync.Mutex
	peers map[string]*peer
	wg    sync.WaitGroup
}

func NewOutbox(size int, logger *slog.Logger) *Outbox {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{
		logger: logger.With(slog.String("component", "outbox")),
		size:   size,
		peers:  make(map[string]*peer),
	}
}

// Add registers a connection and starts its writer.
func (o *Outbox) Add(connID string, c Conn) {
	p := &peer{
		conn:  c,
		queue: make(chan any, o.size),
		done:  make(chan struct{}),
		kill:  make(chan struct{}),
	}
	o.mu.Lock()
	if old, ok := o.peers[connID]; ok {
		old.doneOnce.Do(func() { close(old.done) })
	}
	o.peers[connID] = p
	o.mu.Unlock()

	o.wg.Go(func() { o.write(connID, p) })
}

// Remove forgets a connection after its transport saw it close.
func (o *Outbox) Remove(connID string) {
	o.mu.Lock()
	p, ok := o.peers[connID]
	delete(o.peers, connID)
	o.mu.Unlock()
	if ok {
		p.doneOnce.Do(func() { close(p.done) })
	}
}

// Send queues msg for connID. A full queue drops the message.
func (o *Outbox) Send(connID string, msg any) {
	o.mu.Lock()
	p, ok := o.peers[connID]
	o.mu.Unlock()
	if !ok {
		return
	}
	select {
	case p.queue <- msg:
	default:
		o.logger.Debug("outbox full, dropping message", slog.String("conn", connID), slog.String("kind", messages.Kind(msg)))
	}
}

// Close asks the writer to close the connection. The transport notices
// the closed connection and reports it as usual.
func (o *Outbox) Close(connID string) {
	o.mu.Lock()
	p, ok := o.peers[connID]
	o.mu.Unlock()
	if ok {
		p.killOnce.Do(func() { close(p.kill) })
	}
}

// Len is the number of registered connections.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.peers)
}

// Wait blocks until every writer has exited.
func (o *Outbox) Wait() { o.wg.Wait() }

func (o *Outbox) write(connID string, p *peer) {
	for {
		select {
		case <-p.done:
			return
		case <-p.kill:
			if err := p.conn.Close("closed by server"); err != nil {
				o.logger.Debug("close failed", slog.String("conn", connID), slog.Any("err", err))
			}
			return
		case msg := <-p.queue:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := p.conn.Write(ctx, msg)
			cancel()
			if err != nil {
				o.logger.Info("write failed, closing", slog.String("conn", connID), slog.Any("err", err))
				_ = p.conn.Close("write failed")
				return
			}
		}
	}
}
