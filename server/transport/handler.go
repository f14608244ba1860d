package transport

// Handler receives connection lifecycle events and decoded client
// messages. room.Registry implements it.
type Handler interface {
	OnOpen(connID string)
	OnMessage(connID string, msg any)
	OnClose(connID string)
}
