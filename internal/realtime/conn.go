package realtime

// Conn is a live client connection as seen by the presence registry and room
// manager. The websocket session implements it; tests substitute fakes.
//
// Send must not block: implementations enqueue and report failure when the
// connection is gone or its buffer is exhausted. A failed send is
// best-effort delivery doing its job, never an error to surface to senders.
type Conn interface {
	ID() string
	UserID() string
	Send(data []byte) error
}
