package room

// Conn is the transport handle a room talks to. Implementations must be safe
// to call from the room goroutine while their own pumps run.
type Conn interface {
	ID() string
	// Send queues one text frame
	Send(data []byte) error
	// Close flushes queued frames and closes with the given code
	Close(code int, reason string) error
	// Closed reports whether the handle is no longer usable
	Closed() bool
}
