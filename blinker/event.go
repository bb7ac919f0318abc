package blinker

// EventKind enumerates what the link can report.
type EventKind uint8

const (
	EventConnected EventKind = iota + 1
	EventDisconnected
	EventWritten
	EventReadRequested
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventWritten:
		return "written"
	case EventReadRequested:
		return "read_requested"
	default:
		return "unknown"
	}
}

// Peer identifies the remote central behind an event.
type Peer struct {
	Address string
}

func (p Peer) String() string {
	if p.Address == "" {
		return "unknown"
	}
	return p.Address
}

// Event is one notification from the link. Value is only set for
// EventWritten and holds the raw attribute bytes the peer wrote.
type Event struct {
	Kind  EventKind
	Peer  Peer
	Value []byte
}

// Link is the device's view of the wireless stack.
//
// Drain must not block. Disconnect is called from inside event dispatch and
// must not block on the event queue either.
type Link interface {
	// Drain appends all pending events to dst and returns it.
	Drain(dst []Event) []Event
	// Publish stores value as the peer-visible attribute value.
	Publish(value []byte) error
	// Disconnect terminates the connection to p.
	Disconnect(p Peer) error
}
