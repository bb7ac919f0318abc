package blinker

import "time"

// RecordKind names a diagnostic record.
type RecordKind string

const (
	RecordConnected     RecordKind = "connected"
	RecordDisconnected  RecordKind = "disconnected"
	RecordWriteAccepted RecordKind = "write_accepted"
	RecordWriteRejected RecordKind = "write_rejected"
	RecordRead          RecordKind = "read"
	RecordReadFailed    RecordKind = "read_failed"
	RecordToggle        RecordKind = "toggle"
	RecordHalted        RecordKind = "halted"
)

// Record is a diagnostic observation emitted through Options.Notify.
// Nothing in the device depends on records being consumed.
type Record struct {
	Kind     RecordKind `json:"kind"`
	Peer     string     `json:"peer,omitempty"`
	Interval Interval   `json:"interval_ms"`
	High     bool       `json:"high"`
	Err      string     `json:"error,omitempty"`
	At       time.Time  `json:"at"`
}

// Stats counts what the device has handled since Start.
type Stats struct {
	Accepted uint32
	Rejected uint32
	Reads    uint32
	Toggles  uint32
	Dropped  uint32
}

// Snapshot is a point-in-time copy of the device state.
type Snapshot struct {
	Interval  Interval
	High      bool
	Deadline  time.Time
	Connected bool
	Peer      Peer
	Halted    bool
	Stats     Stats
}
