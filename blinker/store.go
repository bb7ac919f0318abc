package blinker

// Store holds the current blink interval.
//
// Store does no validation and no locking: it is only touched from the
// goroutine running the device loop, and callers validate before Set.
type Store struct {
	v Interval
}

// NewStore returns a store initialised to DefaultInterval.
func NewStore() Store { return Store{v: DefaultInterval} }

// Get returns the current interval.
func (s *Store) Get() Interval { return s.v }

// Set replaces the interval unconditionally.
func (s *Store) Set(v Interval) { s.v = v }
