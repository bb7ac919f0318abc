// Package blinker holds the device side of the blink-interval service: the
// interval store and its bounds policy, the toggle engine that drives the
// indicator outputs, and the single-threaded loop that dispatches events
// coming from the wireless link.
//
// Nothing in this package talks to a radio or a GPIO directly. The link and
// the outputs are interfaces, so the whole device can run against fakes on a
// host.
package blinker

import (
	"errors"
	"time"
)

// Interval is the blink interval in milliseconds.
type Interval int32

// Bounds and default of the blink interval. Both bounds are accepted.
const (
	MinInterval     Interval = 100
	MaxInterval     Interval = 10000
	DefaultInterval Interval = 1000
)

var (
	// ErrOutOfRange is returned by Validate for intervals outside
	// [MinInterval, MaxInterval].
	ErrOutOfRange = errors.New("interval out of range")

	// ErrMalformed is returned when a peer payload is not an encoded interval.
	ErrMalformed = errors.New("malformed interval payload")

	// ErrHalted is returned once the device failed to initialise.
	ErrHalted = errors.New("device halted")
)

// Duration converts the interval to a time.Duration.
func (v Interval) Duration() time.Duration {
	return time.Duration(v) * time.Millisecond
}

// Validate applies the write policy to a candidate interval.
func Validate(v Interval) error {
	if v < MinInterval || v > MaxInterval {
		return ErrOutOfRange
	}
	return nil
}
