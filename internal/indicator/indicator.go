// Package indicator provides the blink outputs: periph.io GPIO lines on Linux
// hosts, machine pins under TinyGo, and a log-only output for machines
// without wired LEDs.
package indicator

import (
	"log/slog"

	"github.com/JasonSeba/sample-ble/blinker"
)

// Log is an output that only records level changes.
type Log struct {
	name string
	log  *slog.Logger
	high bool
}

var _ blinker.Output = (*Log)(nil)

// NewLog returns a Log output that reports changes under name.
func NewLog(name string, log *slog.Logger) *Log {
	if log == nil {
		log = slog.Default()
	}
	return &Log{name: name, log: log}
}

// Set records the level and logs it at debug.
func (o *Log) Set(high bool) {
	o.high = high
	o.log.Debug("indicator", "name", o.name, "high", high)
}

// High returns the last level set.
func (o *Log) High() bool { return o.high }
