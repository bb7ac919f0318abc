//go:build !tinygo

package indicator

import (
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/JasonSeba/sample-ble/blinker"
)

// InitHost loads the periph.io host drivers. It must run before OpenGPIO.
func InitHost() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return nil
}

// GPIO drives a periph.io pin.
type GPIO struct {
	pin gpio.PinIO
	log *slog.Logger
}

var _ blinker.Output = (*GPIO)(nil)

// OpenGPIO looks up a pin by name and configures it as a low output.
func OpenGPIO(name string, log *slog.Logger) (*GPIO, error) {
	if log == nil {
		log = slog.Default()
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown gpio %q", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("configure gpio %s: %w", name, err)
	}
	return &GPIO{pin: p, log: log}, nil
}

// Set drives the pin. A failed write is logged; the toggle keeps running.
func (o *GPIO) Set(high bool) {
	if err := o.pin.Out(gpio.Level(high)); err != nil {
		o.log.Warn("gpio write failed", "pin", o.pin.Name(), "err", err)
	}
}

// Open returns a GPIO output for name, or a log-only output when name is empty.
func Open(label, name string, log *slog.Logger) (blinker.Output, error) {
	if name == "" {
		return NewLog(label, log), nil
	}
	return OpenGPIO(name, log)
}
