//go:build tinygo

package indicator

import (
	"machine"

	"github.com/JasonSeba/sample-ble/blinker"
)

// Pins configures each pin as an output. machine.Pin already has Set(bool).
func Pins(pins ...machine.Pin) []blinker.Output {
	outs := make([]blinker.Output, 0, len(pins))
	for _, p := range pins {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		outs = append(outs, p)
	}
	return outs
}
