//go:build softdevice && !s132v6 && !s140v6 && !s140v7

package blinkservice

import (
	"errors"

	"tinygo.org/x/bluetooth"
)

// Peripheral-only SoftDevices (s110, s113) cannot update connection
// parameters or terminate a link from the application.
var errUnsupported = errors.New("blinkservice: not supported by this SoftDevice")

func requestConnectionParams(bluetooth.Device) error { return errUnsupported }

func disconnectDevice(bluetooth.Device) error { return errUnsupported }
