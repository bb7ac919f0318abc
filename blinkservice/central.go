//go:build !softdevice || s132v6 || s140v6 || s140v7

package blinkservice

import "tinygo.org/x/bluetooth"

func requestConnectionParams(dev bluetooth.Device) error {
	return dev.RequestConnectionParams(ConnectionParams)
}

func disconnectDevice(dev bluetooth.Device) error {
	return dev.Disconnect()
}
