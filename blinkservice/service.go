// Package blinkservice implements the blink interval GATT service on top of
// tinygo.org/x/bluetooth. It registers the service, advertises it, and feeds
// connection and write callbacks from the stack into a blinker.Link.
package blinkservice

import (
	"time"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"

	"github.com/JasonSeba/sample-ble/blinker"
)

// ServiceUUID is the blink service UUID, which should be present in the
// advertisement as a service.
var ServiceUUID = bluetooth.NewUUID(uuid.MustParse("19b10000-e8f2-537e-4f6c-d104768a1214"))

// IntervalUUID identifies the blink interval characteristic.
var IntervalUUID = bluetooth.NewUUID(uuid.MustParse("19b10001-e8f2-537e-4f6c-d104768a1214"))

// Human readable labels for the service and the characteristic. The stack
// has no user description descriptors, so client tooling shows these.
const (
	ServiceLabel  = "LED Service"
	IntervalLabel = "Blink Interval (ms)"
)

// DefaultLocalName is the advertised name.
const DefaultLocalName = "Blinky"

// ConnectionParams are requested from every central that connects.
var ConnectionParams = bluetooth.ConnectionParams{
	MinInterval: bluetooth.NewDuration(7500 * time.Microsecond),
	MaxInterval: bluetooth.NewDuration(4 * time.Second),
}

// IntervalFlags are the permissions of the interval characteristic.
const IntervalFlags = bluetooth.CharacteristicReadPermission |
	bluetooth.CharacteristicWritePermission |
	bluetooth.CharacteristicWriteWithoutResponsePermission |
	bluetooth.CharacteristicNotifyPermission |
	bluetooth.CharacteristicIndicatePermission

// AddService adds the blink service to the adapter. handle receives the
// interval characteristic so its value can be updated later; onWrite is
// called by the stack for every peer write.
func AddService(adapter *bluetooth.Adapter, handle *bluetooth.Characteristic, onWrite func(client bluetooth.Connection, offset int, value []byte)) error {
	value := make([]byte, 0, blinker.MaxValueLen)
	value = blinker.AppendInterval(value, blinker.DefaultInterval)
	return adapter.AddService(&bluetooth.Service{
		UUID: ServiceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle:     handle,
				UUID:       IntervalUUID,
				Value:      value,
				Flags:      IntervalFlags,
				WriteEvent: onWrite,
			},
		},
	})
}

// Advertise configures and starts the default advertisement so centrals can
// find the service.
func Advertise(adapter *bluetooth.Adapter, localName string) error {
	if localName == "" {
		localName = DefaultLocalName
	}
	adv := adapter.DefaultAdvertisement()
	err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    localName,
		ServiceUUIDs: []bluetooth.UUID{ServiceUUID},
	})
	if err != nil {
		return err
	}
	return adv.Start()
}
