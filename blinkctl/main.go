// Command blinkctl reads or changes the blink interval of a nearby device.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/JasonSeba/sample-ble/blinker"
	"github.com/JasonSeba/sample-ble/blinkservice"
)

var adapter = bluetooth.DefaultAdapter

var (
	flagName    = flag.String("name", "", "only connect to a device advertising this local name")
	flagForce   = flag.Bool("force", false, "send out-of-range values instead of refusing them")
	flagTimeout = flag.Duration("timeout", 15*time.Second, "give up scanning after this long")
)

func usage() {
	fmt.Printf("usage: %s [flags] get | set <ms>\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(0)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	cmd, err := parseCommand(flag.Args(), *flagForce)
	if err == errUsage {
		usage()
	}
	handleError("invalid command", err)

	err = adapter.Enable()
	handleError("could not enable BLE adapter", err)

	var foundDevice bluetooth.ScanResult
	found := false
	timer := time.AfterFunc(*flagTimeout, func() {
		adapter.StopScan()
	})
	fmt.Println("Looking for nearby device...")
	err = adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		if !result.AdvertisementPayload.HasServiceUUID(blinkservice.ServiceUUID) {
			return
		}
		if *flagName != "" && result.LocalName() != *flagName {
			return
		}
		foundDevice = result
		found = true

		// Stop the scan.
		err := adapter.StopScan()
		handleError("could not stop the scan", err)
	})
	timer.Stop()
	handleError("could not start a scan", err)
	if !found {
		handleError("scan", fmt.Errorf("no device found within %s", *flagTimeout))
	}

	// Print the device we've found.
	if name := foundDevice.LocalName(); name == "" {
		fmt.Printf("Connecting to %s...\n", foundDevice.Address.String())
	} else {
		fmt.Printf("Connecting to %s (%s)...\n", name, foundDevice.Address.String())
	}

	device, err := adapter.Connect(foundDevice.Address, bluetooth.ConnectionParams{})
	handleError("failed to connect", err)

	// handleError exits without running defers, so disconnect first.
	err = run(device, cmd)
	device.Disconnect()
	handleError("blinkctl", err)
}

func run(device bluetooth.Device, cmd command) error {
	services, err := device.DiscoverServices([]bluetooth.UUID{blinkservice.ServiceUUID})
	if err != nil {
		return fmt.Errorf("failed to discover the blink service: %w", err)
	}
	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{blinkservice.IntervalUUID})
	if err != nil {
		return fmt.Errorf("failed to discover the interval characteristic: %w", err)
	}
	char := chars[0]

	if cmd.op == opGet {
		v, err := readInterval(char)
		if err != nil {
			return fmt.Errorf("failed to read interval: %w", err)
		}
		printInterval(v)
		return nil
	}

	fmt.Printf("Writing %d ms...\n", cmd.value)
	if _, err := char.WriteWithoutResponse(blinker.EncodeInterval(cmd.value)); err != nil {
		return fmt.Errorf("failed to write interval: %w", err)
	}

	// A rejected value makes the device drop the connection, so the
	// read-back either fails or shows the old value.
	time.Sleep(200 * time.Millisecond)
	v, err := readInterval(char)
	if err != nil {
		return fmt.Errorf("write rejected: device dropped the connection: %w", err)
	}
	if v != cmd.value {
		return fmt.Errorf("write rejected: device kept %d ms", v)
	}
	printInterval(v)
	return nil
}

func readInterval(char bluetooth.DeviceCharacteristic) (blinker.Interval, error) {
	buf := make([]byte, blinker.MaxValueLen)
	n, err := char.Read(buf)
	if err != nil {
		return 0, err
	}
	return blinker.DecodeInterval(buf[:n])
}

func printInterval(v blinker.Interval) {
	fmt.Printf("%s / %s: %d\n", blinkservice.ServiceLabel, blinkservice.IntervalLabel, v)
}

func handleError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", msg, err)
		os.Exit(1)
	}
}
