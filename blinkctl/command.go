package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/JasonSeba/sample-ble/blinker"
)

type op int

const (
	opGet op = iota
	opSet
)

type command struct {
	op    op
	value blinker.Interval
}

var errUsage = errors.New("usage")

// parseCommand turns the positional arguments into a command. Values outside
// the device bounds are refused unless force is set, in which case they are
// sent so the device policy can be observed.
func parseCommand(args []string, force bool) (command, error) {
	if len(args) == 0 {
		return command{}, errUsage
	}
	switch args[0] {
	case "get":
		if len(args) != 1 {
			return command{}, errUsage
		}
		return command{op: opGet}, nil
	case "set":
		if len(args) != 2 {
			return command{}, errUsage
		}
		n, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return command{}, fmt.Errorf("invalid interval %q: %w", args[1], err)
		}
		v := blinker.Interval(n)
		if !force {
			if err := blinker.Validate(v); err != nil {
				return command{}, fmt.Errorf("%d ms: %w (allowed %d..%d, use -force to send anyway)",
					v, err, blinker.MinInterval, blinker.MaxInterval)
			}
		}
		return command{op: opSet, value: v}, nil
	default:
		return command{}, errUsage
	}
}
