package blinker

import (
	"encoding/binary"
	"fmt"
)

const (
	// IntervalSize is the encoded size of an interval: a little-endian int32.
	IntervalSize = 4

	// MaxValueLen is the capacity of the interval attribute.
	MaxValueLen = 20
)

// EncodeInterval returns the attribute representation of v.
func EncodeInterval(v Interval) []byte {
	return AppendInterval(make([]byte, 0, IntervalSize), v)
}

// AppendInterval appends the attribute representation of v to b.
func AppendInterval(b []byte, v Interval) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(v))
}

// DecodeInterval parses an attribute value. Only exact IntervalSize payloads
// are accepted.
func DecodeInterval(b []byte) (Interval, error) {
	if len(b) != IntervalSize {
		return 0, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformed, len(b), IntervalSize)
	}
	return Interval(int32(binary.LittleEndian.Uint32(b))), nil
}
