package blinkservice

import (
	"sync/atomic"

	"tinygo.org/x/bluetooth"

	"github.com/JasonSeba/sample-ble/blinker"
)

// rawEvent is what a stack callback records. It has a fixed size so filling
// one never touches the heap: on SoftDevice targets the callbacks run inside
// an interrupt.
type rawEvent struct {
	kind blinker.EventKind
	dev  bluetooth.Device
	// n is the payload length, or -1 when the write cannot be decoded.
	n     int8
	value [blinker.MaxValueLen]byte
}

// queue is a preallocated ring of raw events. Callbacks reserve slots under
// the critical section; the loop goroutine moves them out with take.
type queue struct {
	crit    critical
	slots   []rawEvent
	head    int
	n       int
	dropped atomic.Uint32
}

func newQueue(size int) *queue {
	return &queue{slots: make([]rawEvent, size)}
}

// reserve returns the next free slot, or nil after counting a drop. The
// caller must hold the critical section.
func (q *queue) reserve() *rawEvent {
	if q.n == len(q.slots) {
		q.dropped.Add(1)
		return nil
	}
	s := &q.slots[(q.head+q.n)%len(q.slots)]
	q.n++
	return s
}

// take moves every queued event into dst, oldest first.
func (q *queue) take(dst []rawEvent) []rawEvent {
	q.crit.lock()
	for ; q.n > 0; q.n-- {
		dst = append(dst, q.slots[q.head])
		q.slots[q.head] = rawEvent{}
		q.head = (q.head + 1) % len(q.slots)
	}
	q.crit.unlock()
	return dst
}
