package blinker

import (
	"errors"
	"io"
	"log/slog"
	"time"
)

type fakeOutput struct {
	levels []bool
}

func (o *fakeOutput) Set(high bool) { o.levels = append(o.levels, high) }

func (o *fakeOutput) last() (bool, bool) {
	if len(o.levels) == 0 {
		return false, false
	}
	return o.levels[len(o.levels)-1], true
}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var errPublish = errors.New("publish failed")

// fakeLink behaves like a stack that reports the disconnect it was asked to
// perform through its own event queue. Like BlueZ, it serves peer reads from
// attr, which peer writes leave alone; only Publish changes it.
type fakeLink struct {
	queue       []Event
	attr        []byte
	published   [][]byte
	disconnects []Peer
	publishErr  error
	drops       uint32
}

func newFakeLink() *fakeLink {
	return &fakeLink{attr: EncodeInterval(DefaultInterval)}
}

// peerRead decodes what a peer reading the attribute would get.
func (l *fakeLink) peerRead() (Interval, error) { return DecodeInterval(l.attr) }

func (l *fakeLink) push(ev Event) { l.queue = append(l.queue, ev) }

func (l *fakeLink) Drain(dst []Event) []Event {
	dst = append(dst, l.queue...)
	l.queue = l.queue[:0]
	return dst
}

func (l *fakeLink) Publish(value []byte) error {
	if l.publishErr != nil {
		return l.publishErr
	}
	l.attr = append([]byte(nil), value...)
	l.published = append(l.published, l.attr)
	return nil
}

func (l *fakeLink) Disconnect(p Peer) error {
	l.disconnects = append(l.disconnects, p)
	l.push(Event{Kind: EventDisconnected, Peer: p})
	return nil
}

func (l *fakeLink) Dropped() uint32 { return l.drops }

func (l *fakeLink) lastPublished() (Interval, bool) {
	if len(l.published) == 0 {
		return 0, false
	}
	v, err := DecodeInterval(l.published[len(l.published)-1])
	if err != nil {
		return 0, false
	}
	return v, true
}

var _ Link = (*fakeLink)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	dev     *Device
	link    *fakeLink
	clock   *fakeClock
	primary *fakeOutput
	aux     *fakeOutput
	records []Record
}

func newHarness() *harness {
	h := &harness{
		link:    newFakeLink(),
		clock:   newFakeClock(),
		primary: &fakeOutput{},
		aux:     &fakeOutput{},
	}
	h.dev = New(h.link, []Output{h.primary, h.aux}, Options{
		Logger: discardLogger(),
		Now:    h.clock.Now,
		Notify: func(r Record) { h.records = append(h.records, r) },
	})
	return h
}

func (h *harness) started() *harness {
	if err := h.dev.Start(nil); err != nil {
		panic(err)
	}
	return h
}

func (h *harness) recordKinds() []RecordKind {
	var ks []RecordKind
	for _, r := range h.records {
		ks = append(ks, r.Kind)
	}
	return ks
}

var alice = Peer{Address: "AA:BB:CC:DD:EE:01"}
