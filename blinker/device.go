package blinker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Options configures a Device. The zero value is usable.
type Options struct {
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// Idle is slept after every Run iteration. Zero spins.
	Idle time.Duration
	// Notify receives diagnostic records. It is called from the loop
	// goroutine and must not block.
	Notify func(Record)
}

// dropCounter is implemented by links that count events they had to discard.
type dropCounter interface {
	Dropped() uint32
}

// Device owns the blink interval and the toggle state. All of its methods
// must be called from one goroutine.
type Device struct {
	store  Store
	toggle *Toggler
	link   Link
	log    *slog.Logger
	now    func() time.Time
	idle   time.Duration
	notify func(Record)

	started   bool
	halted    bool
	connected bool
	peer      Peer
	events    []Event
	stats     Stats
}

// New returns a Device that exchanges events with link and drives outputs.
// It does nothing until Start is called.
func New(link Link, outputs []Output, opts Options) *Device {
	d := &Device{
		store:  NewStore(),
		toggle: NewToggler(outputs...),
		link:   link,
		log:    opts.Logger,
		now:    opts.Now,
		idle:   opts.Idle,
		notify: opts.Notify,
		events: make([]Event, 0, 8),
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// Start runs init (which brings up the wireless stack) and, if it succeeds,
// drives the outputs high and arms the first toggle deadline.
//
// A failing init halts the device for good: Step becomes a no-op and Run
// only waits for its context.
func (d *Device) Start(init func() error) error {
	if d.halted {
		return ErrHalted
	}
	if init != nil {
		if err := init(); err != nil {
			d.halted = true
			d.log.Error("wireless init failed, halting", "err", err)
			d.emit(Record{Kind: RecordHalted, Err: err.Error()})
			return fmt.Errorf("%w: %w", ErrHalted, err)
		}
	}
	d.toggle.Start(d.now(), d.store.Get())
	d.started = true
	d.log.Info("blinking", "interval_ms", d.store.Get())
	return nil
}

// Step runs one loop iteration: dispatch every pending link event, then
// check the toggle deadline.
func (d *Device) Step() {
	if d.halted || !d.started {
		return
	}
	d.events = d.link.Drain(d.events[:0])
	for i := range d.events {
		d.dispatch(d.events[i])
		d.events[i] = Event{}
	}

	interval := d.store.Get()
	if d.toggle.Poll(d.now(), interval) {
		d.stats.Toggles++
		d.emit(Record{Kind: RecordToggle})
	}
}

// Run calls Step until ctx is done.
func (d *Device) Run(ctx context.Context) error {
	if d.halted {
		<-ctx.Done()
		return ctx.Err()
	}
	if !d.started {
		return errors.New("blinker: Run called before Start")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		d.Step()
		if d.idle > 0 {
			time.Sleep(d.idle)
		}
	}
}

// Interval returns the current blink interval.
func (d *Device) Interval() Interval { return d.store.Get() }

// Snapshot copies the current state.
func (d *Device) Snapshot() Snapshot {
	s := Snapshot{
		Interval:  d.store.Get(),
		High:      d.toggle.High(),
		Deadline:  d.toggle.Deadline(),
		Connected: d.connected,
		Peer:      d.peer,
		Halted:    d.halted,
		Stats:     d.stats,
	}
	if dc, ok := d.link.(dropCounter); ok {
		s.Stats.Dropped = dc.Dropped()
	}
	return s
}

func (d *Device) dispatch(ev Event) {
	switch ev.Kind {
	case EventConnected:
		d.connected = true
		d.peer = ev.Peer
		d.log.Info("connected", "peer", ev.Peer)
		d.emit(Record{Kind: RecordConnected, Peer: ev.Peer.String()})
	case EventDisconnected:
		d.connected = false
		d.peer = Peer{}
		d.log.Info("disconnected", "peer", ev.Peer)
		d.emit(Record{Kind: RecordDisconnected, Peer: ev.Peer.String()})
	case EventWritten:
		d.handleWrite(ev.Peer, ev.Value)
	case EventReadRequested:
		d.handleRead(ev.Peer)
	default:
		d.log.Debug("ignoring event", "kind", ev.Kind)
	}
}

// handleWrite applies the bounds policy to a peer write. A rejected write
// restores the attribute to the stored value and drops the peer.
func (d *Device) handleWrite(p Peer, value []byte) {
	v, err := DecodeInterval(value)
	if err == nil {
		err = Validate(v)
	}
	if err != nil {
		d.stats.Rejected++
		d.log.Warn("write rejected, disconnecting", "peer", p, "value", value, "err", err)
		if perr := d.link.Publish(EncodeInterval(d.store.Get())); perr != nil {
			d.log.Warn("restore failed", "peer", p, "err", perr)
		}
		if derr := d.link.Disconnect(p); derr != nil {
			d.log.Warn("disconnect failed", "peer", p, "err", derr)
		}
		d.emit(Record{Kind: RecordWriteRejected, Peer: p.String(), Err: err.Error()})
		return
	}

	d.store.Set(v)
	d.stats.Accepted++
	d.log.Debug("interval updated", "peer", p, "interval_ms", v)
	// Not every stack keeps the bytes a peer wrote as the attribute value.
	if err := d.link.Publish(EncodeInterval(v)); err != nil {
		d.log.Warn("publish failed", "peer", p, "err", err)
	}
	d.emit(Record{Kind: RecordWriteAccepted, Peer: p.String()})
}

// handleRead republishes the stored interval. A failed publish is a transport
// fault and drops the peer.
func (d *Device) handleRead(p Peer) {
	if err := d.link.Publish(EncodeInterval(d.store.Get())); err != nil {
		d.log.Warn("read failed, disconnecting", "peer", p, "err", err)
		if derr := d.link.Disconnect(p); derr != nil {
			d.log.Warn("disconnect failed", "peer", p, "err", derr)
		}
		d.emit(Record{Kind: RecordReadFailed, Peer: p.String(), Err: err.Error()})
		return
	}
	d.stats.Reads++
	d.log.Debug("read ok", "peer", p, "interval_ms", d.store.Get())
	d.emit(Record{Kind: RecordRead, Peer: p.String()})
}

func (d *Device) emit(r Record) {
	if d.notify == nil {
		return
	}
	r.Interval = d.store.Get()
	r.High = d.toggle.High()
	r.At = d.now()
	d.notify(r)
}
