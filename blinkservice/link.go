package blinkservice

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"tinygo.org/x/bluetooth"

	"github.com/JasonSeba/sample-ble/blinker"
)

const defaultQueueLen = 16

// ErrUnknownPeer is returned by Disconnect for a peer that is not connected.
var ErrUnknownPeer = errors.New("blinkservice: unknown peer")

// Options configures a Link.
type Options struct {
	LocalName string
	Logger    *slog.Logger
	// QueueLen bounds the number of callbacks held between two loop
	// iterations. Callbacks beyond it are dropped and counted.
	QueueLen int
}

// attribute is the stored value of the interval characteristic.
type attribute interface {
	Write(p []byte) (n int, err error)
}

// Link connects the bluetooth stack to a blinker.Device.
//
// Stack callbacks only copy into a preallocated queue; peers are resolved
// and everything else happens on the goroutine that calls Drain.
type Link struct {
	adapter *bluetooth.Adapter
	opts    Options
	log     *slog.Logger
	char    bluetooth.Characteristic

	attr       attribute
	disconnect func(bluetooth.Device) error

	q       *queue
	pending []rawEvent

	// Some backends feed Characteristic.Write back through the write
	// callback. While publishing is set, a callback carrying exactly the
	// bytes being published is our own echo.
	publishing atomic.Bool
	echo       [blinker.MaxValueLen]byte
	echoLen    int

	devices map[string]bluetooth.Device
	current blinker.Peer
}

var _ blinker.Link = (*Link)(nil)

// NewLink returns a Link for adapter. Nothing touches the stack until
// Enable is called.
func NewLink(adapter *bluetooth.Adapter, opts Options) *Link {
	if opts.QueueLen <= 0 {
		opts.QueueLen = defaultQueueLen
	}
	if opts.LocalName == "" {
		opts.LocalName = DefaultLocalName
	}
	l := &Link{
		adapter:    adapter,
		opts:       opts,
		log:        opts.Logger,
		disconnect: disconnectDevice,
		q:          newQueue(opts.QueueLen),
		pending:    make([]rawEvent, 0, opts.QueueLen),
		devices:    make(map[string]bluetooth.Device),
	}
	l.attr = &l.char
	if l.log == nil {
		l.log = slog.Default()
	}
	return l
}

// Enable brings up the stack, registers the service and starts advertising.
// It is meant to be passed to blinker.Device.Start.
func (l *Link) Enable() error {
	if err := l.adapter.Enable(); err != nil {
		return fmt.Errorf("enable BLE stack: %w", err)
	}
	l.adapter.SetConnectHandler(l.handleConnect)
	if err := AddService(l.adapter, &l.char, l.handleWrite); err != nil {
		return fmt.Errorf("add blink service: %w", err)
	}
	if err := Advertise(l.adapter, l.opts.LocalName); err != nil {
		return fmt.Errorf("start advertising: %w", err)
	}

	if addr, err := l.adapter.Address(); err == nil {
		l.log.Info("advertising", "name", l.opts.LocalName, "addr", addr.String())
	} else {
		l.log.Info("advertising", "name", l.opts.LocalName)
	}
	return nil
}

// Drain implements blinker.Link. It handles at most one queue's worth of
// callbacks so a chatty peer cannot starve the toggle.
func (l *Link) Drain(dst []blinker.Event) []blinker.Event {
	l.pending = l.q.take(l.pending[:0])
	for i := range l.pending {
		dst = l.resolve(dst, &l.pending[i])
		l.pending[i] = rawEvent{}
	}
	return dst
}

// Publish implements blinker.Link by updating the stored attribute value.
func (l *Link) Publish(value []byte) error {
	if len(value) <= len(l.echo) {
		l.echoLen = copy(l.echo[:], value)
		l.publishing.Store(true)
		defer l.publishing.Store(false)
	}
	_, err := l.attr.Write(value)
	return err
}

// Disconnect implements blinker.Link.
func (l *Link) Disconnect(p blinker.Peer) error {
	dev, ok := l.devices[p.Address]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, p)
	}
	// Backends that report the drop synchronously only enqueue it.
	return l.disconnect(dev)
}

// Dropped is the number of callbacks discarded because the queue was full.
func (l *Link) Dropped() uint32 { return l.q.dropped.Load() }

// resolve turns a raw callback into device events. It runs on the Drain
// goroutine, so it may allocate and talk to the stack.
func (l *Link) resolve(dst []blinker.Event, ev *rawEvent) []blinker.Event {
	switch ev.kind {
	case blinker.EventConnected:
		p := blinker.Peer{Address: ev.dev.Address.String()}
		l.devices[p.Address] = ev.dev
		l.current = p
		if err := requestConnectionParams(ev.dev); err != nil {
			l.log.Debug("connection params not requested", "peer", p, "err", err)
		}
		// The stack serves reads from the stored value without calling
		// back, so the value is synchronised once per connection.
		return append(dst,
			blinker.Event{Kind: blinker.EventConnected, Peer: p},
			blinker.Event{Kind: blinker.EventReadRequested, Peer: p})
	case blinker.EventDisconnected:
		p := blinker.Peer{Address: ev.dev.Address.String()}
		if ev.dev.Address == (bluetooth.Address{}) {
			// SoftDevices only report the handle of the dropped link, and
			// they hold a single peripheral connection.
			p = l.current
		}
		delete(l.devices, p.Address)
		if l.current == p {
			l.current = blinker.Peer{}
		}
		return append(dst, blinker.Event{Kind: blinker.EventDisconnected, Peer: p})
	case blinker.EventWritten:
		var v []byte
		if ev.n >= 0 {
			v = append([]byte(nil), ev.value[:ev.n]...)
		}
		return append(dst, blinker.Event{Kind: blinker.EventWritten, Peer: l.current, Value: v})
	}
	return dst
}

func (l *Link) handleConnect(dev bluetooth.Device, connected bool) {
	l.q.crit.lock()
	if s := l.q.reserve(); s != nil {
		s.kind = blinker.EventDisconnected
		if connected {
			s.kind = blinker.EventConnected
		}
		s.dev = dev
	}
	l.q.crit.unlock()
}

func (l *Link) handleWrite(_ bluetooth.Connection, offset int, value []byte) {
	if l.publishing.Load() && offset == 0 && bytes.Equal(value, l.echo[:l.echoLen]) {
		return
	}
	l.q.crit.lock()
	if s := l.q.reserve(); s != nil {
		s.kind = blinker.EventWritten
		s.n = -1
		// The stack reuses its buffer once the callback returns.
		if offset == 0 && len(value) <= len(s.value) {
			s.n = int8(copy(s.value[:], value))
		}
	}
	l.q.crit.unlock()
}
