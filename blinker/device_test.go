package blinker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDevice_ReadWithoutWriteReturnsDefault(t *testing.T) {
	h := newHarness().started()
	h.link.push(Event{Kind: EventConnected, Peer: alice})
	h.link.push(Event{Kind: EventReadRequested, Peer: alice})

	h.dev.Step()

	got, ok := h.link.lastPublished()
	if !ok || got != DefaultInterval {
		t.Fatalf("published %d (ok=%v), want %d", got, ok, DefaultInterval)
	}
	if len(h.link.disconnects) != 0 {
		t.Fatalf("unexpected disconnects: %v", h.link.disconnects)
	}
}

func TestDevice_WritePolicy(t *testing.T) {
	tests := []struct {
		name   string
		value  []byte
		accept bool
		want   Interval
	}{
		{name: "lower bound", value: EncodeInterval(100), accept: true, want: 100},
		{name: "upper bound", value: EncodeInterval(10000), accept: true, want: 10000},
		{name: "typical", value: EncodeInterval(250), accept: true, want: 250},
		{name: "below lower bound", value: EncodeInterval(99), want: DefaultInterval},
		{name: "above upper bound", value: EncodeInterval(10001), want: DefaultInterval},
		{name: "zero", value: EncodeInterval(0), want: DefaultInterval},
		{name: "negative", value: EncodeInterval(-500), want: DefaultInterval},
		{name: "one byte", value: []byte{0x64}, want: DefaultInterval},
		{name: "oversized", value: make([]byte, MaxValueLen), want: DefaultInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness().started()
			h.link.push(Event{Kind: EventConnected, Peer: alice})
			h.link.push(Event{Kind: EventWritten, Peer: alice, Value: tt.value})

			h.dev.Step()

			if got := h.dev.Interval(); got != tt.want {
				t.Fatalf("interval = %d, want %d", got, tt.want)
			}
			if tt.accept {
				if len(h.link.disconnects) != 0 {
					t.Fatalf("accepted write disconnected peer: %v", h.link.disconnects)
				}
				if got, err := h.link.peerRead(); err != nil || got != tt.want {
					t.Fatalf("peer reads %d (err=%v), want %d", got, err, tt.want)
				}
				return
			}
			if len(h.link.disconnects) != 1 || h.link.disconnects[0] != alice {
				t.Fatalf("disconnects = %v, want [%v]", h.link.disconnects, alice)
			}
			restored, ok := h.link.lastPublished()
			if !ok || restored != DefaultInterval {
				t.Fatalf("restored %d (ok=%v), want %d", restored, ok, DefaultInterval)
			}
		})
	}
}

func TestDevice_ReadAfterWriteReturnsWrittenValue(t *testing.T) {
	h := newHarness().started()
	h.link.push(Event{Kind: EventWritten, Peer: alice, Value: EncodeInterval(4321)})
	h.link.push(Event{Kind: EventReadRequested, Peer: alice})

	h.dev.Step()

	got, ok := h.link.lastPublished()
	if !ok || got != 4321 {
		t.Fatalf("published %d (ok=%v), want 4321", got, ok)
	}
}

func TestDevice_AcceptedWriteIsWhatPeersReadBack(t *testing.T) {
	h := newHarness().started()
	h.link.push(Event{Kind: EventConnected, Peer: alice})
	h.link.push(Event{Kind: EventReadRequested, Peer: alice})
	h.dev.Step()

	// The stack does not store what the peer wrote, so the device has to.
	h.link.push(Event{Kind: EventWritten, Peer: alice, Value: EncodeInterval(250)})
	h.dev.Step()

	got, err := h.link.peerRead()
	if err != nil || got != 250 {
		t.Fatalf("peer reads %d (err=%v), want 250", got, err)
	}
	if s := h.dev.Snapshot().Stats; s.Accepted != 1 || s.Reads != 1 {
		t.Fatalf("stats = %+v, want 1 accepted and 1 read", s)
	}
}

func TestDevice_RejectKeepsPreviousAcceptedValue(t *testing.T) {
	h := newHarness().started()
	h.link.push(Event{Kind: EventWritten, Peer: alice, Value: EncodeInterval(300)})
	h.dev.Step()

	h.link.push(Event{Kind: EventWritten, Peer: alice, Value: EncodeInterval(20000)})
	h.dev.Step()

	if got := h.dev.Interval(); got != 300 {
		t.Fatalf("interval = %d, want 300", got)
	}
	if got, _ := h.link.lastPublished(); got != 300 {
		t.Fatalf("restored %d, want 300", got)
	}
}

func TestDevice_DisconnectFromHandlerIsSafe(t *testing.T) {
	h := newHarness().started()
	h.link.push(Event{Kind: EventConnected, Peer: alice})
	h.link.push(Event{Kind: EventWritten, Peer: alice, Value: EncodeInterval(5)})
	h.dev.Step()

	// The disconnect requested from the write handler shows up as an event on
	// the following iteration.
	h.dev.Step()
	if snap := h.dev.Snapshot(); snap.Connected {
		t.Fatal("still connected after rejection")
	}

	// The loop keeps working afterwards.
	h.clock.Advance(DefaultInterval.Duration())
	h.dev.Step()
	if h.dev.Snapshot().High {
		t.Fatal("toggle did not fire after disconnect")
	}
}

func TestDevice_ReadPublishFailureDisconnects(t *testing.T) {
	h := newHarness().started()
	h.link.publishErr = errPublish
	h.link.push(Event{Kind: EventReadRequested, Peer: alice})

	h.dev.Step()

	if len(h.link.disconnects) != 1 {
		t.Fatalf("disconnects = %v, want one", h.link.disconnects)
	}
	if got := h.dev.Interval(); got != DefaultInterval {
		t.Fatalf("interval changed to %d", got)
	}
}

func TestDevice_TogglesWithStoreInterval(t *testing.T) {
	h := newHarness().started()

	if lvl, _ := h.primary.last(); !lvl {
		t.Fatal("primary not high after Start")
	}

	// Change the interval mid-cycle.
	h.clock.Advance(400 * time.Millisecond)
	h.link.push(Event{Kind: EventWritten, Peer: alice, Value: EncodeInterval(200)})
	h.dev.Step()
	if !h.dev.Snapshot().High {
		t.Fatal("flipped before original deadline")
	}

	h.clock.Advance(600 * time.Millisecond)
	h.dev.Step()
	snap := h.dev.Snapshot()
	if snap.High {
		t.Fatal("no flip at original deadline")
	}
	if want := h.clock.Now().Add(200 * time.Millisecond); !snap.Deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", snap.Deadline, want)
	}
	lp, _ := h.primary.last()
	la, _ := h.aux.last()
	if lp != la {
		t.Fatalf("outputs diverged: primary=%v aux=%v", lp, la)
	}
}

func TestDevice_StartFailureHalts(t *testing.T) {
	h := newHarness()
	initErr := errors.New("radio missing")

	err := h.dev.Start(func() error { return initErr })
	if !errors.Is(err, ErrHalted) || !errors.Is(err, initErr) {
		t.Fatalf("Start err = %v, want ErrHalted wrapping init error", err)
	}

	h.link.push(Event{Kind: EventWritten, Peer: alice, Value: EncodeInterval(200)})
	for i := 0; i < 5; i++ {
		h.clock.Advance(time.Hour)
		h.dev.Step()
	}
	if len(h.primary.levels) != 0 || len(h.aux.levels) != 0 {
		t.Fatalf("outputs driven while halted: %v %v", h.primary.levels, h.aux.levels)
	}
	if len(h.link.queue) != 1 {
		t.Fatal("halted device drained link events")
	}
	if got := h.dev.Interval(); got != DefaultInterval {
		t.Fatalf("interval = %d while halted", got)
	}
	if !h.dev.Snapshot().Halted {
		t.Fatal("snapshot does not report halt")
	}
	if err := h.dev.Start(nil); !errors.Is(err, ErrHalted) {
		t.Fatalf("restart err = %v, want ErrHalted", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.dev.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run err = %v, want deadline exceeded", err)
	}
	if len(h.primary.levels) != 0 {
		t.Fatal("Run drove outputs while halted")
	}

	kinds := h.recordKinds()
	if len(kinds) != 1 || kinds[0] != RecordHalted {
		t.Fatalf("records = %v, want [halted]", kinds)
	}
}

func TestDevice_StepBeforeStartIsNoop(t *testing.T) {
	h := newHarness()
	h.link.push(Event{Kind: EventReadRequested, Peer: alice})
	h.dev.Step()
	if len(h.link.published) != 0 || len(h.primary.levels) != 0 {
		t.Fatal("Step did work before Start")
	}
	if err := h.dev.Run(context.Background()); err == nil {
		t.Fatal("Run before Start returned nil")
	}
}

func TestDevice_RunStopsOnCancel(t *testing.T) {
	h := newHarness().started()
	h.dev.idle = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.dev.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDevice_RecordsAndStats(t *testing.T) {
	h := newHarness().started()
	h.link.drops = 3
	h.link.push(Event{Kind: EventConnected, Peer: alice})
	h.link.push(Event{Kind: EventWritten, Peer: alice, Value: EncodeInterval(150)})
	h.link.push(Event{Kind: EventReadRequested, Peer: alice})
	h.link.push(Event{Kind: EventWritten, Peer: alice, Value: EncodeInterval(1)})
	h.dev.Step()
	h.clock.Advance(DefaultInterval.Duration())
	h.dev.Step() // disconnect event + toggle

	want := []RecordKind{
		RecordConnected, RecordWriteAccepted, RecordRead, RecordWriteRejected,
		RecordDisconnected, RecordToggle,
	}
	got := h.recordKinds()
	if len(got) != len(want) {
		t.Fatalf("records = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d = %s, want %s", i, got[i], want[i])
		}
	}
	last := h.records[len(h.records)-1]
	if last.Interval != 150 || last.High {
		t.Fatalf("toggle record = %+v", last)
	}

	st := h.dev.Snapshot().Stats
	if st.Accepted != 1 || st.Rejected != 1 || st.Reads != 1 || st.Toggles != 1 || st.Dropped != 3 {
		t.Fatalf("stats = %+v", st)
	}
}
