package peerlink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/peerlink/clock"
	"github.com/opd-ai/peerlink/kvstore"
	simnet "github.com/opd-ai/peerlink/testing"
	"github.com/stretchr/testify/require"
)

// harness wires a Client to a simulated engine and a manual clock and runs
// the owner loop for the duration of the test.
type harness struct {
	t      *testing.T
	client *Client
	engine *simnet.SimulatedEngine
	clock  *clock.ManualTimeProvider
	store  kvstore.Store
	notes  *noteRecorder
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	return newHarnessWithStore(t, kvstore.NewMemory(), opts...)
}

func newHarnessWithStore(t *testing.T, store kvstore.Store, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		t:      t,
		engine: simnet.NewSimulatedEngine(nil),
		clock:  clock.NewManualTimeProvider(testEpoch),
		store:  store,
		notes:  &noteRecorder{},
	}
	h.engine.SetClock(h.clock.Now)

	base := []Option{
		WithStore(store),
		WithTimeProvider(h.clock),
		WithNotifier(h.notes),
	}
	client, err := NewClient(h.engine, append(base, opts...)...)
	require.NoError(t, err)
	h.client = client

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = client.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-runDone
		_ = client.Close()
	})
	// Run owns the loop once a queued call has been served
	require.NoError(t, client.Sync())

	require.NoError(t, client.Start())
	return h
}

// advance moves the clock and waits for the fired timers' work to run on
// the owner loop.
func (h *harness) advance(d time.Duration) {
	h.t.Helper()
	h.clock.Advance(d)
	require.NoError(h.t, h.client.Sync())
}

// deliver simulates an inbound message and waits until it was routed.
func (h *harness) deliver(senderID, content string) {
	h.t.Helper()
	require.True(h.t, h.engine.Deliver(senderID, content))
	require.NoError(h.t, h.client.Sync())
}

// addContact adds a contact and clears the dial it caused.
func (h *harness) addContact(name, peerID, address string) {
	h.t.Helper()
	_, err := h.client.AddContact(name, peerID, address)
	require.NoError(h.t, err)
	h.engine.ClearLogs()
}

// noteRecorder collects notifications.
type noteRecorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *noteRecorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *noteRecorder) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

// failingStartEngine refuses to start.
type failingStartEngine struct {
	*simnet.SimulatedEngine
	calls int
}

var errNativeMissing = errors.New("native library not loaded")

func (f *failingStartEngine) StartNode(seed, identityPath string) error {
	f.calls++
	return errNativeMissing
}

// brokenStore fails every write.
type brokenStore struct {
	*kvstore.Memory
}

var errDiskFull = errors.New("disk full")

func (b brokenStore) Put(key string, value []byte) error {
	return errDiskFull
}
