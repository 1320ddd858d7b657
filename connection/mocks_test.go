package connection

import (
	"sync"
	"time"

	"github.com/opd-ai/peerlink/clock"
)

// dialRecord is one DialPeer call seen by recordingDialer.
type dialRecord struct {
	address string
	at      time.Duration
}

// recordingDialer records each dial with the logical time elapsed since the
// test epoch.
type recordingDialer struct {
	mu    sync.Mutex
	tp    *clock.ManualTimeProvider
	dials []dialRecord
}

func newRecordingDialer(tp *clock.ManualTimeProvider) *recordingDialer {
	return &recordingDialer{tp: tp}
}

func (r *recordingDialer) DialPeer(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dials = append(r.dials, dialRecord{address: address, at: r.tp.Now().Sub(testEpoch)})
}

func (r *recordingDialer) times() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, 0, len(r.dials))
	for _, d := range r.dials {
		out = append(out, d.at)
	}
	return out
}

func (r *recordingDialer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dials)
}
