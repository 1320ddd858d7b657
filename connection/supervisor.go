package connection

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/opd-ai/peerlink/clock"
	"github.com/opd-ai/peerlink/metrics"
	"github.com/sirupsen/logrus"
)

// Default schedule.
const (
	DefaultFirstRetry  = 3000 * time.Millisecond
	DefaultSecondRetry = 6000 * time.Millisecond
	DefaultResumeDelay = 500 * time.Millisecond
)

// DefaultRetryDelays returns the delays, measured from the first dial, of
// the retries that follow an EnsureLink.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{DefaultFirstRetry, DefaultSecondRetry}
}

// State is the dial state of one address.
type State uint8

const (
	// StateIdle means no dial has been issued for the address.
	StateIdle State = iota
	// StateDialing means a burst was started in this lifecycle.
	StateDialing
	// StateClosed means the lifecycle ended; nothing more will be dialed.
	StateClosed
)

// String returns a lowercase label for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDialing:
		return "dialing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Dialer is the part of the engine the supervisor drives.
type Dialer interface {
	DialPeer(address string)
}

// Executor runs f on the context that owns conversation state.
type Executor func(f func())

// DialCallback is called after every dial issued, with the dial reason
// (one of the metrics.Dial* constants).
type DialCallback func(address, reason string)

type target struct {
	state    State
	attempts int
}

// Supervisor schedules dial attempts for one conversation lifecycle.
type Supervisor struct {
	dialer       Dialer
	timeProvider clock.TimeProvider
	execute      Executor
	retryDelays  []time.Duration
	resumeDelay  time.Duration
	dialCallback DialCallback

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	targets   map[string]*target
	timers    map[uint64]clock.Timer // scheduled and not yet fired
	nextTimer uint64
	closed    bool
}

// Option customizes a Supervisor.
type Option func(*Supervisor)

// WithTimeProvider sets the clock used for scheduling.
func WithTimeProvider(tp clock.TimeProvider) Option {
	return func(s *Supervisor) {
		s.timeProvider = tp
	}
}

// WithExecutor sets where scheduled dials run.
func WithExecutor(execute Executor) Option {
	return func(s *Supervisor) {
		if execute != nil {
			s.execute = execute
		}
	}
}

// WithRetryDelays replaces the retry schedule. Delays are measured from the
// first dial. Non-positive delays are ignored.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(s *Supervisor) {
		s.retryDelays = s.retryDelays[:0]
		for _, d := range delays {
			if d > 0 {
				s.retryDelays = append(s.retryDelays, d)
			}
		}
	}
}

// WithResumeDelay sets the delay of the dial issued by Resume.
func WithResumeDelay(d time.Duration) Option {
	return func(s *Supervisor) {
		if d >= 0 {
			s.resumeDelay = d
		}
	}
}

// OnDial registers a callback invoked after each dial.
func OnDial(callback DialCallback) Option {
	return func(s *Supervisor) {
		s.dialCallback = callback
	}
}

// NewSupervisor creates a supervisor whose lifetime is bounded by parent.
// Cancelling parent has the same effect on scheduled dials as Close.
func NewSupervisor(parent context.Context, dialer Dialer, opts ...Option) *Supervisor {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	s := &Supervisor{
		dialer:      dialer,
		execute:     func(f func()) { f() },
		retryDelays: DefaultRetryDelays(),
		resumeDelay: DefaultResumeDelay,
		ctx:         ctx,
		cancel:      cancel,
		targets:     make(map[string]*target),
		timers:      make(map[uint64]clock.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timeProvider = clock.Default(s.timeProvider)
	return s
}

// EnsureLink starts a dial burst for address. It returns false without
// dialing when address is empty, when a burst for it already ran in this
// lifecycle, or after Close.
func (s *Supervisor) EnsureLink(address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}

	s.mu.Lock()
	if s.closed || s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	t := s.targetLocked(address)
	if t.state == StateDialing {
		s.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function": "EnsureLink",
			"address":  address,
			"attempts": t.attempts,
		}).Debug("Link attempt already in flight")
		return false
	}
	t.state = StateDialing
	for _, d := range s.retryDelays {
		s.scheduleLocked(d, address, metrics.DialRetry)
	}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "EnsureLink",
		"address":  address,
		"retries":  len(s.retryDelays),
	}).Info("Starting dial burst")

	s.dial(address, metrics.DialOpen)
	return true
}

// Resume schedules one dial after the resume delay. An Idle address is moved
// to Dialing.
func (s *Supervisor) Resume(address string) {
	address = strings.TrimSpace(address)
	if address == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.ctx.Err() != nil {
		return
	}
	t := s.targetLocked(address)
	if t.state == StateIdle {
		t.state = StateDialing
	}
	s.scheduleLocked(s.resumeDelay, address, metrics.DialResume)

	logrus.WithFields(logrus.Fields{
		"function": "Resume",
		"address":  address,
		"delay":    s.resumeDelay,
	}).Debug("Scheduled resume dial")
}

// Repair dials address once, immediately. An Idle address is moved to
// Dialing.
func (s *Supervisor) Repair(address string) {
	address = strings.TrimSpace(address)
	if address == "" {
		return
	}

	s.mu.Lock()
	if s.closed || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	t := s.targetLocked(address)
	if t.state == StateIdle {
		t.state = StateDialing
	}
	s.mu.Unlock()

	s.dial(address, metrics.DialRepair)
}

// Close ends the lifecycle and cancels all scheduled dials. It is safe to
// call more than once.
func (s *Supervisor) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()

	stopped := 0
	for _, timer := range s.timers {
		if timer.Stop() {
			stopped++
		}
	}
	clear(s.timers)
	for _, t := range s.targets {
		t.state = StateClosed
	}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":  "Close",
		"cancelled": stopped,
	}).Debug("Connection supervisor closed")
}

// State returns the dial state of address.
func (s *Supervisor) State(address string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.targets[strings.TrimSpace(address)]; ok {
		return t.state
	}
	if s.closed {
		return StateClosed
	}
	return StateIdle
}

// Attempts returns how many dials were issued for address.
func (s *Supervisor) Attempts(address string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.targets[strings.TrimSpace(address)]; ok {
		return t.attempts
	}
	return 0
}

// Attempted reports whether any dial was issued in this lifecycle.
func (s *Supervisor) Attempted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.targets {
		if t.attempts > 0 {
			return true
		}
	}
	return false
}

// Closed reports whether Close was called.
func (s *Supervisor) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Supervisor) targetLocked(address string) *target {
	t, ok := s.targets[address]
	if !ok {
		t = &target{state: StateIdle}
		s.targets[address] = t
	}
	return t
}

func (s *Supervisor) scheduleLocked(d time.Duration, address, reason string) {
	ctx := s.ctx
	s.nextTimer++
	id := s.nextTimer
	s.timers[id] = s.timeProvider.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		s.execute(func() {
			s.fire(address, reason)
		})
	})
}

// scheduled returns the number of dials still waiting on a timer.
func (s *Supervisor) scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Supervisor) fire(address, reason string) {
	s.mu.Lock()
	suppressed := s.closed || s.ctx.Err() != nil
	s.mu.Unlock()

	if suppressed {
		logrus.WithFields(logrus.Fields{
			"function": "fire",
			"address":  address,
			"reason":   reason,
		}).Debug("Suppressed scheduled dial after close")
		return
	}
	s.dial(address, reason)
}

func (s *Supervisor) dial(address, reason string) {
	s.mu.Lock()
	t := s.targetLocked(address)
	t.attempts++
	attempt := t.attempts
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "dial",
		"address":  address,
		"reason":   reason,
		"attempt":  attempt,
	}).Debug("Dialing peer")

	s.dialer.DialPeer(address)
	if s.dialCallback != nil {
		s.dialCallback(address, reason)
	}
}
