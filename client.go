package peerlink

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/peerlink/clock"
	"github.com/opd-ai/peerlink/connection"
	"github.com/opd-ai/peerlink/contact"
	"github.com/opd-ai/peerlink/interfaces"
	"github.com/opd-ai/peerlink/kvstore"
	"github.com/opd-ai/peerlink/metrics"
	"github.com/opd-ai/peerlink/session"
	"github.com/sirupsen/logrus"
)

const (
	// eventQueueSize bounds the owner queue. Producers block when it is full.
	eventQueueSize = 256

	// DefaultPeerInfoDelay is the delay before the first peer info poll.
	DefaultPeerInfoDelay = 1 * time.Second

	// DefaultPeerInfoInterval is the delay between later polls.
	DefaultPeerInfoInterval = 2 * time.Second
)

// Client is the session and routing layer for one node.
type Client struct {
	engine       interfaces.Engine
	store        kvstore.Store
	ledgerKey    string
	timeProvider clock.TimeProvider
	metrics      *metrics.Collector

	retryDelays      []time.Duration
	retryDelaysSet   bool
	resumeDelay      time.Duration
	peerInfoDelay    time.Duration
	peerInfoInterval time.Duration

	seed         string
	identityPath string

	startMu     sync.Mutex
	nodeStarted bool
	startErr    error

	events     chan func()
	done       chan struct{}
	loopExited chan struct{}
	running    atomic.Bool
	stopOnce   sync.Once
	closeOnce  sync.Once

	// ctx bounds every conversation's supervisor.
	ctx    context.Context
	cancel context.CancelFunc

	// Owned by the Run goroutine.
	tracker       *session.Tracker
	ledger        *contact.Ledger
	conversations map[string]*Conversation
	inbox         *connection.Supervisor
	notifiers     []Notifier
}

// Option customizes a Client.
type Option func(*Client)

// WithStore sets the blob store the contact ledger persists to. The default
// is an in-memory store. The client does not close it.
func WithStore(store kvstore.Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithLedgerKey overrides the store key of the ledger blob.
func WithLedgerKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.ledgerKey = key
		}
	}
}

// WithTimeProvider sets the clock used for timestamps and dial scheduling.
func WithTimeProvider(tp clock.TimeProvider) Option {
	return func(c *Client) {
		c.timeProvider = tp
	}
}

// WithMetrics records activity on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithNotifier adds a notification receiver.
func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifiers = append(c.notifiers, n)
		}
	}
}

// WithRetryDelays replaces the 3s/6s retry schedule of a dial burst.
// Passing no delays leaves only the immediate dial.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(c *Client) {
		c.retryDelays = append([]time.Duration(nil), delays...)
		c.retryDelaysSet = true
	}
}

// WithResumeDelay replaces the 500ms delay of the dial issued on Foreground.
func WithResumeDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.resumeDelay = d
		}
	}
}

// WithPeerInfoInterval replaces the 2s period of WatchPeerInfo.
func WithPeerInfoInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.peerInfoInterval = d
		}
	}
}

// WithIdentity sets what Start passes to StartNode.
func WithIdentity(seed, identityPath string) Option {
	return func(c *Client) {
		c.seed = seed
		c.identityPath = identityPath
	}
}

// NewClient creates a client for engine, loads the contact ledger and
// installs the engine's message handler. The handler stays installed for the
// client's lifetime. The node is not started until Start.
func NewClient(engine interfaces.Engine, opts ...Option) (*Client, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: nil engine", ErrEngineUnavailable)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		engine:           engine,
		ledgerKey:        contact.DefaultLedgerKey,
		resumeDelay:      connection.DefaultResumeDelay,
		peerInfoDelay:    DefaultPeerInfoDelay,
		peerInfoInterval: DefaultPeerInfoInterval,
		events:           make(chan func(), eventQueueSize),
		done:             make(chan struct{}),
		loopExited:       make(chan struct{}),
		ctx:              ctx,
		cancel:           cancel,
		tracker:          session.NewTracker(),
		conversations:    make(map[string]*Conversation),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.timeProvider = clock.Default(c.timeProvider)
	if c.store == nil {
		c.store = kvstore.NewMemory()
	}

	c.ledger = contact.Load(c.store, c.ledgerKey)
	c.ledger.OnPersistError(func(error) {
		c.metrics.PersistError()
	})
	c.inbox = c.newSupervisor()

	engine.SetMessageHandler(c.onEngineMessage)

	logrus.WithFields(logrus.Fields{
		"function":   "NewClient",
		"contacts":   c.ledger.Len(),
		"ledger_key": c.ledgerKey,
		"simulation": engine.IsSimulation(),
	}).Info("Created peerlink client")

	return c, nil
}

// newSupervisor creates a supervisor bound to the client lifetime whose
// scheduled dials run on the owner goroutine.
func (c *Client) newSupervisor() *connection.Supervisor {
	opts := []connection.Option{
		connection.WithTimeProvider(c.timeProvider),
		connection.WithExecutor(func(f func()) { c.post(f) }),
		connection.WithResumeDelay(c.resumeDelay),
		connection.OnDial(func(_, reason string) {
			c.metrics.Dial(reason)
		}),
	}
	if c.retryDelaysSet {
		opts = append(opts, connection.WithRetryDelays(c.retryDelays...))
	}
	return connection.NewSupervisor(c.ctx, c.engine, opts...)
}

// Start brings the engine's node up. Only the first call reaches the engine;
// later calls return its result.
func (c *Client) Start() error {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if c.nodeStarted {
		return c.startErr
	}
	c.nodeStarted = true

	if err := c.engine.StartNode(c.seed, c.identityPath); err != nil {
		c.startErr = fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		logrus.WithFields(logrus.Fields{
			"function": "Start",
			"error":    err.Error(),
		}).Error("Failed to start node")
		return c.startErr
	}

	logrus.WithFields(logrus.Fields{
		"function": "Start",
		"peer_id":  c.engine.GetMyPeerID(),
	}).Info("Node started")
	return nil
}

// Run processes queued events until ctx is cancelled or Close is called.
// The client cannot be used once Run has returned.
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.loopExited)

	for {
		select {
		case <-ctx.Done():
			c.stop()
			return ctx.Err()
		case <-c.done:
			return nil
		case f := <-c.events:
			f()
		}
	}
}

// Sync waits until every event queued before the call has been processed.
func (c *Client) Sync() error {
	return c.call(func() {})
}

// Close stops Run, cancels every scheduled dial and closes the engine.
// It must not be called from a notification callback.
func (c *Client) Close() error {
	c.stop()
	if c.running.Load() {
		<-c.loopExited
	}

	var err error
	c.closeOnce.Do(func() {
		err = c.engine.Close()
		logrus.WithFields(logrus.Fields{
			"function": "Close",
		}).Info("Client closed")
	})
	return err
}

func (c *Client) stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.cancel()
	})
}

// post queues f for the owner goroutine. It reports false once the client
// is stopped.
func (c *Client) post(f func()) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- f:
		return true
	case <-c.done:
		return false
	}
}

// call runs f on the owner goroutine and waits for it.
func (c *Client) call(f func()) error {
	finished := make(chan struct{})
	if !c.post(func() {
		defer close(finished)
		f()
	}) {
		return ErrClientClosed
	}
	select {
	case <-finished:
		return nil
	case <-c.done:
		return ErrClientClosed
	}
}

// Engine returns the engine the client drives.
func (c *Client) Engine() interfaces.Engine {
	return c.engine
}

// shortID shortens peer IDs for logs.
func shortID(peerID string) string {
	return contact.ShortID(peerID)
}
