package real

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	libp2p "github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	relayclient "github.com/libp2p/go-libp2p/p2p/protocol/circuitv2/client"
	"github.com/opd-ai/peerlink/clock"
	"github.com/opd-ai/peerlink/interfaces"
	"github.com/opd-ai/peerlink/kvstore"
	"github.com/sirupsen/logrus"
)

// Defaults applied to zero-valued EngineConfig fields.
const (
	DefaultDialTimeout        = 15 * time.Second
	DefaultSendTimeout        = 15 * time.Second
	DefaultReservationRefresh = 90 * time.Second
)

// DefaultListenAddrs returns the listen addresses used when none are
// configured.
func DefaultListenAddrs() []string {
	return []string{
		"/ip4/0.0.0.0/tcp/0",
		"/ip4/0.0.0.0/udp/0/quic-v1",
	}
}

var (
	// ErrNotStarted is returned for operations that need a running node.
	ErrNotStarted = errors.New("node not started")

	// ErrAlreadyStarted is returned by a second StartNode call.
	ErrAlreadyStarted = errors.New("node already started")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("engine closed")

	// ErrNoAck is returned when the remote side answered without the
	// expected acknowledgement.
	ErrNoAck = errors.New("message not acknowledged")
)

// Engine implements interfaces.Engine on a libp2p host.
type Engine struct {
	config       interfaces.EngineConfig
	natTraversal bool
	bookStore    kvstore.Store
	timeProvider clock.TimeProvider

	mu         sync.RWMutex
	host       host.Host
	closed     bool
	handler    interfaces.MessageHandler
	relayAddrs []string
	book       *AddressBook
	limiter    *peerLimiter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option customizes an Engine.
type Option func(*Engine)

// WithNATTraversal toggles UPnP port mapping and hole punching. Both are on
// by default.
func WithNATTraversal(enabled bool) Option {
	return func(e *Engine) {
		e.natTraversal = enabled
	}
}

// WithAddressBookStore sets where SaveContact entries are kept. By default
// they go to a file store next to the identity file.
func WithAddressBookStore(store kvstore.Store) Option {
	return func(e *Engine) {
		e.bookStore = store
	}
}

// WithTimeProvider sets the clock used for timestamps and rate limiting.
func WithTimeProvider(tp clock.TimeProvider) Option {
	return func(e *Engine) {
		e.timeProvider = tp
	}
}

// NewEngine creates an engine. Nothing touches the network until StartNode.
func NewEngine(config *interfaces.EngineConfig, opts ...Option) (*Engine, error) {
	cfg := interfaces.EngineConfig{}
	if config != nil {
		cfg = *config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.ListenAddrs) == 0 {
		cfg.ListenAddrs = DefaultListenAddrs()
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.SendTimeout == 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.ReservationRefresh == 0 {
		cfg.ReservationRefresh = DefaultReservationRefresh
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		config:       cfg,
		natTraversal: true,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.timeProvider = clock.Default(e.timeProvider)
	e.limiter = newPeerLimiter(cfg.InboundPerMinute, 0)
	if e.bookStore != nil {
		e.book = NewAddressBook(e.bookStore)
	}

	logrus.WithFields(logrus.Fields{
		"function":      "NewEngine",
		"listen_addrs":  cfg.ListenAddrs,
		"relays":        len(cfg.RelayAddrs),
		"dial_timeout":  cfg.DialTimeout,
		"send_timeout":  cfg.SendTimeout,
		"nat_traversal": e.natTraversal,
	}).Info("Created libp2p engine")

	return e, nil
}

// StartNode implements interfaces.Engine.StartNode.
func (e *Engine) StartNode(seed, identityPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.host != nil {
		return ErrAlreadyStarted
	}

	priv, err := resolveIdentity(seed, identityPath)
	if err != nil {
		return err
	}

	relays := e.parseRelays()
	opts := []libp2p.Option{
		libp2p.Identity(priv),
		libp2p.ListenAddrStrings(e.config.ListenAddrs...),
		libp2p.EnableRelay(),
	}
	if e.natTraversal {
		opts = append(opts, libp2p.NATPortMap(), libp2p.EnableHolePunching())
	}

	h, err := libp2p.New(opts...)
	if err != nil {
		return fmt.Errorf("start libp2p host: %w", err)
	}
	h.SetStreamHandler(protocol.ID(interfaces.ChatProtocolID), e.handleChatStream)
	e.host = h

	if e.book == nil {
		e.book = NewAddressBook(e.openBookStore(identityPath))
	}

	logrus.WithFields(logrus.Fields{
		"function": "StartNode",
		"peer_id":  h.ID().String(),
		"addrs":    len(h.Addrs()),
		"seeded":   seed != "",
	}).Info("Node started")

	if len(relays) > 0 {
		e.wg.Add(1)
		go e.maintainReservations(relays)
	}
	for _, addr := range e.book.Addresses() {
		e.dialLocked(addr)
	}
	return nil
}

func (e *Engine) parseRelays() []peer.AddrInfo {
	var relays []peer.AddrInfo
	for _, raw := range e.config.RelayAddrs {
		info, err := ParseDialAddress(raw)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "parseRelays",
				"relay":    raw,
				"error":    err.Error(),
			}).Warn("Ignoring invalid relay address")
			continue
		}
		relays = append(relays, *info)
	}
	return relays
}

func (e *Engine) openBookStore(identityPath string) kvstore.Store {
	dir := strings.TrimSpace(e.config.ContactBookPath)
	if dir == "" && strings.TrimSpace(identityPath) != "" {
		dir = filepath.Dir(identityPath)
	}
	if dir == "" {
		return nil
	}
	store, err := kvstore.OpenFile(dir)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "openBookStore",
			"dir":      dir,
			"error":    err.Error(),
		}).Warn("Address book not persisted")
		return nil
	}
	return store
}

// DialPeer implements interfaces.Engine.DialPeer. The connection attempt
// runs in the background and its outcome is only logged.
func (e *Engine) DialPeer(address string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dialLocked(address)
}

func (e *Engine) dialLocked(address string) {
	if e.host == nil || e.closed {
		logrus.WithFields(logrus.Fields{
			"function": "DialPeer",
			"address":  address,
		}).Debug("Dial skipped, node not running")
		return
	}
	info, err := ParseDialAddress(address)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "DialPeer",
			"address":  address,
			"error":    err.Error(),
		}).Warn("Cannot dial invalid address")
		return
	}
	h := e.host
	if info.ID == h.ID() {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(e.ctx, e.config.DialTimeout)
		defer cancel()

		if err := h.Connect(ctx, *info); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "DialPeer",
				"peer_id":  info.ID.String(),
				"error":    err.Error(),
			}).Debug("Dial failed")
			return
		}
		logrus.WithFields(logrus.Fields{
			"function": "DialPeer",
			"peer_id":  info.ID.String(),
		}).Info("Connected to peer")
	}()
}

// SendMessage implements interfaces.Engine.SendMessage. It opens a chat
// stream, writes one framed envelope and waits for the ack.
func (e *Engine) SendMessage(peerID, text string) error {
	h, err := e.runningHost()
	if err != nil {
		return err
	}
	pid, err := peer.Decode(strings.TrimSpace(peerID))
	if err != nil {
		return fmt.Errorf("invalid peer id %q: %w", peerID, err)
	}

	payload, err := encodeEnvelope(envelope{
		ID:        newEnvelopeID(),
		From:      h.ID().String(),
		Content:   text,
		Timestamp: e.timeProvider.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(e.ctx, e.config.SendTimeout)
	defer cancel()
	ctx = network.WithAllowLimitedConn(ctx, "chat")

	s, err := h.NewStream(ctx, pid, protocol.ID(interfaces.ChatProtocolID))
	if err != nil {
		return fmt.Errorf("open chat stream to %s: %w", pid, err)
	}
	defer s.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.SetDeadline(deadline)
	}

	if err := writeFrame(s, payload); err != nil {
		_ = s.Reset()
		return fmt.Errorf("send to %s: %w", pid, err)
	}
	if err := s.CloseWrite(); err != nil {
		_ = s.Reset()
		return fmt.Errorf("send to %s: %w", pid, err)
	}
	ack, err := readFrame(s)
	if err != nil {
		return fmt.Errorf("await ack from %s: %w", pid, err)
	}
	if string(ack) != ackText {
		return fmt.Errorf("%w: %s answered %q", ErrNoAck, pid, string(ack))
	}

	logrus.WithFields(logrus.Fields{
		"function": "SendMessage",
		"peer_id":  pid.String(),
		"size":     len(text),
	}).Debug("Message delivered")
	return nil
}

func (e *Engine) handleChatStream(s network.Stream) {
	defer s.Close()
	remote := s.Conn().RemotePeer()
	_ = s.SetDeadline(time.Now().Add(e.config.SendTimeout))

	payload, err := readFrame(s)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "handleChatStream",
			"peer_id":  remote.String(),
			"error":    err.Error(),
		}).Debug("Failed to read chat frame")
		_ = s.Reset()
		return
	}
	env, err := decodeEnvelope(payload)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "handleChatStream",
			"peer_id":  remote.String(),
			"error":    err.Error(),
		}).Warn("Dropping malformed chat message")
		_ = s.Reset()
		return
	}
	if !e.limiter.Allow(remote.String(), e.timeProvider.Now()) {
		logrus.WithFields(logrus.Fields{
			"function": "handleChatStream",
			"peer_id":  remote.String(),
		}).Warn("Inbound rate limit exceeded, dropping message")
		_ = s.Reset()
		return
	}
	if env.From != "" && env.From != remote.String() {
		logrus.WithFields(logrus.Fields{
			"function": "handleChatStream",
			"peer_id":  remote.String(),
			"claimed":  env.From,
		}).Warn("Envelope sender differs from stream peer, using stream peer")
	}

	if err := writeFrame(s, []byte(ackText)); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "handleChatStream",
			"peer_id":  remote.String(),
			"error":    err.Error(),
		}).Debug("Failed to write ack")
	}

	e.mu.RLock()
	handler := e.handler
	e.mu.RUnlock()
	if handler != nil {
		handler(remote.String(), env.Content)
	}
}

// GetMyPeerID implements interfaces.Engine.GetMyPeerID.
func (e *Engine) GetMyPeerID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.host == nil || e.closed {
		return interfaces.UnknownPeerID
	}
	return e.host.ID().String()
}

// GetListenAddresses implements interfaces.Engine.GetListenAddresses.
// Circuit addresses come first.
func (e *Engine) GetListenAddresses() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.host == nil || e.closed {
		return nil
	}

	id := e.host.ID()
	addrs := make([]string, 0, len(e.relayAddrs)+4)
	addrs = append(addrs, e.relayAddrs...)
	for _, a := range e.host.Addrs() {
		addrs = append(addrs, withPeerID(a, id))
	}
	return orderAddresses(addrs)
}

// SaveContact implements interfaces.Engine.SaveContact.
func (e *Engine) SaveContact(name, address string) {
	e.mu.Lock()
	if e.book == nil {
		e.book = NewAddressBook(nil)
	}
	book := e.book
	e.mu.Unlock()

	if err := book.Save(name, address); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "SaveContact",
			"name":     name,
			"error":    err.Error(),
		}).Warn("Failed to save contact address")
	}
}

// AddressBook returns the engine's saved dial targets.
func (e *Engine) AddressBook() *AddressBook {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.book == nil {
		e.book = NewAddressBook(nil)
	}
	return e.book
}

// SetMessageHandler implements interfaces.Engine.SetMessageHandler.
func (e *Engine) SetMessageHandler(handler interfaces.MessageHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = handler
}

// Connected reports whether there is a live connection to peerID.
func (e *Engine) Connected(peerID string) bool {
	h, err := e.runningHost()
	if err != nil {
		return false
	}
	pid, err := peer.Decode(peerID)
	if err != nil {
		return false
	}
	return h.Network().Connectedness(pid) == network.Connected
}

// Close implements interfaces.Engine.Close.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	h := e.host
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	if h == nil {
		return nil
	}
	logrus.WithFields(logrus.Fields{
		"function": "Close",
		"peer_id":  h.ID().String(),
	}).Info("Stopping node")
	return h.Close()
}

// IsSimulation implements interfaces.Engine.IsSimulation
func (e *Engine) IsSimulation() bool {
	return false
}

func (e *Engine) runningHost() (host.Host, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrClosed
	}
	if e.host == nil {
		return nil, ErrNotStarted
	}
	return e.host, nil
}

func (e *Engine) maintainReservations(relays []peer.AddrInfo) {
	defer e.wg.Done()

	e.reserveAll(relays)
	ticker := time.NewTicker(e.config.ReservationRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.reserveAll(relays)
		}
	}
}

func (e *Engine) reserveAll(relays []peer.AddrInfo) {
	h, err := e.runningHost()
	if err != nil {
		return
	}

	var circuits []string
	for _, info := range relays {
		ctx, cancel := context.WithTimeout(e.ctx, e.config.DialTimeout)
		if err := h.Connect(ctx, info); err != nil {
			cancel()
			logrus.WithFields(logrus.Fields{
				"function": "reserveAll",
				"relay":    info.ID.String(),
				"error":    err.Error(),
			}).Warn("Failed to connect to relay")
			continue
		}
		reservation, err := relayclient.Reserve(ctx, h, info)
		cancel()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "reserveAll",
				"relay":    info.ID.String(),
				"error":    err.Error(),
			}).Warn("Relay reservation failed")
			continue
		}

		for _, a := range info.Addrs {
			circuit, err := CircuitAddress(a, info.ID, h.ID())
			if err != nil {
				continue
			}
			circuits = append(circuits, circuit.String())
		}
		logrus.WithFields(logrus.Fields{
			"function":   "reserveAll",
			"relay":      info.ID.String(),
			"expiration": reservation.Expiration.UTC().Format(time.RFC3339),
		}).Info("Relay reservation active")
	}

	e.mu.Lock()
	e.relayAddrs = circuits
	e.mu.Unlock()
}

func newEnvelopeID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
