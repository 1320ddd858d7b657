package testing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/peerlink/interfaces"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNodeNotStarted is returned by SendMessage before StartNode.
	ErrNodeNotStarted = errors.New("simulated node not started")

	// ErrAlreadyStarted is returned by a second StartNode call.
	ErrAlreadyStarted = errors.New("simulated node already started")

	// ErrPeerUnreachable is returned when a send targets a peer that is not
	// on the simulated network.
	ErrPeerUnreachable = errors.New("peer unreachable in simulation")
)

// DialRecord represents a dial event for testing verification
type DialRecord struct {
	Address   string
	Timestamp time.Time
}

// SendRecord represents a send attempt for testing verification
type SendRecord struct {
	PeerID    string
	Text      string
	Timestamp time.Time
	Success   bool
	Error     error
}

// SavedContact represents a SaveContact call.
type SavedContact struct {
	Name    string
	Address string
}

// SimulatedEngine implements interfaces.Engine in memory for tests and
// offline demos.
type SimulatedEngine struct {
	mu            sync.RWMutex
	config        *interfaces.EngineConfig
	network       *Network
	peerID        string
	ready         bool
	started       int
	closed        bool
	listenAddrs   []string
	handler       interfaces.MessageHandler
	sendErr       error
	dialLog       []DialRecord
	sendLog       []SendRecord
	savedContacts []SavedContact
	now           func() time.Time
}

// NewSimulatedEngine creates a new simulation implementation for testing
func NewSimulatedEngine(config *interfaces.EngineConfig) *SimulatedEngine {
	if config == nil {
		config = &interfaces.EngineConfig{UseSimulation: true}
	}
	logrus.WithFields(logrus.Fields{
		"function":     "NewSimulatedEngine",
		"send_timeout": config.SendTimeout,
	}).Info("Creating simulated engine")

	return &SimulatedEngine{
		config: config,
		now:    time.Now,
	}
}

// SimulatedPeerID derives a stable fake peer ID from seed.
func SimulatedPeerID(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return "12D3KooWSim" + hex.EncodeToString(sum[:12])
}

// StartNode implements interfaces.Engine.StartNode.
func (s *SimulatedEngine) StartNode(seed, identityPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.started++
	if s.started > 1 {
		return ErrAlreadyStarted
	}
	if s.peerID == "" {
		key := seed
		if key == "" {
			key = identityPath
		}
		s.peerID = SimulatedPeerID(key)
	}
	if s.listenAddrs == nil {
		s.listenAddrs = []string{
			"/ip4/127.0.0.1/tcp/4001/p2p/" + s.peerID,
			"/ip4/203.0.113.7/tcp/4001/p2p/12D3KooWSimRelay/p2p-circuit/p2p/" + s.peerID,
		}
	}
	s.ready = true

	logrus.WithFields(logrus.Fields{
		"function": "SimulatedEngine.StartNode",
		"peer_id":  s.peerID,
	}).Info("Simulated node started")
	return nil
}

// DialPeer implements interfaces.Engine.DialPeer by recording the address.
func (s *SimulatedEngine) DialPeer(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dialLog = append(s.dialLog, DialRecord{Address: address, Timestamp: s.now()})
	logrus.WithFields(logrus.Fields{
		"function": "SimulatedEngine.DialPeer",
		"address":  address,
		"dials":    len(s.dialLog),
	}).Debug("Simulated dial")
}

// SendMessage implements interfaces.Engine.SendMessage. Sends fail when a
// send error is injected, before StartNode, or when the engine belongs to a
// Network that does not contain peerID.
func (s *SimulatedEngine) SendMessage(peerID, text string) error {
	s.mu.Lock()
	err := s.sendErr
	if s.started == 0 {
		err = ErrNodeNotStarted
	}
	network := s.network
	from := s.peerID
	s.mu.Unlock()

	if err == nil && network != nil {
		err = network.deliver(from, peerID, text)
	}

	s.mu.Lock()
	s.sendLog = append(s.sendLog, SendRecord{
		PeerID:    peerID,
		Text:      text,
		Timestamp: s.now(),
		Success:   err == nil,
		Error:     err,
	})
	s.mu.Unlock()

	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "SimulatedEngine.SendMessage",
			"peer_id":  peerID,
			"error":    err.Error(),
		}).Warn("Simulated send failed")
		return fmt.Errorf("send to %s: %w", peerID, err)
	}
	return nil
}

// GetMyPeerID implements interfaces.Engine.GetMyPeerID.
func (s *SimulatedEngine) GetMyPeerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready || s.peerID == "" {
		return interfaces.UnknownPeerID
	}
	return s.peerID
}

// GetListenAddresses implements interfaces.Engine.GetListenAddresses.
func (s *SimulatedEngine) GetListenAddresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil
	}
	return append([]string(nil), s.listenAddrs...)
}

// SaveContact implements interfaces.Engine.SaveContact by recording it.
func (s *SimulatedEngine) SaveContact(name, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedContacts = append(s.savedContacts, SavedContact{Name: name, Address: address})
}

// SetMessageHandler implements interfaces.Engine.SetMessageHandler.
func (s *SimulatedEngine) SetMessageHandler(handler interfaces.MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

// Close implements interfaces.Engine.Close.
func (s *SimulatedEngine) Close() error {
	s.mu.Lock()
	network := s.network
	id := s.peerID
	s.closed = true
	s.ready = false
	s.mu.Unlock()

	if network != nil {
		network.leave(id)
	}
	return nil
}

// IsSimulation implements interfaces.Engine.IsSimulation
func (s *SimulatedEngine) IsSimulation() bool {
	return true
}

// Deliver invokes the installed message handler as if senderID had sent
// content. It returns false when no handler is installed.
func (s *SimulatedEngine) Deliver(senderID, content string) bool {
	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()

	if handler == nil {
		return false
	}
	handler(senderID, content)
	return true
}

// SetPeerID fixes the peer ID reported after StartNode.
func (s *SimulatedEngine) SetPeerID(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peerID = peerID
}

// SetReady controls whether the node reports its identity yet.
func (s *SimulatedEngine) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// SetListenAddresses replaces the reported listen addresses.
func (s *SimulatedEngine) SetListenAddresses(addrs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listenAddrs = append([]string{}, addrs...)
}

// SetSendError makes every following SendMessage fail with err. Pass nil to
// restore successful sends.
func (s *SimulatedEngine) SetSendError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
}

// SetClock replaces the timestamp source used in the logs.
func (s *SimulatedEngine) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.now = now
	}
}

// Dials returns a copy of the dial log.
func (s *SimulatedEngine) Dials() []DialRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]DialRecord(nil), s.dialLog...)
}

// DialCount returns how many times address was dialed. An empty address
// counts every dial.
func (s *SimulatedEngine) DialCount(address string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, d := range s.dialLog {
		if address == "" || d.Address == address {
			n++
		}
	}
	return n
}

// Sends returns a copy of the send log.
func (s *SimulatedEngine) Sends() []SendRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SendRecord(nil), s.sendLog...)
}

// SavedContacts returns a copy of the SaveContact log.
func (s *SimulatedEngine) SavedContacts() []SavedContact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SavedContact(nil), s.savedContacts...)
}

// StartCount returns how many times StartNode was called.
func (s *SimulatedEngine) StartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// ClearLogs clears the dial, send and contact logs for test cleanup
func (s *SimulatedEngine) ClearLogs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialLog = nil
	s.sendLog = nil
	s.savedContacts = nil
}

// Stats summarizes the simulation for assertions and debug output.
type Stats struct {
	Dials        int
	Sends        int
	FailedSends  int
	SavedContact int
	Started      bool
}

// GetStats returns statistics about the simulation
func (s *SimulatedEngine) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Dials:        len(s.dialLog),
		Sends:        len(s.sendLog),
		SavedContact: len(s.savedContacts),
		Started:      s.started > 0,
	}
	for _, r := range s.sendLog {
		if !r.Success {
			stats.FailedSends++
		}
	}
	return stats
}
