package interfaces

import (
	"errors"
	"fmt"
	"time"
)

const (
	// UnknownPeerID is reported by GetMyPeerID until the node is ready.
	UnknownPeerID = "Unknown"

	// RelayCircuitMarker identifies relay circuit addresses.
	RelayCircuitMarker = "p2p-circuit"

	// ChatProtocolID is the stream protocol used for chat messages.
	ChatProtocolID = "/peerlink/chat/1.0.0"
)

// MessageHandler receives inbound messages. Engines call it from their own
// goroutines.
type MessageHandler func(senderID, content string)

// Engine defines the networking engine the client coordinates.
// This abstraction allows switching between simulation and real network
// implementations.
type Engine interface {
	// StartNode brings the node up. It must be called at most once.
	// A non-empty seed derives a deterministic identity; otherwise the
	// identity is loaded from, or created at, identityPath.
	StartNode(seed, identityPath string) error

	// DialPeer starts connecting to a dial address. Failures are not reported.
	DialPeer(address string)

	// SendMessage delivers text to peerID and returns once the peer
	// acknowledged it or the attempt failed.
	SendMessage(peerID, text string) error

	// GetMyPeerID returns the node's peer ID, or UnknownPeerID before the
	// node is ready.
	GetMyPeerID() string

	// GetListenAddresses returns the node's dialable addresses, including
	// relay circuit addresses once reservations succeed.
	GetListenAddresses() []string

	// SaveContact remembers a dial target in the engine's own address book.
	SaveContact(name, address string)

	// SetMessageHandler installs the inbound message callback.
	SetMessageHandler(handler MessageHandler)

	// Close shuts the node down.
	Close() error

	// IsSimulation returns true if this is a simulation implementation
	IsSimulation() bool
}

// Validation errors for EngineConfig.
var (
	ErrInvalidTimeout   = errors.New("invalid timeout")
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)

// EngineConfig holds configuration for engine implementations
type EngineConfig struct {
	// UseSimulation determines whether to use simulation or real network
	UseSimulation bool

	// ListenAddrs are the multiaddrs the node listens on.
	ListenAddrs []string

	// RelayAddrs are relay peers (full multiaddrs with /p2p/) the node
	// connects to and reserves circuit slots on.
	RelayAddrs []string

	// DialTimeout bounds one connection attempt.
	DialTimeout time.Duration

	// SendTimeout bounds one message delivery including the ack.
	SendTimeout time.Duration

	// ReservationRefresh is the interval between relay reservation renewals.
	ReservationRefresh time.Duration

	// InboundPerMinute caps messages accepted from a single peer per minute.
	// Zero disables the limit.
	InboundPerMinute int

	// ContactBookPath is where the engine keeps SaveContact entries. Empty
	// means next to the identity file.
	ContactBookPath string
}

// Validate checks the config for values no engine can work with.
func (c *EngineConfig) Validate() error {
	if c.DialTimeout < 0 {
		return fmt.Errorf("%w: dial timeout %v", ErrInvalidTimeout, c.DialTimeout)
	}
	if c.SendTimeout < 0 {
		return fmt.Errorf("%w: send timeout %v", ErrInvalidTimeout, c.SendTimeout)
	}
	if c.ReservationRefresh < 0 {
		return fmt.Errorf("%w: reservation refresh %v", ErrInvalidTimeout, c.ReservationRefresh)
	}
	if c.InboundPerMinute < 0 {
		return fmt.Errorf("%w: %d messages per minute", ErrInvalidRateLimit, c.InboundPerMinute)
	}
	return nil
}
