package peerlink

import (
	"context"
	"strings"
	"time"

	"github.com/opd-ai/peerlink/interfaces"
)

// Display placeholders.
const (
	// LoadingPeerID is shown before the first poll.
	LoadingPeerID = "Loading..."

	// NoRelayAddress is shown while no relay circuit address is known.
	NoRelayAddress = "No relay address yet"
)

// PeerInfo is what a view shows about the local node.
type PeerInfo struct {
	PeerID       string
	RelayAddress string
	Ready        bool
}

// HasRelay reports whether RelayAddress is a real address.
func (p PeerInfo) HasRelay() bool {
	return p.RelayAddress != "" && p.RelayAddress != NoRelayAddress
}

// SelectRelayAddress returns the first address routed through a relay
// circuit, or NoRelayAddress.
func SelectRelayAddress(addrs []string) string {
	for _, addr := range addrs {
		if strings.Contains(addr, interfaces.RelayCircuitMarker) {
			return addr
		}
	}
	return NoRelayAddress
}

// PeerInfo reads the node's current identity and relay address from the
// engine.
func (c *Client) PeerInfo() PeerInfo {
	id := c.engine.GetMyPeerID()
	ready := id != "" && id != interfaces.UnknownPeerID
	return PeerInfo{
		PeerID:       id,
		RelayAddress: SelectRelayAddress(c.engine.GetListenAddresses()),
		Ready:        ready,
	}
}

// WatchPeerInfo reports LoadingPeerID at once, polls the engine after one
// second and then every peer info interval until ctx is done or the client
// is closed. fn runs on the caller's goroutine.
func (c *Client) WatchPeerInfo(ctx context.Context, fn func(PeerInfo)) error {
	fn(PeerInfo{PeerID: LoadingPeerID, RelayAddress: NoRelayAddress})

	delay := c.peerInfoDelay
	for {
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
		fn(c.PeerInfo())
		delay = c.peerInfoInterval
	}
}

// sleep waits d on the client's clock.
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	tick := make(chan struct{})
	timer := c.timeProvider.AfterFunc(d, func() { close(tick) })
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-c.done:
		timer.Stop()
		return ErrClientClosed
	case <-tick:
		return nil
	}
}
