package real

import (
	"fmt"
	"strings"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// ParseDialAddress turns a full multiaddr ending in /p2p/<id> into the
// peer and transport addresses to connect with. Relay circuit addresses are
// supported: the relay part stays in the transport address.
func ParseDialAddress(address string) (*peer.AddrInfo, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("empty dial address")
	}
	m, err := ma.NewMultiaddr(address)
	if err != nil {
		return nil, fmt.Errorf("parse dial address %q: %w", address, err)
	}
	info, err := peer.AddrInfoFromP2pAddr(m)
	if err != nil {
		return nil, fmt.Errorf("dial address %q has no peer id: %w", address, err)
	}
	return info, nil
}

// IsCircuitAddress reports whether m routes through a relay.
func IsCircuitAddress(m ma.Multiaddr) bool {
	_, err := m.ValueForProtocol(ma.P_CIRCUIT)
	return err == nil
}

// CircuitAddress builds the address other peers dial to reach self through
// relay: <relayAddr>/p2p/<relay>/p2p-circuit/p2p/<self>.
func CircuitAddress(relayAddr ma.Multiaddr, relay, self peer.ID) (ma.Multiaddr, error) {
	base := relayAddr.String()
	if _, err := relayAddr.ValueForProtocol(ma.P_P2P); err != nil {
		base += "/p2p/" + relay.String()
	}
	return ma.NewMultiaddr(base + "/p2p-circuit/p2p/" + self.String())
}

// withPeerID appends /p2p/<id> to addr unless it already names a peer.
func withPeerID(addr ma.Multiaddr, id peer.ID) string {
	if _, err := addr.ValueForProtocol(ma.P_P2P); err == nil && !IsCircuitAddress(addr) {
		return addr.String()
	}
	if IsCircuitAddress(addr) && strings.HasSuffix(addr.String(), "/p2p/"+id.String()) {
		return addr.String()
	}
	return addr.String() + "/p2p/" + id.String()
}

// orderAddresses returns circuit addresses first, then the rest, without
// duplicates.
func orderAddresses(addrs []string) []string {
	seen := make(map[string]bool, len(addrs))
	var circuits, direct []string
	for _, a := range addrs {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		if strings.Contains(a, "/p2p-circuit") {
			circuits = append(circuits, a)
		} else {
			direct = append(direct, a)
		}
	}
	return append(circuits, direct...)
}
