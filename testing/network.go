package testing

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Network connects simulated engines so a send on one is delivered to the
// handler of another. Engines must be started before they join.
type Network struct {
	mu      sync.RWMutex
	engines map[string]*SimulatedEngine
}

// NewNetwork creates an empty simulated network.
func NewNetwork() *Network {
	return &Network{engines: make(map[string]*SimulatedEngine)}
}

// Join attaches a started engine to the network under its peer ID.
func (n *Network) Join(e *SimulatedEngine) error {
	id := e.GetMyPeerID()
	if e.StartCount() == 0 {
		return ErrNodeNotStarted
	}

	n.mu.Lock()
	n.engines[id] = e
	n.mu.Unlock()

	e.mu.Lock()
	e.network = n
	e.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Network.Join",
		"peer_id":  id,
	}).Debug("Engine joined simulated network")
	return nil
}

// Size returns the number of attached engines.
func (n *Network) Size() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.engines)
}

func (n *Network) leave(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.engines, id)
}

func (n *Network) deliver(from, to, text string) error {
	n.mu.RLock()
	target, ok := n.engines[to]
	n.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrPeerUnreachable, to)
	}
	if !target.Deliver(from, text) {
		return fmt.Errorf("%w: %s has no handler", ErrPeerUnreachable, to)
	}
	return nil
}
