// Package testing provides an in-memory networking engine for deterministic
// testing of peerlink.
//
// # Overview
//
// SimulatedEngine implements interfaces.Engine without touching the
// network. It records every dial, send and SaveContact call so tests can
// assert on what the client asked the engine to do, and lets tests inject
// inbound messages and send failures.
//
// # Simulation vs Real Implementation
//
//   - Simulation (this package): dials are logged, sends succeed unless a
//     failure is injected, inbound messages are injected with Deliver.
//
//   - Real (real package): a libp2p host with relay support, used in
//     production.
//
// Both implementations conform to interfaces.Engine, allowing switching via
// the factory package.
//
// # Usage
//
//	sim := testing.NewSimulatedEngine(nil)
//	sim.SetPeerID("12D3KooWLocal")
//	_ = sim.StartNode("", "")
//
//	client, _ := peerlink.NewClient(sim)
//	sim.Deliver("12D3KooWRemote", "hello")  // as if the remote peer wrote
//	sim.SetSendError(errors.New("offline")) // next sends fail
//	fmt.Println(sim.DialCount(addr))
//
// # Networks
//
// A Network links several simulated engines so that SendMessage on one
// invokes the message handler of another. The chat CLI uses this in
// simulation mode, and integration tests use it to run two clients against
// each other.
//
// # Thread Safety
//
// All SimulatedEngine methods are safe for concurrent use. Deliver calls the
// handler on the caller's goroutine, like an engine callback thread would.
package testing
