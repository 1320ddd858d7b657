// Package factory creates networking engines for peerlink.
//
// The factory hides the choice between the libp2p engine (package real) and
// the in-memory engine (package testing) so the client and the CLI never
// construct either directly.
//
// # Configuration
//
// Defaults can be overridden through environment variables:
//   - PEERLINK_USE_SIMULATION: "true" or "false"
//   - PEERLINK_DIAL_TIMEOUT: integer milliseconds per connection attempt
//   - PEERLINK_SEND_TIMEOUT: integer milliseconds per message including the ack
//
// Values that fail to parse or fall outside the bounds constants are logged
// and ignored.
//
// # Usage
//
//	f := factory.NewEngineFactory()
//	engine, err := f.CreateEngine()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests use CreateSimulationForTesting, which always returns the in-memory
// engine with short timeouts:
//
//	sim := factory.NewEngineFactory().CreateSimulationForTesting(factory.WithSendTimeout(time.Second))
package factory
