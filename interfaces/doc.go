// Package interfaces defines the boundary between the peerlink client and
// the networking engine that carries its messages.
//
// [Engine] is the only surface the client uses. Two implementations exist:
// the libp2p-backed engine in package real, and the in-process simulation
// in package testing. The factory package picks one from configuration:
//
//	engine, err := factory.NewEngineFactory().CreateEngine()
//	if err != nil {
//	    log.Fatal(err) // engine unavailable: nothing else can work
//	}
//	engine.SetMessageHandler(func(senderID, content string) { ... })
//	err = engine.StartNode("", "/var/lib/peerlink/identity.key")
//
// # Contract
//
//   - StartNode is called at most once per engine. The client guards this.
//   - DialPeer never reports failure. Connectivity problems surface later as
//     SendMessage errors.
//   - SendMessage blocks until the remote side acknowledges or the attempt
//     fails, and never panics on network errors.
//   - GetMyPeerID returns [UnknownPeerID] until the node is ready; callers
//     poll again later.
//   - Addresses containing [RelayCircuitMarker] are relay circuit addresses
//     and are preferred for sharing.
//   - The MessageHandler is invoked on engine goroutines. Receivers must hand
//     the event off before touching their own state.
//
// [EngineConfig] carries the settings shared by both implementations.
package interfaces
