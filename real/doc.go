// Package real provides the production networking engine for peerlink,
// built on go-libp2p.
//
// This package implements interfaces.Engine with a libp2p host. It does not
// implement any transport or cryptography itself: it configures libp2p
// (TCP and QUIC listeners, relay client, hole punching, UPnP) and speaks one
// small stream protocol on top of it.
//
// # Chat Protocol
//
// Messages travel on streams negotiated as interfaces.ChatProtocolID. Each
// stream carries exactly one request and one response, both framed as a
// 4-byte big-endian length followed by the payload:
//
//	request:  {"id":"<uuid>","from":"<peer id>","content":"hi","timestamp":1767268800000}
//	response: ✓
//
// The receiver hands the content to the MessageHandler using the stream's
// authenticated remote peer as the sender, not the envelope's "from" field.
// SendMessage returns an error unless the ack arrives within SendTimeout.
//
// # Identity
//
// StartNode derives an Ed25519 key from a non-empty seed with HKDF-SHA256,
// so the same seed always yields the same peer ID. Without a seed the key is
// loaded from identityPath, or generated and written there (mode 0600) on
// first start.
//
// # Relays
//
// Every configured relay is connected and a circuit v2 reservation is made
// at start and renewed every ReservationRefresh (90s by default). The
// resulting /p2p-circuit addresses are reported first by GetListenAddresses
// so they are the ones shared in contact cards.
//
// # Address Book
//
// SaveContact entries form the engine's own nickname->address map, kept in
// a kvstore next to the identity file. Saved addresses are dialed once at
// start.
//
// # Rate Limiting
//
// EngineConfig.InboundPerMinute caps accepted messages per remote peer with a
// token bucket (golang.org/x/time/rate). Excess streams are reset without an
// ack, so the sender sees a failed send.
package real
