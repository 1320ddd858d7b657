package contact

const (
	// testPeerID mirrors the shape of a libp2p Ed25519 peer ID.
	testPeerID = "12D3KooWGzh5Dbm9sUZRgLm5sZxTe8G9nvwxyz"

	// testRelayAddr is a relay circuit address for testPeerID.
	testRelayAddr = "/ip4/203.0.113.7/tcp/4001/p2p/12D3KooWRelay/p2p-circuit/p2p/" + testPeerID
)
