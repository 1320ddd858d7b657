package connection

import "time"

var testEpoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const testAddr = "/ip4/203.0.113.7/tcp/4001/p2p/12D3KooWRelay/p2p-circuit/p2p/12D3KooWPeer"
