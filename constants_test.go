package peerlink

import "time"

// Common test constants used across the client tests.

var testEpoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const (
	// testStamp is clock.Stamp(testEpoch).
	testStamp = "12:00"

	// testPeerA ends in "wxyz1234", so its generated name is "User-wxyz1234".
	testPeerA = "12D3KooWQm9pLkVbRtYabcwxyz1234"
	testPeerB = "12D3KooWHt7sN2eZqPd4bobb0b0b0b"
	testPeerC = "12D3KooWXk2cF8uJvGm1carolc4r01"

	testAddrB = "/ip4/198.51.100.2/tcp/4001/p2p/" + testPeerB
	testAddrC = "/ip4/198.51.100.3/tcp/4001/p2p/" + testPeerC

	// testLongMessage is longer than a preview.
	testLongMessage = "hello there, this is a longer than expected test"
	testLongPreview = "hello there, this is a longer ..."

	testResumeDelay = 500 * time.Millisecond
	testFirstRetry  = 3000 * time.Millisecond
	testSecondRetry = 6000 * time.Millisecond
)
