package real

import "time"

const (
	// testLoopback keeps test hosts off external interfaces.
	testLoopback = "/ip4/127.0.0.1/tcp/0"

	// testWait bounds how long loopback tests wait for the network.
	testWait = 10 * time.Second

	// testTick is the polling interval for Eventually assertions.
	testTick = 50 * time.Millisecond
)
