// Package config loads peerlink settings from YAML and the environment.
//
// Settings are resolved in three layers: built-in defaults, the first
// readable YAML file among the candidate paths, then PEERLINK_* environment
// variables. Validate is applied last; Load returns its error.
//
// Without a relayAddrs entry the node uses DefaultRelayAddr. Set
// relayAddrs: [] to run without a relay.
//
// A minimal file:
//
//	dataDir: ~/.peerlink
//	network:
//	  relayAddrs:
//	    - /ip4/203.0.113.7/tcp/4001/p2p/12D3KooW...
//	logging:
//	  level: debug
//	metrics:
//	  addr: 127.0.0.1:9464
package config
