// Command peerlink is a terminal chat client for the peerlink network.
//
// Run "peerlink chat" to bring a node up and chat from the terminal, or
// "peerlink id" to print this node's peer ID and contact card. Settings come
// from peerlink.yaml, PEERLINK_* environment variables and flags, in
// increasing order of precedence.
package main

func main() {
	Execute()
}
