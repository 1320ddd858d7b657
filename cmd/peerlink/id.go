package main

import (
	"context"
	"time"

	"github.com/opd-ai/peerlink"
	"github.com/spf13/cobra"
)

func newIDCmd() *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "id",
		Short: "Print this node's peer ID and contact card",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			n, err := startNode(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer n.Close()

			info := waitForRelay(cmd.Context(), n.client, wait)
			r := newREPL(n.client, cmd.OutOrStdout())
			r.printf("Peer ID: %s", info.PeerID)
			r.printf("Relay:   %s", info.RelayAddress)
			if card, err := n.client.MyCard(); err == nil {
				r.printf("Card:    %s", card.Encode())
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "How long to wait for a relay address.")
	return cmd
}

// waitForRelay polls peer info until a relay address shows up or wait
// elapses, and returns the last value seen.
func waitForRelay(ctx context.Context, client *peerlink.Client, wait time.Duration) peerlink.PeerInfo {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	last := client.PeerInfo()
	if last.Ready && last.HasRelay() {
		return last
	}
	_ = client.WatchPeerInfo(ctx, func(info peerlink.PeerInfo) {
		if info.PeerID == peerlink.LoadingPeerID {
			return
		}
		last = info
		if info.Ready && info.HasRelay() {
			cancel()
		}
	})
	return last
}
