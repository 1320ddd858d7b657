package main

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/opd-ai/peerlink"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the node and chat from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			r := newREPL(nil, out)
			n, err := startNode(ctx, cfg, peerlink.WithNotifier(peerlink.NotifierFunc(r.notify)))
			if err != nil {
				return err
			}
			defer n.Close()
			r.client = n.client

			r.printf("-------------------------------------------------")
			r.printf("Welcome to peerlink chat. Type /help for commands.")
			r.printf("Loaded %d contact(s)", len(n.client.Contacts()))
			go watchPeerID(ctx, n.client, r)

			return readLoop(ctx, cmd, r)
		},
	}
}

// watchPeerID prints the peer ID once the node knows it.
func watchPeerID(ctx context.Context, client *peerlink.Client, r *repl) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	_ = client.WatchPeerInfo(ctx, func(info peerlink.PeerInfo) {
		if info.Ready {
			r.printf("Your Peer ID: %s", info.PeerID)
			cancel()
		}
	})
}

func readLoop(ctx context.Context, cmd *cobra.Command, r *repl) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := r.handle(line)
			switch {
			case errors.Is(err, errQuit):
				return nil
			case errors.Is(err, peerlink.ErrClientClosed):
				return err
			case err != nil:
				printErr(cmd, "error: %v", err)
			}
		}
	}
}
