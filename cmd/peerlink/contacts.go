package main

import (
	"encoding/json"
	"fmt"

	"github.com/opd-ai/peerlink/contact"
	"github.com/opd-ai/peerlink/kvstore"
	"github.com/spf13/cobra"
)

// newContactsCmd lists the ledger without starting a node.
func newContactsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List saved contacts, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := kvstore.Open(cfg.Store.Backend, cfg.StorePath())
			if err != nil {
				return fmt.Errorf("open ledger store: %w", err)
			}
			defer store.Close()

			all := contact.Load(store, cfg.Store.LedgerKey).All()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(all)
			}
			if len(all) == 0 {
				_, _ = fmt.Fprintln(out, "No contacts saved")
				return nil
			}
			for _, c := range all {
				_, _ = fmt.Fprintf(out, "%-16s %s  %-5s %s\n", c.Name, c.PeerID, c.Time, c.LastMessage)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the ledger as JSON.")
	return cmd
}
