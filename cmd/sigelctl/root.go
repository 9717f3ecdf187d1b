package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	outputFmt string
	role      string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sigelctl",
		Short: "CLI for the SIGEL auction server",
		Long: `sigelctl manages vehicles, auctioneers and auctions on a SIGEL server.

The acting role is sent in the X-User-Role header. Administrators may do
everything; auctioneers may read and record lot results.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&serverURL, "server", envOrDefault("SIGEL_SERVER", "http://localhost:8080"), "SIGEL server URL")
	cmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	cmd.PersistentFlags().StringVar(&role, "role", envOrDefault("SIGEL_ROLE", "admin"), "Acting role: admin or auctioneer")

	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newCarrosCmd())
	cmd.AddCommand(newLeiloeirosCmd())
	cmd.AddCommand(newLeiloesCmd())
	cmd.AddCommand(newAuditoriaCmd())
	cmd.AddCommand(newDashboardCmd())
	return cmd
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
