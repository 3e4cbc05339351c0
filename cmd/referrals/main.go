package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/referrals/internal/interfaces/cli/migrate"
	"github.com/orris-inc/referrals/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "referrals",
		Short: "Referrals - referral payout service",
		Long:  `Referrals prices finalized referrals against live exchange rates and records them for publisher payouts.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
