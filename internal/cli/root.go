package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "microloan",
		Short: "P2P microloan service",
		Long: `Microloan runs the lending API and the overdue-loan sweep.
Configuration comes from the environment (APP_PORT, DB_DRIVER, MYSQL_*,
REDIS_ADDR, SWEEP_WORKERS, ...).`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newSweepCmd())
	return root
}

// Execute is called from cmd/api.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
