package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// sweep is the entrypoint for the external cron trigger.
func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Apply late fees and mark defaults once, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			res, sweepErr := a.penalty.Sweep(cmd.Context())
			if res != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			}
			// a partial sweep still exits non-zero so cron alerts on it
			return sweepErr
		},
	}
}
