package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"training-load/internal/app"
)

var (
	computeDays int
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Fetch recent activities and compute training load once",
	RunE: func(cmd *cobra.Command, args []string) error {
		if computeDays < 0 {
			return fmt.Errorf("--days must not be negative")
		}

		opts := app.ComputeOptions{
			Days: computeDays,
		}

		return getApp().Compute(cmd.Context(), opts)
	},
}

func init() {
	computeCmd.Flags().IntVar(&computeDays, "days", 0, "Lookback window in days (defaults to config)")
}
