package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calclimate/firedash/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "firedash",
	Short: "California climate and wildfire raster pipeline",
	Long:  "Ingests satellite climate rasters, clips them to California, derives aggregate series, joins variables on a shared grid, and serves tabular extracts for visualization.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
