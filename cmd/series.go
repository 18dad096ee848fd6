package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calclimate/firedash/internal/aggregate"
)

var (
	seriesVariable string
	seriesWindow   int
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Print the daily mean and rolling-average series for a variable",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("series"); err != nil {
			return err
		}

		cache := openCache()
		if cache != nil {
			defer cache.Close()
		}

		// Only the default window is cached.
		var points []aggregate.DailyPoint
		var sig string
		if seriesWindow == aggregate.Window {
			sig = cachedSeriesKey(seriesVariable)
		}
		if cache != nil && sig != "" {
			hit, err := cache.Get(cmd.Context(), seriesVariable, "daily_series", sig, &points)
			if err != nil {
				zap.L().Warn("cache read failed", zap.Error(err))
			} else if hit {
				return printSeries(points)
			}
		}

		p, err := buildPipeline(cmd.Context(), "series")
		if err != nil {
			return err
		}
		s, err := p.Store(seriesVariable)
		if err != nil {
			return err
		}
		points, err = aggregate.DailySeries(s, seriesVariable, seriesWindow)
		if err != nil {
			return err
		}

		if cache != nil && sig != "" {
			if err := cache.Put(context.WithoutCancel(cmd.Context()),
				seriesVariable, "daily_series", sig, points); err != nil {
				zap.L().Warn("cache write failed", zap.Error(err))
			}
		}
		return printSeries(points)
	},
}

func printSeries(points []aggregate.DailyPoint) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(points)
}

func init() {
	seriesCmd.Flags().StringVar(&seriesVariable, "variable", "humidity", "canonical variable name")
	seriesCmd.Flags().IntVar(&seriesWindow, "window", aggregate.Window, "rolling window in days")
	rootCmd.AddCommand(seriesCmd)
}
