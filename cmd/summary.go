package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calclimate/firedash/internal/aggregate"
	"github.com/calclimate/firedash/internal/pipeline"
	"github.com/calclimate/firedash/internal/summary"
)

var (
	summaryOutDir string
	summaryXLSX   bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Write the monthly precipitation summary and optional workbook export",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(cmd.Context(), "summary")
		if err != nil {
			return err
		}
		if err := os.MkdirAll(summaryOutDir, 0o755); err != nil {
			return eris.Wrapf(err, "create output directory %s", summaryOutDir)
		}

		monthly := p.Monthly()
		if monthly == nil || monthly.Len() == 0 {
			return eris.New("no monthly precipitation data to summarize")
		}
		totals, err := aggregate.MonthlyTotals(monthly, pipeline.VarPrecipitation)
		if err != nil {
			return err
		}

		csvPath := filepath.Join(summaryOutDir, "monthly_precipitation_summary.csv")
		f, err := os.Create(csvPath)
		if err != nil {
			return eris.Wrapf(err, "create %s", csvPath)
		}
		if err := summary.WriteMonthlyPrecipitation(f, totals); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "close %s", csvPath)
		}
		zap.L().Info("summary written", zap.String("path", csvPath), zap.Int("months", len(totals)))

		if !summaryXLSX {
			return nil
		}

		wb := summary.NewWorkbook()
		for _, name := range p.Variables() {
			s, err := p.Store(name)
			if err != nil {
				return err
			}
			points, err := aggregate.DailySeries(s, name, aggregate.Window)
			if err != nil {
				return err
			}
			if err := wb.AddDailySeries(summary.SheetName(name, "daily"), points); err != nil {
				return err
			}
		}
		if err := wb.AddMonthlyTotals(summary.SheetName(pipeline.VarPrecipitation, "monthly"), totals); err != nil {
			return err
		}
		if err := wb.AddFireFrequency("fire frequency", aggregate.MonthlyFireFrequency(p.Fires())); err != nil {
			return err
		}

		xlsxPath := filepath.Join(summaryOutDir, "series.xlsx")
		if err := wb.Save(xlsxPath); err != nil {
			return err
		}
		zap.L().Info("workbook written", zap.String("path", xlsxPath))
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryOutDir, "out", ".", "output directory")
	summaryCmd.Flags().BoolVar(&summaryXLSX, "xlsx", false, "also export every series as a workbook")
	rootCmd.AddCommand(summaryCmd)
}
