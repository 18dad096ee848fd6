package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calclimate/firedash/internal/predict"
	"github.com/calclimate/firedash/internal/store"
	"github.com/calclimate/firedash/internal/table"
)

var predictDate string

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Classify joined grid cells with the configured model",
	Long:  "Joins the configured feature variables for a date, standardizes them over the query's rows, and applies the exported linear model. Without --date, every common date in the default inference window is classified.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(cmd.Context(), "predict")
		if err != nil {
			return err
		}
		clf, err := predict.LoadLinear(cfg.Predict.ModelPath)
		if err != nil {
			return err
		}

		dates := []string{predictDate}
		if predictDate == "" {
			dates = p.PredictDates()
			if len(dates) == 0 {
				return eris.New("no common dates in the inference window")
			}
		}

		var tables []*table.Table
		for _, date := range dates {
			joined, err := p.JoinDate(date)
			if err != nil {
				if eris.Is(err, store.ErrNotFound) {
					zap.L().Warn("no data for date", zap.String("date", date))
					continue
				}
				return err
			}
			out, err := predict.Predict(joined, cfg.Predict.Features, clf)
			if err != nil {
				return err
			}
			tables = append(tables, out)
		}
		if len(tables) == 0 {
			return eris.New("no dates could be classified")
		}

		all, err := table.Concat(tables...)
		if err != nil {
			return err
		}
		return printTable(all)
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictDate, "date", "", "date to classify (default: the inference window)")
	rootCmd.AddCommand(predictCmd)
}
