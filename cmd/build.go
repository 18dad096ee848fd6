package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/calclimate/firedash/internal/store"
)

var buildJSON bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build all variable stores and report what was skipped",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(cmd.Context(), "build")
		if err != nil {
			return err
		}

		type report struct {
			Variable string          `json:"variable"`
			Dates    int             `json:"dates"`
			First    string          `json:"first,omitempty"`
			Last     string          `json:"last,omitempty"`
			Skipped  []store.Skipped `json:"skipped,omitempty"`
		}

		var reports []report
		for _, name := range p.Variables() {
			s, err := p.Store(name)
			if err != nil {
				return err
			}
			r := report{Variable: name, Dates: s.Len(), Skipped: s.Skipped()}
			if dates := s.Dates(); len(dates) > 0 {
				r.First, r.Last = dates[0], dates[len(dates)-1]
			}
			reports = append(reports, r)
		}

		out := map[string]any{
			"variables":    reports,
			"fire_events":  p.Fires().Total(),
			"fire_years":   p.Fires().Years(),
			"common_dates": len(p.CommonDates()),
		}

		enc := json.NewEncoder(os.Stdout)
		if !buildJSON {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(out)
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "compact JSON output")
	rootCmd.AddCommand(buildCmd)
}
