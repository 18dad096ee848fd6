package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/calclimate/firedash/internal/table"
)

var joinDate string

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Inner-join all variables for one date on the shared grid",
	RunE: func(cmd *cobra.Command, args []string) error {
		if joinDate == "" {
			return eris.New("--date is required")
		}
		p, err := buildPipeline(cmd.Context(), "join")
		if err != nil {
			return err
		}
		joined, err := p.JoinDate(joinDate)
		if err != nil {
			return err
		}
		return printTable(joined)
	},
}

func printTable(t *table.Table) error {
	type row struct {
		Latitude  float64            `json:"latitude"`
		Longitude float64            `json:"longitude"`
		Date      string             `json:"date"`
		Values    map[string]float64 `json:"values"`
	}
	out := struct {
		Columns []string `json:"columns"`
		Rows    []row    `json:"rows"`
	}{Columns: t.Columns}
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, row{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Date:      r.Date,
			Values:    r.Values,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	joinCmd.Flags().StringVar(&joinDate, "date", "", "date to join (YYYY-MM-DD)")
	rootCmd.AddCommand(joinCmd)
}
