package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/playhuddle/backend/internal/analytics"
	"github.com/playhuddle/backend/internal/database"
	"github.com/playhuddle/backend/internal/errlog"
	"github.com/spf13/cobra"
)

var (
	statsDays  int
	statsHours int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Inspect share and error statistics",
}

var statsSharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "Print share pipeline rollups",
	RunE: func(cmd *cobra.Command, args []string) error {
		since := time.Now().AddDate(0, 0, -statsDays)
		stats, err := analytics.NewRecorder(database.DB).GetShareStats(context.Background(), since)
		if err != nil {
			return fmt.Errorf("failed to compute share stats: %w", err)
		}
		return printJSON(stats)
	},
}

var statsErrorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Print aggregate error statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		since := time.Now().Add(-time.Duration(statsHours) * time.Hour)
		stats, err := errlog.NewRecorder(database.DB).Stats(context.Background(), since)
		if err != nil {
			return fmt.Errorf("failed to compute error stats: %w", err)
		}
		return printJSON(stats)
	},
}

func init() {
	statsSharesCmd.Flags().IntVar(&statsDays, "days", 7, "Lookback window in days")
	statsErrorsCmd.Flags().IntVar(&statsHours, "hours", 24, "Lookback window in hours")
	statsCmd.AddCommand(statsSharesCmd)
	statsCmd.AddCommand(statsErrorsCmd)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
