package cli

import (
	"github.com/spf13/cobra"

	"ticket-alerts/internal/app"
)

var (
	scanDate string
	scanURL  string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Classify the page's full visible text for a single date",
	Long: `Scan loads the reservation page once and classifies its entire visible
text instead of locating the specific date cell. This is the degraded
heuristic: it cannot tell which date a marker belongs to. Exit codes:
0 completed, 2 navigation timeout, 3 unexpected error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ScanOptions{
			Date: scanDate,
			URL:  scanURL,
		}
		return getApp().Scan(cmd.Context(), opts)
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanDate, "date", "", "ISO date to scan for (YYYY-MM-DD)")
	scanCmd.Flags().StringVar(&scanURL, "url", "", "Override the reservation page URL")
}
