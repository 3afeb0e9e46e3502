package cli

import (
	"github.com/spf13/cobra"

	"ticket-alerts/internal/app"
)

var (
	checkDates []string
	checkURL   string
	checkName  string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check availability for one or more dates and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.CheckOptions{
			Dates: checkDates,
			URL:   checkURL,
			Name:  checkName,
		}
		return getApp().Check(cmd.Context(), opts)
	},
}

func init() {
	checkCmd.Flags().StringSliceVar(&checkDates, "dates", nil, "Comma-separated ISO dates to check (YYYY-MM-DD)")
	checkCmd.Flags().StringVar(&checkURL, "url", "", "Override the reservation page URL")
	checkCmd.Flags().StringVar(&checkName, "name", "", "Display name for the overridden URL")
}
