package cli

import (
	"github.com/spf13/cobra"
)

var notifyMessage string

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a test notification through every enabled channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().NotifyTest(cmd.Context(), notifyMessage)
	},
}

func init() {
	notifyCmd.Flags().StringVar(&notifyMessage, "message", "", "message body for the test notification")
}
