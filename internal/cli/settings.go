package cli

import (
	"github.com/spf13/cobra"

	"chatdeck/internal/settings"
)

func newSettingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Edit the decoration style and preview size in a form",
		RunE: func(cmd *cobra.Command, args []string) error {
			return settings.Run()
		},
	}
}
