package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatdeck/internal/blocks"
)

func newSchemaCmd() *cobra.Command {
	var events bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the transcript wire format",
		Long:  "Prints the JSON Schema of a message (or, with --events, a stream event) to stdout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sch := blocks.MessageSchema()
			if events {
				sch = blocks.EventSchema()
			}
			b, err := blocks.MarshalSchema(sch)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
	cmd.Flags().BoolVarP(&events, "events", "e", false, "schema of a stream event instead of a message")
	return cmd
}
