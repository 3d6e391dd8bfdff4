package cli

import (
	"github.com/spf13/cobra"

	"chatdeck/internal/system"
	"chatdeck/internal/transcript"
)

func newDecorateCmd(a *app) *cobra.Command {
	var (
		sf     styleFlags
		events bool
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "decorate [file]",
		Short: "Decorate terminal.exec tool calls in a transcript",
		Long: "Reads a message (or an array of messages) as JSON, or stream events as JSON Lines, " +
			"from a file or stdin and writes the decorated transcript to stdout.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := sf.decorator(cmd, a.settings)
			if err != nil {
				return err
			}
			in, err := readTranscript(cmd, args, events)
			if err != nil {
				return err
			}
			out := in.Decorate(d)
			system.Logger.Debug("decorated transcript", "messages", len(out.Messages), "events", len(out.Events))
			return transcript.Write(cmd.OutOrStdout(), out, pretty)
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVarP(&events, "events", "e", false, "input is JSON Lines of stream events")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "indent JSON output (ignored for events)")
	return cmd
}
