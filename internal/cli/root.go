package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chatdeck/internal/config"
	"chatdeck/internal/system"
)

// app is the state shared by every command after flags are parsed.
type app struct {
	settings config.Settings
	verbose  bool
}

func newRootCmd() *cobra.Command {
	a := &app{settings: config.Defaults()}
	root := &cobra.Command{
		Use:   "chatdeck",
		Short: "chatdeck – decorate terminal tool calls in chat transcripts",
		Long: "chatdeck rewrites terminal.exec tool-call blocks in chat transcripts into " +
			"readable markdown or shell blocks, renders them in the terminal and serves them over HTTP.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load()
			if err != nil {
				system.Logger.Warn("config not loaded; using defaults", "err", err)
			}
			a.settings = s
			if !system.SetLevel(s.LogLevel) {
				system.Logger.Warn("unknown log level", "level", s.LogLevel)
			}
			if a.verbose {
				system.SetLevel("debug")
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newDecorateCmd(a),
		newRenderCmd(a),
		newViewCmd(a),
		newWatchCmd(a),
		newSchemaCmd(),
		newConfigCmd(a),
		newSettingsCmd(),
		newWebUICmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
