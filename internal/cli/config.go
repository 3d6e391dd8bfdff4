package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	cfg "chatdeck/internal/config"
)

var settingKeys = []string{"style", "preview_lines", "log_level", "addr"}

func newConfigCmd(a *app) *cobra.Command {
	var (
		get  string
		sets []string
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create the config file and show its location and values",
		Long: "Creates ~/.chatdeck/config.yaml with defaults when missing, then prints its path and values.\n" +
			"Use --get key to print one value or --set key=value (repeatable) to change values.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if get != "" {
				v, err := a.settings.Get(get)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, v)
				return err
			}

			p, err := cfg.Path()
			if err != nil {
				return err
			}
			s := a.settings
			existed := fileExists(p)
			for _, kv := range sets {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("--set wants key=value, got %q", kv)
				}
				if err := s.Set(k, v); err != nil {
					return err
				}
			}
			if !existed || len(sets) > 0 {
				if err := cfg.Save(s); err != nil {
					return err
				}
			}
			switch {
			case !existed:
				fmt.Fprintf(out, "✓ created %s\n", p)
			case len(sets) > 0:
				fmt.Fprintf(out, "✓ updated %s\n", p)
			default:
				fmt.Fprintf(out, "• config: %s\n", p)
			}
			for _, k := range settingKeys {
				v, _ := s.Get(k)
				fmt.Fprintf(out, "  %-14s %s\n", k, v)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&get, "get", "g", "", "print a single setting")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "set key=value (repeatable)")
	return cmd
}

func fileExists(path string) bool {
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		return true
	}
	return false
}
