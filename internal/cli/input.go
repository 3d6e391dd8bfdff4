package cli

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"chatdeck/internal/config"
	"chatdeck/internal/decorate"
	"chatdeck/internal/transcript"
)

// styleFlags are the decoration overrides shared by decorate, render, view
// and watch.
type styleFlags struct {
	style        string
	previewLines int
}

func (f *styleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.style, "style", "s", "", "decoration style: markdown or shell (default from config)")
	cmd.Flags().IntVarP(&f.previewLines, "preview-lines", "n", 0, "lines in the markdown output preview (default from config)")
}

// apply layers the flags that were set over the loaded settings.
func (f *styleFlags) apply(cmd *cobra.Command, s config.Settings) (config.Settings, error) {
	if cmd.Flags().Changed("style") {
		if err := s.Set("style", f.style); err != nil {
			return s, err
		}
	}
	if cmd.Flags().Changed("preview-lines") {
		if err := s.Set("preview_lines", strconv.Itoa(f.previewLines)); err != nil {
			return s, err
		}
	}
	return s.Normalize(), nil
}

func (f *styleFlags) decorator(cmd *cobra.Command, s config.Settings) (*decorate.Decorator, error) {
	s, err := f.apply(cmd, s)
	if err != nil {
		return nil, err
	}
	return s.Decorator(), nil
}

// readTranscript reads args[0], or stdin when no file or "-" is given.
// JSONL is assumed for --events or a .jsonl/.ndjson file name.
func readTranscript(cmd *cobra.Command, args []string, events bool) (transcript.Transcript, error) {
	if len(args) == 0 || args[0] == "-" {
		return transcript.Read(cmd.InOrStdin(), events)
	}
	if events || transcript.IsEventsPath(args[0]) {
		f, err := os.Open(args[0])
		if err != nil {
			return transcript.Transcript{}, err
		}
		defer f.Close()
		return transcript.Read(f, true)
	}
	return transcript.LoadFile(args[0])
}

// termWidth is the render width when --width is not given.
func termWidth() int {
	if v := strings.TrimSpace(os.Getenv("COLUMNS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 100
}

func writeString(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}
