package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chatdeck/internal/decorate"
	"chatdeck/internal/render"
	"chatdeck/internal/system"
	"chatdeck/internal/transcript"
	"chatdeck/internal/viewer"
)

type renderFlags struct {
	styleFlags
	width  int
	plain  bool
	events bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	f.styleFlags.register(cmd)
	cmd.Flags().IntVarP(&f.width, "width", "w", 0, "wrap width in columns (default $COLUMNS or 100)")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "no colors or markdown styling")
	cmd.Flags().BoolVarP(&f.events, "events", "e", false, "input is JSON Lines of stream events")
}

func (f *renderFlags) renderer() (*render.Renderer, error) {
	w := f.width
	if w <= 0 {
		w = termWidth()
	}
	var opts []render.Option
	if f.plain {
		opts = append(opts, render.Plain())
	}
	return render.New(w, opts...)
}

func renderTranscript(r *render.Renderer, d *decorate.Decorator, t transcript.Transcript) string {
	t = t.Decorate(d)
	if t.IsEvents() {
		return r.Events(t.Events)
	}
	return r.Messages(t.Messages)
}

func newRenderCmd(a *app) *cobra.Command {
	var rf renderFlags
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Decorate a transcript and print it for the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := rf.decorator(cmd, a.settings)
			if err != nil {
				return err
			}
			r, err := rf.renderer()
			if err != nil {
				return err
			}
			in, err := readTranscript(cmd, args, rf.events)
			if err != nil {
				return err
			}
			return writeString(cmd.OutOrStdout(), renderTranscript(r, d, in))
		},
	}
	rf.register(cmd)
	return cmd
}

func newViewCmd(a *app) *cobra.Command {
	var (
		sf      styleFlags
		noWatch bool
	)
	cmd := &cobra.Command{
		Use:   "view <file>",
		Short: "Open a transcript in an interactive pager",
		Long: "Opens the decorated transcript in a full-screen pager. The file is reloaded when it changes.\n" +
			"Keys: s toggles style, d toggles decoration, +/- change preview lines, r reloads, q quits.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sf.apply(cmd, a.settings)
			if err != nil {
				return err
			}
			return viewer.Run(viewer.Options{
				Path:         args[0],
				Style:        s.Style,
				PreviewLines: s.PreviewLines,
				Watch:        !noWatch,
			})
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when the file changes")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var rf renderFlags
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-render a transcript to stdout whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := rf.decorator(cmd, a.settings)
			if err != nil {
				return err
			}
			r, err := rf.renderer()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return watchLoop(ctx, cmd.OutOrStdout(), args[0], r, d)
		},
	}
	rf.register(cmd)
	return cmd
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// watchLoop prints the transcript once, then again after every change,
// until ctx is done. Read errors are logged and the loop keeps going.
func watchLoop(ctx context.Context, w io.Writer, path string, r *render.Renderer, d *decorate.Decorator) error {
	show := func() {
		t, err := transcript.LoadFile(path)
		if err != nil {
			system.Logger.Warn("reload failed", "path", path, "err", err)
			return
		}
		header := fmt.Sprintf("── %s · %s ", path, time.Now().Format("15:04:05"))
		if pad := r.Width() - len([]rune(header)); pad > 0 {
			header += strings.Repeat("─", pad)
		}
		_ = writeString(w, header+"\n\n"+renderTranscript(r, d, t)+"\n")
	}
	show()
	return transcript.Watch(ctx, path, show)
}
