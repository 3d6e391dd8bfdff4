package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chatdeck/internal/system"
	"chatdeck/internal/webui/server"
)

func newWebUICmd(a *app) *cobra.Command {
	var (
		addr string
		open bool
		sf   styleFlags
	)
	cmd := &cobra.Command{
		Use:   "webui",
		Short: "Start the local Web UI server",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sf.apply(cmd, a.settings)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				s.Addr = addr
			}
			srv := server.New(s.Addr, s)

			// Handle Ctrl+C
			ctx, cancel := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			url := fmt.Sprintf("http://%s/", s.Addr)
			system.Logger.Info("starting webui", "url", url)
			if open {
				if err := server.OpenBrowser(url); err != nil {
					system.Logger.Warn("failed to open browser", "err", err)
				}
			}
			return srv.Start(ctx)
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "address to bind (host:port, default from config)")
	cmd.Flags().BoolVarP(&open, "open", "o", false, "open the browser after start")
	return cmd
}
