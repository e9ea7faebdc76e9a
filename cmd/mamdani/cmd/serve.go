package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/corey/mamdani/internal/adapters/web"
	"github.com/corey/mamdani/internal/domain/fuzzy"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API for one system",
	Long: "Serves GET /api/system, GET /api/variables/{name}, POST /api/compute,\n" +
		"GET /api/runs and GET /metrics until Ctrl-C. With --watch, a definition\n" +
		"file is reloaded on save.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: settings http_addr)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the definition file when it changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()
	sys, err := resolve(a)
	if err != nil {
		return err
	}
	if serveWatch && sys.Path == "" {
		return usageError("system %s is bundled; --watch needs a definition file", sys.Name)
	}

	addr := serveAddr
	if addr == "" {
		addr = a.Settings.HTTPAddr
	}
	e := a.NewEvaluator(sys)
	srv := web.NewServer(e, a.Store, a.Registry, a.Log)
	if err := srv.Start(addr); err != nil {
		return configError(err)
	}
	defer srv.Stop()
	if err := a.Paths.WriteAddr(srv.Addr()); err != nil {
		a.Log.Warn("failed to write address file", zap.Error(err))
	}
	defer a.Paths.CleanEphemeral()

	fmt.Fprintf(cmd.OutOrStdout(), "%s serving %s at %s\n", colors().paint(colorBold, "⚡"), sys.Name, srv.URL())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if serveWatch {
		err := a.WatchFile(ctx, sys.Path, e, func(*fuzzy.ControlSystem, error) {})
		if err != nil && ctx.Err() == nil {
			return err
		}
	} else {
		<-ctx.Done()
	}
	fmt.Fprintln(cmd.OutOrStdout(), "\n⚡ shutting down...")
	return nil
}
