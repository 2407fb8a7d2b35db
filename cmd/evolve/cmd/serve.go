package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/go-drift/evolve/pkg/bridge"
	"github.com/go-drift/evolve/pkg/config"
	"github.com/go-drift/evolve/pkg/inspector"
	"github.com/go-drift/evolve/pkg/transport/ws"
	"github.com/go-drift/evolve/pkg/widgets"
)

// DefaultAddr is used when neither --addr nor renderer.addr is set.
const DefaultAddr = "127.0.0.1:7467"

func init() {
	RegisterCommand(newServeCommand)
}

func newServeCommand(opts *options) *cobra.Command {
	var (
		addr  string
		watch bool
		demo  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve widget trees to an embedded renderer",
		Long: `Run a display loop and accept embedded renderer connections on
/ws. The same port serves the inspector endpoints (/tree, /config, /dirty,
/debug, /metrics).

Documents are held back until a renderer reports ClientReady. With --watch
the configuration file is reloaded when it changes; existing widgets keep
their backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = opts.file.Renderer.Addr
			}
			if addr == "" {
				addr = DefaultAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts, addr, watch, demo)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: renderer.addr from the configuration, then "+DefaultAddr+")")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload the configuration file when it changes")
	cmd.Flags().BoolVar(&demo, "demo", false, "populate the display with the demo window")
	return cmd
}

// serve runs the display loop on the calling goroutine until ctx ends.
func serve(ctx context.Context, opts *options, addr string, watch, demo bool) error {
	logger := opts.logger
	if !opts.verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	wsServer := ws.NewServer(nil, ws.WithLogger(logger))
	d, err := widgets.NewDisplay(
		widgets.WithRegistry(opts.registry),
		widgets.WithTransport(wsServer),
		widgets.WithLogger(logger),
		widgets.WithPlatformDispatch(),
		widgets.WithBridgeOptions(bridge.WithFlags(opts.file.Flags), bridge.WaitForClientReady()),
	)
	if err != nil {
		return err
	}
	defer d.Dispose()
	wsServer.SetReceiver(d.Bridge())

	insp := inspector.New(d, inspector.WithWebsocket(wsServer), inspector.WithLogger(logger))
	bound, err := insp.Start(addr)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := insp.Stop(shutdownCtx); err != nil {
			logger.Warn("inspector shutdown", "error", err)
		}
	}()

	if watch && opts.filePath != "" {
		w, err := config.NewWatcher(opts.filePath, opts.registry,
			config.WithLogger(logger),
			config.WithEnvOverrides(nil),
			config.WithReloadHook(func(f *config.File) {
				flags := f.Flags.Clone()
				d.AsyncExec(func() { d.Bridge().SetFlags(flags) })
			}),
		)
		if err != nil {
			return fmt.Errorf("watch %s: %w", opts.filePath, err)
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("watch %s: %w", opts.filePath, err)
		}
		defer w.Stop()
	}

	if demo {
		if _, err := buildDemo(d, defaultDemoLayout); err != nil {
			return err
		}
	}

	logger.Info("serving", "addr", bound, "ws", "ws://"+bound+"/ws", "protocol", ws.ProtocolVersion)
	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutting down")
	return nil
}
