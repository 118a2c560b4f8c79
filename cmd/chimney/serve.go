package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aosasona/chimney/chimneyhttp"
	"github.com/aosasona/chimney/chimneytls"
	"github.com/aosasona/chimney/config"
	"github.com/aosasona/chimney/logging"
	"github.com/aosasona/chimney/metrics"
	"github.com/aosasona/chimney/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chimney server in the foreground",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "chimney.toml", "path to the root configuration file")
}

// runServe implements the `serve` subcommand named in spec.md §6: load
// config, build every component named in spec.md §4, and run until an
// interrupt or terminate signal arrives. Grounded in cmd/commandfuncs.go's
// cmdRun, reworked around Chimney's own component set instead of Caddy's
// module/admin-API bootstrap.
func runServe(cmd *cobra.Command, args []string) error {
	bootLogger, _ := zap.NewProduction()
	cfg, err := config.Load(serveConfigPath, bootLogger)
	if err != nil {
		return &exitError{ExitCode: 1, Err: fmt.Errorf("loading config: %w", err)}
	}

	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		cfg.LogLevel = override
	}
	logger, err := logging.New(cfg.LogLevel, logging.FileConfig{})
	if err != nil {
		return &exitError{ExitCode: 1, Err: fmt.Errorf("building logger: %w", err)}
	}
	defer logger.Sync()

	handle := config.NewHandle(cfg)
	reg := prometheus.NewRegistry()
	collectors := metrics.NewCollectors(reg)

	svc := chimneyhttp.NewService(cfg.Sites, handle, logger)
	svc.Metrics = collectors

	httpMux := http.NewServeMux()
	httpMux.Handle("/debug/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	httpMux.HandleFunc("/", svc.ServeFronting)

	srv := &server.Server{
		Host:    cfg.Host,
		Port:    cfg.Port,
		Handler: httpMux,
		Logger:  logger,
	}

	ctx, cancel := signalContext()
	defer cancel()

	if cfg.HTTPS != nil && cfg.HTTPS.Enabled {
		tlsManager, err := chimneytls.BuildManager(cfg.Sites.All(), cfg.HTTPS.CacheDirectory, cfg.HTTPS.ACMEEmail, cfg.HTTPS.ACMEDirectoryURL, logger, collectors)
		if err != nil {
			return &exitError{ExitCode: 1, Err: fmt.Errorf("building tls manager: %w", err)}
		}
		tlsManager.Start(ctx)

		httpsMux := http.NewServeMux()
		httpsMux.Handle("/debug/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		httpsMux.HandleFunc("/", svc.ServeHTTP)

		srv.HTTPSPort = cfg.HTTPS.Port
		srv.TLSConfig = tlsManager.TLSConfig()
		srv.TLSHandler = httpsMux
	}

	logger.Info("chimney starting",
		zap.Stringer("host", cfg.Host),
		zap.Uint16("port", cfg.Port),
		zap.Bool("https_enabled", cfg.HTTPS != nil && cfg.HTTPS.Enabled),
	)

	if err := srv.Run(ctx); err != nil {
		return &exitError{ExitCode: 1, Err: err}
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, grounded in
// caddy/sigtrap.go's TrapSignals, collapsed into the stdlib
// signal.NotifyContext helper instead of a hand-rolled goroutine+channel.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
