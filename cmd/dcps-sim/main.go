// Command dcps-sim drives a simulated DataReader from an interactive shell.
//
// Writers are matched, fed samples, historic end markers and coherent set
// controls by hand. Timers run on a simulated clock that only moves on the
// advance command, unless -realtime is given.
//
// Usage:
//
//	dcps-sim [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-log-level string     Log level: debug, info, warn, error
//	-protocol-log string  Write reader events to this file
//	-metrics-addr string  Serve Prometheus metrics on this address
//	-lease duration       Default writer lease (0 disables expiry)
//	-exclusive            Enable exclusive ownership
//	-realtime             Run timers on the system clock
//
// Examples:
//
//	# Exclusive ownership with a 2s lease, logging events for dcps-log
//	dcps-sim -exclusive -lease 2s -protocol-log reader.dlog
//
//	# Start from a configuration file and expose metrics
//	dcps-sim -config reader.yaml -metrics-addr :9464
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dcps-reader/dcps-go/cmd/dcps-sim/interactive"
	"github.com/dcps-reader/dcps-go/pkg/config"
	"github.com/dcps-reader/dcps-go/pkg/log"
	"github.com/dcps-reader/dcps-go/pkg/reader"
	"github.com/dcps-reader/dcps-go/pkg/timertask"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error")
	protocolLog = flag.String("protocol-log", "", "Write reader events to this file")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	lease       = flag.Duration("lease", 0, "Default writer lease (0 disables expiry)")
	exclusive   = flag.Bool("exclusive", false, "Enable exclusive ownership")
	realtime    = flag.Bool("realtime", false, "Run timers on the system clock")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file, if any, and applies the flags
// that were set explicitly on top of it.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "protocol-log":
			cfg.Logging.ProtocolLog = *protocolLog
		case "metrics-addr":
			cfg.Metrics.ListenAddr = *metricsAddr
		case "lease":
			cfg.Reader.LeaseDuration = *lease
		case "exclusive":
			cfg.Reader.ExclusiveOwnership = *exclusive
		}
	})
	return cfg, cfg.Validate()
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return err
	}

	shell, err := interactive.New()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(shell.Stderr(), &slog.HandlerOptions{Level: level}))

	var eventLoggers []log.Logger
	if cfg.Logging.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.Logging.ProtocolLog)
		if err != nil {
			return fmt.Errorf("failed to open protocol log: %w", err)
		}
		defer func() {
			if n := fl.Dropped(); n > 0 {
				logger.Warn("protocol log dropped events", "count", n)
			}
			fl.Close()
		}()
		eventLoggers = append(eventLoggers, fl)
	}
	if level <= slog.LevelDebug {
		eventLoggers = append(eventLoggers, log.NewSlogAdapter(logger))
	}

	opts := cfg.Reader.ReaderOptions()
	opts.Logger = logger
	opts.EventLogger = log.NewMultiLogger(eventLoggers...)

	var clock *timertask.FakeScheduler
	if !*realtime {
		clock = timertask.NewFakeScheduler(time.Now())
		opts.Scheduler = clock
	}

	r := reader.New(cfg.Reader.ReaderID(), opts)
	defer r.Close()
	shell.Attach(r, clock)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("reader started",
		"reader", r.ID(),
		"lease", cfg.Reader.LeaseDuration,
		"exclusive", cfg.Reader.ExclusiveOwnership,
		"simulated_clock", clock != nil)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.ListenAddr != "" {
		serveMetrics(gctx, g, cfg.Metrics.ListenAddr, logger)
	}
	g.Go(func() error {
		shell.Run(gctx, cancel)
		return nil
	})
	return g.Wait()
}

// serveMetrics exposes the default Prometheus registry on addr until ctx is
// done.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})
}
