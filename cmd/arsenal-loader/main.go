package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"arsenal-loader/internal/bootstrap"
	"arsenal-loader/internal/config"
	"arsenal-loader/internal/content"
	"arsenal-loader/internal/exitcodes"
	"arsenal-loader/internal/logging"
	"arsenal-loader/internal/metrics"
	"arsenal-loader/internal/modmeta"
	"arsenal-loader/internal/startup"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "/etc/arsenal-loader/config.yaml", "Path to configuration file")
	root := flag.String("root", "", "Install root holding the content folders (default: executable directory)")
	dbPath := flag.String("db", "", "Path to content database (overrides config)")
	verbose := flag.Bool("verbose", false, "Log debug lines")
	flag.Parse()

	cfg, cfgErr := loadConfig(*configPath)
	if cfgErr == nil {
		if *root != "" {
			abs, err := filepath.Abs(*root)
			if err != nil {
				cfgErr = err
			}
			cfg.InstallRoot = abs
		}
		if *dbPath != "" {
			cfg.DatabasePath = *dbPath
		}
		if *verbose {
			cfg.Logging.Verbose = true
		}
	}

	logger := logging.NewWithConfig(cfg)
	logger.Printf("%s %s loader starting", modmeta.Arsenal.Name, modmeta.Arsenal.Version)
	logger.Printf("Config file: %s", *configPath)

	if cfgErr != nil {
		logger.Printf("ERROR: Failed to load config: %v", cfgErr)
		os.Exit(exitcodes.InvalidConfig)
	}

	if err := modmeta.Arsenal.Validate(); err != nil {
		logger.Printf("ERROR: Invalid module metadata: %v", err)
		os.Exit(exitcodes.InvalidConfig)
	}
	if cfg.HostVersion != "" {
		ok, err := modmeta.Arsenal.SupportsHost(cfg.HostVersion)
		if err != nil {
			logger.Printf("ERROR: Invalid host version %q: %v", cfg.HostVersion, err)
			os.Exit(exitcodes.InvalidConfig)
		}
		if !ok {
			logger.Printf("ERROR: Host %s is outside supported range %s", cfg.HostVersion, modmeta.Arsenal.HostRange)
			os.Exit(exitcodes.InvalidConfig)
		}
	}

	// Initialize metrics (Prometheus)
	metrics.Init()
	if cfg.Prometheus.Port > 0 {
		addr := cfg.PrometheusAddress()
		logger.Printf("Starting Prometheus metrics on %s", addr)
		metrics.StartServer(addr, logger)
	}

	logger.Printf("Opening content database: %s", cfg.DatabasePath)
	db, err := content.NewContentDB(cfg.DatabasePath)
	if err != nil {
		logger.Printf("ERROR: Failed to open database: %v", err)
		os.Exit(exitcodes.RuntimeError)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	_, runErr := startup.RunOnce(ctx, cfg, logger, db)
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	metrics.Shutdown(shutdownCtx, logger)
	stop()
	if err := db.Close(); err != nil {
		logger.Printf("ERROR: Failed to close database: %v", err)
	}

	if runErr != nil {
		logger.Printf("ERROR: Startup failed: %v", runErr)
		os.Exit(exitCode(runErr))
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func exitCode(err error) int {
	var regErr *bootstrap.RegistrationError
	if errors.As(err, &regErr) {
		return exitcodes.RegistrationFailed
	}
	return exitcodes.RuntimeError
}
