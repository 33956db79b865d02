package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sosl/pycyc/internal/api"
	"github.com/sosl/pycyc/internal/auth"
	"github.com/sosl/pycyc/internal/container"
)

var serveFlags struct {
	archivePath string
	verbose     bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve simulated dynamic spectra over HTTP",
	Long: `serve exposes GET /api/v1/simulate, which runs one simulation per
request and streams the resulting container in its binary format.
Downstream curvature-estimation harnesses use it to fetch fresh test
spectra without shelling out to the CLI.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.archivePath, "archive", "a", "", "YAML archive file supplying the default geometry")
	serveCmd.Flags().BoolVarP(&serveFlags.verbose, "verbose", "v", false, "enable debug logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger(serveFlags.verbose)

	addr := os.Getenv("DYNRESP_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		return err
	}

	archive := container.DefaultArchive()
	if serveFlags.archivePath != "" {
		archive, err = container.LoadArchive(serveFlags.archivePath)
		if err != nil {
			return err
		}
	}

	apiCfg := loadAPIConfig(logger, archive)
	srv := api.NewServer(addr, logger, authCfg, apiCfg)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("DYNRESP_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("DYNRESP_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("DYNRESP_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("DYNRESP_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadAPIConfig(logger *slog.Logger, archive container.Archive) api.Config {
	cfg := api.Config{
		Archive:                 archive,
		DefaultNTime:            256,
		DefaultSamplingInterval: 15.0,
		MaxCells:                1 << 22,
	}

	if v := os.Getenv("DYNRESP_DEFAULT_NTIME"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid DYNRESP_DEFAULT_NTIME value, using default", "value", v, "default", cfg.DefaultNTime)
		} else {
			cfg.DefaultNTime = n
		}
	}

	if v := os.Getenv("DYNRESP_DEFAULT_TSAMP"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			logger.Warn("invalid DYNRESP_DEFAULT_TSAMP value, using default", "value", v, "default", cfg.DefaultSamplingInterval)
		} else {
			cfg.DefaultSamplingInterval = f
		}
	}

	if v := os.Getenv("DYNRESP_MAX_CELLS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid DYNRESP_MAX_CELLS value, using default", "value", v, "default", cfg.MaxCells)
		} else {
			cfg.MaxCells = n
		}
	}

	logger.Info("api config",
		"source", cfg.Archive.Source,
		"nchan", cfg.Archive.NChan,
		"default_ntime", cfg.DefaultNTime,
		"default_tsamp_s", cfg.DefaultSamplingInterval,
		"max_cells", cfg.MaxCells,
	)

	return cfg
}
