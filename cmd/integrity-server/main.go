// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/veraison/cmdattest/verifier"
)

const envHelp = `Environment variables:
  VERIFIER_PACKAGE_NAME      package name of the client application (required)
  VERIFIER_CREDENTIALS_FILE  Google service account key (default: application default credentials)
  VERIFIER_LISTEN_ADDR       listen address (default: :8080)
  VERIFIER_STORE             memory|redis|sqlite (default: memory)
  VERIFIER_REDIS_ADDR        Redis address (default: localhost:6379)
  VERIFIER_SQLITE_PATH       SQLite database path (default: verifier.db)
  VERIFIER_NONCE_TIMEOUT     challenge lifetime (default: 5m)
  VERIFIER_EXPRESS_TIMEOUT   express token lifetime (default: 8h)`

func configureLogging(level string, verbose bool) error {
	if verbose && level == "" {
		level = "debug"
	}

	if level == "" {
		level = "info"
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}

	zerolog.SetGlobalLevel(lvl)

	if lvl > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	return nil
}

func serve(ctx context.Context) error {
	cfg, err := verifier.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	l := log.Logger
	cfg.Logger = &l

	store, err := cfg.NewStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	dec, err := verifier.NewPlayIntegrityDecoder(ctx, cfg.PackageName, cfg.CredentialsFile)
	if err != nil {
		return err
	}

	svc, err := verifier.NewService(*cfg, store, dec)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           verifier.NewRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.ListenAddr).
			Str("store", cfg.Store).
			Str("package", cfg.PackageName).
			Msg("verifier listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func main() {
	var (
		logLevel string
		verbose  bool
	)

	rootCmd := &cobra.Command{
		Use:          "integrity-server",
		Short:        "Verification server for attested commands",
		Long:         "Verification server for attested commands.\n\n" + envHelp,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return configureLogging(logLevel, verbose)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
