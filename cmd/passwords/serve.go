package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/passwords/internal/adapter/driven/identity"
	"github.com/ericfisherdev/passwords/internal/adapter/driven/persona"
	sqliteadapter "github.com/ericfisherdev/passwords/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/passwords/internal/adapter/driving/http"
	"github.com/ericfisherdev/passwords/internal/application"
	"github.com/ericfisherdev/passwords/internal/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Opens the credential database, applies pending migrations and serves the
credential API until SIGINT or SIGTERM.

Examples:
  # Serve on the address from PASSWORDS_LISTEN_ADDR
  passwords serve

  # Override the listen address
  passwords serve --addr 0.0.0.0:9000`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides PASSWORDS_LISTEN_ADDR)")
}

func runServe(parent context.Context) error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"persona_url", cfg.PersonaURL,
		"system_calls", cfg.SystemCallsEnabled(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire the lifecycle. Bootstrap opens the store and collaborators once.
	var db *sqliteadapter.DB
	hooks := &application.StandardHooks{
		Logger: logger,
		Bootstrap: func(ctx context.Context) (*application.Runtime, error) {
			opened, err := openStore(ctx, cfg.DBPath, logger)
			if err != nil {
				return nil, err
			}
			db = opened

			verifier, err := identity.NewJWTVerifier(identity.Config{
				Key:      cfg.JWTPublicKey,
				Issuer:   cfg.JWTIssuer,
				Audience: cfg.JWTAudience,
			})
			if err != nil {
				return nil, err
			}

			return &application.Runtime{
				Store:    sqliteadapter.NewCredentialRepo(db),
				Personas: persona.NewClient(cfg.PersonaURL, cfg.SystemKey, cfg.PersonaTimeout),
				Verifier: verifier,
			}, nil
		},
	}
	ctrl := application.NewController(hooks, logger)

	// 4. Initialize eagerly so a broken store stops the process before it
	// accepts traffic.
	if err := ctrl.Initialize(ctx); err != nil {
		if db != nil {
			_ = db.Close()
		}
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	// 5. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(ctrl, cfg.SystemKey, db, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 6. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	// 7. Graceful shutdown with 10s timeout for in-flight calls.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// openStore opens the database and brings its schema up to date.
func openStore(ctx context.Context, path string, logger *slog.Logger) (*sqliteadapter.DB, error) {
	db, err := sqliteadapter.NewDB(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Info("database opened", "path", path)

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("migrations complete")

	return db, nil
}
