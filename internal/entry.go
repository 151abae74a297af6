// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/cryptodevs/nftmint/internal/actions"
	"github.com/cryptodevs/nftmint/internal/api"
	"github.com/cryptodevs/nftmint/internal/ledger"
	"github.com/cryptodevs/nftmint/internal/metadata"
	"github.com/cryptodevs/nftmint/internal/mintstate"
	"github.com/cryptodevs/nftmint/internal/session"
	"github.com/cryptodevs/nftmint/internal/sse"
)

// Run starts the dapp server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("network", cfg.Chain.Network),
		slog.Uint64("chain_id", cfg.Chain.ChainID),
		slog.String("contract", cfg.Chain.ContractAddress),
		slog.Bool("read_only", cfg.Wallet.ReadOnly()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize the ledger.
	db, err := ledger.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker(250 * time.Millisecond)
	defer broker.Close()

	chain, err := newChainStack(cfg, logger, session.WithAlert(broker.PublishWrongNetwork))
	if err != nil {
		return err
	}
	defer chain.sessions.Close()

	chain.store.Subscribe(func(s mintstate.State) {
		broker.PublishState(api.StateResponse{State: s, View: mintstate.Present(mintstate.Render(s))})
	})

	handlers := actions.New(chain.sessions, chain.store,
		actions.WithRefresher(chain.poller),
		actions.WithRecorder(db),
		actions.WithNotifier(broker),
		actions.WithTxTimeout(cfg.Chain.TxTimeout),
		actions.WithLogger(logger),
	)

	responder := metadata.NewResponder(collection(cfg.Metadata))

	contractAddr, _ := cfg.Chain.Contract()
	apiRouter := api.NewRouter(api.Deps{
		Store:       chain.store,
		Actions:     handlers,
		Ledger:      db,
		Metadata:    responder,
		Events:      broker,
		Contract:    contractAddr,
		ChainID:     cfg.Chain.ChainID,
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !chain.store.State().Connected {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"connecting"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Connect once on start, as the page does on first load.
	g.Go(func() error {
		connectCtx, cancel := context.WithTimeout(gCtx, cfg.Poller.ReadTimeout)
		defer cancel()
		if _, err := handlers.Connect(connectCtx); err != nil {
			logger.Warn("initial connect failed", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		return chain.poller.Run(gCtx)
	})

	if cfg.Metadata.Watch && app.configPath != "" {
		g.Go(func() error {
			if err := metadata.Watch(gCtx, app.configPath, loadCollection, responder, logger); err != nil {
				logger.Error("metadata watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group context so the poller and watcher exit
// together with the HTTP server.
var errShutdown = errors.New("shutdown")
