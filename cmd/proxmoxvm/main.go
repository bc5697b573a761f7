package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/proxmoxvm/internal/adapter/driven/proxmox"
	httphandler "github.com/ericfisherdev/proxmoxvm/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/proxmoxvm/internal/adapter/driving/web"
	"github.com/ericfisherdev/proxmoxvm/internal/application"
	"github.com/ericfisherdev/proxmoxvm/internal/bootstrap"
	"github.com/ericfisherdev/proxmoxvm/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_driver", cfg.DBDriver,
		"server_host", cfg.Server.Host,
		"server_port", cfg.Server.Port,
		"tls_skip_verify", cfg.Server.TLSSkipVerify,
	)
	if !cfg.HasServer() {
		slog.Info("no default hypervisor configured, callbacks must carry server params")
	}
	if cfg.APIToken == "" {
		slog.Warn("PROXMOXVM_API_TOKEN not set, module API is unauthenticated")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database and run migrations.
	stores, err := bootstrap.OpenStores(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := stores.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// 4. Wire the module service. Each callback opens its own hypervisor session.
	moduleSvc := application.NewModuleService(
		proxmox.NewFactory(),
		stores.Bindings,
		stores.Services,
		application.ModuleOptions{
			DefaultServer:   cfg.Server,
			Storage:         cfg.Storage,
			Bridge:          cfg.Bridge,
			TerminateSettle: cfg.TerminateSettle,
			NoticeHTML:      webhandler.RenderNotice(cfg.ClientNotice),
		},
		slog.Default(),
	)

	// 5. Register API and client-area routes.
	auth := httphandler.RequireToken(cfg.APIToken)
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(moduleSvc, slog.Default()), auth)
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(moduleSvc, slog.Default()), auth)

	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	// WriteTimeout covers a terminate call: login, stop, settle delay and delete.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.TerminateSettle + 3*cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("proxmoxvm started", "listen_addr", cfg.ListenAddr)

	// 6. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
