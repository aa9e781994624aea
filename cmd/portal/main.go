// Command portal serves the learning portal with its admin panel and
// traffic analytics.
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

	adapthttp "portal/internal/adapter/http"
	"portal/internal/app"
	"portal/internal/config"
	"portal/internal/health"
	"portal/internal/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Warn("close storage", "error", err)
		}
	}()

	mode, err := app.ParseManualMode(cfg.Tracking.ManualMode)
	if err != nil {
		return err
	}

	authSvc := app.NewAuthService(st.users, st.sessions).WithSessionTTL(cfg.Session.TTL)
	adminSvc := app.NewUserAdminService(st.users)
	trackingSvc := app.NewTrackingService(st.counters, st.bestEffort).WithManualMode(mode)
	analyticsSvc := app.NewAnalyticsService(st.counters)

	if cfg.Admin.Enabled() {
		err := authSvc.CreateInitialAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		switch {
		case errors.Is(err, app.ErrUsersExist):
			slog.Debug("admin bootstrap skipped; an administrator already exists")
		case err != nil:
			return fmt.Errorf("bootstrap admin: %w", err)
		default:
			slog.Info("bootstrap admin created", "email", cfg.Admin.Email)
		}
	}

	checker := health.NewChecker()
	for name, fn := range st.checks {
		checker.AddCheck(name, fn)
	}

	opts := []adapthttp.Option{
		adapthttp.WithWebDir(cfg.Server.WebDir),
		adapthttp.WithCookie(adapthttp.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
		}),
		adapthttp.WithHealth(checker),
		adapthttp.WithLogger(logger),
		adapthttp.WithTrackingTimeout(cfg.Tracking.Timeout),
	}
	if cfg.OIDC.Enabled() {
		oidcCfg, err := adapthttp.NewOIDC(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return fmt.Errorf("oidc setup: %w", err)
		}
		opts = append(opts, adapthttp.WithOIDC(oidcCfg))
		slog.Info("single sign-on enabled", "issuer", cfg.OIDC.Issuer)
	}

	if cfg.Session.CleanupInterval > 0 {
		go authSvc.RunCleanup(ctx, cfg.Session.CleanupInterval)
	}

	srv := adapthttp.New(adapthttp.Services{
		Auth:      authSvc,
		Admin:     adminSvc,
		Tracking:  trackingSvc,
		Analytics: analyticsSvc,
	}, opts...)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Server.Addr, "database", cfg.Database.Driver, "sessions", cfg.Session.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	checker.SetReady()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	checker.SetDraining()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
