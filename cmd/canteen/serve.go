package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/canteen-client/internal/api"
	"github.com/nikolayk812/canteen-client/internal/gateway"
	"github.com/nikolayk812/canteen-client/internal/port"
	"github.com/nikolayk812/canteen-client/internal/repository"
	"github.com/nikolayk812/canteen-client/internal/service"
	"github.com/nikolayk812/canteen-client/internal/session"
	"github.com/nikolayk812/canteen-client/internal/state"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the ordering gateway over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.RequireAPI(); err != nil {
				return err
			}
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	store, closeStore, err := a.gatewayStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	gin.SetMode(gin.ReleaseMode)
	srv, err := gateway.New(gateway.Config{
		Store:    store,
		Badge:    state.NewStore(),
		Guard:    session.NewGuard(store, clock.New(), a.log),
		Services: a.servicesFunc(store),
		Log:      a.log,
	})
	if err != nil {
		return fmt.Errorf("gateway.New: %w", err)
	}

	httpServer := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("gateway listening", zap.String("addr", a.cfg.HTTPAddr), zap.String("api", a.cfg.APIURL))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("httpServer.ListenAndServe: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpServer.Shutdown: %w", err)
	}
	return nil
}

// gatewayStore is postgres when a DSN is configured, process memory otherwise.
func (a *app) gatewayStore(ctx context.Context) (port.PreferenceStore, func(), error) {
	if a.cfg.PostgresDSN == "" {
		a.log.Warn("no postgres DSN, sessions are kept in memory")
		return repository.NewMemoryPreferences(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, a.cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pool.Ping: %w", err)
	}
	return repository.NewPreferences(pool), pool.Close, nil
}

func (a *app) servicesFunc(store port.PreferenceStore) gateway.ServicesFunc {
	httpClient := &http.Client{Timeout: a.cfg.RequestTimeout}
	return func(sessionKey string) (*service.Services, error) {
		return service.New(store, sessionKey, a.cfg.Currency,
			api.WithAddr(a.cfg.APIURL),
			api.WithHTTPClient(httpClient),
			api.WithLogger(a.log.With(zap.String("session", sessionKey))),
		)
	}
}
