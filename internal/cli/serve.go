package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpadp "microloan-backend/internal/adapter/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			e := newEcho(a)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			addr := ":" + a.cfg.AppPort
			errCh := make(chan error, 1)
			go func() {
				log.Printf("listening on %s", addr)
				errCh <- e.Start(addr)
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}

func newEcho(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	probes := map[string]httpadp.Probe{
		"db": func(ctx context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if a.rdb != nil {
		probes["redis"] = func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() }
	}

	httpadp.Register(e, httpadp.Handlers{
		Health:  httpadp.NewHandler(probes),
		Loans:   httpadp.NewLoanHandler(a.loans),
		Penalty: httpadp.NewPenaltyHandler(a.penalty, a.clock),
	}, a.rdb, a.cfg.IdempotencyTTL())
	return e
}
