package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-core/api/controllers"
	"github.com/angelmondragon/storefront-core/api/routes"
	"github.com/angelmondragon/storefront-core/pkg/config"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

var timeNow = time.Now

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(ctx, cfg, logg, reg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap storefront", err)
		os.Exit(1)
	}
	defer a.close(context.Background())

	a.warm(ctx)

	var redisPinger controllers.Pinger
	if a.redis != nil {
		redisPinger = a.redis
	}
	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.App.Port),
		Handler:           routes.NewRouter(cfg, logg, redisPinger, reg, a.gateway),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logg.Info(logg.WithField(gctx, "addr", srv.Addr), "callback server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		if err := a.cron.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logg.Error(ctx, "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "storefront shutting down gracefully")
}
