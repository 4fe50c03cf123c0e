// Command echoresponder accepts any request on PORT, logs it to stdout and
// answers 200 "Hello World!".
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

	"github.com/siegeai/logharness/config"
	"github.com/siegeai/logharness/echoserver"
)

func main() {
	if err := run(); err != nil {
		slog.Error("echoresponder failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadResponder()
	if err != nil {
		return err
	}
	config.SetupLogging(os.Stdout, cfg.LogLevel)

	s := echoserver.New(echoserver.Options{
		RawBodies:    cfg.RawBodies,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	term := make(chan os.Signal, 1)
	signal.Notify(term, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(term)

	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Addr(), "raw_bodies", cfg.RawBodies)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case sig := <-term:
		slog.Info("received signal, shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped")
	return nil
}
