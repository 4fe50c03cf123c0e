// Command logreplayer writes the lines of LOG_FILE to stdout one at a time,
// every DELAY_MS milliseconds, looping forever from a random starting line.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/siegeai/logharness/config"
	"github.com/siegeai/logharness/replay"
)

func main() {
	if err := run(); err != nil {
		slog.Error("logreplayer failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadReplayer()
	if err != nil {
		return err
	}
	// stdout carries the replayed lines only
	config.SetupLogging(os.Stderr, cfg.LogLevel)

	r, err := replay.Open(cfg.LogFile, cfg.Delay)
	if err != nil {
		return err
	}

	term := make(chan os.Signal, 1)
	signal.Notify(term, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)
	defer signal.Stop(term)

	ctx, cancel := stopOnSignal(context.Background(), term)
	defer cancel()

	return r.Run(ctx)
}

// stopOnSignal returns a context that is cancelled when the first signal
// arrives on term.
func stopOnSignal(parent context.Context, term <-chan os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case sig := <-term:
			slog.Info("received signal, exiting", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
