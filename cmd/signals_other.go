//go:build !unix

package main

import (
	"context"
	"os"
	"os/signal"

	"tz-api/internal/logger"
)

func watchForShutdown(ctx context.Context, cancelFn context.CancelFunc) {
	defer cancelFn()
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	defer signal.Stop(ch)
	select {
	case <-ctx.Done():
	case sig := <-ch:
		logger.L().Info("signal_received", "signal", sig.String())
	}
}
