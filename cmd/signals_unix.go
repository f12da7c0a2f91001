//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tz-api/internal/logger"
)

// watchForShutdown 阻塞等待 SIGINT/SIGTERM，收到后调用 cancelFn 返回；SIGHUP 触发日志文件滚动
func watchForShutdown(ctx context.Context, cancelFn context.CancelFunc) {
	defer cancelFn()
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			if sig == syscall.SIGHUP {
				if err := logger.Rotate(); err != nil {
					logger.L().Error("log_rotate_error", "err", err)
				}
				continue
			}
			logger.L().Info("signal_received", "signal", sig.String())
			return
		}
	}
}
