// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

//go:build linux

package systemd

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"go.astrophena.name/adhoc/cli"
	"go.astrophena.name/adhoc/logger"
)

// Notify sends state to the service manager using the sd_notify protocol.
// It does nothing if NOTIFY_SOCKET is not set. Failures are logged.
func Notify(ctx context.Context, state State) {
	name := cli.GetEnv(ctx).Getenv("NOTIFY_SOCKET")
	if name == "" {
		return
	}

	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Net: "unixgram", Name: name})
	if err != nil {
		logger.Error(ctx, "sd_notify failed", slog.String("state", string(state)), slog.Any("err", err))
		return
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(state)); err != nil {
		logger.Error(ctx, "sd_notify failed", slog.String("state", string(state)), slog.Any("err", err))
	}
}

var watchdogStarted atomic.Bool

// Watchdog pings the service manager at half the interval set by
// WatchdogSec= until ctx is canceled. Only the first call in a process
// starts the pings; it does nothing if the watchdog is disabled.
func Watchdog(ctx context.Context) {
	interval := watchdogInterval(ctx)
	if interval <= 0 || !watchdogStarted.CompareAndSwap(false, true) {
		return
	}

	go func() {
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				Notify(ctx, watchdog)
			case <-ctx.Done():
				watchdogStarted.Store(false)
				return
			}
		}
	}()
}

func watchdogInterval(ctx context.Context) time.Duration {
	usec, err := strconv.Atoi(cli.GetEnv(ctx).Getenv("WATCHDOG_USEC"))
	if err != nil || usec <= 0 {
		return 0
	}
	return time.Duration(usec) * time.Microsecond
}
