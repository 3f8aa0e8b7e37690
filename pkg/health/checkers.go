package health

import (
	"context"
	"net"
	"runtime"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck reports unhealthy when the goroutine count exceeds
// the threshold. Useful as a liveness check for goroutine leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if count := runtime.NumGoroutine(); count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}

// TCPDialCheck reports unhealthy when a TCP connection to addr cannot be
// established within the check's context deadline. Useful as a readiness
// check for dependencies that expose no richer ping.
func TCPDialCheck(addr string) CheckFunc {
	return func(ctx context.Context) error {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return errors.Wrapf(err, "dial %s", addr)
		}
		return conn.Close()
	}
}

// GCMaxPauseCheck reports unhealthy when the most recent GC pause exceeded
// the threshold, which usually means the heap has grown far beyond its
// expected size.
func GCMaxPauseCheck(threshold time.Duration) CheckFunc {
	return func(context.Context) error {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)

		last := stats.PauseNs[(stats.NumGC+255)%256]
		if pause := time.Duration(last); pause > threshold {
			return errors.Errorf("GC pause %s exceeds threshold %s", pause, threshold)
		}
		return nil
	}
}
