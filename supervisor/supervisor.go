// Package supervisor turns "connect" into "eventually connect", retrying at
// a fixed interval until the endpoint comes back or a fatal error says it
// never will.
package supervisor

import (
	"errors"
	"log/slog"
	"time"
)

// sleep is swapped out in tests.
var sleep = time.Sleep

// Fatal marks a connection error that retrying cannot fix, such as a
// configured username that does not exist. Await returns it immediately.
type Fatal struct {
	Err error
}

func (f Fatal) Error() string {
	return f.Err.Error()
}

func (f Fatal) Unwrap() error {
	return f.Err
}

// Await calls connect until it succeeds, sleeping interval between attempts.
// The error is logged only on the first failure of a streak so a long outage
// does not flood the log; recovery after a streak is logged at info.
func Await[T any](endpoint string, interval time.Duration, connect func() (T, error)) (T, error) {
	first := true
	for {
		value, err := connect()
		if err == nil {
			if !first {
				slog.Info("Connection restored", slog.String("endpoint", endpoint))
			}
			return value, nil
		}
		var fatal Fatal
		if errors.As(err, &fatal) {
			var zero T
			return zero, err
		}
		if first {
			slog.Error("Connection failed. Retrying...",
				slog.String("endpoint", endpoint),
				slog.String("error", err.Error()),
			)
			first = false
		}
		sleep(interval)
	}
}
