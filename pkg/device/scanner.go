package device

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrScanTimeout reports that no pump showed up before the scan deadline.
var ErrScanTimeout = errors.New("device: scan timed out")

// DetectFunc probes once for a connected pump and returns its identifier.
// ok is false while nothing has been found yet.
type DetectFunc func(ctx context.Context) (id string, ok bool)

// Scanner polls a detection function on a fixed interval until a pump shows
// up or the overall timeout elapses. Detection itself is injected; the
// scanner knows nothing about transports.
type Scanner struct {
	Interval time.Duration // poll interval, defaults to 1s
	Timeout  time.Duration // overall deadline, 0 means none
	Detect   DetectFunc
	Logger   *slog.Logger
}

// Scan blocks until a device is detected, the timeout elapses, or ctx is
// cancelled.
func (s *Scanner) Scan(ctx context.Context) (string, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}

	if id, ok := s.Detect(ctx); ok {
		logger.Info("device detected", "device", id)
		return id, nil
	}

	var deadline <-chan time.Time
	if s.Timeout > 0 {
		timer := time.NewTimer(s.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline:
			return "", ErrScanTimeout
		case <-ticker.C:
			if id, ok := s.Detect(ctx); ok {
				logger.Info("device detected", "device", id)
				return id, nil
			}
			logger.Debug("no device found, retrying", "interval", interval)
		}
	}
}
