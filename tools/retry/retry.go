package retry

import (
	"context"
	"time"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
)

// Conf bounds a retried operation. Zero values fall back to the defaults
// (3 attempts, 1s base delay).
type Conf struct {
	Attempts  int
	BaseDelay time.Duration
}

func (c *Conf) norm() {
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
}

// Do invokes op until it succeeds or the attempt budget is spent, sleeping
// BaseDelay×attempt between tries (linear backoff). The last error is
// returned as-is so callers can still inspect it.
func Do(ctx context.Context, conf Conf, op func() error) error {
	conf.norm()

	var lastErr error
	for attempt := 1; attempt <= conf.Attempts; attempt++ {
		if lastErr = op(); lastErr == nil {
			return nil
		}
		if attempt == conf.Attempts {
			break
		}
		timer := time.NewTimer(conf.BaseDelay * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}
