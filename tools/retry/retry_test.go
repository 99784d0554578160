package retry

import (
	"context"
	"testing"
	"time"

	"ChatWave/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Conf{Attempts: 3, BaseDelay: time.Millisecond}, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRecoversAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Conf{Attempts: 3, BaseDelay: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errs.ErrInternalServer.WrapMsg("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	wantErr := errs.ErrInternalServer.WrapMsg("still down")
	err := Do(context.Background(), Conf{Attempts: 3, BaseDelay: time.Millisecond}, func() error {
		calls++
		return wantErr
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, wantErr, err)
}

func TestDoBackoffGrowsLinearly(t *testing.T) {
	base := 20 * time.Millisecond
	start := time.Now()
	_ = Do(context.Background(), Conf{Attempts: 3, BaseDelay: base}, func() error {
		return errs.ErrInternalServer.Wrap()
	})
	elapsed := time.Since(start)

	// sleeps are base×1 + base×2; no sleep after the final attempt
	assert.GreaterOrEqual(t, elapsed, 3*base)
	assert.Less(t, elapsed, 10*base)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, Conf{Attempts: 3, BaseDelay: time.Second}, func() error {
		calls++
		return errs.ErrInternalServer.WrapMsg("down")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoZeroConfUsesDefaults(t *testing.T) {
	var c Conf
	c.norm()
	assert.Equal(t, DefaultAttempts, c.Attempts)
	assert.Equal(t, DefaultBaseDelay, c.BaseDelay)
}
