package linkmap_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/linkmap"
	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	t.Parallel()

	delays := []time.Duration{time.Millisecond, time.Millisecond}

	t.Run("returns nil on first success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := linkmap.Retry(context.Background(), delays, func(context.Context) error {
			calls++
			return nil
		}, nil)

		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		var attempts []int
		err := linkmap.Retry(context.Background(), delays, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		}, func(attempt int, _ error) {
			attempts = append(attempts, attempt)
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{2, 3}, attempts)
	})

	t.Run("returns last error after all attempts", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := linkmap.Retry(context.Background(), delays, func(context.Context) error {
			calls++
			return errors.New("permanent")
		}, nil)

		assert.EqualError(t, err, "permanent")
		assert.Equal(t, 3, calls)
	})

	t.Run("stops when context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := linkmap.Retry(ctx, []time.Duration{time.Hour}, func(context.Context) error {
			return errors.New("fail")
		}, nil)

		assert.ErrorIs(t, err, context.Canceled)
	})
}
