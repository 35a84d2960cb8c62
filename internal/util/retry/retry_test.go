package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithExponentialBackoff_SucceedsFirstTry(t *testing.T) {
	t.Parallel()
	calls := 0

	err := WithExponentialBackoff(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithExponentialBackoff_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()
	calls := 0

	err := WithExponentialBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	}, WithInitialDelay(time.Millisecond), WithMaxDelay(2*time.Millisecond), WithMultiplier(1.5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithExponentialBackoff_ExhaustsRetries(t *testing.T) {
	t.Parallel()
	calls := 0

	err := WithExponentialBackoff(context.Background(), func() error {
		calls++
		return fmt.Errorf("always failing")
	}, WithMaxRetries(2), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "always failing")
	assert.Equal(t, 3, calls)
}

func TestWithExponentialBackoff_FatalNotRetried(t *testing.T) {
	t.Parallel()
	calls := 0

	err := WithExponentialBackoff(context.Background(), func() error {
		calls++
		return Fatal(fmt.Errorf("bad credentials"))
	}, WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "not retrying")
}

func TestWithExponentialBackoff_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithExponentialBackoff(ctx, func() error {
		return fmt.Errorf("transient")
	}, WithInitialDelay(50*time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUntil_Done(t *testing.T) {
	t.Parallel()
	calls := 0

	err := Until(context.Background(), time.Millisecond, time.Second, func() (bool, error) {
		calls++
		return calls >= 2, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestUntil_Timeout(t *testing.T) {
	t.Parallel()

	err := Until(context.Background(), time.Millisecond, 10*time.Millisecond, func() (bool, error) {
		return false, nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestUntil_ConditionError(t *testing.T) {
	t.Parallel()

	err := Until(context.Background(), time.Millisecond, time.Second, func() (bool, error) {
		return false, fmt.Errorf("probe failed")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "probe failed")
}

func TestIsFatal(t *testing.T) {
	t.Parallel()
	assert.True(t, IsFatal(Fatal(fmt.Errorf("x"))))
	assert.True(t, IsFatal(fmt.Errorf("wrapped: %w", Fatal(fmt.Errorf("x")))))
	assert.False(t, IsFatal(fmt.Errorf("x")))
	assert.NoError(t, Fatal(nil))
}
