package helpers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputErrorMessage(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", UnknownSeriesType("pie"))
	msg, ok := IsInputError(err)
	require.True(t, ok)
	assert.Equal(t, "Unknown series type: pie", msg)

	_, ok = IsInputError(NewDataError("x", nil))
	assert.False(t, ok)
}

func TestTransportErrorUnwraps(t *testing.T) {
	cause := errors.New("broken pipe")
	err := NewTransportError("send failed", cause)
	assert.True(t, IsTransportError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "send failed: broken pipe", err.Error())
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), nil, "op", 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	cause := errors.New("always")
	err = RetryWithBackoff(context.Background(), nil, "op", 2, time.Millisecond, func() error { return cause })
	assert.ErrorIs(t, err, cause)
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, nil, "op", 5, time.Hour, func() error { return errors.New("fail") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecommendedMemoryLimit(t *testing.T) {
	total := TotalSystemMemoryMB()
	limit := RecommendedMemoryLimitMB()
	if total == 0 {
		assert.Zero(t, limit)
		return
	}
	assert.LessOrEqual(t, limit, total)
	assert.Positive(t, limit)
}
