package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")
var errPermanent = errors.New("permanent")

func classify(err error) Action {
	if errors.Is(err, errPermanent) {
		return Stop
	}
	return Retry
}

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, RateLimitBackoff: time.Millisecond}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(), classify, func() (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(), classify, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(), classify, func() (int, error) {
		calls++
		return 0, errPermanent
	})

	var perm *PermanentError
	require.ErrorAs(t, err, &perm)
	assert.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(), classify, func() (int, error) {
		calls++
		return 0, errTransient
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 5, InitialBackoff: time.Hour}
	_, err := Do(ctx, p, classify, func() (int, error) {
		return 0, errTransient
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoVoid(t *testing.T) {
	calls := 0
	err := DoVoid(context.Background(), fastPolicy(), classify, func() error {
		calls++
		if calls == 1 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
