package errs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesCauseWhenPresent(t *testing.T) {
	e := Wrap(KindProvider, errors.New("boom"), "search failed")
	require.Contains(t, e.Error(), "search failed")
	require.Contains(t, e.Error(), "boom")
}

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	a := New(KindProvider, "first failure")
	b := New(KindProvider, "second failure, different message")
	require.True(t, errors.Is(a, b))

	c := New(KindModel, "model failure")
	require.False(t, errors.Is(a, c))
}

func TestIsCancelledAndIsBudgetExceeded(t *testing.T) {
	require.True(t, IsCancelled(Cancelled("task-1", "search", "user requested stop")))
	require.False(t, IsCancelled(BudgetExceeded("tokens_exceeded")))
	require.True(t, IsBudgetExceeded(BudgetExceeded("time_exceeded")))
}

func TestWrapRetryableMarksRetryableWithDelay(t *testing.T) {
	err := WrapRetryable(errors.New("429"), 2*time.Second, "provider rate limited")
	require.True(t, IsRetryable(err))
	require.Equal(t, 2*time.Second, RetryAfter(err))

	var typed *Error
	require.True(t, errors.As(err, &typed))
	require.Equal(t, KindProvider, typed.Kind)
}

func TestIsRetryableFalseForOrdinaryErrors(t *testing.T) {
	require.False(t, IsRetryable(New(KindProvider, "permanent failure")))
	require.False(t, IsRetryable(errors.New("plain error")))
	require.Equal(t, time.Duration(0), RetryAfter(errors.New("plain error")))
}
