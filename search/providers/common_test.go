package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deepresearch/core/errs"
)

func TestDoJSONDecodesSuccessResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	var out struct {
		OK bool `json:"ok"`
	}
	err = doJSON(context.Background(), req, "TestProvider", &out)
	require.NoError(t, err)
	require.True(t, out.OK)
}

func TestDoJSONWrapsNon200AsSanitizedProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`invalid api_key=supersecrettoken123`))
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	err = doJSON(context.Background(), req, "TestProvider", nil)
	require.Error(t, err)
	var typed *errs.Error
	require.True(t, errors.As(err, &typed))
	require.Equal(t, errs.KindProvider, typed.Kind)
	require.NotContains(t, err.Error(), "supersecrettoken123")
}

func TestDoJSONMarksTooManyRequestsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	err = doJSON(context.Background(), req, "TestProvider", nil)
	require.Error(t, err)
	require.True(t, errs.IsRetryable(err))
	require.Equal(t, 2*time.Second, errs.RetryAfter(err))
}

func TestDoJSONMarksServerErrorRetryableWithoutRetryAfterHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	err = doJSON(context.Background(), req, "TestProvider", nil)
	require.Error(t, err)
	require.True(t, errs.IsRetryable(err))
	require.Equal(t, time.Duration(0), errs.RetryAfter(err))
}

func TestRetryAfterDurationParsesDelaySeconds(t *testing.T) {
	require.Equal(t, 5*time.Second, retryAfterDuration("5"))
	require.Equal(t, time.Duration(0), retryAfterDuration(""))
	require.Equal(t, time.Duration(0), retryAfterDuration("not-a-number"))
	require.Equal(t, time.Duration(0), retryAfterDuration("-3"))
}

func TestIsRetryableStatus(t *testing.T) {
	require.True(t, isRetryableStatus(http.StatusTooManyRequests))
	require.True(t, isRetryableStatus(http.StatusInternalServerError))
	require.True(t, isRetryableStatus(http.StatusBadGateway))
	require.False(t, isRetryableStatus(http.StatusUnauthorized))
	require.False(t, isRetryableStatus(http.StatusOK))
}

func TestClampResults(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	require.Equal(t, []int{1, 2, 3}, clampResults(items, 3))
	require.Equal(t, items, clampResults(items, 0))
}

func TestClampInt(t *testing.T) {
	require.Equal(t, 1, clampInt(-5, 1, 10))
	require.Equal(t, 10, clampInt(50, 1, 10))
	require.Equal(t, 5, clampInt(5, 1, 10))
}
