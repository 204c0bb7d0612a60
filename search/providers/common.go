// Package providers implements search.Provider adapters for the API-based
// search backends used in place of headless-browser search (Playwright
// sessions against public search engines trip anti-bot challenges far more
// often than calling a vendor's search API directly). Every adapter here
// mirrors one function from original_source/tools/search/{providers.py,
// search.py,fallback_search.py}.
package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/deepresearch/core/errs"
	"github.com/deepresearch/core/search"
)

// defaultTimeout matches providers.py's DEFAULT_TIMEOUT_S = 20.
const defaultTimeout = 20 * time.Second

// httpClient is shared by every adapter; none of them need cookies or
// redirect customization beyond the stdlib default.
var httpClient = &http.Client{Timeout: defaultTimeout}

// doJSON issues req, decodes a 200 response into out, and turns a non-200
// response into a sanitized errs.KindProvider error.
func doJSON(ctx context.Context, req *http.Request, providerName string, out any) error {
	req = req.WithContext(ctx)
	resp, err := httpClient.Do(req)
	if err != nil {
		return errs.Wrap(errs.KindProvider, err, "%s request failed", providerName)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		msg := search.SanitizeErrorMessage(string(body))
		if isRetryableStatus(resp.StatusCode) {
			return errs.WrapRetryable(nil, retryAfterDuration(resp.Header.Get("Retry-After")),
				"%s API error (%d): %s", providerName, resp.StatusCode, msg)
		}
		return errs.New(errs.KindProvider, "%s API error (%d): %s", providerName, resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errs.Wrap(errs.KindProvider, err, "%s returned malformed JSON", providerName)
	}
	return nil
}

// clampResults mirrors the Python helpers' `results[:max_results]` / num
// clamping idiom.
func clampResults[T any](items []T, maxResults int) []T {
	if maxResults <= 0 {
		maxResults = 10
	}
	if len(items) > maxResults {
		return items[:maxResults]
	}
	return items
}

// isRetryableStatus reports whether status is a transient provider
// condition (rate limiting or a server-side hiccup) worth retrying, as
// opposed to a permanent rejection (bad request, auth failure, not found).
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// retryAfterDuration parses an HTTP Retry-After header's delay-seconds
// form. A missing or unparseable header yields zero, meaning "retry the
// next provider immediately" rather than backing off.
func retryAfterDuration(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
