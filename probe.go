package bancheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// probeTimeout is the hard per-request timeout for a single attempt.
const probeTimeout = 25 * time.Second

// retryableHTTP lists the upstream statuses worth retrying.
var retryableHTTP = []string{"429", "500", "502", "503", "504"}

// prober performs one-shot classification of a single URL through an
// optional proxy. The retry policy is internal; exactly one raw status
// is returned per call.
type prober struct {
	timeout time.Duration
	sleep   func(time.Duration)
	log     *slog.Logger
}

func newProber(log *slog.Logger) *prober {
	return &prober{timeout: probeTimeout, sleep: time.Sleep, log: log}
}

// check probes target and returns its raw status.
// Parameters:
//   - target: URL to probe
//   - proxy: Proxy endpoint, "" for direct
//   - maxRetries: Extra attempts after the first
//   - retryDelay: Sleep between retryable attempts
//   - batchID: Batch id for log correlation
//   - index: 1-based position of the URL inside the batch
//   - total: Batch size, for log correlation
//
// Returns:
//   - string: Raw status
func (p *prober) check(target, proxy string, maxRetries int, retryDelay time.Duration, batchID, index, total int) string {
	client := resty.New().
		SetTimeout(p.timeout).
		SetHeader("User-Agent", desktopUA).
		SetHeader("Accept-Language", acceptLanguage).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	if proxy != "" {
		if valid := validateProxyString(proxy); valid != "" {
			client.SetProxy(valid)
		} else {
			p.log.Warn("invalid proxy format, proceeding without proxy",
				"proxy", proxy, "url", target)
		}
	}

	lastError := "ERROR_UNKNOWN_NO_ATTEMPTS_MADE"

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.log.Info("retrying url",
				"url", target, "batch", batchID, "index", index, "total", total,
				"retry", attempt, "of", maxRetries)
		}

		resp, err := client.R().Get(target)
		switch {
		case err != nil:
			status, fatal := classifyRequestError(err)
			if fatal {
				return status
			}
			lastError = status
		case resp.IsSuccess():
			return classifyBody(resp.Body())
		default:
			lastError = fmt.Sprintf("%s%d", rawHTTPPrefix, resp.StatusCode())
			if resp.StatusCode() == 404 {
				return lastError
			}
		}

		if attempt < maxRetries {
			if !isRetryable(lastError) {
				return lastError
			}
			p.sleep(retryDelay)
		}
	}

	p.log.Warn("max retries reached", "url", target, "batch", batchID, "last", lastError)
	return rawRetryPrefix + lastError
}

// classifyRequestError maps a transport-level error to a raw status.
// Fatal statuses are returned to the caller immediately, without retry.
// Parameters:
//   - err: Error from the HTTP client
//
// Returns:
//   - string: Raw status
//   - bool: Whether the error is fatal
func classifyRequestError(err error) (string, bool) {
	msg := err.Error()
	if strings.Contains(msg, "proxyconnect") {
		return rawProxyPrefix + msg, false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return rawTimeout, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return rawTimeout, false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return rawConnection, false
	}

	return rawUnexpectedPrefix + msg, true
}

// isRetryable reports whether a raw status is a transient network or
// upstream condition.
// Parameters:
//   - status: Raw status from the last attempt
//
// Returns:
//   - bool: True when another attempt may succeed
func isRetryable(status string) bool {
	if status == rawTimeout || status == rawConnection || strings.HasPrefix(status, rawProxyPrefix) {
		return true
	}
	for _, code := range retryableHTTP {
		if status == rawHTTPPrefix+code {
			return true
		}
	}
	return false
}
