package bancheck

import (
	"fmt"
	"time"
)

// rawResult is the scheduler-internal outcome of probing one URL.
type rawResult struct {
	URL       string
	RawStatus string
	ProxyUsed string
	BatchID   int
}

// processBatch runs the probe over a contiguous slice of URLs with a
// bounded inner worker pool. It never panics and always returns one
// result per URL, in completion order. The progress callback fires
// exactly once per completed URL.
// Parameters:
//   - batchID: 1-based id of this batch
//   - urls: URLs of this batch
//   - proxy: Proxy endpoint shared by the whole batch, "" for none
//   - params: Probe parameters
//   - progress: Callback fired once per completed URL
//
// Returns:
//   - []rawResult: One result per URL, completion order
func (e *Engine) processBatch(batchID int, urls []string, proxy string, params Params, progress func()) []rawResult {
	proxyLabel := proxy
	if proxyLabel == "" {
		proxyLabel = "None"
	}

	workers := max(1, min(params.MaxWorkersPerBatch, len(urls)))
	submitDelay := secondsToDuration(params.InterRequestSubmitDelay)
	retryDelay := secondsToDuration(params.RetryDelaySeconds)

	e.log.Info("batch starting",
		"batch", batchID, "urls", len(urls), "proxy", proxyLabel, "workers", workers)

	results := make([]rawResult, 0, len(urls))

	if workers == 1 {
		for i, u := range urls {
			if submitDelay > 0 && i > 0 {
				time.Sleep(submitDelay)
			}
			status := e.safeCheck(u, proxy, params.MaxRetriesPerURL, retryDelay, batchID, i+1, len(urls))
			results = append(results, rawResult{URL: u, RawStatus: status, ProxyUsed: proxyLabel, BatchID: batchID})
			progress()
		}

		e.log.Info("batch finished", "batch", batchID, "results", len(results))
		return results
	}

	sem := make(chan struct{}, workers)
	done := make(chan rawResult)

	go func() {
		for i, u := range urls {
			sem <- struct{}{}
			go func(index int, target string) {
				defer func() { <-sem }()

				status := e.safeCheck(target, proxy, params.MaxRetriesPerURL, retryDelay, batchID, index+1, len(urls))
				done <- rawResult{URL: target, RawStatus: status, ProxyUsed: proxyLabel, BatchID: batchID}
			}(i, u)

			if submitDelay > 0 && i < len(urls)-1 {
				time.Sleep(submitDelay)
			}
		}
	}()

	for range urls {
		results = append(results, <-done)
		progress()
	}

	e.log.Info("batch finished", "batch", batchID, "results", len(results))
	return results
}

// safeCheck wraps a probe call so a crashing worker surfaces as a
// per-URL result instead of taking the batch down.
func (e *Engine) safeCheck(target, proxy string, maxRetries int, retryDelay time.Duration, batchID, index, total int) (status string) {
	defer func() {
		if r := recover(); r != nil {
			status = fmt.Sprintf("%s%v", rawInnerPrefix, r)
			e.log.Error("inner worker panic", "batch", batchID, "url", target, "panic", r)
		}
	}()

	return e.prober.check(target, proxy, maxRetries, retryDelay, batchID, index, total)
}

// secondsToDuration converts a fractional seconds value to a Duration.
// Parameters:
//   - seconds: Seconds, possibly fractional
//
// Returns:
//   - time.Duration: Equivalent duration
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
