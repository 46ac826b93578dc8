// Package bancheck concurrently classifies large sets of profile URLs
// as banned, private, public or unexpected, honoring per-batch proxy
// rotation, retries, backpressure and live progress reporting.
//
// A task is submitted with Engine.Run and observed through the Store
// while it processes. URLs are partitioned into logical batches; a
// bounded outer pool runs batches, each holding one proxy for its
// whole duration, and a bounded inner pool probes the batch's URLs.
package bancheck

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/xenogy/bancheck/pkg/proxypool"
)

// Params are the concurrency and retry knobs for one task.
type Params struct {
	// LogicalBatchSize is the number of URLs per batch
	LogicalBatchSize int `default:"10"`

	// MaxConcurrentBatches bounds the outer pool
	MaxConcurrentBatches int `default:"2"`

	// MaxWorkersPerBatch bounds the inner pool
	MaxWorkersPerBatch int `default:"3"`

	// InterRequestSubmitDelay is the gap in seconds between submissions
	// inside a batch
	InterRequestSubmitDelay float64 `default:"0"`

	// MaxRetriesPerURL is the number of extra attempts per URL
	MaxRetriesPerURL int `default:"0"`

	// RetryDelaySeconds is the sleep between retryable attempts
	RetryDelaySeconds float64 `default:"5"`
}

// Engine owns task records and per-task proxy pools, and schedules
// batch processing over the two nested worker pools.
type Engine struct {
	store  *Store
	prober *prober
	stat   *Stat
	log    *slog.Logger

	m     sync.Mutex
	pools map[string]*proxypool.Pool
}

// NewEngine creates an engine publishing into the given store.
// Parameters:
//   - store: Task store read by external pollers
//   - log: Logger; nil falls back to slog.Default()
//
// Returns:
//   - *Engine: The initialized engine
func NewEngine(store *Store, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:  store,
		prober: newProber(log),
		stat:   &Stat{},
		log:    log,
		pools:  map[string]*proxypool.Pool{},
	}
}

// Pool returns the live proxy pool for a task, or nil once the task
// reached a terminal state.
// Parameters:
//   - taskID: Task id
//
// Returns:
//   - *proxypool.Pool: The task's pool, or nil
func (e *Engine) Pool(taskID string) *proxypool.Pool {
	e.m.Lock()
	defer e.m.Unlock()
	return e.pools[taskID]
}

// Run processes one task to completion. It blocks until the task is
// terminal; callers wanting asynchrony run it in a goroutine and poll
// the store. Errors never escape: they end up in the task record.
// Parameters:
//   - taskID: Opaque task id chosen by the caller
//   - urls: URLs to classify, in order
//   - proxies: Proxy endpoints, possibly empty
//   - params: Concurrency and retry parameters
func (e *Engine) Run(taskID string, urls []string, proxies []string, params Params) {
	e.store.Put(&TaskRecord{
		ID:      taskID,
		Status:  StatusProcessing,
		Message: "Starting URL checks...",
		Results: []ResultRow{},
	})

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("critical error during task", "task", taskID, "panic", r)
			e.store.Update(taskID, func(rec *TaskRecord) {
				rec.Status = StatusFailed
				rec.Message = fmt.Sprintf("Critical error: %v", r)
			})
		}
	}()

	total := len(urls)
	if total == 0 {
		e.store.Update(taskID, func(rec *TaskRecord) {
			rec.Status = StatusFailed
			rec.Message = "No valid URLs to process."
			rec.Progress = 100
		})
		return
	}

	setDefaultValues(&params)
	normalize(&params)

	pool := proxypool.New(proxies)
	e.setPool(taskID, pool)
	defer e.removePool(taskID)

	if len(proxies) > 0 && params.MaxConcurrentBatches > len(proxies) {
		e.log.Warn("max concurrent batches exceeds proxy count, reducing",
			"task", taskID, "batches", params.MaxConcurrentBatches, "proxies", len(proxies))
		params.MaxConcurrentBatches = len(proxies)
		e.store.Update(taskID, func(rec *TaskRecord) {
			rec.Message = fmt.Sprintf("Concurrency reduced to %d to match proxy count.", len(proxies))
		})
	}

	batches := chunk(urls, params.LogicalBatchSize)
	e.stat.addTargets(total)

	var processed atomic.Int64
	progress := func() {
		n := processed.Add(1)
		e.stat.markProcessed()

		if n%5 == 0 || n == int64(total) {
			pct := round2(math.Min(99, float64(n)/float64(total)*100))
			e.store.Update(taskID, func(rec *TaskRecord) {
				rec.setProgress(pct)
			})
			e.log.Info("progress", "task", taskID, "processed", n, "total", total, "pct", pct)
		}
	}

	type outcome struct {
		batchID int
		results []rawResult
		proxy   *proxypool.Proxy
		err     error
	}

	done := make(chan outcome)

	launch := func(idx int) {
		id := idx + 1
		proxy := pool.Checkout()

		go func() {
			out := outcome{batchID: id, proxy: proxy}
			defer func() {
				if r := recover(); r != nil {
					out.err = fmt.Errorf("batch %d panic: %v", id, r)
				}
				done <- out
			}()

			endpoint := ""
			if proxy != nil {
				endpoint = proxy.Endpoint
			}
			out.results = e.processBatch(id, batches[idx], endpoint, params, progress)
		}()
	}

	inflight, next := 0, 0
	for ; next < min(params.MaxConcurrentBatches, len(batches)); next++ {
		launch(next)
		inflight++
	}

	var all []rawResult
	for inflight > 0 {
		out := <-done
		inflight--

		if out.err != nil {
			e.log.Error("batch task failed", "task", taskID, "batch", out.batchID, "err", out.err)
		} else {
			all = append(all, out.results...)
		}
		pool.Release(out.proxy, out.err == nil)

		if next < len(batches) {
			launch(next)
			next++
			inflight++
		}
	}

	rows := buildReport(all)
	stats := pool.Stats()

	e.store.Update(taskID, func(rec *TaskRecord) {
		rec.Status = StatusCompleted
		rec.Results = rows
		rec.ProxyStats = stats
		rec.Progress = 100
		rec.Message = "Processing complete."
	})

	e.log.Info("task completed", "task", taskID, "results", len(rows))
}

func (e *Engine) setPool(taskID string, pool *proxypool.Pool) {
	e.m.Lock()
	defer e.m.Unlock()
	e.pools[taskID] = pool
}

func (e *Engine) removePool(taskID string) {
	e.m.Lock()
	defer e.m.Unlock()
	delete(e.pools, taskID)
}

// chunk partitions urls into slices of at most size, preserving order.
// Parameters:
//   - urls: Full URL list
//   - size: Batch size, ≥ 1
//
// Returns:
//   - [][]string: The logical batches
func chunk(urls []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(urls); start += size {
		end := min(start+size, len(urls))
		batches = append(batches, urls[start:end])
	}
	return batches
}

// normalize clamps parameters to their documented lower bounds.
func normalize(p *Params) {
	p.LogicalBatchSize = max(1, p.LogicalBatchSize)
	p.MaxConcurrentBatches = max(1, p.MaxConcurrentBatches)
	p.MaxWorkersPerBatch = max(1, p.MaxWorkersPerBatch)
	p.InterRequestSubmitDelay = math.Max(0, p.InterRequestSubmitDelay)
	p.RetryDelaySeconds = math.Max(0, p.RetryDelaySeconds)
}
