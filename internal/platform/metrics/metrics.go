package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	totalDurationMs uint64
	punchesScanned  uint64
	punchesInserted uint64
	punchesSkipped  uint64
	syncFailures    uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordSync(scanned, inserted, skipped int, failed bool) {
	atomic.AddUint64(&c.punchesScanned, uint64(scanned))
	atomic.AddUint64(&c.punchesInserted, uint64(inserted))
	atomic.AddUint64(&c.punchesSkipped, uint64(skipped))
	if failed {
		atomic.AddUint64(&c.syncFailures, 1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":        total,
		"errorsTotal":          errs,
		"avgDurationMs":        avg,
		"punchesScannedTotal":  atomic.LoadUint64(&c.punchesScanned),
		"punchesInsertedTotal": atomic.LoadUint64(&c.punchesInserted),
		"punchesSkippedTotal":  atomic.LoadUint64(&c.punchesSkipped),
		"syncFailuresTotal":    atomic.LoadUint64(&c.syncFailures),
	}
}
