package crawl

import (
	"log/slog"
	"sync"
	"time"
)

// progressEvery is how many persisted rows pass between progress lines.
const progressEvery = 10

// progress logs crawl throughput and a naive ETA. The ETA extrapolates the
// observed per-row pace over the remaining quota, so it stabilises only
// after the first few dozen rows.
type progress struct {
	log     *slog.Logger
	target  int
	initial int

	mu      sync.Mutex
	started time.Time
	rows    int
}

func newProgress(log *slog.Logger, target, initial int) *progress {
	return &progress{log: log, target: target, initial: initial, started: time.Now()}
}

// row records one persisted row and emits a progress line on the interval.
func (p *progress) row(benign, phishing int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows++
	if p.rows%progressEvery != 0 {
		return
	}
	total := p.initial + p.rows
	remaining := p.target - total
	elapsed := time.Since(p.started)
	var eta time.Duration
	if remaining > 0 {
		eta = time.Duration(float64(elapsed) / float64(p.rows) * float64(remaining)).Round(time.Second)
	}
	p.log.Info("crawl progress",
		"benign", benign,
		"phishing", phishing,
		"total", total,
		"target", p.target,
		"eta", eta.String(),
	)
}
