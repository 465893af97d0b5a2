// Package crawl builds the labelled feature dataset. It reads candidate URLs
// from per-label input files, probes each one through the injected extractor,
// and appends one feature row per reachable page to the output CSV.
//
// A crawl is resumable: on startup the existing output is replayed to rebuild
// the dedup set and per-label counters, so interrupting and restarting never
// duplicates rows or overshoots quotas by more than the in-flight batch.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hazyhaar/phishsense/feature"
	"github.com/hazyhaar/phishsense/probe"
)

// ExtractFunc produces the dynamic feature vector for a reachable URL.
// The production implementation is Prober.ExtractDynamic.
type ExtractFunc func(ctx context.Context, url string) (feature.Vector, error)

// NormalizeFunc resolves a raw input URL to its reachable schemed form.
type NormalizeFunc func(ctx context.Context, raw string) (string, error)

// Deps are the injected pipeline stages.
type Deps struct {
	// Extract is required.
	Extract ExtractFunc

	// Normalize defaults to a HEAD-probing Normalizer with the
	// configured timeout.
	Normalize NormalizeFunc

	Logger *slog.Logger
}

// Crawler runs the dataset collection pipeline.
type Crawler struct {
	cfg       *Config
	log       *slog.Logger
	extract   ExtractFunc
	normalize NormalizeFunc
	schema    feature.Schema
	limiter   *rate.Limiter

	mu      sync.Mutex
	seen    map[string]struct{}
	counts  map[int]int
	skipped int
}

type record struct {
	url   string
	label int
}

// New creates a Crawler. cfg is defaulted in place.
func New(cfg *Config, deps Deps) (*Crawler, error) {
	if deps.Extract == nil {
		return nil, errors.New("crawl: Deps.Extract is required")
	}
	cfg.defaults()
	if deps.Normalize == nil {
		n := &Normalizer{Timeout: cfg.NormalizeTimeout}
		deps.Normalize = n.Normalize
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Crawler{
		cfg:       cfg,
		log:       deps.Logger,
		extract:   deps.Extract,
		normalize: deps.Normalize,
		schema:    feature.V1,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		seen:      make(map[string]struct{}),
		counts:    make(map[int]int),
	}, nil
}

// Run executes the crawl until both quotas are met, the queue is exhausted,
// or ctx is cancelled. It is not safe to call Run twice on the same Crawler.
func (c *Crawler) Run(ctx context.Context) error {
	state, err := Replay(c.cfg.Output, c.schema)
	if err != nil {
		return err
	}
	c.seen = state.Seen
	c.counts = state.Counts
	if state.Rows() > 0 {
		c.log.Info("resuming crawl",
			"rows", state.Rows(),
			"benign", c.counts[LabelBenign],
			"phishing", c.counts[LabelPhishing],
		)
	}

	queue, err := c.buildQueue()
	if err != nil {
		return err
	}

	writer, err := OpenWriter(c.cfg.Output, c.schema)
	if err != nil {
		return err
	}
	defer writer.Close()

	var journal *Journal
	if c.cfg.JournalPath != "" {
		journal, err = OpenJournal(c.cfg.JournalPath)
		if err != nil {
			return err
		}
		defer journal.Close()
	}

	target := c.cfg.MaxBenign + c.cfg.MaxPhishing
	prog := newProgress(c.log, target, state.Rows())

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(c.cfg.Concurrency)

	for _, rec := range queue {
		if gctx.Err() != nil {
			break
		}
		rec := rec
		g.Go(func() error {
			c.process(gctx, rec, writer, journal, prog, stop)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	benign, phishing, skipped := c.counts[LabelBenign], c.counts[LabelPhishing], c.skipped
	c.mu.Unlock()

	if _, err := journal.Summary(benign, phishing, skipped); err != nil {
		c.log.Warn("journal summary failed", "error", err)
	}
	c.log.Info("crawl finished", "benign", benign, "phishing", phishing, "skipped", skipped)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("crawl: interrupted: %w", err)
	}
	return nil
}

// buildQueue loads both inputs, tags each URL with its label and shuffles the
// result so quota overshoot is not biased toward either file's ordering.
func (c *Crawler) buildQueue() ([]record, error) {
	var queue []record
	for _, src := range []struct {
		path  string
		label int
	}{
		{c.cfg.BenignInput, LabelBenign},
		{c.cfg.PhishingInput, LabelPhishing},
	} {
		if src.path == "" {
			continue
		}
		urls, err := ReadURLs(src.path)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			queue = append(queue, record{url: u, label: src.label})
		}
	}

	seed := c.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})
	return queue, nil
}

// process runs the per-URL pipeline. Every exit path short of a persisted
// row is a skip: journaled, logged, never fatal to the batch.
func (c *Crawler) process(ctx context.Context, rec record, writer *Writer, journal *Journal, prog *progress, stop context.CancelFunc) {
	if c.quotaMet(rec.label) {
		c.skip(journal, rec.url, rec.label, OutcomeQuotaReached, nil)
		return
	}
	if c.seenAny(rec.url) {
		c.skip(journal, rec.url, rec.label, OutcomeDuplicate, nil)
		return
	}

	norm, err := c.normalize(ctx, rec.url)
	if err != nil {
		c.skip(journal, rec.url, rec.label, OutcomeUnreachable, err)
		return
	}
	if !c.claim(norm) {
		c.skip(journal, norm, rec.label, OutcomeDuplicate, nil)
		return
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return
	}

	dynamic, err := c.extract(ctx, norm)
	if err != nil {
		outcome := OutcomeExtractError
		if errors.Is(err, probe.ErrNavigationTimeout) {
			outcome = OutcomeNavigationError
		}
		c.skip(journal, norm, rec.label, outcome, err)
		return
	}

	static, err := feature.ExtractStatic(norm)
	if err != nil {
		c.skip(journal, norm, rec.label, OutcomeExtractError, err)
		return
	}

	vec := static.Merge(dynamic)
	row, err := vec.Row(c.schema)
	if err != nil {
		c.skip(journal, norm, rec.label, OutcomeExtractError, err)
		return
	}

	if err := writer.Append(norm, row, rec.label); err != nil {
		c.skip(journal, norm, rec.label, OutcomeWriteError, err)
		return
	}

	benign, phishing, done := c.stored(rec.label)
	if err := journal.Visit(norm, rec.label, OutcomeStored, ""); err != nil {
		c.log.Warn("journal write failed", "url", norm, "error", err)
	}
	prog.row(benign, phishing)
	if done {
		stop()
	}
}

func (c *Crawler) quotaMet(label int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[label] >= c.cfg.quota(label)
}

// seenAny checks the raw URL and both schemed forms against the dedup set,
// since the set stores normalized URLs.
func (c *Crawler) seenAny(raw string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range []string{raw, "https://" + raw, "http://" + raw} {
		if _, ok := c.seen[u]; ok {
			return true
		}
	}
	return false
}

// claim marks url as taken; false means another worker got there first.
func (c *Crawler) claim(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[url]; ok {
		return false
	}
	c.seen[url] = struct{}{}
	return true
}

// stored bumps the label counter and reports whether both quotas are met.
func (c *Crawler) stored(label int) (benign, phishing int, done bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[label]++
	benign, phishing = c.counts[LabelBenign], c.counts[LabelPhishing]
	done = benign >= c.cfg.MaxBenign && phishing >= c.cfg.MaxPhishing
	return benign, phishing, done
}

func (c *Crawler) skip(journal *Journal, url string, label int, outcome string, cause error) {
	c.mu.Lock()
	c.skipped++
	c.mu.Unlock()

	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	if err := journal.Visit(url, label, outcome, detail); err != nil {
		c.log.Warn("journal write failed", "url", url, "error", err)
	}
	c.log.Debug("url skipped", "url", url, "label", label, "outcome", outcome, "detail", detail)
}
