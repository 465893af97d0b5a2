package crawl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hazyhaar/phishsense/feature"
	"github.com/hazyhaar/phishsense/probe"
)

// fakeDynamic returns a complete dynamic vector so rows validate.
func fakeDynamic() feature.Vector {
	v := feature.Vector{}
	for _, f := range feature.V1.Fields {
		if f.Kind == feature.Dynamic {
			v[f.Name] = 1
		}
	}
	return v
}

func writeInput(t *testing.T, dir, name string, urls []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := "url\n"
	for _, u := range urls {
		content += u + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// passNormalize skips the network and tags every URL with a scheme.
func passNormalize(ctx context.Context, raw string) (string, error) {
	return "http://" + raw, nil
}

func testConfig(t *testing.T, benign, phishing []string) *Config {
	t.Helper()
	dir := t.TempDir()
	return &Config{
		BenignInput:   writeInput(t, dir, "benign.csv", benign),
		PhishingInput: writeInput(t, dir, "phishing.csv", phishing),
		Output:        filepath.Join(dir, "dataset.csv"),
		MaxBenign:     2,
		MaxPhishing:   2,
		Concurrency:   3,
		RatePerSecond: 1000,
		Seed:          1,
	}
}

func TestCrawler_QuotasAndDedup(t *testing.T) {
	cfg := testConfig(t,
		[]string{"b1.test", "b2.test", "b3.test", "b1.test"},
		[]string{"p1.test", "p2.test"},
	)

	var calls int32
	c, err := New(cfg, Deps{
		Extract: func(ctx context.Context, url string) (feature.Vector, error) {
			atomic.AddInt32(&calls, 1)
			return fakeDynamic(), nil
		},
		Normalize: passNormalize,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	state, err := Replay(cfg.Output, feature.V1)
	if err != nil {
		t.Fatal(err)
	}
	// Quota checks are advisory, so in-flight tasks may overshoot by at
	// most the worker count.
	if b := state.Counts[LabelBenign]; b < cfg.MaxBenign || b > cfg.MaxBenign+cfg.Concurrency {
		t.Errorf("benign rows = %d, want within [%d, %d]", b, cfg.MaxBenign, cfg.MaxBenign+cfg.Concurrency)
	}
	if state.Counts[LabelPhishing] != 2 {
		t.Errorf("phishing rows = %d, want 2", state.Counts[LabelPhishing])
	}
	// The duplicate b1.test entry must not have produced a second extraction.
	if int(calls) > 5 {
		t.Errorf("extract called %d times for 5 distinct urls", calls)
	}
}

func TestCrawler_ResumeSkipsStoredURLs(t *testing.T) {
	cfg := testConfig(t, []string{"b1.test", "b2.test"}, []string{"p1.test"})
	cfg.MaxBenign = 5
	cfg.MaxPhishing = 5

	deps := Deps{Extract: func(ctx context.Context, url string) (feature.Vector, error) {
		return fakeDynamic(), nil
	}, Normalize: passNormalize}

	c, err := New(cfg, deps)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Second run over the same inputs: every URL is already persisted, so
	// the extractor must never fire.
	deps.Extract = func(ctx context.Context, url string) (feature.Vector, error) {
		t.Errorf("extract called for already-stored url %s", url)
		return fakeDynamic(), nil
	}
	c2, err := New(cfg, deps)
	if err != nil {
		t.Fatal(err)
	}
	if err := c2.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	state, err := Replay(cfg.Output, feature.V1)
	if err != nil {
		t.Fatal(err)
	}
	if state.Rows() != 3 {
		t.Errorf("rows after resume = %d, want 3", state.Rows())
	}
}

func TestCrawler_SkipsNeverAbortBatch(t *testing.T) {
	// WHAT: Unreachable, nav-timeout and extract failures all end as skips.
	// WHY: One dead phishing site must not cost the rest of the batch.
	cfg := testConfig(t,
		[]string{"dead.test", "slow.test", "broken.test", "good.test"},
		nil,
	)
	cfg.MaxBenign = 4

	deps := Deps{
		Normalize: func(ctx context.Context, raw string) (string, error) {
			if raw == "dead.test" {
				return "", fmt.Errorf("%w: %s", ErrUnreachable, raw)
			}
			return "http://" + raw, nil
		},
		Extract: func(ctx context.Context, url string) (feature.Vector, error) {
			switch url {
			case "http://slow.test":
				return nil, fmt.Errorf("%w: %s", probe.ErrNavigationTimeout, url)
			case "http://broken.test":
				return nil, fmt.Errorf("counter read failed")
			}
			return fakeDynamic(), nil
		},
	}
	c, err := New(cfg, deps)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	state, err := Replay(cfg.Output, feature.V1)
	if err != nil {
		t.Fatal(err)
	}
	if state.Rows() != 1 {
		t.Fatalf("rows = %d, want only good.test", state.Rows())
	}
	if _, ok := state.Seen["http://good.test"]; !ok {
		t.Error("good.test not stored")
	}
	if c.skipped != 3 {
		t.Errorf("skipped = %d, want 3", c.skipped)
	}
}

func TestCrawler_SeededShuffleIsDeterministic(t *testing.T) {
	cfg := testConfig(t, []string{"a.test", "b.test", "c.test"}, []string{"x.test"})
	c, err := New(cfg, Deps{Extract: func(ctx context.Context, url string) (feature.Vector, error) {
		return fakeDynamic(), nil
	}, Normalize: passNormalize})
	if err != nil {
		t.Fatal(err)
	}

	q1, err := c.buildQueue()
	if err != nil {
		t.Fatal(err)
	}
	q2, err := c.buildQueue()
	if err != nil {
		t.Fatal(err)
	}
	for i := range q1 {
		if q1[i] != q2[i] {
			t.Fatalf("same seed produced different orders: %v vs %v", q1, q2)
		}
	}
}

func TestCrawler_ConcurrencyBound(t *testing.T) {
	cfg := testConfig(t,
		[]string{"a.test", "b.test", "c.test", "d.test", "e.test", "f.test"},
		nil,
	)
	cfg.MaxBenign = 6
	cfg.Concurrency = 2

	var mu sync.Mutex
	inFlight, peak := 0, 0
	c, err := New(cfg, Deps{
		Extract: func(ctx context.Context, url string) (feature.Vector, error) {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()
			defer func() {
				mu.Lock()
				inFlight--
				mu.Unlock()
			}()
			return fakeDynamic(), nil
		},
		Normalize: passNormalize,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if peak > 2 {
		t.Errorf("peak in-flight extractions = %d, want <= 2", peak)
	}
}
