// Command phishcrawl builds the labelled feature dataset.
//
// Usage:
//
//	phishcrawl -config phishcrawl.yaml
//	phishcrawl -benign top-sites.csv -phishing verified.csv -out dataset.csv
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/phishsense/crawl"
	"github.com/hazyhaar/phishsense/probe"
)

func main() {
	configPath := flag.String("config", "", "path to phishcrawl.yaml config file")
	benign := flag.String("benign", "", "benign input CSV (url column)")
	phishing := flag.String("phishing", "", "phishing input CSV (url column)")
	out := flag.String("out", "", "output dataset CSV")
	journal := flag.String("journal", "", "sqlite visit journal path")
	maxBenign := flag.Int("max-benign", 0, "benign row quota")
	maxPhishing := flag.Int("max-phishing", 0, "phishing row quota")
	concurrency := flag.Int("concurrency", 0, "parallel page probes")
	remote := flag.String("remote", "", "connect to an existing Chrome devtools URL")
	headful := flag.Bool("headful", false, "run the browser with a visible window")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger := newLogger(*logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("phishcrawl: config", "error", err)
		os.Exit(1)
	}
	applyFlags(cfg, *benign, *phishing, *out, *journal, *maxBenign, *maxPhishing, *concurrency)

	if cfg.BenignInput == "" && cfg.PhishingInput == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(ctx, logger, cfg, *remote, *headful); err != nil {
		logger.Error("phishcrawl: fatal", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func loadConfig(path string) (*crawl.Config, error) {
	if path == "" {
		cfg := &crawl.Config{}
		return cfg, nil
	}
	return crawl.LoadConfigFile(path)
}

func applyFlags(cfg *crawl.Config, benign, phishing, out, journal string, maxBenign, maxPhishing, concurrency int) {
	if benign != "" {
		cfg.BenignInput = benign
	}
	if phishing != "" {
		cfg.PhishingInput = phishing
	}
	if out != "" {
		cfg.Output = out
	}
	if journal != "" {
		cfg.JournalPath = journal
	}
	if maxBenign > 0 {
		cfg.MaxBenign = maxBenign
	}
	if maxPhishing > 0 {
		cfg.MaxPhishing = maxPhishing
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *crawl.Config, remote string, headful bool) error {
	prober := probe.New(probe.Config{
		RemoteURL: remote,
		Headful:   headful,
		Logger:    logger,
	})
	if err := prober.Start(); err != nil {
		return err
	}
	defer prober.Close()

	crawler, err := crawl.New(cfg, crawl.Deps{
		Extract: prober.ExtractDynamic,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	return crawler.Run(ctx)
}
