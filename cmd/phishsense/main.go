// Command phishsense serves model verdicts over HTTP, or classifies a
// single URL end to end.
//
// Usage:
//
//	phishsense -model forest.json -addr :8790        # scoring server
//	phishsense -model forest.json -url suspect.test  # one-shot verdict
//	phishsense -url suspect.test                     # heuristic fallback
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/phishsense/crawl"
	"github.com/hazyhaar/phishsense/feature"
	"github.com/hazyhaar/phishsense/forest"
	"github.com/hazyhaar/phishsense/heuristic"
	"github.com/hazyhaar/phishsense/probe"
	"github.com/hazyhaar/phishsense/scoring"
)

func main() {
	modelPath := flag.String("model", "", "path to the forest artifact JSON")
	remoteModel := flag.String("remote-model", "", "tensor runtime URL instead of a local artifact")
	addr := flag.String("addr", ":8790", "listen address for the scoring server")
	oneURL := flag.String("url", "", "classify a single URL and exit")
	remote := flag.String("remote", "", "connect to an existing Chrome devtools URL")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger := newLogger(*logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *oneURL != "" && *modelPath == "" && *remoteModel == "" {
		// Without a model the one-shot mode falls back to the trained
		// logistic weights plus the page content rules.
		if err := runHeuristic(ctx, logger, *oneURL, *remote); err != nil {
			logger.Error("phishsense: fatal", "error", err)
			os.Exit(1)
		}
		return
	}

	model, err := buildModel(*modelPath, *remoteModel)
	if err != nil {
		logger.Error("phishsense: model", "error", err)
		os.Exit(1)
	}

	if *oneURL != "" {
		if err := runOnce(ctx, logger, model, *oneURL, *remote); err != nil {
			logger.Error("phishsense: fatal", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := runServer(ctx, logger, model, *addr); err != nil {
		logger.Error("phishsense: fatal", "error", err)
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

func buildModel(path, remoteURL string) (forest.Model, error) {
	switch {
	case path != "" && remoteURL != "":
		return nil, errors.New("use -model or -remote-model, not both")
	case remoteURL != "":
		return forest.NewRemote(remoteURL, feature.V1), nil
	case path != "":
		f, err := forest.LoadFile(path, feature.V1)
		if err != nil {
			return nil, err
		}
		return forest.NewHandle(f), nil
	default:
		return nil, errors.New("-model or -remote-model is required")
	}
}

func runServer(ctx context.Context, logger *slog.Logger, model forest.Model, addr string) error {
	svc := scoring.NewService(model, logger)
	srv := &http.Server{Addr: addr, Handler: svc.Router()}

	errc := make(chan error, 1)
	go func() {
		logger.Info("scoring server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// runOnce classifies one URL through the full pipeline: normalize, probe,
// merge features, predict, print the verdict.
func runOnce(ctx context.Context, logger *slog.Logger, model forest.Model, rawURL, remoteBrowser string) error {
	n := &crawl.Normalizer{Timeout: 5 * time.Second}
	url, err := n.Normalize(ctx, rawURL)
	if err != nil {
		return err
	}
	logger.Info("probing", "url", url)

	prober := probe.New(probe.Config{RemoteURL: remoteBrowser, Logger: logger})
	if err := prober.Start(); err != nil {
		return err
	}
	defer prober.Close()

	dynamic, err := prober.ExtractDynamic(ctx, url)
	if err != nil {
		return err
	}
	static, err := feature.ExtractStatic(url)
	if err != nil {
		return err
	}

	prob, phishing, err := model.Classify(static.Merge(dynamic))
	if err != nil {
		return err
	}

	verdict := "benign"
	if phishing {
		verdict = "PHISHING"
	}
	fmt.Printf("%s\t%s\tprobability=%.4f\n", url, verdict, prob)
	return nil
}

// runHeuristic classifies one URL without a forest: logistic score on the
// static features, content rules on the live page.
func runHeuristic(ctx context.Context, logger *slog.Logger, rawURL, remoteBrowser string) error {
	n := &crawl.Normalizer{Timeout: 5 * time.Second}
	url, err := n.Normalize(ctx, rawURL)
	if err != nil {
		return err
	}
	logger.Info("probing", "url", url)

	prober := probe.New(probe.Config{RemoteURL: remoteBrowser, Logger: logger})
	if err := prober.Start(); err != nil {
		return err
	}
	defer prober.Close()

	s, err := prober.Open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Navigate(ctx, url); err != nil {
		return err
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	static, err := feature.ExtractStatic(url)
	if err != nil {
		return err
	}
	urlProb, suspicious := heuristic.URLScore(static)
	content := heuristic.ContentScore(snap)

	verdict := "benign"
	if suspicious || content >= 0.7 {
		verdict = "PHISHING"
	}
	fmt.Printf("%s\t%s\turl_score=%.4f\tcontent_score=%.2f\n", url, verdict, urlProb, content)
	return nil
}
