package probe

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/phishsense/heuristic"
)

//go:embed instrument.js
var instrumentJS string

// Session is one instrumented page inside its own incognito context.
// Lifecycle is strictly sequential: Open → Navigate → Observe → Counters →
// Close. The only cancellation triggers are the session's own timeouts.
type Session struct {
	prober *Prober
	incog  *rod.Browser
	page   *rod.Page
}

// Open creates an isolated incognito context, opens a stealth page in it,
// and installs the instrumentation so it runs before any page script.
func (p *Prober) Open(ctx context.Context) (*Session, error) {
	b := p.mgr.Browser()
	if b == nil {
		return nil, ErrNotStarted
	}

	incog, err := b.Incognito()
	if err != nil {
		return nil, fmt.Errorf("probe: incognito context: %w", err)
	}

	page, err := stealth.Page(incog)
	if err != nil {
		return nil, fmt.Errorf("probe: create page: %w", err)
	}

	_, err = proto.PageAddScriptToEvaluateOnNewDocument{Source: instrumentJS}.Call(page)
	if err != nil {
		page.Close()
		return nil, fmt.Errorf("probe: install instrumentation: %w", err)
	}

	return &Session{prober: p, incog: incog, page: page.Context(ctx)}, nil
}

// Navigate loads url and waits for the load event, bounded by NavTimeout.
// Any navigation or load failure within the budget is ErrNavigationTimeout;
// the caller skips the URL without retrying.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.prober.cfg.NavTimeout)
	defer cancel()

	page := s.page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigationTimeout, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigationTimeout, url, err)
	}
	return nil
}

// observeJS counts DOM mutations over a fixed window, then disconnects.
// childList records feed the subtree counter, attribute records their own.
const observeJS = `(ms) => new Promise((resolve) => {
	let dom = 0, attr = 0;
	const o = new MutationObserver((records) => {
		for (const m of records) {
			if (m.type === 'childList') dom++;
			else if (m.type === 'attributes') attr++;
		}
	});
	o.observe(document, { childList: true, attributes: true, subtree: true });
	setTimeout(() => { o.disconnect(); resolve({ dom: dom, attr: attr }); }, ms);
})`

// Observe runs the mutation watcher for the configured window and stores
// the result on the session for the final Counters read.
func (s *Session) Observe(ctx context.Context) (dom, attr int, err error) {
	window := s.prober.cfg.ObserveWindow
	obsCtx, cancel := context.WithTimeout(ctx, window+10*time.Second)
	defer cancel()

	res, err := s.evalWithRetry(obsCtx, observeJS, window.Milliseconds())
	if err != nil {
		return 0, 0, err
	}
	return res.Value.Get("dom").Int(), res.Value.Get("attr").Int(), nil
}

const countersJS = `() => {
	const nav = performance.getEntriesByType('navigation')[0];
	const loaded = nav ? nav.domContentLoadedEventEnd : 0;
	return {
		eval: window.__ps_evalCount || 0,
		fetch: window.__ps_fetchCount || 0,
		xhr: window.__ps_xhrCount || 0,
		ws: window.__ps_wsCount || 0,
		script: window.__ps_scriptCount || 0,
		listener: window.__ps_listenerCount || 0,
		load_time: loaded ? Math.max(0, performance.now() - loaded) : 0,
		memory: (performance.memory && performance.memory.usedJSHeapSize) || 0
	};
}`

// Counters reads the instrumentation counters plus timing and memory.
func (s *Session) Counters(ctx context.Context) (Counters, error) {
	res, err := s.evalWithRetry(ctx, countersJS)
	if err != nil {
		return Counters{}, err
	}
	return Counters{
		Eval:           res.Value.Get("eval").Int(),
		Fetch:          res.Value.Get("fetch").Int(),
		XHR:            res.Value.Get("xhr").Int(),
		WS:             res.Value.Get("ws").Int(),
		Scripts:        res.Value.Get("script").Int(),
		EventListeners: res.Value.Get("listener").Int(),
		PageLoadTime:   res.Value.Get("load_time").Num(),
		MemoryUsed:     res.Value.Get("memory").Num(),
	}, nil
}

const snapshotJS = `() => {
	const html = document.documentElement ? document.documentElement.outerHTML.length : 0;
	let insecure = 0;
	document.querySelectorAll('form').forEach((f) => {
		const a = f.getAttribute('action');
		if (!a || a.startsWith('http://')) insecure++;
	});
	let external = 0;
	const host = location.hostname;
	document.querySelectorAll('img').forEach((img) => {
		const src = img.getAttribute('src');
		if (src && src.startsWith('http') && !src.includes(host)) external++;
	});
	return { html: html, insecure: insecure, external: external };
}`

// Snapshot reads the content signals consumed by the heuristic scorer.
func (s *Session) Snapshot(ctx context.Context) (heuristic.PageSnapshot, error) {
	res, err := s.evalWithRetry(ctx, snapshotJS)
	if err != nil {
		return heuristic.PageSnapshot{}, err
	}
	return heuristic.PageSnapshot{
		HTMLLength:     res.Value.Get("html").Int(),
		InsecureForms:  res.Value.Get("insecure").Int(),
		ExternalImages: res.Value.Get("external").Int(),
	}, nil
}

// Close closes the page and disposes the incognito context.
func (s *Session) Close() {
	if s.page != nil {
		s.page.Close()
	}
	if s.incog != nil {
		err := proto.TargetDisposeBrowserContext{
			BrowserContextID: s.incog.BrowserContextID,
		}.Call(s.incog)
		if err != nil {
			s.prober.cfg.Logger.Debug("probe: dispose context", "error", err)
		}
	}
}

// tornRetryDelay is the pause before the single permitted re-read after the
// execution context was destroyed under the evaluation.
const tornRetryDelay = 300 * time.Millisecond

// evalWithRetry evaluates js on the page. When the execution context is
// torn down mid-read (redirect, navigation race) the read is retried
// exactly once after a short delay; any other failure propagates.
func (s *Session) evalWithRetry(ctx context.Context, js string, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	page := s.page.Context(ctx)
	res, err := page.Eval(js, args...)
	if err == nil {
		return res, nil
	}
	if !isContextTorn(err) {
		return nil, fmt.Errorf("probe: eval: %w", err)
	}

	select {
	case <-time.After(tornRetryDelay):
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrContextTorn, ctx.Err())
	}

	res, err = page.Eval(js, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContextTorn, err)
	}
	return res, nil
}

// isContextTorn reports whether err is the CDP failure mode of evaluating
// into an execution context that a navigation just destroyed.
func isContextTorn(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution context was destroyed") ||
		strings.Contains(msg, "cannot find context with specified id") ||
		strings.Contains(msg, "execution context id is invalid")
}
