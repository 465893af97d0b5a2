package crawl

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Normalizer resolves a bare host or partial URL to the scheme it actually
// answers on. HTTPS is tried first; plain HTTP is the fallback. Sites that
// answer on neither within the budget are unreachable.
type Normalizer struct {
	// Client issues the HEAD probes. Defaults to a redirect-following
	// client with no global timeout (the context carries the budget).
	Client *http.Client

	// Timeout is the total budget across both scheme attempts.
	Timeout time.Duration
}

func (n *Normalizer) client() *http.Client {
	if n.Client != nil {
		return n.Client
	}
	return http.DefaultClient
}

// Normalize returns the reachable form of raw with an explicit scheme.
// An already-schemed URL keeps its scheme and is only verified.
func (n *Normalizer) Normalize(ctx context.Context, raw string) (string, error) {
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw = strings.TrimSpace(raw)

	var candidates []string
	switch {
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		candidates = []string{raw}
	default:
		candidates = []string{"https://" + raw, "http://" + raw}
	}

	var lastErr error
	for _, u := range candidates {
		if err := n.head(ctx, u); err != nil {
			lastErr = err
			continue
		}
		return u, nil
	}
	return "", fmt.Errorf("%w: %s: %v", ErrUnreachable, raw, lastErr)
}

func (n *Normalizer) head(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return err
	}
	resp, err := n.client().Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	// Any HTTP answer proves the scheme works, error pages included.
	return nil
}
