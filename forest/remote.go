package forest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hazyhaar/phishsense/feature"
)

// Remote evaluates the same feature contract against an external tensor
// inference runtime over HTTP instead of a local tree ensemble. The vector
// is sent in schema order as a single input tensor; OutputIndex selects the
// probability of the phishing class from the output row.
type Remote struct {
	URL         string
	InputName   string
	OutputIndex int
	Threshold   float64
	Client      *http.Client
	Schema      feature.Schema
}

// NewRemote creates a remote model client with sane defaults: 10s request
// timeout, input tensor "features", output index 1, DefaultThreshold.
func NewRemote(url string, schema feature.Schema) *Remote {
	return &Remote{
		URL:         url,
		InputName:   "features",
		OutputIndex: 1,
		Threshold:   DefaultThreshold,
		Client:      &http.Client{Timeout: 10 * time.Second},
		Schema:      schema,
	}
}

type remoteRequest struct {
	Inputs map[string][]float64 `json:"inputs"`
}

type remoteResponse struct {
	Outputs [][]float64 `json:"outputs"`
	Error   string      `json:"error,omitempty"`
}

// Predict sends the vector in schema order and returns the selected output.
// A vector missing a schema field fails before any network round trip.
func (r *Remote) Predict(v feature.Vector) (float64, error) {
	row, err := v.Row(r.Schema)
	if err != nil {
		return 0, err
	}

	body, err := json.Marshal(remoteRequest{Inputs: map[string][]float64{r.InputName: row}})
	if err != nil {
		return 0, fmt.Errorf("forest: encode remote request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.Client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("forest: build remote request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrModelNotReady, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("forest: read remote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("forest: remote runtime status %d: %s", resp.StatusCode, raw)
	}

	var out remoteResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("forest: decode remote response: %w", err)
	}
	if out.Error != "" {
		return 0, fmt.Errorf("forest: remote runtime: %s", out.Error)
	}
	if len(out.Outputs) == 0 || r.OutputIndex >= len(out.Outputs[0]) {
		return 0, fmt.Errorf("%w: output index %d out of range", ErrMalformedModel, r.OutputIndex)
	}
	return out.Outputs[0][r.OutputIndex], nil
}

// Classify predicts and applies the operating threshold.
func (r *Remote) Classify(v feature.Vector) (float64, bool, error) {
	p, err := r.Predict(v)
	if err != nil {
		return 0, false, err
	}
	return p, p >= r.Threshold, nil
}
