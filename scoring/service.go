// Package scoring serves model verdicts to online callers. Predictions are
// cached per page so a client can ask once at load time and read the stored
// verdict later without re-running the model.
package scoring

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/phishsense/feature"
	"github.com/hazyhaar/phishsense/forest"
)

// Prediction is one cached model verdict.
type Prediction struct {
	Probability float64 `json:"probability"`
	IsPhishing  bool    `json:"is_phishing"`
}

// Service predicts and caches per-page verdicts on top of a forest model.
type Service struct {
	model  forest.Model
	schema feature.Schema
	log    *slog.Logger

	mu    sync.RWMutex
	cache map[string]Prediction
}

// NewService creates a Service on top of model. The model is typically a
// *forest.Handle so it can be hot-swapped underneath the service.
func NewService(model forest.Model, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		model:  model,
		schema: feature.V1,
		log:    log,
		cache:  make(map[string]Prediction),
	}
}

// PredictForest validates the vector, runs the ensemble and caches the
// verdict under pageID. An empty pageID predicts without caching.
func (s *Service) PredictForest(pageID string, v feature.Vector) (Prediction, error) {
	if err := v.Validate(s.schema); err != nil {
		return Prediction{}, fmt.Errorf("scoring: %w", err)
	}
	prob, phishing, err := s.model.Classify(v)
	if err != nil {
		return Prediction{}, fmt.Errorf("scoring: classify: %w", err)
	}
	p := Prediction{Probability: prob, IsPhishing: phishing}

	if pageID != "" {
		s.mu.Lock()
		s.cache[pageID] = p
		s.mu.Unlock()
	}
	s.log.Debug("prediction", "page_id", pageID, "probability", prob, "phishing", phishing)
	return p, nil
}

// StoredPrediction returns the cached verdict for pageID.
func (s *Service) StoredPrediction(pageID string) (Prediction, error) {
	s.mu.RLock()
	p, ok := s.cache[pageID]
	s.mu.RUnlock()
	if !ok {
		return Prediction{}, fmt.Errorf("%w: %s", ErrNoPrediction, pageID)
	}
	return p, nil
}

// Invalidate drops the cached verdict when the page context ends.
func (s *Service) Invalidate(pageID string) {
	s.mu.Lock()
	delete(s.cache, pageID)
	s.mu.Unlock()
}
