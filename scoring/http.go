package scoring

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/phishsense/feature"
)

// Request actions. These are the message types the browser client sends.
const (
	ActionPredictForest       = "PredictForest"
	ActionGetStoredPrediction = "GetStoredPrediction"
	ActionInvalidate          = "InvalidatePrediction"
)

// noPredictionReason is the client-facing error body for a cache miss.
const noPredictionReason = "No prediction yet"

// predictRequest is the action envelope accepted on /v1/predict.
type predictRequest struct {
	Action   string             `json:"action"`
	PageID   string             `json:"pageId"`
	Features map[string]float64 `json:"features"`
}

// requestTimeout bounds every request server-side. The client treats a
// missing answer as "no verdict", never as "benign".
const requestTimeout = 10 * time.Second

// Router returns the HTTP surface of the service.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Post("/v1/predict", s.handlePredict)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return r
}

func (s *Service) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Action {
	case ActionPredictForest:
		p, err := s.PredictForest(req.PageID, feature.Vector(req.Features))
		if err != nil {
			s.log.Warn("predict failed", "page_id", req.PageID, "error", err)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, p)

	case ActionGetStoredPrediction:
		p, err := s.StoredPrediction(req.PageID)
		if errors.Is(err, ErrNoPrediction) {
			writeError(w, http.StatusNotFound, noPredictionReason)
			return
		}
		writeJSON(w, http.StatusOK, p)

	case ActionInvalidate:
		s.Invalidate(req.PageID)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})

	default:
		writeError(w, http.StatusBadRequest, ErrUnknownAction.Error()+": "+req.Action)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"error": reason})
}
