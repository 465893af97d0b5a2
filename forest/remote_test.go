package forest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazyhaar/phishsense/feature"
)

func fullVector() feature.Vector {
	v := feature.Vector{}
	for _, name := range feature.V1.Names() {
		v[name] = 1
	}
	return v
}

func TestRemotePredict(t *testing.T) {
	// WHAT: The remote client sends the vector in schema order and selects
	// the configured output index.
	// WHY: The tensor runtime has no feature names; order is the contract.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req remoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		row := req.Inputs["features"]
		if len(row) != len(feature.V1.Fields) {
			http.Error(w, "wrong input width", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(remoteResponse{Outputs: [][]float64{{0.05, 0.95}}})
	}))
	defer srv.Close()

	rm := NewRemote(srv.URL, feature.V1)
	p, phishing, err := rm.Classify(fullVector())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if p != 0.95 || !phishing {
		t.Errorf("Classify = (%v, %v), want (0.95, true)", p, phishing)
	}
}

func TestRemotePredict_MissingFeatureFailsBeforeRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	rm := NewRemote(srv.URL, feature.V1)
	if _, err := rm.Predict(feature.Vector{"url_length": 10}); err == nil {
		t.Fatal("expected error for incomplete vector")
	}
	if called {
		t.Error("runtime was called despite invalid vector")
	}
}

func TestRemotePredict_RuntimeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(remoteResponse{Error: "session not initialised"})
	}))
	defer srv.Close()

	rm := NewRemote(srv.URL, feature.V1)
	if _, err := rm.Predict(fullVector()); err == nil {
		t.Fatal("expected runtime error to propagate")
	}
}
