package forest

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/hazyhaar/phishsense/feature"
)

func loadForest(t *testing.T, artifact string) *Forest {
	t.Helper()
	f, err := Load(strings.NewReader(artifact), feature.V1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return f
}

const singleTree = `{
	"version": "v1",
	"trees": [
		{"feature": "x", "threshold": 5,
		 "left":  {"value": [0, 10]},
		 "right": {"value": [10, 0]}}
	]
}`

func TestTreeTraversal(t *testing.T) {
	// WHAT: value <= threshold descends left, else right.
	// WHY: The split convention must match the trainer exactly; flipping it
	// inverts every decision near a boundary.
	f := loadForest(t, singleTree)

	p, err := f.Predict(feature.Vector{"x": 3})
	if err != nil {
		t.Fatalf("Predict(x=3): %v", err)
	}
	if p != 1 {
		t.Errorf("Predict(x=3) = %v, want 1 (left leaf votes class 1)", p)
	}

	p, err = f.Predict(feature.Vector{"x": 7})
	if err != nil {
		t.Fatalf("Predict(x=7): %v", err)
	}
	if p != 0 {
		t.Errorf("Predict(x=7) = %v, want 0 (right leaf votes class 0)", p)
	}
}

func TestTreeTraversal_BoundaryGoesLeft(t *testing.T) {
	f := loadForest(t, singleTree)
	p, err := f.Predict(feature.Vector{"x": 5})
	if err != nil {
		t.Fatalf("Predict(x=5): %v", err)
	}
	if p != 1 {
		t.Errorf("Predict(x=5) = %v, want 1 (<= goes left)", p)
	}
}

func TestLeafTieBreaksTowardBenign(t *testing.T) {
	// WHAT: A leaf with value[0] == value[1] votes class 0.
	// WHY: Only a strictly greater phishing score may vote class 1.
	f := loadForest(t, `{"trees": [{"value": [5, 5]}]}`)
	p, err := f.Predict(feature.Vector{})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if p != 0 {
		t.Errorf("tie vote = %v, want 0", p)
	}
}

func TestEnsembleAveraging(t *testing.T) {
	// WHAT: Three trees voting {1,1,0} yield probability 2/3.
	f := loadForest(t, `{
		"trees": [
			{"value": [0, 1]},
			{"value": [0, 1]},
			{"value": [1, 0]}
		]
	}`)
	p, err := f.Predict(feature.Vector{})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if math.Abs(p-2.0/3.0) > 1e-12 {
		t.Errorf("probability = %v, want 2/3", p)
	}
}

func TestMissingFeatureAbortsPrediction(t *testing.T) {
	// WHAT: A referenced feature absent from the vector is a typed error.
	// WHY: Silently defaulting to 0 would classify with garbage input.
	f := loadForest(t, singleTree)
	_, err := f.Predict(feature.Vector{"y": 1})
	if !errors.Is(err, feature.ErrMissingFeature) {
		t.Fatalf("expected feature.ErrMissingFeature, got %v", err)
	}
}

func TestEmptyForestRejectedAtLoad(t *testing.T) {
	_, err := Load(strings.NewReader(`{"trees": []}`), feature.V1)
	if !errors.Is(err, ErrMalformedModel) {
		t.Fatalf("expected ErrMalformedModel, got %v", err)
	}
}

func TestThresholdFromArtifact(t *testing.T) {
	f := loadForest(t, `{"threshold": 0.58, "trees": [{"value": [0, 1]}]}`)
	if f.Threshold() != 0.58 {
		t.Errorf("Threshold() = %v, want 0.58", f.Threshold())
	}

	p, phishing, err := f.Classify(feature.Vector{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if p != 1 || !phishing {
		t.Errorf("Classify = (%v, %v), want (1, true)", p, phishing)
	}
}

func TestThresholdDefault(t *testing.T) {
	f := loadForest(t, `{"trees": [{"value": [0, 1]}]}`)
	if f.Threshold() != DefaultThreshold {
		t.Errorf("Threshold() = %v, want %v", f.Threshold(), DefaultThreshold)
	}
}

func TestMalformedArtifacts(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"internal without children", `{"trees": [{"feature": "x", "threshold": 1}]}`},
		{"threshold out of range", `{"threshold": 1.5, "trees": [{"value": [0, 1]}]}`},
		{"not json", `nope`},
	}
	for _, tc := range cases {
		if _, err := Load(strings.NewReader(tc.in), feature.V1); err == nil {
			t.Errorf("%s: expected error, got none", tc.name)
		}
	}
}

func TestDepthBoundRejectsDeepTree(t *testing.T) {
	// WHAT: An artifact deeper than the traversal bound fails at load.
	// WHY: Traversal must never walk an unbounded chain.
	var b strings.Builder
	b.WriteString(`{"trees": [`)
	for i := 0; i < maxDepth+1; i++ {
		b.WriteString(`{"feature": "x", "threshold": 1, "right": {"value": [1, 0]}, "left": `)
	}
	b.WriteString(`{"value": [0, 1]}`)
	for i := 0; i < maxDepth+1; i++ {
		b.WriteString(`}`)
	}
	b.WriteString(`]}`)

	_, err := Load(strings.NewReader(b.String()), feature.V1)
	if !errors.Is(err, ErrMalformedModel) {
		t.Fatalf("expected ErrMalformedModel, got %v", err)
	}
}

func TestHandleLifecycle(t *testing.T) {
	// WHAT: An empty handle reports ErrModelNotReady; Swap installs a model
	// without touching callers holding the old snapshot.
	h := NewHandle(nil)
	if _, err := h.Predict(feature.Vector{}); !errors.Is(err, ErrModelNotReady) {
		t.Fatalf("expected ErrModelNotReady, got %v", err)
	}

	old := loadForest(t, `{"trees": [{"value": [1, 0]}]}`)
	h.Swap(old)
	snapshot := h.Snapshot()

	next := loadForest(t, `{"trees": [{"value": [0, 1]}]}`)
	if prev := h.Swap(next); prev != old {
		t.Errorf("Swap returned %p, want previous snapshot %p", prev, old)
	}

	// The retained snapshot still answers with the old model.
	if p, _ := snapshot.Predict(feature.Vector{}); p != 0 {
		t.Errorf("old snapshot predict = %v, want 0", p)
	}
	if p, _ := h.Predict(feature.Vector{}); p != 1 {
		t.Errorf("handle predict after swap = %v, want 1", p)
	}
}
