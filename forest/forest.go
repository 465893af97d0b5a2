// Package forest evaluates a serialized ensemble of decision trees against a
// feature vector and produces a phishing probability.
//
// The forest is loaded once, immutable afterwards, and safe to share across
// concurrent predictions without locking. Hot reload goes through Handle,
// which swaps snapshots atomically so in-flight predictions keep the model
// they started with.
package forest

import (
	"fmt"

	"github.com/hazyhaar/phishsense/feature"
)

// maxDepth bounds tree traversal so an adversarial or corrupted artifact
// cannot walk forever.
const maxDepth = 64

// DefaultThreshold is the decision boundary used when the model artifact
// does not carry one. It is an operating point tuned for precision, not the
// structural 0.5 of a vote average.
const DefaultThreshold = 0.9

// Node is one arena slot: either a leaf carrying the class-value pair or an
// internal split. Children are arena indexes, always greater than the
// parent's, so the tree is acyclic by construction.
type Node struct {
	Leaf      bool
	Feature   string
	Threshold float64
	Left      int32
	Right     int32
	Value     [2]float64
}

// Forest is an ordered sequence of decision trees over a shared node arena.
type Forest struct {
	schema    feature.Schema
	nodes     []Node
	roots     []int32
	threshold float64
}

// Len returns the number of trees.
func (f *Forest) Len() int { return len(f.roots) }

// Threshold returns the operating decision boundary.
func (f *Forest) Threshold() float64 { return f.threshold }

// Schema returns the feature schema the forest was validated against.
func (f *Forest) Schema() feature.Schema { return f.schema }

// Predict returns the ensemble phishing probability in [0,1]: the mean of
// per-tree class-1 votes. A feature referenced by any tree but absent from
// v aborts the prediction with feature.ErrMissingFeature.
func (f *Forest) Predict(v feature.Vector) (float64, error) {
	if f == nil || len(f.roots) == 0 {
		return 0, ErrModelNotReady
	}
	votes := 0.0
	for i, root := range f.roots {
		vote, err := f.treeVote(root, v)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		votes += vote
	}
	return votes / float64(len(f.roots)), nil
}

// Classify predicts and applies the operating threshold.
func (f *Forest) Classify(v feature.Vector) (probability float64, isPhishing bool, err error) {
	p, err := f.Predict(v)
	if err != nil {
		return 0, false, err
	}
	return p, p >= f.threshold, nil
}

// treeVote descends iteratively from root to a leaf. At an internal node,
// value <= threshold goes left, else right. The leaf votes class 1 only when
// value[1] is strictly greater than value[0]; ties break toward class 0.
func (f *Forest) treeVote(root int32, v feature.Vector) (float64, error) {
	idx := root
	for depth := 0; depth < maxDepth; depth++ {
		n := &f.nodes[idx]
		if n.Leaf {
			if n.Value[1] > n.Value[0] {
				return 1, nil
			}
			return 0, nil
		}
		val, ok := v[n.Feature]
		if !ok {
			return 0, fmt.Errorf("%w: %s", feature.ErrMissingFeature, n.Feature)
		}
		if val <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
	return 0, fmt.Errorf("%w: depth > %d", ErrMalformedModel, maxDepth)
}
