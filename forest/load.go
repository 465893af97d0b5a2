package forest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hazyhaar/phishsense/feature"
)

// artifact is the on-disk JSON shape of a trained forest. Trees are nested
// node objects; loading flattens them into the arena.
type artifact struct {
	Version   string         `json:"version"`
	Threshold *float64       `json:"threshold"`
	Trees     []artifactNode `json:"trees"`
}

type artifactNode struct {
	Feature   string        `json:"feature,omitempty"`
	Threshold float64       `json:"threshold,omitempty"`
	Left      *artifactNode `json:"left,omitempty"`
	Right     *artifactNode `json:"right,omitempty"`
	Value     *[2]float64   `json:"value,omitempty"`
}

// LoadFile reads and validates a model artifact from path.
func LoadFile(path string, schema feature.Schema) (*Forest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("forest: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, schema)
}

// Load decodes a model artifact for use with schema: the forest must be
// non-empty, every node structurally complete, and no tree may exceed the
// traversal depth bound.
func Load(r io.Reader, schema feature.Schema) (*Forest, error) {
	var art artifact
	if err := json.NewDecoder(r).Decode(&art); err != nil {
		return nil, fmt.Errorf("forest: decode artifact: %w", err)
	}
	if len(art.Trees) == 0 {
		return nil, fmt.Errorf("%w: no trees", ErrMalformedModel)
	}

	threshold := DefaultThreshold
	if art.Threshold != nil {
		t := *art.Threshold
		if t <= 0 || t >= 1 {
			return nil, fmt.Errorf("%w: threshold %v outside (0,1)", ErrMalformedModel, t)
		}
		threshold = t
	}

	out := &Forest{
		schema:    schema,
		threshold: threshold,
		roots:     make([]int32, 0, len(art.Trees)),
	}
	for i := range art.Trees {
		root, err := out.flatten(&art.Trees[i], 0)
		if err != nil {
			return nil, fmt.Errorf("forest: tree %d: %w", i, err)
		}
		out.roots = append(out.roots, root)
	}
	return out, nil
}

// flatten appends the subtree rooted at n to the arena in preorder, so every
// child index is strictly greater than its parent's.
func (f *Forest) flatten(n *artifactNode, depth int) (int32, error) {
	if depth >= maxDepth {
		return 0, fmt.Errorf("%w: depth > %d", ErrMalformedModel, maxDepth)
	}

	idx := int32(len(f.nodes))

	if n.Value != nil {
		f.nodes = append(f.nodes, Node{Leaf: true, Value: *n.Value})
		return idx, nil
	}

	if n.Feature == "" || n.Left == nil || n.Right == nil {
		return 0, fmt.Errorf("%w: internal node needs feature, left and right", ErrMalformedModel)
	}

	// A feature outside the schema is not rejected here: the contract is
	// that prediction against a vector lacking it fails with
	// feature.ErrMissingFeature, never a silent zero default.
	f.nodes = append(f.nodes, Node{Feature: n.Feature, Threshold: n.Threshold})

	left, err := f.flatten(n.Left, depth+1)
	if err != nil {
		return 0, err
	}
	right, err := f.flatten(n.Right, depth+1)
	if err != nil {
		return 0, err
	}
	f.nodes[idx].Left = left
	f.nodes[idx].Right = right
	return idx, nil
}
