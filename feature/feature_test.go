package feature

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func completeVector() Vector {
	v := Vector{}
	for _, f := range V1.Fields {
		v[f.Name] = 1
	}
	return v
}

func TestHeaderShape(t *testing.T) {
	h := V1.Header()
	if len(h) != len(V1.Fields)+2 {
		t.Fatalf("header has %d columns, want %d", len(h), len(V1.Fields)+2)
	}
	if h[0] != "url" || h[len(h)-1] != "label" {
		t.Errorf("header bounds = %q ... %q, want url ... label", h[0], h[len(h)-1])
	}
	if diff := cmp.Diff(V1.Names(), h[1:len(h)-1]); diff != "" {
		t.Errorf("feature columns out of schema order (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	if err := completeVector().Validate(V1); err != nil {
		t.Errorf("complete vector rejected: %v", err)
	}

	v := completeVector()
	delete(v, "entropy")
	if err := v.Validate(V1); !errors.Is(err, ErrMissingFeature) {
		t.Errorf("missing field err = %v, want ErrMissingFeature", err)
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		v := completeVector()
		v["page_load_time"] = bad
		if err := v.Validate(V1); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("value %v: err = %v, want ErrInvalidValue", bad, err)
		}
	}
}

func TestRowFollowsSchemaOrder(t *testing.T) {
	v := completeVector()
	v["url_length"] = 42
	v["memory_used"] = 7

	row, err := v.Row(V1)
	if err != nil {
		t.Fatal(err)
	}
	if row[0] != 42 {
		t.Errorf("row[0] = %v, want url_length first", row[0])
	}
	if row[len(row)-1] != 7 {
		t.Errorf("row[last] = %v, want memory_used last", row[len(row)-1])
	}
}

func TestMergeOverwrites(t *testing.T) {
	dst := Vector{"url_length": 1, "entropy": 2}
	got := dst.Merge(Vector{"entropy": 9, "eval_count": 3})
	want := Vector{"url_length": 1, "entropy": 9, "eval_count": 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}
