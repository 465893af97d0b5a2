// Package feature defines the shared feature schema for phishing page
// classification and the static (URL-derived) feature extractor.
//
// The schema is the contract between the offline dataset crawler, the
// trained model, and the online scoring service: every component consumes
// features in schema order, under schema names. Nothing may reorder or
// rename fields independently of a model version.
package feature

import (
	"fmt"
	"math"
)

// Kind tells how a feature is computed.
type Kind int

const (
	// Static features are a pure function of the URL string.
	Static Kind = iota
	// Dynamic features are measured from a loaded, instrumented page.
	Dynamic
)

// Field is one entry of the schema: a feature name and its computation kind.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the ordered, immutable list of features for one model version.
type Schema struct {
	Version string
	Fields  []Field
}

// V1 is the canonical schema: 10 static + 10 dynamic features, matching the
// offline dataset column order. Earlier 4- and 7-feature variants are
// deprecated; models referencing them still work because trees only read
// the features they name.
var V1 = Schema{
	Version: "v1",
	Fields: []Field{
		{"url_length", Static},
		{"dot_count", Static},
		{"has_at", Static},
		{"special_char_count", Static},
		{"entropy", Static},
		{"suspicious_keywords", Static},
		{"subdomain_length", Static},
		{"is_free_hosting", Static},
		{"has_hyphen", Static},
		{"is_ip", Static},
		{"eval_count", Dynamic},
		{"fetch_count", Dynamic},
		{"xhr_count", Dynamic},
		{"ws_count", Dynamic},
		{"script_injection_count", Dynamic},
		{"event_listener_count", Dynamic},
		{"dom_mutation_count", Dynamic},
		{"attribute_mutation_count", Dynamic},
		{"page_load_time", Dynamic},
		{"memory_used", Dynamic},
	},
}

// Names returns the feature names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether name is part of the schema.
func (s Schema) Has(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Header returns the dataset column order: url, features in schema order,
// label. This is the exact header of the output CSV.
func (s Schema) Header() []string {
	h := make([]string, 0, len(s.Fields)+2)
	h = append(h, "url")
	h = append(h, s.Names()...)
	h = append(h, "label")
	return h
}

// Vector maps feature names to values for one URL/page. A Vector is created
// per extraction and consumed once: either persisted as a dataset row or
// fed to the inference engine.
type Vector map[string]float64

// Validate checks the vector against the schema: every field present, every
// value a finite number. A missing field is a hard error, never a default.
func (v Vector) Validate(s Schema) error {
	for _, f := range s.Fields {
		val, ok := v[f.Name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingFeature, f.Name)
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("%w: %s = %v", ErrInvalidValue, f.Name, val)
		}
	}
	return nil
}

// Row returns the vector's values in schema order. Fails like Validate on
// missing or non-finite entries.
func (v Vector) Row(s Schema) ([]float64, error) {
	if err := v.Validate(s); err != nil {
		return nil, err
	}
	row := make([]float64, len(s.Fields))
	for i, f := range s.Fields {
		row[i] = v[f.Name]
	}
	return row, nil
}

// Merge copies all entries of src into v and returns v.
func (v Vector) Merge(src Vector) Vector {
	for k, val := range src {
		v[k] = val
	}
	return v
}
