package probe

import (
	"context"

	"github.com/hazyhaar/phishsense/feature"
)

// Counters are the raw instrumentation reads for one page.
type Counters struct {
	Eval           int
	Fetch          int
	XHR            int
	WS             int
	Scripts        int
	EventListeners int
	DOMMutations   int
	AttrMutations  int
	PageLoadTime   float64 // milliseconds since DOM-ready at measurement
	MemoryUsed     float64 // usedJSHeapSize, 0 when the runtime hides it
}

// Vector maps the counters onto the dynamic fields of the schema.
func (c Counters) Vector() feature.Vector {
	return feature.Vector{
		"eval_count":               float64(c.Eval),
		"fetch_count":              float64(c.Fetch),
		"xhr_count":                float64(c.XHR),
		"ws_count":                 float64(c.WS),
		"script_injection_count":   float64(c.Scripts),
		"event_listener_count":     float64(c.EventListeners),
		"dom_mutation_count":       float64(c.DOMMutations),
		"attribute_mutation_count": float64(c.AttrMutations),
		"page_load_time":           c.PageLoadTime,
		"memory_used":              c.MemoryUsed,
	}
}

// ExtractDynamic runs the full dynamic pipeline for url in a fresh session:
// instrument, navigate, observe the mutation window, read counters. The
// returned vector holds exactly the dynamic schema fields.
func (p *Prober) ExtractDynamic(ctx context.Context, url string) (feature.Vector, error) {
	s, err := p.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if err := s.Navigate(ctx, url); err != nil {
		return nil, err
	}

	dom, attr, err := s.Observe(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.Counters(ctx)
	if err != nil {
		return nil, err
	}
	c.DOMMutations = dom
	c.AttrMutations = attr

	return c.Vector(), nil
}
