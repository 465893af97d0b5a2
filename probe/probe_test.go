package probe

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/phishsense/feature"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.defaults()
	if cfg.NavTimeout != 20*time.Second {
		t.Errorf("NavTimeout = %v, want 20s", cfg.NavTimeout)
	}
	if cfg.ObserveWindow != 5*time.Second {
		t.Errorf("ObserveWindow = %v, want 5s", cfg.ObserveWindow)
	}
	if cfg.Logger == nil {
		t.Error("Logger default not applied")
	}
}

func TestCountersVector_CoversDynamicSchema(t *testing.T) {
	// WHAT: Counters.Vector yields exactly the dynamic fields of the schema.
	// WHY: A missed field is a hard prediction error downstream, not a 0.
	v := Counters{
		Eval: 1, Fetch: 2, XHR: 3, WS: 4, Scripts: 5, EventListeners: 6,
		DOMMutations: 7, AttrMutations: 8, PageLoadTime: 9.5, MemoryUsed: 10,
	}.Vector()

	dynamic := 0
	for _, f := range feature.V1.Fields {
		if f.Kind != feature.Dynamic {
			continue
		}
		dynamic++
		if _, ok := v[f.Name]; !ok {
			t.Errorf("dynamic field %s missing from Counters.Vector", f.Name)
		}
	}
	if len(v) != dynamic {
		t.Errorf("vector has %d fields, schema has %d dynamic fields", len(v), dynamic)
	}

	if v["dom_mutation_count"] != 7 || v["attribute_mutation_count"] != 8 {
		t.Error("mutation counters mapped to wrong fields")
	}
}

func TestIsContextTorn(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("Execution context was destroyed."), true},
		{errors.New("Cannot find context with specified id"), true},
		{errors.New("net::ERR_NAME_NOT_RESOLVED"), false},
		{errors.New("eval js error: ReferenceError"), false},
	}
	for _, tc := range cases {
		if got := isContextTorn(tc.err); got != tc.want {
			t.Errorf("isContextTorn(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestInstrumentJSInstallsAllCounters(t *testing.T) {
	// WHAT: The embedded script defines every counter the reader expects.
	// WHY: A typo in one global silently zeroes a feature for every page.
	for _, name := range []string{
		"__ps_evalCount", "__ps_fetchCount", "__ps_xhrCount", "__ps_wsCount",
		"__ps_scriptCount", "__ps_listenerCount",
	} {
		if !strings.Contains(instrumentJS, name) {
			t.Errorf("instrument.js does not define %s", name)
		}
		if !strings.Contains(countersJS, name) {
			t.Errorf("counters read does not reference %s", name)
		}
	}
}
