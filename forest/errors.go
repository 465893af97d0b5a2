package forest

import "errors"

// ErrModelNotReady is returned when a prediction is requested before a model
// has been loaded. It is surfaced to the caller as an explicit error, never
// a crash.
var ErrModelNotReady = errors.New("forest: model not loaded")

// ErrMalformedModel is returned when a model artifact fails structural
// validation: empty forest, dangling child index, excessive depth, or a
// feature name outside the schema.
var ErrMalformedModel = errors.New("forest: malformed model artifact")
