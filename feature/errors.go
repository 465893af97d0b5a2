package feature

import "errors"

// ErrMissingFeature is returned when a vector lacks a feature the schema or
// a model references. It aborts the single prediction; there is no silent
// zero default.
var ErrMissingFeature = errors.New("feature: missing feature")

// ErrInvalidValue is returned when a feature value is NaN or infinite.
var ErrInvalidValue = errors.New("feature: value is not a finite number")

// ErrBadURL is returned when static extraction cannot parse the input URL.
var ErrBadURL = errors.New("feature: unparseable URL")
