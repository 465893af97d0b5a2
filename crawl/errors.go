package crawl

import "errors"

// ErrNoURLColumn is returned when an input CSV has no url column.
var ErrNoURLColumn = errors.New("crawl: input has no url column")

// ErrUnreachable is returned when a URL answers on neither scheme within
// the normalization budget.
var ErrUnreachable = errors.New("crawl: url unreachable")

// ErrCorruptOutput is returned when the existing output CSV cannot be
// replayed, so resuming would produce an inconsistent dataset.
var ErrCorruptOutput = errors.New("crawl: output file corrupt")
