package probe

import "errors"

// ErrNotStarted is returned when a session is requested before Start.
var ErrNotStarted = errors.New("probe: browser not started")

// ErrNavigationTimeout is returned when a page fails to load within the
// navigation budget. The URL is skipped, never retried.
var ErrNavigationTimeout = errors.New("probe: navigation timed out")

// ErrContextTorn is returned when an instrumentation read raced a
// navigation and the one permitted retry also failed.
var ErrContextTorn = errors.New("probe: execution context torn down")
