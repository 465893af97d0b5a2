package scoring

import "errors"

// ErrNoPrediction is returned when no prediction is cached for a page.
var ErrNoPrediction = errors.New("scoring: no stored prediction")

// ErrUnknownAction is returned for an unrecognised request action.
var ErrUnknownAction = errors.New("scoring: unknown action")
