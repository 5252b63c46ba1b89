package acquire

import "errors"

// ErrExhausted reports that a source has no further pages.
var ErrExhausted = errors.New("source exhausted")
