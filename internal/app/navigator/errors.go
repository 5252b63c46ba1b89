package navigator

import (
	"errors"

	"github.com/okian/dltscope/internal/app/acquire"
)

var (
	// ErrExhausted is returned once no further batch can be shown.
	ErrExhausted   = acquire.ErrExhausted
	ErrNoDetailURL = errors.New("cannot build detail url")
)
