package browser

import "errors"

var (
	ErrLaunch   = errors.New("browser launch failed")
	ErrTimeout  = errors.New("browser step timed out")
	ErrNotFound = errors.New("element not found")
)
