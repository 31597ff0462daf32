package scrape

import (
	"errors"
	"fmt"
)

// ErrRunTimeout is returned when a provider run does not reach a terminal
// state within the configured maximum wait. The run is abandoned, not
// cancelled — partial provider runs cannot be resumed.
var ErrRunTimeout = errors.New("provider run timed out")

// ErrCycleBusy is returned when another invocation already holds the cycle
// lock. The caller should simply try again later.
var ErrCycleBusy = errors.New("a scrape cycle is already running")

// RunFailedError reports a provider run that reached a non-success terminal
// state (ABORTED, FAILED, TIMED-OUT on the provider side, ...).
type RunFailedError struct {
	Status string
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("provider run ended with status %s", e.Status)
}
