package tui

import (
	"time"

	"github.com/bassamadnan/tmail/gmail"
)

// ResultsLoadedMsg carries a finished search.
type ResultsLoadedMsg struct{ Result *gmail.SearchResult }

// A message to indicate an error occurred, typically from a command.
type ErrorMsg struct{ Err error }

// Error makes it compatible with the error interface.
func (e ErrorMsg) Error() string { return e.Err.Error() }

// A message for timed status updates.
type StatusTickMsg struct{ Time time.Time }

// Message to clear a temporary status message after a timeout.
type clearTempStatusMsg struct{}
