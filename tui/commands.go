package tui

import (
	"context"
	"time"

	"github.com/bassamadnan/tmail/gmail"
	tea "github.com/charmbracelet/bubbletea"
)

// Loader runs the search the browser displays.
type Loader func(ctx context.Context) (*gmail.SearchResult, error)

// loadResultsCmd runs the loader off the update loop and reports the outcome.
func loadResultsCmd(ctx context.Context, load Loader) tea.Cmd {
	return func() tea.Msg {
		res, err := load(ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return ResultsLoadedMsg{Result: res}
	}
}

// statusTickCmd creates a ticker for updating the status bar periodically.
func statusTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return StatusTickMsg{Time: t}
	})
}
