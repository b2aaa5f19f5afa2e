package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run drives the browser on the terminal until the user quits or ctx is
// cancelled. The session is closed on return.
func Run(ctx context.Context, cfg Config) error {
	defer cfg.Session.Close()

	p := tea.NewProgram(NewModel(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
