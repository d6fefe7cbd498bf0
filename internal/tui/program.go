package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// Run starts the console and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	model := NewModel(ctx, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Silence external logs (WARN/ERRO) during TUI to avoid corrupting the view.
	prevOut := logrus.StandardLogger().Out
	logrus.SetOutput(io.Discard)
	defer logrus.SetOutput(prevOut)

	_, err := p.Run()
	return err
}
