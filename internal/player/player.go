// Package player drives the interactive terminal session around the current
// episode.
package player

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"diggdaily/internal/app"
)

// Run starts the interactive player session.
func Run(ctx context.Context, application *app.App) error {
	program := tea.NewProgram(newModel(ctx, application), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
