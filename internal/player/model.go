package player

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kballard/go-shellquote"

	"diggdaily/internal/app"
	"diggdaily/internal/domain"
	"diggdaily/internal/theme"
)

type sessionState int

const (
	stateLoading sessionState = iota
	statePlayer
	stateError
)

type resolvedMsg struct {
	episode domain.Episode
}

type resolveFailedMsg struct {
	err error
}

type playerExitMsg struct {
	err error
}

type savedMsg struct {
	path string
	err  error
}

type model struct {
	ctx      context.Context
	app      *app.App
	theme    theme.Theme
	spinner  spinner.Model
	state    sessionState
	episode  domain.Episode
	err      error
	status   string
	quitting bool
}

func newModel(ctx context.Context, application *app.App) model {
	th := theme.ForName(application.Config().ColorTheme)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = th.Spinner

	return model{
		ctx:     ctx,
		app:     application,
		theme:   th,
		spinner: sp,
		state:   stateLoading,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.resolveCmd(false))
}

func (m model) resolveCmd(force bool) tea.Cmd {
	return func() tea.Msg {
		ep, err := m.app.Resolve(m.ctx, force)
		if err != nil {
			return resolveFailedMsg{err: err}
		}
		return resolvedMsg{episode: ep}
	}
}

func (m model) saveCmd(ep domain.Episode) tea.Cmd {
	return func() tea.Msg {
		path, err := m.app.SaveAudio(m.ctx, ep)
		return savedMsg{path: path, err: err}
	}
}

func (m model) playCmd() tea.Cmd {
	playerCommand := m.app.Config().PlayerCommand
	args, err := shellquote.Split(playerCommand)
	if err != nil || len(args) == 0 {
		return func() tea.Msg {
			return playerExitMsg{err: fmt.Errorf("invalid player command: %q", playerCommand)}
		}
	}
	args = append(args, m.episode.AudioURL)
	cmd := exec.CommandContext(m.ctx, args[0], args[1:]...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return playerExitMsg{err: err}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if m.state == stateLoading {
				return m, nil
			}
			m.state = stateLoading
			m.status = ""
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, m.resolveCmd(true))
		case "p", "enter":
			if m.state != statePlayer {
				return m, nil
			}
			m.status = "launching player"
			return m, m.playCmd()
		case "s":
			if m.state != statePlayer {
				return m, nil
			}
			m.status = "saving audio"
			return m, m.saveCmd(m.episode)
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resolvedMsg:
		m.state = statePlayer
		m.episode = msg.episode
		m.err = nil
		return m, nil

	case resolveFailedMsg:
		m.state = stateError
		m.err = msg.err
		return m, nil

	case playerExitMsg:
		if msg.err != nil {
			m.status = "player failed: " + msg.err.Error()
		} else {
			m.status = "playback finished"
		}
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
		} else {
			m.status = "saved to " + msg.path
		}
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.Header.Render("Digg Daily"))
	b.WriteString("\n\n")

	switch m.state {
	case stateLoading:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.theme.Message.Render("Resolving the latest episode..."))
		b.WriteString("\n\n")
		b.WriteString(m.theme.Dim.Render("[q] quit"))

	case stateError:
		b.WriteString(m.theme.Error.Render("Could not resolve an episode."))
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(m.theme.Dim.Render(m.err.Error()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.renderKeys("[r] retry", "[q] quit"))

	case statePlayer:
		b.WriteString(m.theme.Title.Render(m.episode.Title))
		b.WriteString("\n")
		if m.episode.HasDate() {
			b.WriteString(m.theme.Date.Render(m.episode.Date.Format("Monday, January 2, 2006")))
			b.WriteString("\n")
		}
		b.WriteString(m.theme.Dim.Render(m.episode.AudioURL))
		b.WriteString("\n")
		if m.status != "" {
			b.WriteString("\n")
			b.WriteString(m.theme.Message.Render(m.status))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.renderKeys("[p] play", "[s] save", "[r] refresh", "[q] quit"))
	}

	b.WriteString("\n")
	return b.String()
}

func (m model) renderKeys(keys ...string) string {
	rendered := make([]string, 0, len(keys))
	for _, k := range keys {
		rendered = append(rendered, m.theme.Key.Render(k))
	}
	return strings.Join(rendered, "  ")
}
