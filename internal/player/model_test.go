package player

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"diggdaily/internal/app"
	"diggdaily/internal/config"
	"diggdaily/internal/digg"
	"diggdaily/internal/domain"
	"diggdaily/internal/storage"
)

type stubSource struct {
	raws []digg.RawEpisode
	err  error
}

func (s *stubSource) Episodes(ctx context.Context) ([]digg.RawEpisode, error) {
	return s.raws, s.err
}

func newTestModel(t *testing.T, source *stubSource) model {
	t.Helper()
	base := t.TempDir()
	db, err := storage.Open(filepath.Join(base, "state.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	application := app.NewWithDependencies(config.Defaults(), filepath.Join(base, "config.yaml"), db, app.Dependencies{Source: source})
	t.Cleanup(func() { application.Close() })
	return newModel(context.Background(), application)
}

func testEpisode() domain.Episode {
	return domain.Episode{
		ID:          "ep-1",
		Number:      56,
		Title:       "Digg Daily for August 24, 2026",
		Date:        time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC),
		PublishedAt: time.Date(2026, time.August, 24, 9, 0, 0, 0, time.UTC),
		AudioURL:    "https://cdn.example.com/prod/episodes/ep-1/final.mp3",
	}
}

func keyMsg(key string) tea.KeyMsg {
	if key == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func TestModelStartsLoading(t *testing.T) {
	m := newTestModel(t, &stubSource{})
	if m.state != stateLoading {
		t.Fatalf("initial state = %d, want loading", m.state)
	}
	if m.Init() == nil {
		t.Fatal("Init() must schedule the initial resolve")
	}
	if !strings.Contains(m.View(), "Resolving") {
		t.Error("loading view missing progress message")
	}
}

func TestResolvedMsgEntersPlayerState(t *testing.T) {
	m := newTestModel(t, &stubSource{})

	updated, _ := m.Update(resolvedMsg{episode: testEpisode()})
	mm := updated.(model)

	if mm.state != statePlayer {
		t.Fatalf("state = %d, want player", mm.state)
	}
	view := mm.View()
	for _, want := range []string{
		"Digg Daily for August 24, 2026",
		"[p] play",
		"[s] save",
		"[r] refresh",
		"[q] quit",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("player view missing %q", want)
		}
	}
}

func TestResolveFailedShowsError(t *testing.T) {
	m := newTestModel(t, &stubSource{})

	updated, _ := m.Update(resolveFailedMsg{err: errors.New("upstream unreachable")})
	mm := updated.(model)

	if mm.state != stateError {
		t.Fatalf("state = %d, want error", mm.state)
	}
	view := mm.View()
	if !strings.Contains(view, "upstream unreachable") {
		t.Error("error view missing failure detail")
	}
	if !strings.Contains(view, "[r] retry") {
		t.Error("error view missing retry hint")
	}
}

func TestRefreshKeyRestartsResolve(t *testing.T) {
	m := newTestModel(t, &stubSource{})
	m.state = statePlayer
	m.episode = testEpisode()

	updated, cmd := m.Update(keyMsg("r"))
	mm := updated.(model)

	if mm.state != stateLoading {
		t.Fatalf("state after refresh = %d, want loading", mm.state)
	}
	if cmd == nil {
		t.Fatal("refresh must schedule a forced resolve")
	}
}

func TestRefreshIgnoredWhileLoading(t *testing.T) {
	m := newTestModel(t, &stubSource{})

	_, cmd := m.Update(keyMsg("r"))
	if cmd != nil {
		t.Fatal("refresh during loading must be a no-op")
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t, &stubSource{})

	updated, cmd := m.Update(keyMsg("q"))
	mm := updated.(model)

	if !mm.quitting {
		t.Fatal("q must mark the model as quitting")
	}
	if cmd == nil {
		t.Fatal("q must return the quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q must quit the program")
	}
	if mm.View() != "" {
		t.Error("quitting view must be empty")
	}
}

func TestPlayKeyRequiresPlayerState(t *testing.T) {
	m := newTestModel(t, &stubSource{})

	if _, cmd := m.Update(keyMsg("p")); cmd != nil {
		t.Fatal("play during loading must be a no-op")
	}
	if _, cmd := m.Update(keyMsg("enter")); cmd != nil {
		t.Fatal("enter during loading must be a no-op")
	}
}

func TestSavedMsgUpdatesStatus(t *testing.T) {
	m := newTestModel(t, &stubSource{})
	m.state = statePlayer
	m.episode = testEpisode()

	updated, _ := m.Update(savedMsg{path: "/tmp/audio/episode.mp3"})
	mm := updated.(model)

	if !strings.Contains(mm.View(), "/tmp/audio/episode.mp3") {
		t.Error("player view missing saved path")
	}
}

func TestPlayerExitFailureShownInStatus(t *testing.T) {
	m := newTestModel(t, &stubSource{})
	m.state = statePlayer
	m.episode = testEpisode()

	updated, _ := m.Update(playerExitMsg{err: errors.New("exit status 2")})
	mm := updated.(model)

	if !strings.Contains(mm.status, "exit status 2") {
		t.Errorf("status = %q, want player failure", mm.status)
	}
}

func TestResolveCmdDeliversEpisode(t *testing.T) {
	source := &stubSource{raws: []digg.RawEpisode{{
		ID:          "ep-9",
		Number:      9,
		FileName:    "DiggDaily_final.mp3",
		State:       "PUBLISHED",
		PublishedAt: time.Date(2026, time.August, 24, 9, 0, 0, 0, time.UTC),
	}}}
	m := newTestModel(t, source)

	msg := m.resolveCmd(false)()
	resolved, ok := msg.(resolvedMsg)
	if !ok {
		t.Fatalf("message = %T, want resolvedMsg", msg)
	}
	if resolved.episode.ID != "ep-9" {
		t.Errorf("episode = %s, want ep-9", resolved.episode.ID)
	}
}

func TestResolveCmdReportsFailure(t *testing.T) {
	m := newTestModel(t, &stubSource{err: errors.New("boom")})

	msg := m.resolveCmd(false)()
	if _, ok := msg.(resolveFailedMsg); !ok {
		t.Fatalf("message = %T, want resolveFailedMsg", msg)
	}
}
