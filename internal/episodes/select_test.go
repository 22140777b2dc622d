package episodes

import (
	"errors"
	"testing"
	"time"

	"diggdaily/internal/digg"
)

func published(id string, num int, at time.Time) digg.RawEpisode {
	return digg.RawEpisode{
		ID:          id,
		Number:      num,
		FileName:    "DiggDaily_final.mp3",
		State:       "PUBLISHED",
		PublishedAt: at,
	}
}

func TestLatestPicksNewestPublished(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, time.August, d, 9, 0, 0, 0, time.UTC)
	}
	raws := []digg.RawEpisode{
		published("a", 40, day(20)),
		published("b", 42, day(24)),
		published("c", 41, day(22)),
	}

	ep, err := Latest(raws, Options{})
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if ep.ID != "b" || ep.Number != 42 {
		t.Fatalf("expected episode b/42, got %s/%d", ep.ID, ep.Number)
	}
}

func TestLatestExcludesNewerDraft(t *testing.T) {
	raws := []digg.RawEpisode{
		published("7", 40, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
		{
			ID:          "8",
			Number:      41,
			FileName:    "draft.mp3",
			State:       "DRAFT",
			PublishedAt: time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	ep, err := Latest(raws, Options{})
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if ep.Number != 40 {
		t.Fatalf("newer draft must not win: got episode %d, want 40", ep.Number)
	}
}

func TestLatestTieKeepsCollectionOrder(t *testing.T) {
	at := time.Date(2026, time.August, 24, 9, 0, 0, 0, time.UTC)
	raws := []digg.RawEpisode{
		published("first", 1, at),
		published("second", 2, at),
	}

	ep, err := Latest(raws, Options{})
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if ep.ID != "first" {
		t.Fatalf("tied timestamps should keep the earlier entry, got %s", ep.ID)
	}
}

func TestLatestAllMissingTimestamps(t *testing.T) {
	raws := []digg.RawEpisode{
		published("first", 1, time.Time{}),
		published("second", 2, time.Time{}),
	}

	ep, err := Latest(raws, Options{})
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if ep.ID != "first" {
		t.Fatalf("expected first entry when no timestamps parse, got %s", ep.ID)
	}
}

func TestLatestNoPublished(t *testing.T) {
	raws := []digg.RawEpisode{
		{ID: "x", FileName: "x.mp3", State: "DRAFT"},
		{ID: "y", FileName: "y.mp3", State: "draft"},
	}

	if _, err := Latest(raws, Options{}); !errors.Is(err, ErrNoPublished) {
		t.Fatalf("expected ErrNoPublished, got %v", err)
	}
	if _, err := Latest(nil, Options{}); !errors.Is(err, ErrNoPublished) {
		t.Fatalf("expected ErrNoPublished for empty collection, got %v", err)
	}
}

func TestLatestDerivesFields(t *testing.T) {
	raw := digg.RawEpisode{
		ID:          "ep-123",
		Number:      56,
		FileName:    "DiggDaily_2026-08-05_093616_final.mp3",
		State:       "PUBLISHED",
		PublishedAt: time.Date(2026, time.August, 5, 9, 36, 16, 0, time.UTC),
	}

	ep, err := Latest([]digg.RawEpisode{raw}, Options{CDNBaseURL: "https://cdn.example.com/prod/episodes/"})
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}

	if ep.Title != "Digg Daily for August 05, 2026" {
		t.Errorf("title = %q", ep.Title)
	}
	wantDate := time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC)
	if !ep.Date.Equal(wantDate) {
		t.Errorf("date = %v, want %v", ep.Date, wantDate)
	}
	if ep.AudioURL != "https://cdn.example.com/prod/episodes/ep-123/DiggDaily_2026-08-05_093616_final.mp3" {
		t.Errorf("audio url = %q", ep.AudioURL)
	}
	if ep.SourceURL != DefaultCommunityURL {
		t.Errorf("source url = %q, want %q", ep.SourceURL, DefaultCommunityURL)
	}
	if !ep.ResolvedAt.IsZero() {
		t.Errorf("selection must not stamp a resolution time, got %v", ep.ResolvedAt)
	}
}

func TestPublishedSortsNewestFirst(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, time.August, d, 9, 0, 0, 0, time.UTC)
	}
	raws := []digg.RawEpisode{
		published("old", 40, day(20)),
		{ID: "draft", Number: 43, FileName: "d.mp3", State: "DRAFT", PublishedAt: day(25)},
		published("new", 42, day(24)),
		published("mid", 41, day(22)),
	}

	eps := Published(raws, Options{})
	if len(eps) != 3 {
		t.Fatalf("len = %d, want 3", len(eps))
	}
	for i, want := range []string{"new", "mid", "old"} {
		if eps[i].ID != want {
			t.Errorf("eps[%d].ID = %s, want %s", i, eps[i].ID, want)
		}
	}
}

func TestPublishedKeepsOrderOnTies(t *testing.T) {
	at := time.Date(2026, time.August, 24, 9, 0, 0, 0, time.UTC)
	raws := []digg.RawEpisode{
		published("first", 1, at),
		published("second", 2, at),
	}

	eps := Published(raws, Options{})
	if len(eps) != 2 || eps[0].ID != "first" || eps[1].ID != "second" {
		t.Fatalf("tied entries reordered: %+v", eps)
	}
}

func TestLatestTitleFallbackWithoutDate(t *testing.T) {
	raw := published("no-date", 17, time.Time{})

	ep, err := Latest([]digg.RawEpisode{raw}, Options{})
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if ep.Title != "Digg Daily - Episode 17" {
		t.Errorf("fallback title = %q", ep.Title)
	}
	if ep.HasDate() {
		t.Errorf("expected no derived date, got %v", ep.Date)
	}
}
