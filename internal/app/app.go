package app

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"diggdaily/internal/annotate"
	"diggdaily/internal/cache"
	"diggdaily/internal/config"
	"diggdaily/internal/digg"
	"diggdaily/internal/domain"
	"diggdaily/internal/downloads"
	"diggdaily/internal/episodes"
	"diggdaily/internal/feed"
	"diggdaily/internal/notify"
	"diggdaily/internal/repository"
)

type App struct {
	config     config.Config
	configPath string
	db         *sql.DB
	httpClient *http.Client
	source     episodes.Source
	selectOpts episodes.Options
	store      *repository.Store
	episodes   *episodes.Service
	downloads  *downloads.Service
	notifier   notify.Service
}

// Dependencies allows tests to swap the network-facing pieces.
type Dependencies struct {
	HTTPClient *http.Client
	Source     episodes.Source
}

func New(cfg config.Config, configPath string, db *sql.DB) *App {
	return NewWithDependencies(cfg, configPath, db, Dependencies{})
}

func NewWithDependencies(cfg config.Config, configPath string, db *sql.DB, deps Dependencies) *App {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		transport := &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.TLSVerify},
		}
		if proxyURL := strings.TrimSpace(cfg.Proxy); proxyURL != "" {
			if parsed, err := url.Parse(proxyURL); err == nil {
				transport.Proxy = http.ProxyURL(parsed)
			}
		}
		httpClient = &http.Client{Timeout: 15 * time.Second, Transport: transport}
	}

	source := deps.Source
	if source == nil {
		source = digg.NewClient(httpClient, cfg.APIURL, cfg.UserAgent)
	}

	store := repository.New(db)
	episodeCache := cache.New(store, time.Duration(cfg.CacheWindowMin)*time.Minute)
	selectOpts := episodes.Options{CDNBaseURL: cfg.CDNURL, CommunityURL: cfg.CommunityURL}

	return &App{
		config:     cfg,
		configPath: configPath,
		db:         db,
		httpClient: httpClient,
		source:     source,
		selectOpts: selectOpts,
		store:      store,
		episodes:   episodes.NewService(source, episodeCache, selectOpts),
		downloads:  downloads.NewService(cfg.DownloadDir, cfg.UserAgent, store, httpClient),
		notifier:   notify.NewService(cfg.NtfyTopic, cfg.UserAgent, httpClient),
	}
}

func (a *App) Config() config.Config {
	return a.config
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Resolve returns the current episode record, consulting the cache unless
// force is set.
func (a *App) Resolve(ctx context.Context, force bool) (domain.Episode, error) {
	return a.episodes.Resolve(ctx, force)
}

// SaveAudio stores the episode audio under the configured download directory
// and returns the file path.
func (a *App) SaveAudio(ctx context.Context, ep domain.Episode) (string, error) {
	return a.downloads.Save(ctx, ep)
}

// WriteFeed fetches the full episode collection and renders the podcast feed
// to the given path. The feed always reflects a fresh API response; the
// single-record resolution cache is not consulted. Returns the number of
// items written.
func (a *App) WriteFeed(ctx context.Context, path string, limit int) (int, error) {
	raws, err := a.source.Episodes(ctx)
	if err != nil {
		return 0, err
	}
	eps := episodes.Published(raws, a.selectOpts)
	if len(eps) == 0 {
		return 0, episodes.ErrNoPublished
	}
	if limit <= 0 {
		limit = a.config.FeedLimit
	}
	if limit > 0 && len(eps) > limit {
		eps = eps[:limit]
	}

	temp := path + ".tmp"
	file, err := os.Create(temp)
	if err != nil {
		return 0, err
	}
	opts := feed.Options{Link: a.config.CommunityURL, Limit: limit}
	if err := feed.Generate(file, eps, opts); err != nil {
		file.Close()
		os.Remove(temp)
		return 0, err
	}
	if err := file.Close(); err != nil {
		os.Remove(temp)
		return 0, err
	}
	if err := os.Rename(temp, path); err != nil {
		os.Remove(temp)
		return 0, err
	}
	return len(eps), nil
}

// AnnotateFile runs a single annotation pass over the HTML file at path and
// rewrites it in place when anything was marked or injected.
func (a *App) AnnotateFile(path string) (annotate.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return annotate.Result{}, err
	}
	out, result, err := annotate.Annotate(string(raw), annotate.DefaultRules())
	if err != nil {
		return annotate.Result{}, err
	}
	if result.Marked == 0 && !result.Injected {
		return result, nil
	}
	temp := path + ".tmp"
	if err := os.WriteFile(temp, []byte(out), 0o644); err != nil {
		return annotate.Result{}, err
	}
	if err := os.Rename(temp, path); err != nil {
		os.Remove(temp)
		return annotate.Result{}, err
	}
	return result, nil
}

// WatchFile keeps the HTML file annotated until the context is cancelled.
func (a *App) WatchFile(ctx context.Context, path string) error {
	interval := time.Duration(a.config.WatchIntervalSec) * time.Second
	watcher := annotate.NewWatcher(path, annotate.DefaultRules(), interval)
	defer watcher.Stop()
	<-ctx.Done()
	return ctx.Err()
}

// CheckAndNotify resolves the current episode and pushes an alert when it
// differs from the last episode an alert went out for. Reports whether an
// alert was sent.
func (a *App) CheckAndNotify(ctx context.Context) (bool, error) {
	ep, err := a.episodes.Resolve(ctx, false)
	if err != nil {
		return false, err
	}
	last, err := a.store.LastNotifiedEpisode(ctx)
	if err != nil {
		return false, err
	}
	if ep.ID == last {
		return false, nil
	}
	if err := a.notifier.NotifyNewEpisode(ctx, ep); err != nil {
		return false, err
	}
	if err := a.store.SetLastNotifiedEpisode(ctx, ep.ID); err != nil {
		return false, fmt.Errorf("record notified episode: %w", err)
	}
	return true, nil
}

// NotifyLoop runs CheckAndNotify on the configured interval until the context
// is cancelled. Failed checks are logged and retried on the next tick.
func (a *App) NotifyLoop(ctx context.Context) error {
	interval := time.Duration(a.config.CheckIntervalMin) * time.Minute
	if interval <= 0 {
		interval = time.Duration(config.Defaults().CheckIntervalMin) * time.Minute
	}
	for {
		sent, err := a.CheckAndNotify(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return err
		case err != nil:
			log.Printf("episode check failed: %v", err)
		case sent:
			log.Println("new episode alert sent")
		}
		if err := waitWithContext(ctx, interval); err != nil {
			return err
		}
	}
}

// EditConfig walks the interactive editor and persists the result.
func (a *App) EditConfig(ctx context.Context) error {
	updated, err := config.EditInteractive(ctx, a.config)
	if err != nil {
		return err
	}
	if err := config.Save(a.configPath, updated); err != nil {
		return err
	}
	a.config = updated
	log.Println("configuration updated")
	return nil
}

func waitWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
