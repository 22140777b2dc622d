package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"diggdaily/internal/domain"
)

// Keys in the metadata table. The resolved episode occupies exactly one slot.
const (
	metaLatestEpisode = "episode:latest"
	metaLastNotified  = "notify:last_episode"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetLatestEpisode loads the single cached episode record.
func (s *Store) GetLatestEpisode(ctx context.Context) (domain.Episode, bool, error) {
	raw, ok, err := s.getMeta(ctx, metaLatestEpisode)
	if err != nil || !ok {
		return domain.Episode{}, false, err
	}
	var ep domain.Episode
	if err := json.Unmarshal([]byte(raw), &ep); err != nil {
		return domain.Episode{}, false, fmt.Errorf("decode cached episode: %w", err)
	}
	return ep, true, nil
}

// PutLatestEpisode stores ep as the single cached record, replacing any
// previous one.
func (s *Store) PutLatestEpisode(ctx context.Context, ep domain.Episode) error {
	raw, err := json.Marshal(ep)
	if err != nil {
		return fmt.Errorf("encode cached episode: %w", err)
	}
	return s.putMeta(ctx, metaLatestEpisode, string(raw))
}

// DeleteLatestEpisode removes the cached record if present.
func (s *Store) DeleteLatestEpisode(ctx context.Context) error {
	return s.deleteMeta(ctx, metaLatestEpisode)
}

// LastNotifiedEpisode returns the id of the episode the last push
// notification was sent for, or "" when none was sent yet.
func (s *Store) LastNotifiedEpisode(ctx context.Context) (string, error) {
	id, _, err := s.getMeta(ctx, metaLastNotified)
	return id, err
}

// SetLastNotifiedEpisode records the notification watermark.
func (s *Store) SetLastNotifiedEpisode(ctx context.Context, episodeID string) error {
	return s.putMeta(ctx, metaLastNotified, episodeID)
}

// RecordSavedAudio remembers where an episode's audio file was written.
func (s *Store) RecordSavedAudio(ctx context.Context, episodeID, path string) error {
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `INSERT INTO saved_audio (episode_id, file_path, saved_at)
VALUES (?, ?, ?)
ON CONFLICT(episode_id) DO UPDATE SET file_path = excluded.file_path, saved_at = excluded.saved_at`,
			episodeID, path, time.Now().UTC().Format(time.RFC3339Nano))
		return err
	})
}

// SavedAudioPath returns the recorded file path for an episode, if audio was
// saved before.
func (s *Store) SavedAudioPath(ctx context.Context, episodeID string) (string, bool, error) {
	var path string
	err := s.db.QueryRowContext(ctx, "SELECT file_path FROM saved_audio WHERE episode_id = ?", episodeID).Scan(&path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return path, true, nil
}

func (s *Store) getMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) putMeta(ctx context.Context, key, value string) error {
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
		return err
	})
}

func (s *Store) deleteMeta(ctx context.Context, key string) error {
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, "DELETE FROM metadata WHERE key = ?", key)
		return err
	})
}

func (s *Store) withRetry(ctx context.Context, fn func() error) error {
	const attempts = 5
	var err error
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = fn()
		if err == nil {
			return nil
		}
		if !isSQLiteBusy(err) {
			return err
		}
		backoff := 50 * time.Millisecond * time.Duration(1<<i)
		if err := waitWithContext(ctx, backoff); err != nil {
			return err
		}
	}
	return err
}

func waitWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
