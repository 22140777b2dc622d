// Package downloads saves episode audio files to the local disk.
package downloads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"diggdaily/internal/domain"
	"diggdaily/internal/repository"
)

var invalidPathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ErrNoAudio indicates the episode record carries no audio URL to fetch.
var ErrNoAudio = errors.New("episode has no audio url")

type Service struct {
	dir        string
	userAgent  string
	store      *repository.Store
	httpClient *http.Client
}

func NewService(dir, userAgent string, store *repository.Store, client *http.Client) *Service {
	return &Service{dir: dir, userAgent: userAgent, store: store, httpClient: client}
}

// Save fetches the episode audio into the download directory and returns the
// file path. A save that already completed is not repeated: when the recorded
// file still exists on disk it is returned as is. Interrupted transfers leave
// a partial file behind that the next call resumes.
func (s *Service) Save(ctx context.Context, ep domain.Episode) (string, error) {
	if strings.TrimSpace(ep.AudioURL) == "" {
		return "", ErrNoAudio
	}
	finalPath, err := s.episodeFilePath(ep)
	if err != nil {
		return "", err
	}

	if prev, ok, err := s.store.SavedAudioPath(ctx, ep.ID); err == nil && ok {
		if _, statErr := os.Stat(prev); statErr == nil {
			return prev, nil
		}
	}
	if _, err := os.Stat(finalPath); err == nil {
		if err := s.store.RecordSavedAudio(ctx, ep.ID, finalPath); err != nil {
			return "", err
		}
		return finalPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return "", err
	}

	partialPath := finalPath + ".partial"
	if err := s.fetch(ctx, ep.AudioURL, partialPath); err != nil {
		return "", err
	}
	if err := moveFile(partialPath, finalPath); err != nil {
		return "", err
	}
	if err := s.store.RecordSavedAudio(ctx, ep.ID, finalPath); err != nil {
		return "", err
	}
	return finalPath, nil
}

func (s *Service) fetch(ctx context.Context, audioURL, partialPath string) error {
	file, err := os.OpenFile(partialPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}
	existingSize := stat.Size()
	if _, err := file.Seek(existingSize, io.SeekStart); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return err
	}
	if ua := strings.TrimSpace(s.userAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if existingSize > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", existingSize))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Server ignored the range request, start over.
		if existingSize > 0 {
			if err := file.Truncate(0); err != nil {
				return err
			}
			if _, err := file.Seek(0, io.SeekStart); err != nil {
				return err
			}
		}
	case http.StatusPartialContent:
	default:
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return err
	}
	return file.Close()
}

func (s *Service) episodeFilePath(ep domain.Episode) (string, error) {
	root := strings.TrimSpace(s.dir)
	if root == "" {
		return "", fmt.Errorf("download directory is not configured")
	}
	name := safeFilename(ep.Title)
	if name == "" {
		name = safeFilename(ep.ID)
	}
	if name == "" {
		name = "episode"
	}
	return filepath.Join(root, name+fileExtension(ep.AudioURL)), nil
}

func safeFilename(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	cleaned := invalidPathChars.ReplaceAllString(value, "_")
	cleaned = strings.Trim(cleaned, "._- ")
	if cleaned == "" {
		return ""
	}
	if len(cleaned) > 128 {
		cleaned = cleaned[:128]
	}
	return cleaned
}

func fileExtension(rawURL string) string {
	if rawURL == "" {
		return ".mp3"
	}
	u, err := url.Parse(rawURL)
	if err == nil {
		ext := path.Ext(u.Path)
		if ext != "" && len(ext) <= 10 {
			return ext
		}
	}
	return ".mp3"
}

func moveFile(src, dst string) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Rename(src, dst)
}
