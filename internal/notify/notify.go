// Package notify pushes new-episode alerts through an ntfy endpoint.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"diggdaily/internal/domain"
)

// Service is the alert surface used when a fresh episode appears.
type Service interface {
	NotifyNewEpisode(ctx context.Context, ep domain.Episode) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service for the given topic endpoint.
// Without an endpoint a noop implementation is returned, so callers never
// branch on whether alerting is configured.
func NewService(endpoint, userAgent string, client *http.Client) Service {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return noopService{}
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ntfyService{
		endpoint:  endpoint,
		userAgent: userAgent,
		client:    client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	userAgent string
	client    *http.Client
}

func (n *ntfyService) NotifyNewEpisode(ctx context.Context, ep domain.Episode) error {
	title := strings.TrimSpace(ep.Title)
	if title == "" {
		title = fmt.Sprintf("Episode %d", ep.Number)
	}
	message := fmt.Sprintf("New episode: %s", title)
	if ep.AudioURL != "" {
		message = fmt.Sprintf("%s\nListen: %s", message, ep.AudioURL)
	}
	data := payload{
		title:   "Digg Daily - New Episode",
		message: message,
		tags:    []string{"diggdaily", "episode"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Digg Daily - Test",
		message:  "Notification system test",
		tags:     []string{"diggdaily", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyNewEpisode(context.Context, domain.Episode) error { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
