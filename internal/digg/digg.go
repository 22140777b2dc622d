package digg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIURL is the official Digg Daily episodes endpoint, the same one the
// player widget on digg.com talks to.
const DefaultAPIURL = "https://sxuww3gfy4.execute-api.us-east-2.amazonaws.com/prod/episodes"

var (
	// ErrUnreachable indicates the transport call to the API did not complete.
	ErrUnreachable = errors.New("digg api unreachable")
	// ErrBadPayload indicates the API answered but the payload was unusable:
	// bad status, undecodable body, missing collection, or zero episodes.
	ErrBadPayload = errors.New("digg api payload invalid")
)

// Client interacts with the Digg Daily episodes API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a client using the provided HTTP client. The baseURL can be
// overridden for testing; if empty the official API endpoint is used.
func NewClient(httpClient *http.Client, baseURL, userAgent string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, userAgent: userAgent}
}

// RawEpisode is one entry of the upstream episode collection, as published by
// the API before any selection is applied.
type RawEpisode struct {
	ID          string
	Number      int
	FileName    string
	State       string
	PublishedAt time.Time
}

// Episodes fetches the raw episode collection. It performs no retries; callers
// decide the retry policy.
func (c *Client) Episodes(ctx context.Context) ([]RawEpisode, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.userAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrBadPayload, resp.Status)
	}

	var payload episodesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrBadPayload, err)
	}
	if payload.Episodes == nil {
		return nil, fmt.Errorf("%w: missing episodes collection", ErrBadPayload)
	}
	if len(payload.Episodes) == 0 {
		return nil, fmt.Errorf("%w: empty episodes collection", ErrBadPayload)
	}

	raws := make([]RawEpisode, 0, len(payload.Episodes))
	for _, item := range payload.Episodes {
		id := strings.TrimSpace(item.EpisodeID)
		fileName := strings.TrimSpace(item.FileName)
		if id == "" || fileName == "" {
			continue
		}
		state := strings.TrimSpace(item.PublishedState)
		if state == "" {
			state = "DRAFT"
		}
		raws = append(raws, RawEpisode{
			ID:          id,
			Number:      item.EpisodeNumber,
			FileName:    fileName,
			State:       state,
			PublishedAt: parseTime(item.PublishedDate),
		})
	}
	return raws, nil
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

type episodesResponse struct {
	Episodes []episodePayload `json:"episodes"`
}

type episodePayload struct {
	EpisodeID      string `json:"episode_id"`
	EpisodeNumber  int    `json:"episode_number"`
	FileName       string `json:"file_name"`
	PublishedDate  string `json:"published_date"`
	PublishedState string `json:"published_state"`
}
