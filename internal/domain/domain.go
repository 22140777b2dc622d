package domain

import "time"

const (
	PublishStatePublished = "PUBLISHED"
	PublishStateDraft     = "DRAFT"
)

// Episode is the canonical resolved record for one Digg Daily episode.
type Episode struct {
	ID          string    `json:"id"`
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	PublishedAt time.Time `json:"publishedAt"`
	SourceURL   string    `json:"sourceUrl"`
	AudioURL    string    `json:"audioUrl"`
	ResolvedAt  time.Time `json:"resolvedAt"`
}

// HasDate reports whether a publication date could be derived for the episode.
func (e Episode) HasDate() bool {
	return !e.Date.IsZero()
}
