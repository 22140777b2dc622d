// Package feed renders the podcast RSS document for the show.
package feed

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/eduncan911/podcast"

	"diggdaily/internal/domain"
	"diggdaily/internal/episodes"
)

// DefaultLimit caps the number of items in a generated feed.
const DefaultLimit = 50

const (
	defaultTitle    = "Digg Daily (Official AI Version)"
	defaultAuthor   = "Digg"
	defaultLanguage = "en-us"
	defaultImageURL = "https://pixelnated.github.io/digg-daily-rss/images/digg-daily-rss-logo.jpeg"

	defaultDescription = "Unofficial podcast feed for Digg Daily, the AI-hosted " +
		"daily news digest from Digg. Episodes come straight from Digg's public " +
		"API, the same source the on-site player uses. Content is created by " +
		"Digg; the feed itself is community-built."

	// The API reports neither file size nor duration, so items carry the
	// typical values for a five minute episode.
	enclosureBytes  = 5_000_000
	durationSeconds = 300
)

// Options control the channel metadata of a generated feed.
type Options struct {
	Title       string
	Link        string
	Description string
	Author      string
	Language    string
	ImageURL    string
	// SelfURL, when set, is emitted as the atom:link rel=self element some
	// podcast apps require.
	SelfURL string
	Limit   int
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Title) == "" {
		o.Title = defaultTitle
	}
	if strings.TrimSpace(o.Link) == "" {
		o.Link = episodes.DefaultCommunityURL
	}
	if strings.TrimSpace(o.Description) == "" {
		o.Description = defaultDescription
	}
	if strings.TrimSpace(o.Author) == "" {
		o.Author = defaultAuthor
	}
	if strings.TrimSpace(o.Language) == "" {
		o.Language = defaultLanguage
	}
	if strings.TrimSpace(o.ImageURL) == "" {
		o.ImageURL = defaultImageURL
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// Generate writes an RSS 2.0 feed with iTunes extensions for the given
// episodes to w. Episodes are expected newest first; entries beyond the
// configured limit are dropped.
func Generate(w io.Writer, eps []domain.Episode, opts Options) error {
	opts = opts.withDefaults()
	if len(eps) > opts.Limit {
		eps = eps[:opts.Limit]
	}

	var pubDate *time.Time
	if len(eps) > 0 && !eps[0].PublishedAt.IsZero() {
		at := eps[0].PublishedAt
		pubDate = &at
	}

	p := podcast.New(opts.Title, opts.Link, opts.Description, pubDate, nil)
	p.Language = opts.Language
	p.Generator = "Digg Daily RSS Generator"
	p.Copyright = fmt.Sprintf("Content © Digg %d", time.Now().Year())
	p.IAuthor = opts.Author
	p.IExplicit = "false"
	p.AddSummary(opts.Description)
	p.AddCategory("News", []string{"Daily News"})
	p.AddImage(opts.ImageURL)
	if opts.SelfURL != "" {
		p.AddAtomLink(opts.SelfURL)
	}

	for i := range eps {
		ep := eps[i]
		item := podcast.Item{
			Title:       ep.Title,
			Description: ep.Title + ".",
			Link:        ep.SourceURL,
			GUID:        ep.ID,
		}
		if !ep.PublishedAt.IsZero() {
			at := ep.PublishedAt
			item.PubDate = &at
		}
		item.AddEnclosure(ep.AudioURL, podcast.MP3, enclosureBytes)
		item.AddSummary(item.Description)
		item.AddImage(opts.ImageURL)
		item.AddDuration(durationSeconds)
		item.IAuthor = opts.Author
		item.IExplicit = "false"
		if _, err := p.AddItem(item); err != nil {
			return fmt.Errorf("add feed item %s: %w", ep.ID, err)
		}
	}

	return p.Encode(w)
}
