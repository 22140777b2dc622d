package episodes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"diggdaily/internal/digg"
	"diggdaily/internal/domain"
)

// DefaultCDNURL is the CloudFront base that hosts the episode audio files.
const DefaultCDNURL = "https://d3tha58ojcqcpf.cloudfront.net/prod/episodes"

// DefaultCommunityURL is the public page for the show on digg.com.
const DefaultCommunityURL = "https://digg.com/diggdaily"

// ErrNoPublished indicates the upstream collection holds no episode in the
// PUBLISHED state.
var ErrNoPublished = errors.New("no published episodes")

// Options control how a raw upstream entry becomes a resolved episode record.
type Options struct {
	CDNBaseURL   string
	CommunityURL string
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.CDNBaseURL) == "" {
		o.CDNBaseURL = DefaultCDNURL
	}
	if strings.TrimSpace(o.CommunityURL) == "" {
		o.CommunityURL = DefaultCommunityURL
	}
	return o
}

// Latest selects the newest published episode from the raw collection and
// derives its display fields. Only entries whose state is exactly PUBLISHED
// are considered. Among those, the greatest publication timestamp wins; on
// ties, and when no entry carries a parseable timestamp, the earliest entry
// in collection order is kept.
func Latest(raws []digg.RawEpisode, opts Options) (domain.Episode, error) {
	best := -1
	for i, raw := range raws {
		if raw.State != domain.PublishStatePublished {
			continue
		}
		if best < 0 || raw.PublishedAt.After(raws[best].PublishedAt) {
			best = i
		}
	}
	if best < 0 {
		return domain.Episode{}, ErrNoPublished
	}
	return resolve(raws[best], opts.withDefaults()), nil
}

// Published resolves every entry in the PUBLISHED state, newest first. Entries
// with equal timestamps keep their collection order.
func Published(raws []digg.RawEpisode, opts Options) []domain.Episode {
	opts = opts.withDefaults()
	var eps []domain.Episode
	for _, raw := range raws {
		if raw.State != domain.PublishStatePublished {
			continue
		}
		eps = append(eps, resolve(raw, opts))
	}
	sort.SliceStable(eps, func(i, j int) bool {
		return eps[i].PublishedAt.After(eps[j].PublishedAt)
	})
	return eps
}

func resolve(raw digg.RawEpisode, opts Options) domain.Episode {
	ep := domain.Episode{
		ID:          raw.ID,
		Number:      raw.Number,
		PublishedAt: raw.PublishedAt,
		SourceURL:   opts.CommunityURL,
		AudioURL:    audioURL(opts.CDNBaseURL, raw.ID, raw.FileName),
	}
	if !raw.PublishedAt.IsZero() {
		year, month, day := raw.PublishedAt.Date()
		ep.Date = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		ep.Title = "Digg Daily for " + ep.Date.Format("January 02, 2006")
	} else {
		ep.Title = fmt.Sprintf("Digg Daily - Episode %d", raw.Number)
	}
	return ep
}

func audioURL(cdnBase, id, fileName string) string {
	return strings.TrimRight(cdnBase, "/") + "/" + id + "/" + fileName
}
