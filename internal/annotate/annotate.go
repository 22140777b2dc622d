package annotate

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Rules describe which anchors identify official daily posts and how matches
// are marked.
type Rules struct {
	Host           string
	CommunityPath  string
	OfficialSubstr string
	Exclusions     []string
	MarkerClass    string
	ControlID      string
}

// DefaultRules returns the rules for digg.com community pages.
func DefaultRules() Rules {
	return Rules{
		Host:           "digg.com",
		CommunityPath:  "/diggdaily",
		OfficialSubstr: "digg-daily",
		Exclusions:     []string{"homemade", "recap"},
		MarkerClass:    "dd-official-daily",
		ControlID:      "dd-daily-control",
	}
}

// ForHost reports whether the annotator is active for the given page host.
// Subdomains of the configured host count as a match.
func (r Rules) ForHost(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	target := strings.ToLower(strings.TrimSpace(r.Host))
	if host == "" || target == "" {
		return false
	}
	return host == target || strings.HasSuffix(host, "."+target)
}

// Official reports whether an anchor target identifies an official daily
// post: its path carries the official substring and none of the exclusions.
// Path matching ignores case, like the host check.
func (r Rules) Official(href string) bool {
	path := hrefPath(href)
	if !strings.Contains(path, strings.ToLower(r.OfficialSubstr)) {
		return false
	}
	for _, excluded := range r.Exclusions {
		if strings.Contains(path, strings.ToLower(excluded)) {
			return false
		}
	}
	return true
}

func (r Rules) community(href string) bool {
	return strings.Contains(hrefPath(href), strings.ToLower(r.CommunityPath))
}

func hrefPath(href string) string {
	href = strings.TrimSpace(href)
	if parsed, err := url.Parse(href); err == nil && parsed.Path != "" {
		return strings.ToLower(parsed.Path)
	}
	return strings.ToLower(href)
}

// Result summarises one marking pass.
type Result struct {
	Scanned  int
	Marked   int
	Injected bool
	Skipped  bool
}

// Apply runs one marking pass over a live document. Anchors under the
// community path are classified, and official ones get the marker class on
// their nearest enclosing container. Both the markers and the floating
// control are written idempotently, so re-running the pass on a settled tree
// changes nothing. When the document names a page host outside the rules'
// domain the pass is skipped entirely.
func Apply(doc *goquery.Document, rules Rules) Result {
	if host := pageHost(doc); host != "" && !rules.ForHost(host) {
		return Result{Skipped: true}
	}

	var result Result
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !rules.community(href) {
			return
		}
		result.Scanned++
		if !rules.Official(href) {
			return
		}
		container := sel.Closest("article, li, section, div")
		if container.Length() == 0 {
			container = sel.Parent()
		}
		if container.HasClass(rules.MarkerClass) {
			return
		}
		container.AddClass(rules.MarkerClass)
		result.Marked++
	})

	if doc.Find("#" + rules.ControlID).Length() == 0 {
		body := doc.Find("body")
		if body.Length() > 0 {
			body.AppendHtml(`<div id="` + rules.ControlID + `" class="dd-daily-control" role="button" title="Play the latest Digg Daily">Digg Daily</div>`)
			result.Injected = true
		}
	}

	return result
}

// Annotate parses an HTML document, applies one marking pass, and returns the
// serialised result.
func Annotate(html string, rules Rules) (string, Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", Result{}, err
	}
	result := Apply(doc, rules)
	out, err := doc.Html()
	if err != nil {
		return "", Result{}, err
	}
	return out, result, nil
}

// pageHost extracts the host the document claims to come from, via its
// canonical link or og:url. An empty result means the origin is unknown.
func pageHost(doc *goquery.Document) string {
	for _, selector := range []string{`link[rel="canonical"]`, `meta[property="og:url"]`} {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		value, ok := sel.Attr("href")
		if !ok {
			value, ok = sel.Attr("content")
		}
		if !ok {
			continue
		}
		if parsed, err := url.Parse(strings.TrimSpace(value)); err == nil && parsed.Host != "" {
			return parsed.Host
		}
	}
	return ""
}
