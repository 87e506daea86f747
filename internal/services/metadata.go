package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"composer-server/internal/types"
	"composer-server/internal/util"
)

// maxMetadataBody bounds how much of a page is read while looking for meta
// tags; anything useful sits in <head>.
const maxMetadataBody = 100 * 1024

// MetadataScraper fetches a page and extracts Open Graph style metadata for
// the link preview panel. It backs the /service/metadata/ endpoint and the
// preview resolver.
type MetadataScraper struct {
	client *http.Client
}

// NewMetadataScraper creates a scraper with a bounded-redirect HTTP client.
func NewMetadataScraper() *MetadataScraper {
	return &MetadataScraper{
		client: &http.Client{
			Timeout: 5 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Scrape fetches rawURL and extracts title, description, image and the
// canonical link. A page that yields neither title nor description returns
// (nil, nil): an empty scrape is not an error, the caller hides the preview.
func (s *MetadataScraper) Scrape(ctx context.Context, rawURL string) (*types.LinkMetadata, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if util.IsPrivateHost(parsed.Hostname()) {
		return nil, fmt.Errorf("refusing to fetch private host %q", parsed.Hostname())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("metadata request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ComposerPreviewBot/1.0)")
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata fetch got status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBody))
	if err != nil {
		return nil, fmt.Errorf("metadata read: %w", err)
	}

	meta := extractHeadMetadata(body)
	meta.Image = resolveRelative(parsed, meta.Image)
	if meta.Link == "" {
		meta.Link = rawURL
	} else {
		meta.Link = resolveRelative(parsed, meta.Link)
	}

	// Pages without any og/meta description still often have readable body
	// text; use the readability excerpt as a fallback.
	if meta.Description == "" {
		if article, err := readability.FromReader(bytes.NewReader(body), parsed); err == nil {
			meta.Description = strings.TrimSpace(article.Excerpt)
			if meta.Title == "" {
				meta.Title = strings.TrimSpace(article.Title)
			}
			if meta.Image == "" {
				meta.Image = article.Image
			}
		}
	}

	if meta.Empty() {
		return nil, nil
	}
	return meta, nil
}

// extractHeadMetadata tokenizes HTML and collects og:*, meta description,
// <title> and <link rel="canonical">. Stops at the end of <head> since meta
// tags past it are not valid anyway.
func extractHeadMetadata(body []byte) *types.LinkMetadata {
	meta := &types.LinkMetadata{}
	var ogTitle, ogDesc, plainDesc, titleTag string

	z := html.NewTokenizer(bytes.NewReader(body))
	inTitle := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			goto done
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "meta":
				var prop, name, content string
				for _, a := range tok.Attr {
					switch strings.ToLower(a.Key) {
					case "property":
						prop = strings.ToLower(a.Val)
					case "name":
						name = strings.ToLower(a.Val)
					case "content":
						content = a.Val
					}
				}
				switch {
				case prop == "og:title" && ogTitle == "":
					ogTitle = content
				case prop == "og:description" && ogDesc == "":
					ogDesc = content
				case prop == "og:image" && meta.Image == "":
					meta.Image = content
				case name == "description" && plainDesc == "":
					plainDesc = content
				}
			case "link":
				var rel, href string
				for _, a := range tok.Attr {
					switch strings.ToLower(a.Key) {
					case "rel":
						rel = strings.ToLower(a.Val)
					case "href":
						href = a.Val
					}
				}
				if rel == "canonical" && meta.Link == "" {
					meta.Link = href
				}
			case "title":
				inTitle = true
			case "body":
				goto done
			}
		case html.TextToken:
			if inTitle && titleTag == "" {
				titleTag = strings.TrimSpace(string(z.Text()))
			}
		case html.EndTagToken:
			if tok := z.Token(); tok.Data == "title" {
				inTitle = false
			} else if tok.Data == "head" {
				goto done
			}
		}
	}

done:
	meta.Title = strings.TrimSpace(firstNonEmpty(ogTitle, titleTag))
	meta.Description = strings.TrimSpace(firstNonEmpty(ogDesc, plainDesc))
	return meta
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveRelative turns a possibly relative href into an absolute URL
// against the fetched page.
func resolveRelative(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
