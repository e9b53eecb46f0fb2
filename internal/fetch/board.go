// Package fetch turns keyword requests from the bus into new job
// postings by scraping configured greenhouse-style boards. Fetched
// postings enter the store the same way API-created ones do, so they
// flow through the embedding pipeline unchanged.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Board identifies one greenhouse-style board to scrape.
type Board struct {
	Slug string // boards.greenhouse.io/<slug>
	Name string // display name used as the posting's company
}

// Posting is the raw scrape result before intake validation.
type Posting struct {
	Title       string
	Description string
	Company     string
	ApplyURL    string
}

// BoardScraper pulls postings off public board pages. baseURL is
// overridable for tests; empty means the real greenhouse host.
type BoardScraper struct {
	baseURL string
	hc      *http.Client
	limiter *hostLimiter
}

func NewBoardScraper(baseURL string, reqPerSec float64, burst int) *BoardScraper {
	if baseURL == "" {
		baseURL = "https://boards.greenhouse.io"
	}
	return &BoardScraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: newHostLimiter(reqPerSec, burst),
	}
}

// ScrapeBoard lists a board's job links and hydrates each into a full
// posting. A posting whose detail page cannot be fetched is kept with
// whatever the listing showed; one with no usable text is dropped.
func (s *BoardScraper) ScrapeBoard(ctx context.Context, b Board) ([]Posting, error) {
	boardURL := fmt.Sprintf("%s/%s", s.baseURL, b.Slug)

	doc, err := s.get(ctx, boardURL)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", b.Slug, err)
	}

	seen := map[string]bool{}
	var out []Posting
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		abs := href
		if strings.HasPrefix(href, "/") {
			abs = s.baseURL + href
		}
		if !strings.Contains(strings.ToLower(abs), "/jobs/") {
			return
		}
		if seen[abs] {
			return
		}
		seen[abs] = true

		out = append(out, Posting{
			Title:    cleanText(a.Text()),
			Company:  b.Name,
			ApplyURL: abs,
		})
	})

	hydrated := out[:0]
	for _, p := range out {
		if err := s.hydrate(ctx, &p); err != nil {
			continue
		}
		if p.Title == "" || p.Description == "" {
			continue
		}
		hydrated = append(hydrated, p)
	}
	return hydrated, nil
}

func (s *BoardScraper) hydrate(ctx context.Context, p *Posting) error {
	doc, err := s.get(ctx, p.ApplyURL)
	if err != nil {
		return err
	}

	if t := cleanText(doc.Find("h1").First().Text()); t != "" {
		p.Title = t
	}

	// Greenhouse job pages render the description under #content;
	// fall back to the whole body text.
	desc := cleanText(doc.Find("#content").First().Text())
	if desc == "" {
		desc = cleanText(doc.Find("body").First().Text())
	}
	p.Description = desc
	return nil
}

func (s *BoardScraper) get(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if err := s.limiter.waitURL(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "jobmatch-engine/1.0 (+local)")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d for %s", res.StatusCode, rawURL)
	}

	return goquery.NewDocumentFromReader(res.Body)
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
