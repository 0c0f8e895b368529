package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	sectionMarker = "ACTIVE POSITIONS"

	// Sibling nodes shorter than this are treated as decoration (labels,
	// timestamps) rather than the positions block itself.
	minSectionText = 40

	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// HTTPSource fetches the watched page over HTTP and extracts the
// "ACTIVE POSITIONS" section from the rendered markup.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource returns a source for the given page URL. timeout bounds the
// whole request including body read.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPSource{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch retrieves the page and returns the extracted section text plus the
// section markup as the snapshot artifact. All failures are transient: the
// page source is expected to be flaky.
func (s *HTTPSource) Fetch(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Snapshot{}, &FetchError{Transient: false, Err: err}
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Expires", "0")

	resp, err := s.client.Do(req)
	if err != nil {
		return Snapshot{}, &FetchError{Transient: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, &FetchError{
			Transient: true,
			Err:       fmt.Errorf("unexpected status %d from %s", resp.StatusCode, s.url),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Snapshot{}, &FetchError{Transient: true, Err: fmt.Errorf("parse page: %w", err)}
	}

	text, markup := extractSection(doc)
	return Snapshot{
		Text:        text,
		Artifact:    []byte(markup),
		ArtifactExt: ".html",
		CapturedAt:  time.Now().UTC(),
	}, nil
}

// extractSection locates the positions block relative to the section header.
// It prefers the first substantial sibling after the header, then walks up
// the ancestor chain looking for a substantial sibling there, and finally
// falls back to the header's own container or the whole body. A page with no
// recognizable header degrades to body text; the normalizer copes.
func extractSection(doc *goquery.Document) (text, markup string) {
	header := findHeader(doc)
	if header == nil {
		body := doc.Find("body")
		return strings.TrimSpace(body.Text()), outerHTML(body)
	}

	for sib := header.Next(); sib.Length() > 0; sib = sib.Next() {
		if t := strings.TrimSpace(sib.Text()); len(t) >= minSectionText {
			return t, outerHTML(sib)
		}
	}

	for parent := header.Parent(); parent.Length() > 0; parent = parent.Parent() {
		for sib := parent.Next(); sib.Length() > 0; sib = sib.Next() {
			if t := strings.TrimSpace(sib.Text()); len(t) >= minSectionText {
				return t, outerHTML(sib)
			}
		}
	}

	container := header.Closest("section, article, div")
	if container.Length() == 0 {
		container = doc.Find("body")
	}
	return strings.TrimSpace(container.Text()), outerHTML(container)
}

// findHeader returns the smallest element whose text contains the section
// marker, or nil when the marker is absent. Smallest-by-text picks the
// header node itself over the ancestors that also contain it.
func findHeader(doc *goquery.Document) *goquery.Selection {
	var header *goquery.Selection
	best := -1

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		t := strings.ToUpper(sel.Text())
		if !strings.Contains(t, sectionMarker) {
			return
		}
		if best == -1 || len(t) < best {
			best = len(t)
			header = sel
		}
	})
	return header
}

func outerHTML(sel *goquery.Selection) string {
	h, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	return h
}
