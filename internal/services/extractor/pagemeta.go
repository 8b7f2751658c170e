package extractor

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/reelbridge/reelbridge/internal/httpclient"
)

var videoMetaProperties = []string{"og:video:secure_url", "og:video", "og:video:url"}

// PageMeta reads the Open Graph video tags of the public post page.
type PageMeta struct {
	httpClient *http.Client
}

func NewPageMeta(httpClient *http.Client) *PageMeta {
	if httpClient == nil {
		httpClient = httpclient.NewInstrumentedClient(0)
	}
	return &PageMeta{httpClient: httpClient}
}

func (p *PageMeta) Name() string { return "pagemeta" }

func (p *PageMeta) Resolve(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(httpclient.WithPeer(ctx, "instagram"), http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", httpclient.BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "instagram"); err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	return videoFromDocument(doc)
}

func videoFromDocument(doc *goquery.Document) (string, error) {
	for _, prop := range videoMetaProperties {
		var found string
		doc.Find(fmt.Sprintf(`meta[property=%q]`, prop)).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			content, _ := sel.Attr("content")
			found = strings.TrimSpace(content)
			return found == ""
		})
		if found != "" {
			return found, nil
		}
	}
	return "", ErrNoMediaURL
}
