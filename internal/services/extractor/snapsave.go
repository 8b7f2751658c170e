package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/reelbridge/reelbridge/internal/httpclient"
)

const DefaultSnapSaveEndpoint = "https://insta-api.snapsaveapp.com/download"

// SnapSave posts the link to a public download service.
type SnapSave struct {
	endpoint   string
	httpClient *http.Client
}

func NewSnapSave(endpoint string, httpClient *http.Client) *SnapSave {
	if endpoint == "" {
		endpoint = DefaultSnapSaveEndpoint
	}
	if httpClient == nil {
		httpClient = httpclient.NewInstrumentedClient(0)
	}
	return &SnapSave{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

func (s *SnapSave) Name() string { return "snapsave" }

func (s *SnapSave) Resolve(ctx context.Context, link string) (string, error) {
	form := url.Values{"url": {link}}
	req, err := http.NewRequestWithContext(httpclient.WithPeer(ctx, "snapsave"),
		http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", httpclient.BrowserUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "snapsave"); err != nil {
		return "", err
	}

	body, err := decodeObject(resp.Body)
	if err != nil {
		return "", fmt.Errorf("snapsave: %w", err)
	}

	if v := firstString(body, "url", "download_url", "data.url"); v != "" {
		return v, nil
	}
	return "", ErrNoMediaURL
}
