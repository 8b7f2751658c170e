package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/reelbridge/reelbridge/internal/httpclient"
)

const DefaultRapidAPIEndpoint = "https://instagram-downloader-download-video.p.rapidapi.com/index"

// RapidAPI calls the hosted Instagram downloader on RapidAPI.
type RapidAPI struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewRapidAPI(endpoint, apiKey string, httpClient *http.Client) *RapidAPI {
	if endpoint == "" {
		endpoint = DefaultRapidAPIEndpoint
	}
	if httpClient == nil {
		httpClient = httpclient.NewInstrumentedClient(0)
	}
	return &RapidAPI{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (r *RapidAPI) Name() string { return "rapidapi" }

func (r *RapidAPI) Resolve(ctx context.Context, link string) (string, error) {
	if r.apiKey == "" {
		return "", fmt.Errorf("%w: api key not configured", ErrUnavailable)
	}

	u, err := url.Parse(r.endpoint)
	if err != nil {
		return "", fmt.Errorf("rapidapi endpoint: %w", err)
	}
	q := u.Query()
	q.Set("url", link)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(httpclient.WithPeer(ctx, "rapidapi"), http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-RapidAPI-Key", r.apiKey)
	req.Header.Set("X-RapidAPI-Host", u.Host)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "rapidapi"); err != nil {
		return "", err
	}

	body, err := decodeObject(resp.Body)
	if err != nil {
		return "", fmt.Errorf("rapidapi: %w", err)
	}

	if v := firstString(body, "media", "url", "download_url", "data.url"); v != "" {
		return v, nil
	}
	return "", ErrNoMediaURL
}
