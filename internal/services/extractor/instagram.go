package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"github.com/reelbridge/reelbridge/internal/httpclient"
)

const graphQLDocID = "10015901848480474"

var shortcodePattern = regexp.MustCompile(`instagram\.com/(?:[A-Za-z0-9_.]+/)?(p|reels?)/([A-Za-z0-9-_]+)`)

// GraphQL queries Instagram's GraphQL API by shortcode through a relay proxy.
type GraphQL struct {
	proxyURL   string
	proxyKey   string
	httpClient *http.Client
}

func NewGraphQL(proxyURL, proxyKey string, httpClient *http.Client) *GraphQL {
	if httpClient == nil {
		httpClient = httpclient.NewInstrumentedClient(0)
	}
	return &GraphQL{
		proxyURL:   proxyURL,
		proxyKey:   proxyKey,
		httpClient: httpClient,
	}
}

func (g *GraphQL) Name() string { return "graphql" }

func extractShortcode(u string) (string, error) {
	matches := shortcodePattern.FindStringSubmatch(u)
	if len(matches) < 3 {
		return "", ErrInvalidURL
	}
	return matches[2], nil
}

type graphqlResponse struct {
	Data struct {
		ShortcodeMedia *struct {
			Shortcode string `json:"shortcode"`
			IsVideo   bool   `json:"is_video"`
			VideoURL  string `json:"video_url"`
		} `json:"xdt_shortcode_media"`
	} `json:"data"`
}

func (g *GraphQL) Resolve(ctx context.Context, link string) (string, error) {
	if g.proxyURL == "" {
		return "", fmt.Errorf("%w: proxy not configured", ErrUnavailable)
	}

	shortcode, err := extractShortcode(link)
	if err != nil {
		return "", err
	}

	variables := fmt.Sprintf(`{"shortcode":%q}`, shortcode)
	graphQLURL := "https://www.instagram.com/api/graphql?variables=" + url.QueryEscape(variables) + "&doc_id=" + graphQLDocID

	reqBody := map[string]interface{}{
		"url":    graphQLURL,
		"method": "POST",
		"headers": map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"X-IG-App-ID":  "936619743392459",
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(httpclient.WithPeer(ctx, "graphql-proxy"),
		http.MethodPost, g.proxyURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.proxyKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "graphql proxy"); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}

	var proxyResp struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(data, &proxyResp); err != nil {
		return "", fmt.Errorf("decode proxy response: %w", err)
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal([]byte(proxyResp.Data), &gqlResp); err != nil {
		return "", fmt.Errorf("decode graphql response: %w", err)
	}

	media := gqlResp.Data.ShortcodeMedia
	if media == nil || media.Shortcode == "" {
		return "", ErrPostNotFound
	}
	if media.VideoURL == "" {
		return "", ErrNoMediaURL
	}
	return media.VideoURL, nil
}
