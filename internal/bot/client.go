package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/reelbridge/reelbridge/internal/httpclient"
)

const (
	DefaultRequestTimeout = 2 * time.Minute
	defaultFilename       = "reel_audio.mp3"
)

// Audio is a converted file returned by the conversion endpoint.
type Audio struct {
	Data     []byte
	Filename string
}

// EndpointError is a non-success answer from the conversion endpoint.
type EndpointError struct {
	StatusCode int
	Message    string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("conversion endpoint returned %d: %s", e.StatusCode, e.Message)
}

// ConnectivityError means the endpoint could not be reached or the
// exchange broke off.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return e.Err.Error()
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// Client calls the conversion endpoint over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		url:        url,
		httpClient: httpclient.NewInstrumentedClient(timeout),
	}
}

func (c *Client) Convert(ctx context.Context, link string) (*Audio, error) {
	body, err := json.Marshal(map[string]string{"url": link})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(httpclient.WithPeer(ctx, "converter"), http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &EndpointError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}

	return &Audio{
		Data:     data,
		Filename: filenameFrom(resp.Header.Get("Content-Disposition")),
	}, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == nil {
		return UnknownServerText
	}
	return *payload.Error
}

func filenameFrom(disposition string) string {
	if disposition == "" {
		return defaultFilename
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return defaultFilename
	}
	return params["filename"]
}
