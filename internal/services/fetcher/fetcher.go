package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/reelbridge/reelbridge/internal/httpclient"
)

const (
	DefaultTimeout = 30 * time.Second
	chunkSize      = 8 * 1024
)

type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindHTTPError Kind = "http_error"
	KindIOError   Kind = "io_error"
)

// FetchError describes why a media download failed.
type FetchError struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTPError:
		if e.StatusCode != 0 {
			return fmt.Sprintf("unexpected status %d", e.StatusCode)
		}
	case KindTimeout:
		return fmt.Sprintf("download timed out: %v", e.Err)
	}
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher streams a remote media file to disk.
type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
}

func New(httpClient *http.Client, timeout time.Duration) *Fetcher {
	if httpClient == nil {
		httpClient = httpclient.NewInstrumentedClient(0)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		httpClient: httpClient,
		timeout:    timeout,
	}
}

// Fetch downloads directURL into destPath. The timeout covers the whole
// transfer. On failure no partial file is left behind.
func (f *Fetcher) Fetch(ctx context.Context, directURL, destPath string) (err error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	defer func() {
		if err != nil {
			if rmErr := os.Remove(destPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				err = errors.Join(err, rmErr)
			}
		}
	}()

	req, err := http.NewRequestWithContext(httpclient.WithPeer(ctx, "media"), http.MethodGet, directURL, nil)
	if err != nil {
		return &FetchError{Kind: KindHTTPError, Err: err}
	}
	req.Header.Set("User-Agent", httpclient.BrowserUserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return classify(ctx, err, KindHTTPError)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchError{
			Kind:       KindHTTPError,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return &FetchError{Kind: KindIOError, Err: err}
	}

	buf := make([]byte, chunkSize)
	_, copyErr := io.CopyBuffer(out, resp.Body, buf)
	closeErr := out.Close()
	if copyErr != nil {
		return classify(ctx, copyErr, KindIOError)
	}
	if closeErr != nil {
		return &FetchError{Kind: KindIOError, Err: closeErr}
	}
	return nil
}

func classify(ctx context.Context, err error, fallback Kind) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	return &FetchError{Kind: fallback, Err: err}
}
