// Package integration exercises the endpoint and chat front end together
// with every remote dependency replaced by a local test server.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reelbridge/reelbridge/internal/api"
	"github.com/reelbridge/reelbridge/internal/artifacts"
	"github.com/reelbridge/reelbridge/internal/bot"
	"github.com/reelbridge/reelbridge/internal/services/converter"
	"github.com/reelbridge/reelbridge/internal/services/extractor"
	"github.com/reelbridge/reelbridge/internal/services/fetcher"
	"github.com/reelbridge/reelbridge/internal/services/transcoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reelLink = "https://www.instagram.com/reel/C1a2B3c4D5e/"

// copyTranscoder stands in for ffmpeg by prefixing the video bytes.
type copyTranscoder struct{}

func (copyTranscoder) Transcode(ctx context.Context, inputPath, outputPath, bitrate string) error {
	video, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, append([]byte("ID3:"+bitrate+":"), video...), 0o600)
}

type chatTransport struct {
	mu      sync.Mutex
	texts   []string
	deleted int
	audio   [][]byte
	titles  []string
}

func (c *chatTransport) SendText(chatID int64, text string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return len(c.texts), nil
}

func (c *chatTransport) SendTextWithSuggestion(chatID int64, text, suggestion string) (int, error) {
	return c.SendText(chatID, text)
}

func (c *chatTransport) DeleteMessage(chatID int64, messageID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted++
	return nil
}

func (c *chatTransport) SendAudio(chatID int64, data []byte, filename, title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audio = append(c.audio, data)
	c.titles = append(c.titles, title)
	return nil
}

type env struct {
	tempDir     string
	endpoint    *httptest.Server
	scraperHits atomic.Int32
	mediaHits   atomic.Int32
}

// newEnv starts the endpoint. When resolvable is false the scraper finds no
// media, as for a private post.
func newEnv(t *testing.T, tc converter.Transcoder, resolvable bool) *env {
	t.Helper()
	e := &env{}

	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mediaHits.Add(1)
		_, _ = w.Write([]byte("fake-mp4-payload:" + r.URL.Query().Get("src")))
	}))
	t.Cleanup(media.Close)

	// The media URL names the post it was resolved from, so every response
	// body can be traced back to its request.
	scraper := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.scraperHits.Add(1)
		if !resolvable {
			_, _ = w.Write([]byte(`{"status":"private"}`))
			return
		}
		_ = r.ParseForm()
		directURL := media.URL + "/v.mp4?src=" + url.QueryEscape(r.PostForm.Get("url"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"url": directURL},
		})
	}))
	t.Cleanup(scraper.Close)

	chain := extractor.NewChain(2*time.Second,
		extractor.NewYtDlp("reelbridge-test-no-such-binary"),
		extractor.NewSnapSave(scraper.URL, scraper.Client()),
	)

	e.tempDir = t.TempDir()
	ws, err := artifacts.NewWorkspace(e.tempDir)
	require.NoError(t, err)

	service := converter.NewService(chain, fetcher.New(media.Client(), 2*time.Second), tc, ws, "192k")
	e.endpoint = httptest.NewServer(api.NewRouter(api.NewServer(service), "reelbridge-test"))
	t.Cleanup(e.endpoint.Close)
	return e
}

func (e *env) assertNoArtifacts(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(e.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func postURL(t *testing.T, endpoint, link string) (*http.Response, []byte) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"url": link})
	resp, err := http.Post(endpoint+"/download", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestPipeline_ChatToAudio(t *testing.T) {
	e := newEnv(t, copyTranscoder{}, true)
	chat := &chatTransport{}
	handler := bot.NewHandler(chat, bot.NewClient(e.endpoint.URL+"/download", 5*time.Second))

	state := handler.HandleText(context.Background(), 99, reelLink)

	assert.Equal(t, bot.StateDelivered, state)
	assert.Equal(t, []string{bot.ProcessingText}, chat.texts)
	assert.Equal(t, 1, chat.deleted)
	require.Len(t, chat.audio, 1)
	assert.Equal(t, "ID3:192k:fake-mp4-payload:"+reelLink, string(chat.audio[0]))
	assert.Equal(t, []string{"Reel Audio"}, chat.titles)
	assert.EqualValues(t, 1, e.scraperHits.Load())
	e.assertNoArtifacts(t)
}

func TestPipeline_HTTPSuccessHeaders(t *testing.T) {
	e := newEnv(t, copyTranscoder{}, true)

	resp, body := postURL(t, e.endpoint.URL, "https://instagram.com/reel/ABC123")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="reel_audio.mp3"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "snapsave", resp.Header.Get(api.StrategyHeader))
	assert.Equal(t, "ID3:192k:fake-mp4-payload:https://instagram.com/reel/ABC123", string(body))
	e.assertNoArtifacts(t)
}

func TestPipeline_InvalidLinkMakesNoCalls(t *testing.T) {
	e := newEnv(t, copyTranscoder{}, true)

	resp, body := postURL(t, e.endpoint.URL, "https://example.com/not-a-reel")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid Instagram URL"}`, string(body))
	assert.Zero(t, e.scraperHits.Load())
	assert.Zero(t, e.mediaHits.Load())
}

func TestPipeline_ResolutionFailed(t *testing.T) {
	e := newEnv(t, copyTranscoder{}, false)
	chat := &chatTransport{}
	handler := bot.NewHandler(chat, bot.NewClient(e.endpoint.URL+"/download", 5*time.Second))

	state := handler.HandleText(context.Background(), 99, reelLink)

	assert.Equal(t, bot.StateFailed, state)
	require.Len(t, chat.texts, 2)
	assert.Equal(t,
		"Sorry, something went wrong.\n\nError: Could not retrieve video URL. The link might be invalid, private, or the service is temporarily unavailable.",
		chat.texts[1])
	assert.Equal(t, 1, chat.deleted)
	assert.Zero(t, e.mediaHits.Load())
	e.assertNoArtifacts(t)
}

func TestPipeline_EngineMissing(t *testing.T) {
	e := newEnv(t, transcoder.NewFFmpeg("reelbridge-test-no-such-ffmpeg", time.Second), true)

	resp, body := postURL(t, e.endpoint.URL, reelLink)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"FFmpeg is not installed. Please install FFmpeg from https://ffmpeg.org/download.html"}`, string(body))
	e.assertNoArtifacts(t)
}

func TestPipeline_EndpointDown(t *testing.T) {
	e := newEnv(t, copyTranscoder{}, true)
	endpointURL := e.endpoint.URL
	e.endpoint.Close()

	chat := &chatTransport{}
	state := bot.NewHandler(chat, bot.NewClient(endpointURL+"/download", time.Second)).
		HandleText(context.Background(), 99, reelLink)

	assert.Equal(t, bot.StateFailed, state)
	require.Len(t, chat.texts, 2)
	assert.Contains(t, chat.texts[1], "Could not connect to the processing server. Is it running?")
	assert.Equal(t, 1, chat.deleted)
}

func TestPipeline_ConcurrentConversions(t *testing.T) {
	e := newEnv(t, copyTranscoder{}, true)

	var wg sync.WaitGroup
	statuses := make([]int, 4)
	for i := range statuses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, _ := json.Marshal(map[string]string{"url": reelLink})
			resp, err := http.Post(e.endpoint.URL+"/download", "application/json", bytes.NewReader(body))
			if err != nil {
				return
			}
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}()
	}
	wg.Wait()

	for _, status := range statuses {
		assert.Equal(t, http.StatusOK, status)
	}
	e.assertNoArtifacts(t)
}

// slowTranscoder holds every conversion until release is closed so that
// requests overlap on disk.
type slowTranscoder struct {
	started *sync.WaitGroup
	release chan struct{}
}

func (s slowTranscoder) Transcode(ctx context.Context, inputPath, outputPath, bitrate string) error {
	s.started.Done()
	<-s.release
	return copyTranscoder{}.Transcode(ctx, inputPath, outputPath, bitrate)
}

func TestPipeline_SharedRequestIDKeepsOutputsApart(t *testing.T) {
	links := []string{"https://instagram.com/reel/AAA", "https://instagram.com/reel/BBB"}

	var started sync.WaitGroup
	started.Add(len(links))
	tc := slowTranscoder{started: &started, release: make(chan struct{})}
	e := newEnv(t, tc, true)

	bodies := make([]string, len(links))
	statuses := make([]int, len(links))
	var wg sync.WaitGroup
	for i, link := range links {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload, _ := json.Marshal(map[string]string{"url": link})
			req, err := http.NewRequest(http.MethodPost, e.endpoint.URL+"/download", bytes.NewReader(payload))
			if !assert.NoError(t, err) {
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Request-ID", "11111111-1111-4111-8111-111111111111")
			resp, err := http.DefaultClient.Do(req)
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(resp.Body)
			statuses[i] = resp.StatusCode
			bodies[i] = buf.String()
		}()
	}

	// Both videos are on disk before either is transcoded.
	started.Wait()
	close(tc.release)
	wg.Wait()

	for i, link := range links {
		assert.Equal(t, http.StatusOK, statuses[i])
		assert.Equal(t, "ID3:192k:fake-mp4-payload:"+link, bodies[i])
	}
	e.assertNoArtifacts(t)
}
