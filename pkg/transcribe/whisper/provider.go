// Package whisper adapts OpenAI's batch transcription endpoint to the
// streaming provider interface. Whisper has no streaming API, so audio is
// buffered and flushed on a short interval; each flush comes back as one
// final fragment. Latency is the flush interval, which is acceptable for
// spoken thought capture.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SLatz18/thoughtsAI/pkg/transcribe"
)

const (
	defaultAPIURL   = "https://api.openai.com/v1/audio/transcriptions"
	defaultInterval = 1500 * time.Millisecond

	// minFlushBytes skips flushes that would send near-empty audio.
	minFlushBytes  = 1000
	fragmentBuffer = 100
)

// WhisperProvider implements transcribe.Provider on top of periodic batch
// transcription. Browsers send webm/opus chunks, which Whisper accepts
// directly.
type WhisperProvider struct {
	apiKey   string
	apiURL   string
	interval time.Duration
	client   *http.Client

	mu     sync.Mutex
	buffer []byte

	fragments chan transcribe.Fragment
	stop      chan struct{}
	done      chan struct{}
	started   atomic.Bool
	closed    atomic.Bool

	errMu sync.Mutex
	err   error
}

var _ transcribe.Provider = &WhisperProvider{}

func NewWhisperProvider(apiKey string) *WhisperProvider {
	return &WhisperProvider{
		apiKey:    apiKey,
		apiURL:    defaultAPIURL,
		interval:  defaultInterval,
		client:    &http.Client{Timeout: 30 * time.Second},
		fragments: make(chan transcribe.Fragment, fragmentBuffer),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (w *WhisperProvider) Start(ctx context.Context) error {
	if w.started.Swap(true) {
		return errors.New("whisper: stream already started")
	}
	go w.flushLoop(ctx)
	return nil
}

// SendAudio buffers a chunk until the next flush.
func (w *WhisperProvider) SendAudio(chunk []byte) error {
	if w.closed.Load() {
		return errors.New("whisper: stream closed")
	}
	w.mu.Lock()
	w.buffer = append(w.buffer, chunk...)
	w.mu.Unlock()
	return nil
}

func (w *WhisperProvider) Transcripts() <-chan transcribe.Fragment {
	return w.fragments
}

func (w *WhisperProvider) Err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

func (w *WhisperProvider) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	close(w.stop)
	if !w.started.Load() {
		close(w.fragments)
		close(w.done)
	}
	return nil
}

func (w *WhisperProvider) flushLoop(ctx context.Context) {
	defer func() {
		close(w.fragments)
		close(w.done)
	}()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			audio := w.takeBuffer()
			if audio == nil {
				continue
			}
			text, err := w.transcribeChunk(ctx, audio)
			if err != nil {
				// One failed flush loses that chunk but not the stream.
				continue
			}
			if text == "" {
				continue
			}
			select {
			case w.fragments <- transcribe.Fragment{Text: text, IsFinal: true, Confidence: 1.0}:
			case <-w.stop:
				return
			}
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *WhisperProvider) takeBuffer() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buffer) <= minFlushBytes {
		return nil
	}
	audio := w.buffer
	w.buffer = nil
	return audio
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (w *WhisperProvider) transcribeChunk(ctx context.Context, audio []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", "audio.webm")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("write audio data: %w", err)
	}
	if err := mw.WriteField("model", "whisper-1"); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := mw.WriteField("language", "en"); err != nil {
		return "", fmt.Errorf("write language field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.apiURL, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("whisper error %d: %s", resp.StatusCode, string(body))
	}

	var parsed transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return strings.TrimSpace(parsed.Text), nil
}
