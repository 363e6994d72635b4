// Package deepgram streams audio to Deepgram's live listen API over a
// websocket and emits interim and final transcript fragments.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SLatz18/thoughtsAI/pkg/transcribe"

	"github.com/gorilla/websocket"
)

const (
	defaultListenURL  = "wss://api.deepgram.com/v1/listen"
	handshakeTimeout  = 10 * time.Second
	keepAliveInterval = 5 * time.Second
	fragmentBuffer    = 100
)

// DeepgramProvider implements transcribe.Provider against Deepgram's
// streaming API. Audio is raw PCM (16-bit, 16kHz, mono).
type DeepgramProvider struct {
	apiKey    string
	listenURL string

	conn      *websocket.Conn
	fragments chan transcribe.Fragment
	stop      chan struct{}
	done      chan struct{}
	closed    atomic.Bool
	writeMu   sync.Mutex

	errMu sync.Mutex
	err   error
}

var _ transcribe.Provider = &DeepgramProvider{}

func NewDeepgramProvider(apiKey string) *DeepgramProvider {
	return &DeepgramProvider{
		apiKey:    apiKey,
		listenURL: defaultListenURL,
		fragments: make(chan transcribe.Fragment, fragmentBuffer),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start connects the listen websocket and begins the read and keep-alive
// loops. Interim results are enabled so the client can show text while the
// user is still speaking; endpointing marks finals at 300ms of silence.
func (d *DeepgramProvider) Start(ctx context.Context) error {
	if d.conn != nil {
		return errors.New("deepgram: stream already started")
	}

	u, err := url.Parse(d.listenURL)
	if err != nil {
		return fmt.Errorf("parse listen URL: %w", err)
	}
	q := u.Query()
	q.Set("model", "nova-2")
	q.Set("language", "en-US")
	q.Set("punctuate", "true")
	q.Set("interim_results", "true")
	q.Set("endpointing", "300")
	q.Set("vad_events", "true")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", "16000")
	q.Set("channels", "1")
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "Token "+d.apiKey)

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if len(body) > 0 {
				return fmt.Errorf("deepgram connect (status %d): %s", resp.StatusCode, string(body))
			}
			return fmt.Errorf("deepgram connect: status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("deepgram connect: %w", err)
	}
	d.conn = conn

	go d.readLoop()
	go d.keepAliveLoop()
	return nil
}

type listenMessage struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	Description string `json:"description"`
	Channel     struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (d *DeepgramProvider) readLoop() {
	defer func() {
		close(d.fragments)
		close(d.done)
	}()

	for {
		_, data, err := d.conn.ReadMessage()
		if err != nil {
			if !d.closed.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				d.setErr(fmt.Errorf("deepgram stream: %w", err))
			}
			return
		}

		var msg listenMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "Results":
			if len(msg.Channel.Alternatives) == 0 {
				continue
			}
			alt := msg.Channel.Alternatives[0]
			// Deepgram sends empty results during silence; skip them.
			if alt.Transcript == "" {
				continue
			}
			select {
			case d.fragments <- transcribe.Fragment{
				Text:       alt.Transcript,
				IsFinal:    msg.IsFinal,
				Confidence: alt.Confidence,
			}:
			case <-d.stop:
				return
			}
		case "Error":
			d.setErr(fmt.Errorf("deepgram stream: %s", msg.Description))
			return
		}
	}
}

// keepAliveLoop keeps the upstream socket open across quiet stretches;
// Deepgram drops connections that stay silent for ~10 seconds.
func (d *DeepgramProvider) keepAliveLoop() {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.writeMu.Lock()
			err := d.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"KeepAlive"}`))
			d.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-d.stop:
			return
		case <-d.done:
			return
		}
	}
}

func (d *DeepgramProvider) SendAudio(chunk []byte) error {
	if d.conn == nil {
		return errors.New("deepgram: stream not started")
	}
	if d.closed.Load() {
		return errors.New("deepgram: stream closed")
	}
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	return d.conn.WriteMessage(websocket.BinaryMessage, chunk)
}

func (d *DeepgramProvider) Transcripts() <-chan transcribe.Fragment {
	return d.fragments
}

// Err reports the terminal stream error once Transcripts has closed.
func (d *DeepgramProvider) Err() error {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	return d.err
}

func (d *DeepgramProvider) setErr(err error) {
	d.errMu.Lock()
	if d.err == nil {
		d.err = err
	}
	d.errMu.Unlock()
}

func (d *DeepgramProvider) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	close(d.stop)

	if d.conn == nil {
		// Never connected, so no read loop owns the channels.
		close(d.fragments)
		close(d.done)
		return nil
	}

	d.writeMu.Lock()
	d.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
	d.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	d.writeMu.Unlock()

	return d.conn.Close()
}
