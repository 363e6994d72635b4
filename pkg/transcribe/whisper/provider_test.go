package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFlushSendsBufferedAudioAsFinalFragment(t *testing.T) {
	var gotModel, gotLanguage string
	var gotAudio []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")

		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			var buf bytes.Buffer
			buf.ReadFrom(file)
			gotAudio = buf.Bytes()
			file.Close()
		}

		json.NewEncoder(w).Encode(transcriptionResponse{Text: " hello world "})
	}))
	defer srv.Close()

	p := NewWhisperProvider("test-key")
	p.apiURL = srv.URL
	p.interval = 10 * time.Millisecond

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Close()

	audio := bytes.Repeat([]byte{0xAB}, 2048)
	if err := p.SendAudio(audio); err != nil {
		t.Fatalf("SendAudio() error = %v", err)
	}

	select {
	case frag := <-p.Transcripts():
		if frag.Text != "hello world" {
			t.Errorf("Text = %q, want %q", frag.Text, "hello world")
		}
		if !frag.IsFinal {
			t.Errorf("IsFinal = false, want true")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no fragment received")
	}

	if gotModel != "whisper-1" {
		t.Errorf("model = %q, want whisper-1", gotModel)
	}
	if gotLanguage != "en" {
		t.Errorf("language = %q, want en", gotLanguage)
	}
	if !bytes.Equal(gotAudio, audio) {
		t.Errorf("uploaded audio does not match sent audio (%d vs %d bytes)", len(gotAudio), len(audio))
	}
}

func TestSmallBufferIsNotFlushed(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		json.NewEncoder(w).Encode(transcriptionResponse{Text: "noise"})
	}))
	defer srv.Close()

	p := NewWhisperProvider("test-key")
	p.apiURL = srv.URL
	p.interval = 5 * time.Millisecond

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Close()

	if err := p.SendAudio(bytes.Repeat([]byte{0x01}, 100)); err != nil {
		t.Fatalf("SendAudio() error = %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if n := requests.Load(); n != 0 {
		t.Errorf("requests = %d, want 0 for sub-threshold buffer", n)
	}
}

func TestCloseStopsStreamAndClosesChannel(t *testing.T) {
	p := NewWhisperProvider("test-key")
	p.interval = 5 * time.Millisecond

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case _, ok := <-p.Transcripts():
		if ok {
			t.Error("expected closed channel, got fragment")
		}
	case <-time.After(time.Second):
		t.Fatal("Transcripts channel never closed")
	}

	if err := p.SendAudio([]byte{0x01}); err == nil {
		t.Error("SendAudio after Close should fail")
	}
	if err := p.Err(); err != nil {
		t.Errorf("Err() = %v, want nil after clean close", err)
	}

	// Close is idempotent.
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
