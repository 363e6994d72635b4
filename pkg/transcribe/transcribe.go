// Package transcribe abstracts live speech-to-text behind a streaming
// provider interface. Audio chunks go in, transcript fragments come out.
package transcribe

import "context"

// Fragment is one hypothesis from the recognizer. Partial fragments revise
// each other as the user keeps speaking; a final fragment is stable text that
// belongs to the session transcript.
type Fragment struct {
	Text       string
	IsFinal    bool
	Confidence float64
}

// Provider is a live transcription stream. Start opens the upstream
// connection, SendAudio forwards raw chunks, and recognized fragments arrive
// on Transcripts until the stream shuts down. Once the channel is closed,
// Err reports the terminal stream error, if any.
type Provider interface {
	Start(ctx context.Context) error
	SendAudio(chunk []byte) error
	Transcripts() <-chan Fragment
	Err() error
	Close() error
}
