package factory

import (
	"fmt"

	"github.com/SLatz18/thoughtsAI/pkg/transcribe"
	"github.com/SLatz18/thoughtsAI/pkg/transcribe/deepgram"
	"github.com/SLatz18/thoughtsAI/pkg/transcribe/whisper"
)

// NewTranscriptionProvider builds the configured speech-to-text provider.
// Deepgram falls back to Whisper when its key is missing, since Whisper is
// the more forgiving default.
func NewTranscriptionProvider(providerType, deepgramKey, openaiKey string) (transcribe.Provider, error) {
	switch providerType {
	case "deepgram":
		if deepgramKey != "" {
			return deepgram.NewDeepgramProvider(deepgramKey), nil
		}
		if openaiKey != "" {
			return whisper.NewWhisperProvider(openaiKey), nil
		}
		return nil, fmt.Errorf("deepgram provider requires an API key")
	case "whisper", "":
		if openaiKey == "" {
			return nil, fmt.Errorf("whisper provider requires an API key")
		}
		return whisper.NewWhisperProvider(openaiKey), nil
	default:
		return nil, fmt.Errorf("unsupported transcription provider: %s", providerType)
	}
}
