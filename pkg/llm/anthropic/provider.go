package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SLatz18/thoughtsAI/pkg/llm"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"

	// The Messages API rejects requests without max_tokens.
	defaultMaxTokens = 2048
)

type AnthropicProvider struct {
	BaseURL   string
	ModelName string
	APIKey    string
	Client    *http.Client
}

// Ensure AnthropicProvider implements LLMProvider
var _ llm.LLMProvider = &AnthropicProvider{}

func NewAnthropicProvider(apiKey, modelName, baseURL string) *AnthropicProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &AnthropicProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		APIKey:    apiKey,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID         string `json:"id"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// --- Interface Implementation ---

func (p *AnthropicProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	// 1. Process Options
	options := &llm.Options{
		Temperature: 0.7, // Default
		MaxTokens:   defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(options)
	}

	// 2. Split the system prompt out of the history; the Messages API takes
	// it as a top-level field rather than a message role.
	var system string
	messages := make([]anthropicMessage, 0, len(history))
	for _, msg := range history {
		if msg.Role == llm.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		messages = append(messages, anthropicMessage{Role: msg.Role, Content: msg.Content})
	}
	if len(messages) == 0 {
		return "", errors.New("anthropic: chat history has no user messages")
	}

	// 3. Prepare Payload
	model := p.ModelName
	if options.Model != "" {
		model = options.Model
	}

	reqPayload := anthropicRequest{
		Model:       model,
		System:      system,
		Messages:    messages,
		MaxTokens:   options.MaxTokens,
		Temperature: options.Temperature,
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	// 4. Send Request
	url := p.BaseURL + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", p.APIKey)
	req.Header.Set("Anthropic-Version", apiVersion)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	// 5. Parse Response
	var apiResp anthropicResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	for _, block := range apiResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("anthropic: response contained no text block")
}

func (p *AnthropicProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	// Reuse Chat for simplicity as most new LLMs are chat-optimized
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
