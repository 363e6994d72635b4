// Package thinking is the reasoning boundary of a capture session: it turns
// one utterance plus session context into a short conversational reply and a
// list of outline edit actions, degrading to a canned reply that parks the
// utterance in the document whenever the model stays unreachable.
package thinking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/SLatz18/thoughtsAI/pkg/llm"
	"github.com/SLatz18/thoughtsAI/pkg/outline"
)

const (
	defaultMaxRetries = 3
	replyMaxTokens    = 2048
)

// FallbackReply is returned when every attempt against the model failed.
const FallbackReply = "I'm having trouble processing right now, but I heard your thought. " +
	"Could you tell me more about what's on your mind? What feels most important about this?"

// Input carries everything the model sees for one thought.
type Input struct {
	Utterance         string
	Document          string        // rendered outline snapshot
	Turns             []llm.Message // bounded recent conversation window
	PendingQuestions  []string
	AnsweredQuestions []string
	Transcript        string // session transcript so far
}

// Result is the parsed outcome of one reasoning call.
type Result struct {
	Reply   string
	Actions []outline.EditAction
	Raw     string // unparsed model output, kept for the interaction log
}

// Fallback builds the degraded result for an utterance: apologetic reply plus
// one append that parks the raw thought where it can be found later.
func Fallback(utterance string) *Result {
	return &Result{
		Reply: FallbackReply,
		Actions: []outline.EditAction{
			{Kind: outline.KindAppendToSection, Path: outline.SectionUnprocessed, Content: "- " + utterance},
		},
	}
}

// Processor sends thinking-partner prompts to an LLM backend and parses the
// structured reply.
type Processor struct {
	provider   llm.LLMProvider
	maxRetries int
	logger     *log.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewProcessor(provider llm.LLMProvider, maxRetries int, logger *log.Logger) *Processor {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{
		provider:   provider,
		maxRetries: maxRetries,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// Process runs one reasoning call with exponential-backoff retries. It always
// returns a usable result: after the last failed attempt the fallback result
// is returned together with the error, so the caller can both report the
// failure and keep the turn moving.
func (p *Processor) Process(ctx context.Context, input Input) (*Result, error) {
	history := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: buildPrompt(input)},
	}

	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		raw, err := p.provider.Chat(ctx, history, llm.WithMaxTokens(replyMaxTokens))
		if err == nil {
			result := parseResult(raw)
			p.logger.Printf("[THINKING] parsed reply: %d chars, %d actions", len(result.Reply), len(result.Actions))
			return result, nil
		}

		lastErr = err
		p.logger.Printf("[THINKING] attempt %d/%d failed: %v", attempt+1, p.maxRetries, err)

		if attempt == p.maxRetries-1 || ctx.Err() != nil {
			break
		}
		// 2s, then 4s, matching the backoff the API docs suggest.
		delay := time.Duration(1<<(attempt+1)) * time.Second
		if err := p.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	return Fallback(input.Utterance), fmt.Errorf("reasoning call failed after %d attempts: %w", p.maxRetries, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
