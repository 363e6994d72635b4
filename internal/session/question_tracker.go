package session

import (
	"strings"
	"time"
)

const (
	// DefaultMinQuestionLength filters extraction noise such as a bare "?".
	DefaultMinQuestionLength = 10
	// DefaultMinAnswerLength is the shortest user input treated as answering
	// something rather than filler.
	DefaultMinAnswerLength = 20

	answerMatchLimit     = 3
	answeredHistoryLimit = 10
	answerEvidenceLimit  = 100
	questionSnippetLimit = 100
)

// PendingQuestion is one clarifying question the assistant asked and the
// bookkeeping around whether the user got back to it.
type PendingQuestion struct {
	Question string
	Context  string
	AskedAt  time.Time
	Answered bool
	Answer   string
}

// QuestionContext is the tracker's read-only view used for prompt building.
type QuestionContext struct {
	Pending          []string
	RecentlyAnswered []string
}

// QuestionTracker keeps the open loop between questions the assistant asked
// and later user input. Matching is deliberately crude: any substantive
// input marks the oldest few pending questions answered. Real attribution is
// the reasoning model's job; the tracker only has to stop the same question
// from being re-asked forever. Not safe for concurrent use.
type QuestionTracker struct {
	minQuestionLen int
	minAnswerLen   int
	pending        []*PendingQuestion
	answered       []*PendingQuestion
}

func NewQuestionTracker(minQuestionLen, minAnswerLen int) *QuestionTracker {
	if minQuestionLen <= 0 {
		minQuestionLen = DefaultMinQuestionLength
	}
	if minAnswerLen <= 0 {
		minAnswerLen = DefaultMinAnswerLength
	}
	return &QuestionTracker{minQuestionLen: minQuestionLen, minAnswerLen: minAnswerLen}
}

// RecordReply extracts clarifying questions from an assistant reply and adds
// them to the pending list. It returns the extracted question texts.
func (t *QuestionTracker) RecordReply(reply string) []string {
	questions := extractQuestions(reply, t.minQuestionLen)
	if len(questions) == 0 {
		return nil
	}
	snippet := truncateRunes(strings.TrimSpace(reply), questionSnippetLimit)
	now := time.Now()
	for _, q := range questions {
		t.pending = append(t.pending, &PendingQuestion{
			Question: q,
			Context:  snippet,
			AskedAt:  now,
		})
	}
	return questions
}

// RecordUserInput applies the FIFO answer heuristic: substantive input marks
// up to three of the oldest pending questions answered, keeping the input as
// evidence. The answered history is capped, oldest evicted first.
func (t *QuestionTracker) RecordUserInput(input string) {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) < t.minAnswerLen || len(t.pending) == 0 {
		return
	}

	n := answerMatchLimit
	if n > len(t.pending) {
		n = len(t.pending)
	}
	evidence := truncateRunes(trimmed, answerEvidenceLimit)
	for _, q := range t.pending[:n] {
		q.Answered = true
		q.Answer = evidence
		t.answered = append(t.answered, q)
	}
	t.pending = append([]*PendingQuestion{}, t.pending[n:]...)

	if len(t.answered) > answeredHistoryLimit {
		t.answered = t.answered[len(t.answered)-answeredHistoryLimit:]
	}
}

// Context returns the current pending and recently answered question texts.
// Pure read; safe to call between any two mutations.
func (t *QuestionTracker) Context() QuestionContext {
	ctx := QuestionContext{
		Pending:          make([]string, 0, len(t.pending)),
		RecentlyAnswered: make([]string, 0, len(t.answered)),
	}
	for _, q := range t.pending {
		ctx.Pending = append(ctx.Pending, q.Question)
	}
	for _, q := range t.answered {
		ctx.RecentlyAnswered = append(ctx.RecentlyAnswered, q.Question)
	}
	return ctx
}

// extractQuestions finds each maximal run of text that ends in "?" measured
// from the previous sentence terminator or line break. A "?" sitting right
// after another terminator (as in "..?" or "?!?") is punctuation noise, not
// a new question.
func extractQuestions(text string, minLen int) []string {
	var out []string
	runes := []rune(text)
	segStart := 0
	for i, r := range runes {
		switch r {
		case '.', '!', '\n':
			segStart = i + 1
		case '?':
			if i == 0 || !isSentenceTerminator(runes[i-1]) {
				candidate := stripEnumerationMarker(string(runes[segStart : i+1]))
				if len(candidate) > minLen {
					out = append(out, candidate)
				}
			}
			segStart = i + 1
		}
	}
	return out
}

func isSentenceTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// stripEnumerationMarker removes leading list markers like "1.", "-", "*"
// or "•" so a question pulled out of a bullet list starts at its real text.
func stripEnumerationMarker(s string) string {
	for {
		trimmed := strings.TrimSpace(s)
		stripped := trimmed

		digits := 0
		for digits < len(stripped) && stripped[digits] >= '0' && stripped[digits] <= '9' {
			digits++
		}
		switch {
		case digits > 0 && digits < len(stripped) && stripped[digits] == '.':
			stripped = stripped[digits+1:]
		case strings.HasPrefix(stripped, "-"):
			stripped = stripped[1:]
		case strings.HasPrefix(stripped, "*"):
			stripped = stripped[1:]
		case strings.HasPrefix(stripped, "•"):
			stripped = strings.TrimPrefix(stripped, "•")
		}

		if stripped == trimmed {
			return trimmed
		}
		s = stripped
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
