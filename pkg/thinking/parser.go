package thinking

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/SLatz18/thoughtsAI/pkg/outline"
)

var (
	fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	inlineJSONPattern = regexp.MustCompile(`(?s)\{.*"conversation".*"document_updates".*\}`)
)

type wireReply struct {
	Conversation    string               `json:"conversation"`
	DocumentUpdates []outline.EditAction `json:"document_updates"`
}

// parseResult recovers the structured reply from raw model output. Models
// wrap JSON in markdown fences, prepend chatter, or ignore the contract
// entirely; each shape is tried in turn and free text that never parses
// becomes the whole reply with no document updates.
func parseResult(raw string) *Result {
	for _, candidate := range jsonCandidates(raw) {
		var wire wireReply
		if err := json.Unmarshal([]byte(candidate), &wire); err != nil {
			continue
		}
		if wire.Conversation == "" && len(wire.DocumentUpdates) == 0 {
			continue
		}
		return &Result{Reply: wire.Conversation, Actions: wire.DocumentUpdates, Raw: raw}
	}
	return &Result{Reply: strings.TrimSpace(raw), Raw: raw}
}

func jsonCandidates(raw string) []string {
	var candidates []string
	if m := fencedJSONPattern.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := inlineJSONPattern.FindString(raw); m != "" {
		candidates = append(candidates, m)
	}
	if trimmed := strings.TrimSpace(raw); strings.HasPrefix(trimmed, "{") {
		candidates = append(candidates, trimmed)
	}
	return candidates
}
