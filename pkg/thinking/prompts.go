package thinking

import (
	"fmt"
	"strings"

	"github.com/SLatz18/thoughtsAI/pkg/llm"
)

// systemPrompt steers the model toward short conversational replies plus the
// JSON document-update contract parseResult expects.
const systemPrompt = `You are an expert thinking partner for busy professionals. Your role is to help people think through their ideas with SHORT, PUNCHY responses.

## RESPONSE STYLE - CRITICAL
- Keep responses to 1-3 sentences MAX unless the user explicitly asks for detail
- Ask only ONE focused question at a time
- No preamble, no "Great point!" - just get to the substance
- Think "text message" not "email"

## CONVERSATIONAL RESPONSE
- ALWAYS engage with the SUBSTANCE of what they said
- Ask ONE clarifying question that pushes their thinking forward
- Point out ONE key assumption or gap if relevant
- Be direct and concise - busy professionals don't have time for fluff
- NEVER ask what they're thinking about - they just told you. Engage with it.

## DOCUMENT UPDATES
- Organize their thoughts into the structured document
- Extract action items when mentioned
- Keep bullet points brief

IMPORTANT: Your response must be valid JSON in this exact format:
{
    "conversation": "Your response here with clarifying questions...",
    "document_updates": [
        {
            "action": "add_section" | "add_to_section" | "create_subsection" | "add_action_item" | "add_blocker",
            "path": "Section Name" or "Section Name/Subsection Name",
            "content": "The markdown content to add"
        }
    ]
}

### Document Update Actions:
- **add_section**: Create a new top-level section (e.g., "Career Decisions", "Project Ideas")
- **add_to_section**: Add content to an existing section
- **create_subsection**: Create a subsection under an existing section
- **add_action_item**: Add an item to the "Action Items" section (create if doesn't exist)
- **add_blocker**: Add an item to the "Blockers & Open Questions" section (create if doesn't exist)

### Guidelines for Document Organization:
- Group related thoughts together, not chronologically
- Use clear, descriptive section names
- Keep bullet points concise
- Highlight key decisions, insights, and next steps
- Maintain a logical flow within sections

Remember: SHORT responses. 1-3 sentences. ONE question. No fluff.`

// transcriptTailLimit bounds how much of the running transcript goes into the
// prompt; the most recent characters win.
const transcriptTailLimit = 2000

// buildPrompt assembles the user message: document snapshot, conversation
// window, transcript tail, question state, then the new thought.
func buildPrompt(in Input) string {
	document := in.Document
	if document == "" {
		document = "(Empty - this is a new session)"
	}

	var history strings.Builder
	for _, msg := range in.Turns {
		role := "Assistant"
		if msg.Role == llm.RoleUser {
			role = "User"
		}
		fmt.Fprintf(&history, "%s: %s\n\n", role, msg.Content)
	}
	conversation := history.String()
	if conversation == "" {
		conversation = "(Starting fresh conversation)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Current Document Structure\n%s\n\n", document)
	fmt.Fprintf(&b, "## Recent Conversation\n%s\n\n", conversation)
	b.WriteString(transcriptSection(in.Transcript))
	b.WriteString(questionSection(in.PendingQuestions, in.AnsweredQuestions))
	fmt.Fprintf(&b, "## New Thought from User\n%s\n\n", in.Utterance)
	b.WriteString(`IMPORTANT:
- The user is speaking their thoughts out loud via voice transcription
- Engage with the ACTUAL CONTENT of what they said - do NOT ask "what would you like to think through?" or similar
- If they're discussing a topic (like organizing tasks, making decisions, etc.), engage with THAT topic
- Provide your response as JSON with "conversation" (your response/follow-up questions) and "document_updates" (how to update the document).`)
	return b.String()
}

func transcriptSection(transcript string) string {
	if strings.TrimSpace(transcript) == "" {
		return ""
	}
	runes := []rune(transcript)
	if len(runes) > transcriptTailLimit {
		return fmt.Sprintf("## Full Session Transcript (truncated)\n...%s\n\n", string(runes[len(runes)-transcriptTailLimit:]))
	}
	return fmt.Sprintf("## Full Session Transcript\n%s\n\n", transcript)
}

func questionSection(pending, answered []string) string {
	var b strings.Builder
	if len(pending) > 0 {
		b.WriteString("## Your Pending Questions (awaiting user response)\n")
		for i, q := range pending {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q)
		}
		b.WriteString("\n")
	}
	if len(answered) > 0 {
		b.WriteString("## Recently Answered Questions\n")
		for _, q := range answered {
			fmt.Fprintf(&b, "- %s (answered)\n", q)
		}
		b.WriteString("\n")
	}
	return b.String()
}
