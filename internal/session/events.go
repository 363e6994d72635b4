package session

import "github.com/SLatz18/thoughtsAI/pkg/outline"

// EventType discriminates outbound live-session messages.
type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventTranscript     EventType = "transcript"
	EventPauseDetected  EventType = "pause_detected"
	EventProcessing     EventType = "processing"
	EventAIResponse     EventType = "ai_response"
	EventDocument       EventType = "document"
	EventError          EventType = "error"
	EventSessionEnded   EventType = "session_ended"
	EventPong           EventType = "pong"
)

// Processing status values.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
)

// Event is one outbound message for the session's client. Concrete events
// marshal directly to the wire protocol; the embedded header pins the type
// discriminator.
type Event interface {
	Kind() EventType
}

// Sink receives session events in emission order. Implementations must not
// block: the engine's loop calls Emit inline.
type Sink interface {
	Emit(event Event)
}

type eventHeader struct {
	Type EventType `json:"type"`
}

func (h eventHeader) Kind() EventType { return h.Type }

type SessionStartedEvent struct {
	eventHeader
	SessionID  string `json:"session_id"`
	DocumentID string `json:"document_id"`
	Document   string `json:"document"`
}

func NewSessionStartedEvent(sessionID, documentID, document string) SessionStartedEvent {
	return SessionStartedEvent{
		eventHeader: eventHeader{Type: EventSessionStarted},
		SessionID:   sessionID,
		DocumentID:  documentID,
		Document:    document,
	}
}

type TranscriptEvent struct {
	eventHeader
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

func NewTranscriptEvent(text string, isFinal bool) TranscriptEvent {
	return TranscriptEvent{eventHeader: eventHeader{Type: EventTranscript}, Text: text, IsFinal: isFinal}
}

type PauseDetectedEvent struct {
	eventHeader
	Transcript string `json:"transcript"`
}

func NewPauseDetectedEvent(transcript string) PauseDetectedEvent {
	return PauseDetectedEvent{eventHeader: eventHeader{Type: EventPauseDetected}, Transcript: transcript}
}

type ProcessingEvent struct {
	eventHeader
	Status string `json:"status"`
}

func NewProcessingEvent(status string) ProcessingEvent {
	return ProcessingEvent{eventHeader: eventHeader{Type: EventProcessing}, Status: status}
}

type AIResponseEvent struct {
	eventHeader
	Conversation     string               `json:"conversation"`
	DocumentUpdates  []outline.EditAction `json:"document_updates"`
	UpdatedDocument  string               `json:"updated_document"`
	PendingQuestions []string             `json:"pending_questions"`
}

func NewAIResponseEvent(conversation string, updates []outline.EditAction, document string, pending []string) AIResponseEvent {
	return AIResponseEvent{
		eventHeader:      eventHeader{Type: EventAIResponse},
		Conversation:     conversation,
		DocumentUpdates:  updates,
		UpdatedDocument:  document,
		PendingQuestions: pending,
	}
}

type DocumentEvent struct {
	eventHeader
	Document string `json:"document"`
}

func NewDocumentEvent(document string) DocumentEvent {
	return DocumentEvent{eventHeader: eventHeader{Type: EventDocument}, Document: document}
}

type ErrorEvent struct {
	eventHeader
	Message string `json:"message"`
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{eventHeader: eventHeader{Type: EventError}, Message: message}
}

type SessionEndedEvent struct {
	eventHeader
	SessionID       string `json:"session_id"`
	DocumentID      string `json:"document_id"`
	FinalTranscript string `json:"final_transcript"`
	FinalDocument   string `json:"final_document"`
}

func NewSessionEndedEvent(sessionID, documentID, transcript, document string) SessionEndedEvent {
	return SessionEndedEvent{
		eventHeader:     eventHeader{Type: EventSessionEnded},
		SessionID:       sessionID,
		DocumentID:      documentID,
		FinalTranscript: transcript,
		FinalDocument:   document,
	}
}

type PongEvent struct {
	eventHeader
}

func NewPongEvent() PongEvent {
	return PongEvent{eventHeader: eventHeader{Type: EventPong}}
}
