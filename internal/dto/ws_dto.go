package dto

// Inbound message types accepted on the live session socket.
const (
	WSTypeStartSession = "start_session"
	WSTypeAudio        = "audio"
	WSTypeText         = "text"
	WSTypeEndSession   = "end_session"
	WSTypeGetDocument  = "get_document"
	WSTypePing         = "ping"
)

// ClientMessage is the single inbound envelope on the session socket. Fields
// beyond Type are per-type: DocumentId for start_session, Data (base64 PCM)
// for audio, Content for text.
type ClientMessage struct {
	Type       string `json:"type"`
	DocumentId string `json:"document_id,omitempty"`
	Data       string `json:"data,omitempty"`
	Content    string `json:"content,omitempty"`
}
