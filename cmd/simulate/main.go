package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
)

const defaultWSURL = "ws://localhost:3000/ws/session"

type clientMessage struct {
	Type       string `json:"type"`
	DocumentId string `json:"document_id,omitempty"`
	Content    string `json:"content,omitempty"`
}

type serverEvent struct {
	Type             string   `json:"type"`
	SessionID        string   `json:"session_id,omitempty"`
	DocumentID       string   `json:"document_id,omitempty"`
	Document         string   `json:"document,omitempty"`
	Text             string   `json:"text,omitempty"`
	Transcript       string   `json:"transcript,omitempty"`
	Status           string   `json:"status,omitempty"`
	Conversation     string   `json:"conversation,omitempty"`
	UpdatedDocument  string   `json:"updated_document,omitempty"`
	PendingQuestions []string `json:"pending_questions,omitempty"`
	Message          string   `json:"message,omitempty"`
	FinalTranscript  string   `json:"final_transcript,omitempty"`
	FinalDocument    string   `json:"final_document,omitempty"`
}

func main() {
	color.Cyan("🚀 Starting Live Session Simulation\n")

	wsURL := os.Getenv("SIMULATE_WS_URL")
	if wsURL == "" {
		wsURL = defaultWSURL
	}
	if token := os.Getenv("SIMULATE_TOKEN"); token != "" {
		wsURL += "?token=" + token
	}

	// 1. Connect
	color.Yellow("\n[1] Connecting to %s", wsURL)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	defer conn.Close()
	color.Green("Connected")

	// Reader prints every server event until the socket closes.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var ev serverEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			printEvent(ev)
		}
	}()

	// 2. Start a session (no document id: the server creates a fresh one)
	color.Yellow("\n[2] Starting session")
	send(conn, clientMessage{Type: "start_session", DocumentId: os.Getenv("SIMULATE_DOCUMENT_ID")})
	time.Sleep(1 * time.Second)

	// 3. Think out loud. The gaps outlast the pause threshold, so each
	// utterance gets processed before the next one lands.
	utterances := []string{
		"I want to figure out how to launch the beta next month.",
		"The biggest risk is that onboarding is still too confusing for new users.",
		"Maybe I should cut the team invite flow from the first release and ship the single-player mode only.",
	}
	for i, text := range utterances {
		color.Yellow("\n[3.%d] USER: %s", i+1, text)
		send(conn, clientMessage{Type: "text", Content: text})
		time.Sleep(5 * time.Second)
	}

	// 4. Ask for the current document snapshot
	color.Yellow("\n[4] Requesting document")
	send(conn, clientMessage{Type: "get_document"})
	time.Sleep(1 * time.Second)

	// 5. End the session and wait for the server to close the socket
	color.Yellow("\n[5] Ending session")
	send(conn, clientMessage{Type: "end_session"})

	select {
	case <-done:
		color.Green("\nSession closed by server")
	case <-time.After(30 * time.Second):
		color.Red("\nTimed out waiting for session to close")
	}
}

func send(conn *websocket.Conn, msg clientMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		color.Red("Write failed: %v", err)
		os.Exit(1)
	}
}

func printEvent(ev serverEvent) {
	switch ev.Type {
	case "session_started":
		color.Green("<- session_started session=%s document=%s", ev.SessionID, ev.DocumentID)
	case "transcript":
		fmt.Printf("<- transcript: %s\n", ev.Text)
	case "pause_detected":
		color.Cyan("<- pause_detected: %q", ev.Transcript)
	case "processing":
		color.Cyan("<- processing: %s", ev.Status)
	case "ai_response":
		color.Green("<- AI: %s", ev.Conversation)
		if len(ev.PendingQuestions) > 0 {
			fmt.Printf("   pending questions: %v\n", ev.PendingQuestions)
		}
		if ev.UpdatedDocument != "" {
			fmt.Printf("   document:\n%s\n", ev.UpdatedDocument)
		}
	case "document":
		color.Green("<- document snapshot:\n%s", ev.Document)
	case "session_ended":
		color.Green("<- session_ended")
		fmt.Printf("   final transcript: %s\n", ev.FinalTranscript)
		fmt.Printf("   final document:\n%s\n", ev.FinalDocument)
	case "error":
		color.Red("<- error: %s", ev.Message)
	case "pong":
		fmt.Println("<- pong")
	default:
		raw, _ := json.Marshal(ev)
		fmt.Printf("<- %s\n", raw)
	}
}
