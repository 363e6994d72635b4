package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SLatz18/thoughtsAI/pkg/outline"
	"github.com/SLatz18/thoughtsAI/pkg/thinking"
	"github.com/SLatz18/thoughtsAI/pkg/transcribe"

	"github.com/google/uuid"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Emit(event Event) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

func (l *eventLog) count(kind EventType) int {
	n := 0
	for _, ev := range l.snapshot() {
		if ev.Kind() == kind {
			n++
		}
	}
	return n
}

func (l *eventLog) waitFor(t *testing.T, kind EventType) Event {
	t.Helper()
	return l.waitForN(t, kind, 1)[0]
}

func (l *eventLog) waitForN(t *testing.T, kind EventType, n int) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var matches []Event
		for _, ev := range l.snapshot() {
			if ev.Kind() == kind {
				matches = append(matches, ev)
			}
		}
		if len(matches) >= n {
			return matches
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d %q event(s)", n, kind)
	return nil
}

// scriptedThinker counts overlap and optionally blocks each call on a gate so
// tests can hold a reasoning call in flight.
type scriptedThinker struct {
	process func(input thinking.Input) (*thinking.Result, error)
	gate    chan struct{}

	mu          sync.Mutex
	inputs      []thinking.Input
	inFlight    int
	maxInFlight int
}

func (s *scriptedThinker) Process(ctx context.Context, input thinking.Input) (*thinking.Result, error) {
	s.mu.Lock()
	s.inputs = append(s.inputs, input)
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	if s.gate != nil {
		<-s.gate
	}

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()

	return s.process(input)
}

func (s *scriptedThinker) inputsSnapshot() []thinking.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]thinking.Input, len(s.inputs))
	copy(out, s.inputs)
	return out
}

func echoThinker(prefix string) *scriptedThinker {
	return &scriptedThinker{process: func(input thinking.Input) (*thinking.Result, error) {
		return &thinking.Result{Reply: prefix + input.Utterance}, nil
	}}
}

type captureRecorder struct {
	mu        sync.Mutex
	turnPairs [][2]string
	documents []string
	endedWith []string
}

func (r *captureRecorder) RecordTurnPair(sessionID, documentID uuid.UUID, userText, assistantText string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turnPairs = append(r.turnPairs, [2]string{userText, assistantText})
}

func (r *captureRecorder) RecordDocument(documentID uuid.UUID, sections []outline.SectionData, markdown string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = append(r.documents, markdown)
}

func (r *captureRecorder) RecordSessionEnd(sessionID uuid.UUID, transcript string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endedWith = append(r.endedWith, transcript)
}

type fakeStream struct {
	frags    chan transcribe.Fragment
	startErr error
	closed   atomic.Bool

	mu        sync.Mutex
	streamErr error
	sent      [][]byte
}

func newFakeStream() *fakeStream {
	return &fakeStream{frags: make(chan transcribe.Fragment, 16)}
}

func (f *fakeStream) Start(ctx context.Context) error { return f.startErr }

func (f *fakeStream) SendAudio(chunk []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, chunk)
	return nil
}

func (f *fakeStream) Transcripts() <-chan transcribe.Fragment { return f.frags }

func (f *fakeStream) sentSnapshot() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeStream) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamErr
}

func (f *fakeStream) Close() error {
	if !f.closed.Swap(true) {
		close(f.frags)
	}
	return nil
}

func startSession(t *testing.T, cfg Config) (*Orchestrator, *eventLog) {
	t.Helper()
	events := &eventLog{}
	cfg.Sink = events
	if cfg.SessionID == uuid.Nil {
		cfg.SessionID = uuid.New()
	}
	if cfg.DocumentID == uuid.Nil {
		cfg.DocumentID = uuid.New()
	}
	o := New(cfg)
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return o, events
}

func endSession(t *testing.T, o *Orchestrator) {
	t.Helper()
	if err := o.End(); err != nil && !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("End() error = %v", err)
	}
	select {
	case <-o.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session never reached Ended")
	}
}

func TestTypedThoughtDrivesReplyAndOutline(t *testing.T) {
	thinker := &scriptedThinker{process: func(input thinking.Input) (*thinking.Result, error) {
		return &thinking.Result{
			Reply: "What matters more, pay or growth?",
			Actions: []outline.EditAction{
				outline.NewEditAction("add_section", "Career Decisions", "Weighing job A vs job B"),
			},
		}, nil
	}}
	recorder := &captureRecorder{}
	o, events := startSession(t, Config{Thinker: thinker, Recorder: recorder})

	if err := o.PushText("I should decide between job A and job B"); err != nil {
		t.Fatalf("PushText() error = %v", err)
	}

	resp := events.waitFor(t, EventAIResponse).(AIResponseEvent)
	if resp.Conversation != "What matters more, pay or growth?" {
		t.Errorf("Conversation = %q", resp.Conversation)
	}
	if !strings.Contains(resp.UpdatedDocument, "## Career Decisions") ||
		!strings.Contains(resp.UpdatedDocument, "Weighing job A vs job B") {
		t.Errorf("UpdatedDocument missing new section:\n%s", resp.UpdatedDocument)
	}
	if len(resp.PendingQuestions) != 1 || resp.PendingQuestions[0] != "What matters more, pay or growth?" {
		t.Errorf("PendingQuestions = %v", resp.PendingQuestions)
	}
	if len(resp.DocumentUpdates) != 1 || resp.DocumentUpdates[0].Kind != outline.KindAppendSection {
		t.Errorf("DocumentUpdates = %+v", resp.DocumentUpdates)
	}

	endSession(t, o)

	ended := events.waitFor(t, EventSessionEnded).(SessionEndedEvent)
	if ended.FinalTranscript != "I should decide between job A and job B" {
		t.Errorf("FinalTranscript = %q", ended.FinalTranscript)
	}
	if !strings.Contains(ended.FinalDocument, "## Career Decisions") {
		t.Errorf("FinalDocument missing section:\n%s", ended.FinalDocument)
	}

	want := []EventType{
		EventSessionStarted,
		EventTranscript,
		EventProcessing,
		EventAIResponse,
		EventProcessing,
		EventSessionEnded,
	}
	got := events.snapshot()
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Kind() != want[i] {
			t.Fatalf("event[%d] = %q, want %q", i, got[i].Kind(), want[i])
		}
	}
	if got[2].(ProcessingEvent).Status != StatusStarted || got[4].(ProcessingEvent).Status != StatusCompleted {
		t.Errorf("processing statuses out of order")
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.turnPairs) != 1 ||
		recorder.turnPairs[0][0] != "I should decide between job A and job B" ||
		recorder.turnPairs[0][1] != "What matters more, pay or growth?" {
		t.Errorf("turnPairs = %v", recorder.turnPairs)
	}
	if len(recorder.endedWith) != 1 {
		t.Errorf("RecordSessionEnd calls = %d, want 1", len(recorder.endedWith))
	}
}

func TestReasoningFailureProducesFallbackOnce(t *testing.T) {
	thinker := &scriptedThinker{process: func(input thinking.Input) (*thinking.Result, error) {
		return thinking.Fallback(input.Utterance), errors.New("model down")
	}}
	o, events := startSession(t, Config{Thinker: thinker})

	if err := o.PushText("remember to send the contract to the lawyer"); err != nil {
		t.Fatalf("PushText() error = %v", err)
	}

	resp := events.waitFor(t, EventAIResponse).(AIResponseEvent)
	if resp.Conversation != thinking.FallbackReply {
		t.Errorf("Conversation = %q, want the fallback reply", resp.Conversation)
	}
	if !strings.Contains(resp.UpdatedDocument, "## Unprocessed Thoughts") ||
		!strings.Contains(resp.UpdatedDocument, "- remember to send the contract to the lawyer") {
		t.Errorf("UpdatedDocument missing parked thought:\n%s", resp.UpdatedDocument)
	}

	errEv := events.waitFor(t, EventError).(ErrorEvent)
	if errEv.Message != "AI processing error: model down" {
		t.Errorf("Message = %q", errEv.Message)
	}

	// A second failure in the same class is logged but not re-emitted.
	if err := o.PushText("another thought that will also fail"); err != nil {
		t.Fatalf("PushText() error = %v", err)
	}
	events.waitForN(t, EventAIResponse, 2)
	if n := events.count(EventError); n != 1 {
		t.Errorf("error events = %d, want 1", n)
	}

	endSession(t, o)
}

func TestThoughtsQueueAndNeverOverlap(t *testing.T) {
	gate := make(chan struct{})
	thinker := echoThinker("noted: ")
	thinker.gate = gate
	o, events := startSession(t, Config{Thinker: thinker})

	if err := o.PushText("first thought"); err != nil {
		t.Fatalf("PushText() error = %v", err)
	}
	if err := o.PushText("second thought"); err != nil {
		t.Fatalf("PushText() error = %v", err)
	}

	// Only the first call starts while it is in flight.
	events.waitForN(t, EventProcessing, 1)
	time.Sleep(20 * time.Millisecond)
	if n := events.count(EventProcessing); n != 1 {
		t.Fatalf("processing events = %d, want 1 while the first call is in flight", n)
	}

	gate <- struct{}{}
	gate <- struct{}{}

	responses := events.waitForN(t, EventAIResponse, 2)
	if responses[0].(AIResponseEvent).Conversation != "noted: first thought" ||
		responses[1].(AIResponseEvent).Conversation != "noted: second thought" {
		t.Errorf("responses out of order: %q then %q",
			responses[0].(AIResponseEvent).Conversation,
			responses[1].(AIResponseEvent).Conversation)
	}

	thinker.mu.Lock()
	maxInFlight := thinker.maxInFlight
	thinker.mu.Unlock()
	if maxInFlight != 1 {
		t.Errorf("maxInFlight = %d, want 1", maxInFlight)
	}

	endSession(t, o)
}

func TestPauseFiresAfterSilenceAndProcessesUtterance(t *testing.T) {
	stream := newFakeStream()
	thinker := echoThinker("ok: ")
	o, events := startSession(t, Config{
		Thinker:        thinker,
		Transcriber:    stream,
		PauseThreshold: 50 * time.Millisecond,
	})

	stream.frags <- transcribe.Fragment{Text: "I keep thinking", IsFinal: false, Confidence: 0.5}
	stream.frags <- transcribe.Fragment{Text: "I keep thinking about the garden.", IsFinal: true, Confidence: 0.9}
	stream.frags <- transcribe.Fragment{Text: "It needs a fence.", IsFinal: true, Confidence: 0.9}

	pause := events.waitFor(t, EventPauseDetected).(PauseDetectedEvent)
	want := "I keep thinking about the garden. It needs a fence."
	if pause.Transcript != want {
		t.Errorf("Transcript = %q, want %q", pause.Transcript, want)
	}

	events.waitFor(t, EventAIResponse)

	var partials, finals int
	for _, ev := range events.snapshot() {
		if tr, ok := ev.(TranscriptEvent); ok {
			if tr.IsFinal {
				finals++
			} else {
				partials++
			}
		}
	}
	if partials != 1 || finals != 2 {
		t.Errorf("transcript events: %d partial, %d final; want 1 and 2", partials, finals)
	}

	inputs := thinker.inputsSnapshot()
	if len(inputs) != 1 {
		t.Fatalf("reasoning calls = %d, want 1", len(inputs))
	}
	if inputs[0].Utterance != want {
		t.Errorf("Utterance = %q, want %q", inputs[0].Utterance, want)
	}
	if inputs[0].Transcript != want {
		t.Errorf("Transcript snapshot = %q, want %q", inputs[0].Transcript, want)
	}

	endSession(t, o)
	if !stream.closed.Load() {
		t.Error("transcriber was not closed on session end")
	}
}

func TestAudioForwardedToTranscriber(t *testing.T) {
	stream := newFakeStream()
	o, events := startSession(t, Config{Thinker: echoThinker("r: "), Transcriber: stream})

	chunk := []byte{0xde, 0xad, 0xbe, 0xef}
	if err := o.PushAudio(chunk); err != nil {
		t.Fatalf("PushAudio() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(stream.sentSnapshot()) > 0 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	sent := stream.sentSnapshot()
	if len(sent) != 1 || string(sent[0]) != string(chunk) {
		t.Errorf("forwarded chunks = %v", sent)
	}
	if n := events.count(EventError); n != 0 {
		t.Errorf("error events = %d, want 0", n)
	}

	endSession(t, o)
}

func TestAudioWithoutTranscriberReportsOnce(t *testing.T) {
	o, events := startSession(t, Config{Thinker: echoThinker("seen: ")})

	if err := o.PushAudio([]byte{0x01}); err != nil {
		t.Fatalf("PushAudio() error = %v", err)
	}
	if err := o.PushAudio([]byte{0x02}); err != nil {
		t.Fatalf("PushAudio() error = %v", err)
	}

	errEv := events.waitFor(t, EventError).(ErrorEvent)
	if !strings.HasPrefix(errEv.Message, "Transcription error:") {
		t.Errorf("Message = %q", errEv.Message)
	}

	// The session stays usable for typed input.
	if err := o.PushText("typed thoughts still work after audio errors"); err != nil {
		t.Fatalf("PushText() error = %v", err)
	}
	events.waitFor(t, EventAIResponse)

	if n := events.count(EventError); n != 1 {
		t.Errorf("error events = %d, want 1", n)
	}

	endSession(t, o)
}

func TestEndLetsInFlightThoughtFinishAndDropsQueue(t *testing.T) {
	gate := make(chan struct{})
	thinker := echoThinker("done: ")
	thinker.gate = gate
	recorder := &captureRecorder{}
	o, events := startSession(t, Config{Thinker: thinker, Recorder: recorder})

	for _, text := range []string{"first", "second", "third"} {
		if err := o.PushText(text); err != nil {
			t.Fatalf("PushText(%q) error = %v", text, err)
		}
	}
	events.waitForN(t, EventProcessing, 1)

	if err := o.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	// Give the loop time to enter Ending before releasing the in-flight call.
	time.Sleep(30 * time.Millisecond)
	gate <- struct{}{}

	select {
	case <-o.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session never ended")
	}

	if n := events.count(EventAIResponse); n != 1 {
		t.Errorf("ai_response events = %d, want 1 (queued thoughts dropped)", n)
	}
	if n := events.count(EventProcessing); n != 2 {
		t.Errorf("processing events = %d, want 2", n)
	}
	if n := events.count(EventSessionEnded); n != 1 {
		t.Errorf("session_ended events = %d, want 1", n)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.turnPairs) != 1 || recorder.turnPairs[0][0] != "first" {
		t.Errorf("turnPairs = %v, want only the in-flight thought", recorder.turnPairs)
	}
	if len(recorder.endedWith) != 1 {
		t.Errorf("RecordSessionEnd calls = %d, want 1", len(recorder.endedWith))
	}
}

func TestRequestDocumentReturnsCurrentMarkdown(t *testing.T) {
	thinker := &scriptedThinker{process: func(input thinking.Input) (*thinking.Result, error) {
		return &thinking.Result{
			Reply: "Added it to your list.",
			Actions: []outline.EditAction{
				outline.NewEditAction("add_action_item", "", "buy fencing wire"),
			},
		}, nil
	}}
	o, events := startSession(t, Config{Thinker: thinker})

	if err := o.PushText("I need to buy fencing wire for the garden"); err != nil {
		t.Fatalf("PushText() error = %v", err)
	}
	events.waitFor(t, EventAIResponse)

	if err := o.RequestDocument(); err != nil {
		t.Fatalf("RequestDocument() error = %v", err)
	}
	doc := events.waitFor(t, EventDocument).(DocumentEvent)
	if !strings.Contains(doc.Document, "## Action Items") ||
		!strings.Contains(doc.Document, "- [ ] buy fencing wire") {
		t.Errorf("Document = %q", doc.Document)
	}

	endSession(t, o)
}

func TestQuestionLifecycleAcrossTurns(t *testing.T) {
	var call int32
	thinker := &scriptedThinker{process: func(input thinking.Input) (*thinking.Result, error) {
		if atomic.AddInt32(&call, 1) == 1 {
			return &thinking.Result{Reply: "What is the main blocker for you right now?"}, nil
		}
		return &thinking.Result{Reply: "Understood."}, nil
	}}
	o, events := startSession(t, Config{Thinker: thinker})

	turn1 := "I want to reorganize the team structure this quarter"
	turn2 := "the main blocker is budget approvals from finance"
	turn3 := "so I need to make the case to the finance team first"

	if err := o.PushText(turn1); err != nil {
		t.Fatalf("PushText() error = %v", err)
	}
	resp1 := events.waitFor(t, EventAIResponse).(AIResponseEvent)
	if len(resp1.PendingQuestions) != 1 {
		t.Fatalf("PendingQuestions after turn 1 = %v, want the new question", resp1.PendingQuestions)
	}

	if err := o.PushText(turn2); err != nil {
		t.Fatalf("PushText() error = %v", err)
	}
	resp2 := events.waitForN(t, EventAIResponse, 2)[1].(AIResponseEvent)
	if len(resp2.PendingQuestions) != 0 {
		t.Errorf("PendingQuestions after turn 2 = %v, want none", resp2.PendingQuestions)
	}

	if err := o.PushText(turn3); err != nil {
		t.Fatalf("PushText() error = %v", err)
	}
	events.waitForN(t, EventAIResponse, 3)

	inputs := thinker.inputsSnapshot()
	if len(inputs) != 3 {
		t.Fatalf("reasoning calls = %d, want 3", len(inputs))
	}

	// Turn 2 sees the question still pending; turn 3 sees it answered by the
	// substantive turn-2 input.
	if len(inputs[1].PendingQuestions) != 1 ||
		inputs[1].PendingQuestions[0] != "What is the main blocker for you right now?" {
		t.Errorf("turn 2 pending = %v", inputs[1].PendingQuestions)
	}
	if len(inputs[2].PendingQuestions) != 0 {
		t.Errorf("turn 3 pending = %v, want none", inputs[2].PendingQuestions)
	}
	if len(inputs[2].AnsweredQuestions) != 1 ||
		inputs[2].AnsweredQuestions[0] != "What is the main blocker for you right now?" {
		t.Errorf("turn 3 answered = %v", inputs[2].AnsweredQuestions)
	}

	// The conversation window carries the earlier turn pair.
	if len(inputs[1].Turns) != 2 ||
		inputs[1].Turns[0].Content != turn1 ||
		inputs[1].Turns[1].Content != "What is the main blocker for you right now?" {
		t.Errorf("turn 2 window = %+v", inputs[1].Turns)
	}
	if inputs[1].Transcript != turn1+" "+turn2 {
		t.Errorf("turn 2 transcript = %q", inputs[1].Transcript)
	}

	endSession(t, o)
}

func TestTranscriptStreamFailureReported(t *testing.T) {
	stream := newFakeStream()
	stream.streamErr = errors.New("upstream hung up")
	o, events := startSession(t, Config{Thinker: echoThinker("r: "), Transcriber: stream})

	// Upstream dies: the fragment channel closes with a terminal error set.
	stream.Close()

	errEv := events.waitFor(t, EventError).(ErrorEvent)
	if errEv.Message != "Transcription error: upstream hung up" {
		t.Errorf("Message = %q", errEv.Message)
	}

	if err := o.PushText("still here typing instead"); err != nil {
		t.Fatalf("PushText() error = %v", err)
	}
	events.waitFor(t, EventAIResponse)

	endSession(t, o)
}

func TestTranscriberStartFailureDegradesToTextOnly(t *testing.T) {
	stream := newFakeStream()
	stream.startErr = errors.New("dial tcp: connection refused")
	o, events := startSession(t, Config{Thinker: echoThinker("r: "), Transcriber: stream})

	errEv := events.waitFor(t, EventError).(ErrorEvent)
	if !strings.HasPrefix(errEv.Message, "Transcription error:") {
		t.Errorf("Message = %q", errEv.Message)
	}

	if err := o.PushText("typing because the microphone path is down"); err != nil {
		t.Fatalf("PushText() error = %v", err)
	}
	events.waitFor(t, EventAIResponse)

	endSession(t, o)
}

func TestStartTwiceFails(t *testing.T) {
	o, _ := startSession(t, Config{Thinker: echoThinker("r: ")})
	defer endSession(t, o)

	if err := o.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() = %v, want ErrAlreadyStarted", err)
	}
}

func TestInputAfterEndIsRejected(t *testing.T) {
	o, _ := startSession(t, Config{Thinker: echoThinker("r: ")})
	endSession(t, o)

	if err := o.PushText("too late"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("PushText() after end = %v, want ErrSessionClosed", err)
	}
	if err := o.End(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("End() after end = %v, want ErrSessionClosed", err)
	}
}
