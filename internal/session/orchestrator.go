package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/SLatz18/thoughtsAI/internal/pkg/logger"
	"github.com/SLatz18/thoughtsAI/pkg/llm"
	"github.com/SLatz18/thoughtsAI/pkg/outline"
	"github.com/SLatz18/thoughtsAI/pkg/thinking"
	"github.com/SLatz18/thoughtsAI/pkg/transcribe"

	"github.com/google/uuid"
)

// State is the lifecycle phase of a capture session.
type State string

const (
	StateIdle   State = "idle"
	StateActive State = "active"
	StateEnding State = "ending"
	StateEnded  State = "ended"
)

const (
	defaultConversationWindow = 10
	turnHistoryLimit          = 20
	inboxSize                 = 256
)

// Failure classes for once-per-session error events.
const (
	failureTranscription = "transcription"
	failureReasoning     = "reasoning"
)

var (
	// ErrSessionClosed is returned by input methods once the session has ended.
	ErrSessionClosed = errors.New("session closed")
	// ErrAlreadyStarted guards Start against reuse.
	ErrAlreadyStarted = errors.New("session already started")

	errNoTranscriber = errors.New("no transcription provider configured")
)

// Thinker turns one utterance plus session context into a reply and document
// edits. Process must always return a usable result; a non-nil error marks
// the result as a degraded fallback so the failure can be reported once.
type Thinker interface {
	Process(ctx context.Context, input thinking.Input) (*thinking.Result, error)
}

// Recorder receives the durable side effects of a session: finished turns,
// document revisions, and the final transcript. Calls happen on the session
// goroutine, so implementations hand off and return immediately.
type Recorder interface {
	RecordTurnPair(sessionID, documentID uuid.UUID, userText, assistantText string)
	RecordDocument(documentID uuid.UUID, sections []outline.SectionData, markdown string)
	RecordSessionEnd(sessionID uuid.UUID, transcript string)
}

type nopRecorder struct{}

func (nopRecorder) RecordTurnPair(uuid.UUID, uuid.UUID, string, string)     {}
func (nopRecorder) RecordDocument(uuid.UUID, []outline.SectionData, string) {}
func (nopRecorder) RecordSessionEnd(uuid.UUID, string)                      {}

type nopSink struct{}

func (nopSink) Emit(Event) {}

// Config wires one session's collaborators. Thinker is required, everything
// else falls back to a safe default; a nil Transcriber makes the session
// text-only.
type Config struct {
	SessionID  uuid.UUID
	DocumentID uuid.UUID
	UserID     string

	// Outline resumes an existing document; nil starts empty.
	Outline *outline.Outline

	PauseThreshold     time.Duration
	ConversationWindow int
	MinQuestionLength  int
	MinAnswerLength    int

	Thinker     Thinker
	Transcriber transcribe.Provider
	Recorder    Recorder
	Sink        Sink
	Logger      logger.ILogger
}

// Inbound commands. Every external stimulus becomes one of these so the run
// loop stays the only writer of session state.
type command interface{ isCommand() }

type audioCmd struct{ data []byte }
type textCmd struct{ content string }
type fragmentCmd struct{ frag transcribe.Fragment }
type streamErrCmd struct{ err error }
type getDocumentCmd struct{}
type endCmd struct{}

func (audioCmd) isCommand()       {}
func (textCmd) isCommand()        {}
func (fragmentCmd) isCommand()    {}
func (streamErrCmd) isCommand()   {}
func (getDocumentCmd) isCommand() {}
func (endCmd) isCommand()         {}

type thinkOutcome struct {
	utterance string
	result    *thinking.Result
	err       error
}

// Orchestrator owns one live capture session. A single goroutine started by
// Start holds all mutable state (document, pause countdown, question loop,
// conversation history) and services commands, the pause deadline, and
// reasoning results through one select loop, so no locks are needed and event
// ordering is deterministic. Thoughts queue FIFO and never process
// concurrently: at most one reasoning call is in flight per session.
type Orchestrator struct {
	cfg     Config
	ctx     context.Context
	started atomic.Bool
	state   State
	window  int

	doc       *outline.Outline
	detector  *PauseDetector
	questions *QuestionTracker

	transcript strings.Builder
	turns      []llm.Message

	pendingThoughts []string

	inbox  chan command
	done   chan struct{}
	timer  *time.Timer
	timerC <-chan time.Time
	thinkC chan thinkOutcome

	failuresSeen map[string]struct{}

	thinker     Thinker
	transcriber transcribe.Provider
	recorder    Recorder
	sink        Sink
	log         logger.ILogger
}

func New(cfg Config) *Orchestrator {
	doc := cfg.Outline
	if doc == nil {
		doc = outline.New()
	}
	window := cfg.ConversationWindow
	if window <= 0 {
		window = defaultConversationWindow
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	sink := cfg.Sink
	if sink == nil {
		sink = nopSink{}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	// The timer is armed lazily from the detector's deadline; it starts
	// stopped and drained.
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	return &Orchestrator{
		cfg:          cfg,
		state:        StateIdle,
		window:       window,
		doc:          doc,
		detector:     NewPauseDetector(cfg.PauseThreshold),
		questions:    NewQuestionTracker(cfg.MinQuestionLength, cfg.MinAnswerLength),
		inbox:        make(chan command, inboxSize),
		done:         make(chan struct{}),
		timer:        timer,
		failuresSeen: make(map[string]struct{}),
		thinker:      cfg.Thinker,
		transcriber:  cfg.Transcriber,
		recorder:     recorder,
		sink:         sink,
		log:          log,
	}
}

// Start activates the session, emits session_started, and launches the
// owning goroutine. A transcription provider that fails to connect degrades
// the session to text-only instead of failing Start.
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.started.Swap(true) {
		return ErrAlreadyStarted
	}
	o.ctx = ctx
	o.state = StateActive

	o.emit(NewSessionStartedEvent(o.cfg.SessionID.String(), o.cfg.DocumentID.String(), o.doc.Render()))

	if o.transcriber != nil {
		if err := o.transcriber.Start(ctx); err != nil {
			o.reportFailure(failureTranscription, err)
			o.transcriber = nil
		} else {
			go o.receiveLoop()
		}
	}

	go o.run(ctx)
	return nil
}

// PushAudio forwards one audio chunk to the transcription stream.
func (o *Orchestrator) PushAudio(data []byte) error {
	return o.post(audioCmd{data: data})
}

// PushText submits a typed thought. It is transcribed verbatim and processed
// immediately, without waiting for a pause.
func (o *Orchestrator) PushText(content string) error {
	return o.post(textCmd{content: content})
}

// RequestDocument asks for a document event with the current markdown.
func (o *Orchestrator) RequestDocument() error {
	return o.post(getDocumentCmd{})
}

// End starts the shutdown sequence. Queued thoughts are dropped, an in-flight
// one finishes first, then session_ended is emitted and Done closes.
func (o *Orchestrator) End() error {
	return o.post(endCmd{})
}

// Done closes once the session has fully ended.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

func (o *Orchestrator) SessionID() uuid.UUID  { return o.cfg.SessionID }
func (o *Orchestrator) DocumentID() uuid.UUID { return o.cfg.DocumentID }

func (o *Orchestrator) post(cmd command) error {
	// The inbox stays buffered after the loop exits, so check done first or a
	// send could still succeed against a dead session.
	select {
	case <-o.done:
		return ErrSessionClosed
	default:
	}
	select {
	case o.inbox <- cmd:
		return nil
	case <-o.done:
		return ErrSessionClosed
	}
}

func (o *Orchestrator) receiveLoop() {
	for frag := range o.transcriber.Transcripts() {
		if err := o.post(fragmentCmd{frag: frag}); err != nil {
			return
		}
	}
	if err := o.transcriber.Err(); err != nil {
		_ = o.post(streamErrCmd{err: err})
	}
}

func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.done)
	defer o.timer.Stop()

	ctxDone := ctx.Done()
	for o.state != StateEnded {
		o.armTimer()

		select {
		case cmd := <-o.inbox:
			o.handle(cmd)
		case <-o.timerC:
			o.handleTimer()
		case outcome := <-o.thinkC:
			o.finishThought(outcome)
		case <-ctxDone:
			ctxDone = nil
			o.beginEnd()
		}
	}
}

// armTimer points the loop's timer at the detector's deadline, or disables it
// when no countdown is running. Called before every select so the timer always
// reflects the latest deadline.
func (o *Orchestrator) armTimer() {
	if !o.timer.Stop() {
		select {
		case <-o.timer.C:
		default:
		}
	}
	deadline, ok := o.detector.Deadline()
	if !ok {
		o.timerC = nil
		return
	}
	o.timer.Reset(time.Until(deadline))
	o.timerC = o.timer.C
}

func (o *Orchestrator) handle(cmd command) {
	switch c := cmd.(type) {
	case audioCmd:
		if o.state != StateActive {
			return
		}
		if o.transcriber == nil {
			o.reportFailure(failureTranscription, errNoTranscriber)
			return
		}
		if err := o.transcriber.SendAudio(c.data); err != nil {
			o.reportFailure(failureTranscription, err)
		}
	case textCmd:
		if o.state != StateActive {
			return
		}
		text := strings.TrimSpace(c.content)
		if text == "" {
			return
		}
		o.appendTranscript(text)
		o.emit(NewTranscriptEvent(text, true))
		o.enqueueThought(text)
	case fragmentCmd:
		if o.state != StateActive {
			return
		}
		o.emit(NewTranscriptEvent(c.frag.Text, c.frag.IsFinal))
		if c.frag.IsFinal {
			if text := strings.TrimSpace(c.frag.Text); text != "" {
				o.appendTranscript(text)
			}
			o.detector.Observe(c.frag.Text, time.Now())
		}
	case streamErrCmd:
		o.reportFailure(failureTranscription, c.err)
	case getDocumentCmd:
		o.emit(NewDocumentEvent(o.doc.Render()))
	case endCmd:
		o.beginEnd()
	}
}

func (o *Orchestrator) handleTimer() {
	utterance, fired := o.detector.Expire(time.Now())
	if !fired {
		return
	}
	o.emit(NewPauseDetectedEvent(utterance))
	o.enqueueThought(utterance)
}

func (o *Orchestrator) enqueueThought(utterance string) {
	o.pendingThoughts = append(o.pendingThoughts, utterance)
	o.maybeStartThought()
}

// maybeStartThought pops the oldest queued thought and launches the reasoning
// call on its own goroutine. The context snapshot (document, conversation
// window, question state, transcript) is taken here, on the session
// goroutine, so the worker never touches shared state.
func (o *Orchestrator) maybeStartThought() {
	if o.thinkC != nil || len(o.pendingThoughts) == 0 || o.state != StateActive {
		return
	}
	utterance := o.pendingThoughts[0]
	o.pendingThoughts = o.pendingThoughts[1:]

	o.emit(NewProcessingEvent(StatusStarted))

	input := o.snapshotInput(utterance)
	ch := make(chan thinkOutcome, 1)
	o.thinkC = ch
	go func() {
		result, err := o.thinker.Process(o.ctx, input)
		ch <- thinkOutcome{utterance: utterance, result: result, err: err}
	}()
}

func (o *Orchestrator) snapshotInput(utterance string) thinking.Input {
	turns := o.turns
	if len(turns) > o.window {
		turns = turns[len(turns)-o.window:]
	}
	window := make([]llm.Message, len(turns))
	copy(window, turns)

	qctx := o.questions.Context()
	return thinking.Input{
		Utterance:         utterance,
		Document:          o.doc.Render(),
		Turns:             window,
		PendingQuestions:  qctx.Pending,
		AnsweredQuestions: qctx.RecentlyAnswered,
		Transcript:        o.transcript.String(),
	}
}

func (o *Orchestrator) finishThought(outcome thinkOutcome) {
	o.thinkC = nil

	result := outcome.result
	if outcome.err != nil {
		o.reportFailure(failureReasoning, outcome.err)
		if result == nil {
			result = thinking.Fallback(outcome.utterance)
		}
	}

	// The utterance can only answer questions that were already pending
	// before this turn; the reply's own questions enter the list after, so
	// they can never be marked answered by the input that prompted them.
	o.questions.RecordUserInput(outcome.utterance)
	o.questions.RecordReply(result.Reply)

	o.turns = append(o.turns,
		llm.Message{Role: llm.RoleUser, Content: outcome.utterance},
		llm.Message{Role: llm.RoleAssistant, Content: result.Reply},
	)
	if len(o.turns) > turnHistoryLimit {
		o.turns = o.turns[len(o.turns)-turnHistoryLimit:]
	}
	o.recorder.RecordTurnPair(o.cfg.SessionID, o.cfg.DocumentID, outcome.utterance, result.Reply)

	applied := make([]outline.EditAction, 0, len(result.Actions))
	for _, action := range result.Actions {
		if err := o.doc.Apply(action); err != nil {
			o.log.Warn("Session", "Skipping document update", map[string]interface{}{
				"session_id": o.cfg.SessionID.String(),
				"action":     string(action.Kind),
				"path":       action.Path,
				"error":      err.Error(),
			})
			continue
		}
		applied = append(applied, action)
	}
	if len(applied) > 0 {
		o.recorder.RecordDocument(o.cfg.DocumentID, o.doc.Data(), o.doc.Render())
	}

	qctx := o.questions.Context()
	o.emit(NewAIResponseEvent(result.Reply, applied, o.doc.Render(), qctx.Pending))
	o.emit(NewProcessingEvent(StatusCompleted))

	switch o.state {
	case StateActive:
		o.maybeStartThought()
	case StateEnding:
		o.finish()
	}
}

// beginEnd moves the session to Ending. Queued thoughts that never started
// are dropped; an in-flight reasoning call finishes and delivers its events
// before the session closes.
func (o *Orchestrator) beginEnd() {
	if o.state != StateActive {
		return
	}
	o.state = StateEnding

	o.pendingThoughts = nil
	o.detector.Stop()

	if o.transcriber != nil {
		if err := o.transcriber.Close(); err != nil {
			o.log.Warn("Session", "Closing transcription stream failed", map[string]interface{}{
				"session_id": o.cfg.SessionID.String(),
				"error":      err.Error(),
			})
		}
	}

	if o.thinkC == nil {
		o.finish()
	}
}

func (o *Orchestrator) finish() {
	transcript := o.transcript.String()
	o.recorder.RecordDocument(o.cfg.DocumentID, o.doc.Data(), o.doc.Render())
	o.recorder.RecordSessionEnd(o.cfg.SessionID, transcript)

	o.state = StateEnded
	o.emit(NewSessionEndedEvent(o.cfg.SessionID.String(), o.cfg.DocumentID.String(), transcript, o.doc.Render()))
}

func (o *Orchestrator) appendTranscript(text string) {
	if o.transcript.Len() > 0 {
		o.transcript.WriteByte(' ')
	}
	o.transcript.WriteString(text)
}

// reportFailure logs every failure but emits at most one error event per
// class per session, so a flapping backend cannot flood the client.
func (o *Orchestrator) reportFailure(class string, err error) {
	o.log.Error("Session", "Session failure", map[string]interface{}{
		"session_id": o.cfg.SessionID.String(),
		"class":      class,
		"error":      err.Error(),
	})
	if _, seen := o.failuresSeen[class]; seen {
		return
	}
	o.failuresSeen[class] = struct{}{}

	var message string
	switch class {
	case failureTranscription:
		message = fmt.Sprintf("Transcription error: %v", err)
	default:
		message = fmt.Sprintf("AI processing error: %v", err)
	}
	o.emit(NewErrorEvent(message))
}

func (o *Orchestrator) emit(event Event) {
	o.sink.Emit(event)
}
