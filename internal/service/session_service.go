package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SLatz18/thoughtsAI/internal/dto"
	"github.com/SLatz18/thoughtsAI/internal/entity"
	"github.com/SLatz18/thoughtsAI/internal/pkg/logger"
	"github.com/SLatz18/thoughtsAI/internal/repository/memory"
	"github.com/SLatz18/thoughtsAI/internal/repository/specification"
	"github.com/SLatz18/thoughtsAI/internal/repository/unitofwork"
	"github.com/SLatz18/thoughtsAI/internal/session"
	"github.com/SLatz18/thoughtsAI/pkg/events"
	pktNats "github.com/SLatz18/thoughtsAI/pkg/nats"
	"github.com/SLatz18/thoughtsAI/pkg/outline"
	"github.com/SLatz18/thoughtsAI/pkg/store"
	"github.com/SLatz18/thoughtsAI/pkg/transcribe"
	"github.com/SLatz18/thoughtsAI/pkg/transcribe/factory"

	"github.com/google/uuid"
)

const defaultDocumentTitle = "My Thinking Session"

// EngineOptions are the tunables handed to every new capture session.
type EngineOptions struct {
	PauseThreshold        time.Duration
	ConversationWindow    int
	MinQuestionLength     int
	MinAnswerLength       int
	TranscriptionProvider string
	DeepgramAPIKey        string
	OpenAIAPIKey          string
}

type ISessionService interface {
	// StartSession claims a document, creates the durable session record and
	// spins up the live engine. Events flow to the given sink until the
	// returned orchestrator is ended.
	StartSession(ctx context.Context, userId string, documentId string, sink session.Sink) (*session.Orchestrator, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowSessionResponse, error)
	Turns(ctx context.Context, id uuid.UUID, limit int) ([]dto.SessionTurnResponse, error)
}

type sessionService struct {
	uowFactory       unitofwork.RepositoryFactory
	registry         *memory.SessionRepository
	docLock          IDocumentLock
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	thinker          session.Thinker
	opts             EngineOptions
	log              logger.ILogger
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	registry *memory.SessionRepository,
	docLock IDocumentLock,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	thinker session.Thinker,
	opts EngineOptions,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		uowFactory:       uowFactory,
		registry:         registry,
		docLock:          docLock,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		thinker:          thinker,
		opts:             opts,
		log:              log,
	}
}

func (s *sessionService) StartSession(ctx context.Context, userId string, documentId string, sink session.Sink) (*session.Orchestrator, error) {
	doc, err := s.resolveDocument(ctx, userId, documentId)
	if err != nil {
		return nil, err
	}

	sessionId := uuid.New()

	ok, err := s.docLock.Acquire(ctx, doc.Id.String(), sessionId.String())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("document %s already has a live session", doc.Id)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	record := entity.ThinkingSession{
		Id:         sessionId,
		UserId:     userId,
		DocumentId: doc.Id,
		Status:     entity.SessionStatusActive,
		StartedAt:  time.Now(),
	}
	if err := uow.ThinkingSessionRepository().Create(ctx, &record); err != nil {
		s.docLock.Release(ctx, doc.Id.String(), sessionId.String())
		return nil, err
	}

	s.registry.Save(&store.LiveSession{
		ID:         sessionId.String(),
		UserID:     userId,
		DocumentID: doc.Id.String(),
		State:      store.StateActive,
		StartedAt:  record.StartedAt,
	})

	s.publishEvent(events.BaseEvent{
		Type: events.TypeSessionStarted,
		Data: map[string]interface{}{
			"session_id":  sessionId,
			"document_id": doc.Id,
			"user_id":     userId,
		},
		OccurredAt: time.Now(),
	})

	orch := session.New(session.Config{
		SessionID:          sessionId,
		DocumentID:         doc.Id,
		UserID:             userId,
		Outline:            outline.FromSections(doc.Sections),
		PauseThreshold:     s.opts.PauseThreshold,
		ConversationWindow: s.opts.ConversationWindow,
		MinQuestionLength:  s.opts.MinQuestionLength,
		MinAnswerLength:    s.opts.MinAnswerLength,
		Thinker:            s.thinker,
		Transcriber:        s.newTranscriber(sessionId),
		Recorder: &sessionRecorder{
			sessionId:  sessionId,
			documentId: doc.Id,
			userId:     userId,
			service:    s,
		},
		Sink:   sink,
		Logger: s.log,
	})

	if err := orch.Start(ctx); err != nil {
		s.registry.Delete(sessionId.String())
		s.docLock.Release(ctx, doc.Id.String(), sessionId.String())
		return nil, err
	}

	return orch, nil
}

// resolveDocument loads the requested document or creates a fresh one. An
// unknown id falls through to creation rather than failing: the client may
// hold a stale id.
func (s *sessionService) resolveDocument(ctx context.Context, userId string, documentId string) (*entity.Document, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if documentId != "" {
		id, err := uuid.Parse(documentId)
		if err != nil {
			return nil, fmt.Errorf("invalid document id %q: %w", documentId, err)
		}
		doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
		if err != nil {
			return nil, err
		}
		if doc != nil {
			return doc, nil
		}
	}

	doc := &entity.Document{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     defaultDocumentTitle,
		Sections:  []outline.SectionData{},
		CreatedAt: time.Now(),
	}
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// newTranscriber builds the configured speech-to-text stream. Failure is not
// fatal, the session degrades to text-only input.
func (s *sessionService) newTranscriber(sessionId uuid.UUID) transcribe.Provider {
	provider, err := factory.NewTranscriptionProvider(
		s.opts.TranscriptionProvider,
		s.opts.DeepgramAPIKey,
		s.opts.OpenAIAPIKey,
	)
	if err != nil {
		s.log.Warn("SessionService", "Transcription unavailable, session is text-only", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return nil
	}
	return provider
}

func (s *sessionService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rec, err := uow.ThinkingSessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil // Not found
	}

	return &dto.ShowSessionResponse{
		Id:         rec.Id,
		DocumentId: rec.DocumentId,
		Status:     rec.Status,
		Transcript: rec.Transcript,
		StartedAt:  rec.StartedAt,
		EndedAt:    rec.EndedAt,
	}, nil
}

func (s *sessionService) Turns(ctx context.Context, id uuid.UUID, limit int) ([]dto.SessionTurnResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	turns, err := uow.ConversationTurnRepository().FindAll(ctx,
		specification.BySessionID{SessionID: id},
		specification.OrderBy{Field: "created_at"},
		specification.Limit{N: limit},
	)
	if err != nil {
		return nil, err
	}

	res := make([]dto.SessionTurnResponse, 0, len(turns))
	for _, t := range turns {
		res = append(res, dto.SessionTurnResponse{
			Id:        t.Id,
			Role:      t.Role,
			Content:   t.Content,
			CreatedAt: t.CreatedAt,
		})
	}
	return res, nil
}

// publishEvent sends a bus event without blocking the caller. NATS being down
// only costs a warning.
func (s *sessionService) publishEvent(evt events.BaseEvent) {
	if s.eventPublisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.log.Warn("SessionService", "Failed to publish event", map[string]interface{}{
				"event_type": evt.Type,
				"error":      err.Error(),
			})
		}
	}()
}

// sessionRecorder bridges one session's engine loop to the async pipelines.
// Its methods run on the session goroutine: durable writes go to the buffered
// in-process queue, network publishes move to their own goroutines.
type sessionRecorder struct {
	sessionId  uuid.UUID
	documentId uuid.UUID
	userId     string
	service    *sessionService
}

func (r *sessionRecorder) RecordTurnPair(sessionID, documentID uuid.UUID, userText, assistantText string) {
	r.enqueue(dto.PersistSessionMessage{
		Kind:       dto.PersistKindTurnPair,
		SessionId:  sessionID,
		DocumentId: documentID,
		UserId:     r.userId,
		UserText:   userText,
		ReplyText:  assistantText,
	})
}

func (r *sessionRecorder) RecordDocument(documentID uuid.UUID, sections []outline.SectionData, markdown string) {
	r.enqueue(dto.PersistSessionMessage{
		Kind:       dto.PersistKindDocument,
		SessionId:  r.sessionId,
		DocumentId: documentID,
		UserId:     r.userId,
		Sections:   sections,
		Markdown:   markdown,
	})

	r.service.publishEvent(events.BaseEvent{
		Type: events.TypeDocumentUpdated,
		Data: map[string]interface{}{
			"document_id": documentID,
			"session_id":  r.sessionId,
			"user_id":     r.userId,
		},
		OccurredAt: time.Now(),
	})
}

func (r *sessionRecorder) RecordSessionEnd(sessionID uuid.UUID, transcript string) {
	r.enqueue(dto.PersistSessionMessage{
		Kind:       dto.PersistKindSessionEnd,
		SessionId:  sessionID,
		DocumentId: r.documentId,
		UserId:     r.userId,
		Transcript: transcript,
	})

	r.service.registry.MarkEnded(sessionID.String())

	r.service.publishEvent(events.BaseEvent{
		Type: events.TypeSessionEnded,
		Data: map[string]interface{}{
			"session_id":  sessionID,
			"document_id": r.documentId,
			"user_id":     r.userId,
		},
		OccurredAt: time.Now(),
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r.service.docLock.Release(ctx, r.documentId.String(), r.sessionId.String())
	}()
}

func (r *sessionRecorder) enqueue(payload dto.PersistSessionMessage) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.service.log.Error("SessionService", "Failed to marshal persistence message", map[string]interface{}{
			"kind":  payload.Kind,
			"error": err.Error(),
		})
		return
	}
	if err := r.service.publisherService.Publish(context.Background(), data); err != nil {
		r.service.log.Error("SessionService", "Failed to enqueue persistence message", map[string]interface{}{
			"kind":  payload.Kind,
			"error": err.Error(),
		})
	}
}
