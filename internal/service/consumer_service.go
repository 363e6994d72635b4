package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/SLatz18/thoughtsAI/internal/dto"
	"github.com/SLatz18/thoughtsAI/internal/entity"
	"github.com/SLatz18/thoughtsAI/internal/repository/specification"
	"github.com/SLatz18/thoughtsAI/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService is the persistence worker. Session goroutines hand their
// durable side effects to the in-process queue and this single consumer does
// the GORM writes, so actor loops never wait on the database.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PersistSessionMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal persistence message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	switch payload.Kind {
	case dto.PersistKindTurnPair:
		cs.persistTurnPair(ctx, msg, &payload)
	case dto.PersistKindDocument:
		cs.persistDocument(ctx, msg, &payload)
	case dto.PersistKindSessionEnd:
		cs.persistSessionEnd(ctx, msg, &payload)
	default:
		log.Printf("[WARN] Unknown persistence kind %q, dropping message", payload.Kind)
		msg.Ack()
	}
}

func (cs *consumerService) persistTurnPair(ctx context.Context, msg *message.Message, payload *dto.PersistSessionMessage) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	now := time.Now()
	turns := []*entity.ConversationTurn{
		{
			Id:        uuid.New(),
			SessionId: payload.SessionId,
			Role:      entity.TurnRoleUser,
			Content:   payload.UserText,
			CreatedAt: now,
		},
		{
			Id:        uuid.New(),
			SessionId: payload.SessionId,
			Role:      entity.TurnRoleAssistant,
			Content:   payload.ReplyText,
			CreatedAt: now,
		},
	}

	if err := uow.ConversationTurnRepository().CreateBatch(ctx, turns); err != nil {
		log.Printf("[ERROR] Failed to store turn pair for session %s: %v", payload.SessionId, err)
		msg.Nack()
		return
	}

	msg.Ack()
}

func (cs *consumerService) persistDocument(ctx context.Context, msg *message.Message, payload *dto.PersistSessionMessage) {
	log.Printf("[INFO] Persisting document update for DocumentId: %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get document %s: %v", payload.DocumentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if doc == nil {
		log.Printf("[ERROR] Document not found: %s", payload.DocumentId)
		msg.Ack() // Document deleted? Ack.
		return
	}

	latest, err := uow.DocumentVersionRepository().LatestVersion(ctx, payload.DocumentId)
	if err != nil {
		log.Printf("[ERROR] Failed to resolve latest version for document %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	// Version rows snapshot the state the document had before this update.
	// A still-empty document gets no version row.
	if len(doc.Sections) > 0 || doc.ContentMarkdown != "" {
		version := &entity.DocumentVersion{
			Id:              uuid.New(),
			DocumentId:      doc.Id,
			Version:         latest + 1,
			Sections:        doc.Sections,
			ContentMarkdown: doc.ContentMarkdown,
			CreatedAt:       time.Now(),
		}
		if err := uow.DocumentVersionRepository().Create(ctx, version); err != nil {
			log.Printf("[ERROR] Failed to snapshot document %s: %v", doc.Id, err)
			msg.Nack()
			return
		}
	}

	doc.Sections = payload.Sections
	doc.ContentMarkdown = payload.Markdown
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		log.Printf("[ERROR] Failed to update document %s: %v", doc.Id, err)
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Document updated: %s", doc.Id)
	msg.Ack()
}

func (cs *consumerService) persistSessionEnd(ctx context.Context, msg *message.Message, payload *dto.PersistSessionMessage) {
	log.Printf("[INFO] Closing session record for SessionId: %s", payload.SessionId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ThinkingSessionRepository().FindOne(ctx, specification.ByID{ID: payload.SessionId})
	if err != nil {
		log.Printf("[ERROR] Failed to get session %s: %v", payload.SessionId, err)
		msg.Nack()
		return
	}
	if session == nil {
		log.Printf("[ERROR] Session not found: %s", payload.SessionId)
		msg.Ack()
		return
	}

	now := time.Now()
	session.Status = entity.SessionStatusEnded
	session.Transcript = payload.Transcript
	session.EndedAt = &now

	if err := uow.ThinkingSessionRepository().Update(ctx, session); err != nil {
		log.Printf("[ERROR] Failed to close session %s: %v", payload.SessionId, err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Session closed: %s (%d transcript chars)", payload.SessionId, len(payload.Transcript))
	msg.Ack()
}
