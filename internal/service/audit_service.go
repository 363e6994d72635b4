package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SLatz18/thoughtsAI/internal/model"
	"github.com/SLatz18/thoughtsAI/internal/pkg/logger"
	"github.com/SLatz18/thoughtsAI/internal/repository/unitofwork"
	"github.com/SLatz18/thoughtsAI/pkg/events"
	pktNats "github.com/SLatz18/thoughtsAI/pkg/nats"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditService trails every bus event into system_logs so session and
// document activity stays reviewable after the fact.
type AuditService struct {
	uowFactory unitofwork.RepositoryFactory
	subscriber *pktNats.Subscriber
	logger     logger.ILogger
}

func NewAuditService(uowFactory unitofwork.RepositoryFactory, sub *pktNats.Subscriber, log logger.ILogger) *AuditService {
	return &AuditService{
		uowFactory: uowFactory,
		subscriber: sub,
		logger:     log,
	}
}

// Start begins listening to the event bus with a durable consumer.
func (s *AuditService) Start() {
	err := s.subscriber.Subscribe("events.>", "audit-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("AuditService", "Failed to start audit subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("AuditService", "Audit service started, listening to events.>", nil)
}

func (s *AuditService) handleEvent(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		s.logger.Warn("AuditService", fmt.Sprintf("Unserializable payload for event %s", event.EventType()), map[string]interface{}{"error": err.Error()})
		payload = []byte("{}")
	}

	row := model.SystemLog{
		Id:        uuid.New(),
		Level:     "INFO",
		Subject:   "events." + event.EventType(),
		EventType: event.EventType(),
		Payload:   datatypes.JSON(payload),
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SystemLogRepository().Create(ctx, &row); err != nil {
		s.logger.Error("AuditService", "Failed to store audit row", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
		return err // NATS redelivers
	}

	return nil
}
