package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/SLatz18/thoughtsAI/internal/config"
	"github.com/SLatz18/thoughtsAI/internal/controller"
	"github.com/SLatz18/thoughtsAI/internal/handler"
	"github.com/SLatz18/thoughtsAI/internal/pkg/logger"
	"github.com/SLatz18/thoughtsAI/internal/pkg/mailer"
	"github.com/SLatz18/thoughtsAI/internal/repository/memory"
	"github.com/SLatz18/thoughtsAI/internal/repository/unitofwork"
	"github.com/SLatz18/thoughtsAI/internal/service"
	"github.com/SLatz18/thoughtsAI/internal/websocket"
	"github.com/SLatz18/thoughtsAI/pkg/llm/anthropic"
	"github.com/SLatz18/thoughtsAI/pkg/llm/factory"
	"github.com/SLatz18/thoughtsAI/pkg/thinking"

	pktNats "github.com/SLatz18/thoughtsAI/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	HealthController   controller.IHealthController
	DocumentController controller.IDocumentController
	SessionController  controller.ISessionController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	SessionHandler *handler.SessionHandler
	WebSocketHub   *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis backs the single-writer document lock. Without it sessions
	// still work, but only within this process.
	var rdb *redis.Client
	var docLock service.IDocumentLock
	if cfg.App.RedisURL == "" {
		log.Printf("[WARN] Redis disabled, using in-process document locks")
		docLock = service.NewLocalDocumentLock()
	} else {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Using in-process document locks", err)
			docLock = service.NewLocalDocumentLock()
		} else {
			docLock = service.NewRedisDocumentLock(rdb, sysLogger)
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/session.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	// 3. Reasoning Stack
	llmProvider, err := factory.NewLLMProvider(
		cfg.Engine.LLMProvider,
		cfg.Engine.LLMModel,
		cfg.Engine.LLMBaseURL,
		cfg.Keys.Anthropic,
	)
	if err != nil {
		// Sessions still run; every reasoning call degrades to the
		// fallback reply until a provider is configured.
		log.Printf("[WARN] LLM provider unavailable: %v. Sessions will use fallback replies", err)
		llmProvider = anthropic.NewAnthropicProvider(cfg.Keys.Anthropic, cfg.Engine.LLMModel, cfg.Engine.LLMBaseURL)
	} else {
		log.Printf("[INFO] Using LLM Provider: %s", cfg.Engine.LLMProvider)
	}
	thinker := thinking.NewProcessor(llmProvider, cfg.Engine.LLMMaxRetries, nil)

	// In-memory registry of live sessions
	sessionRegistry := memory.NewSessionRepository()

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Keys.PersistTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.PersistTopic,
		uowFactory,
	)

	documentService := service.NewDocumentService(uowFactory, emailService)
	sessionService := service.NewSessionService(
		uowFactory,
		sessionRegistry,
		docLock,
		publisherService,
		natsPub,
		thinker,
		service.EngineOptions{
			PauseThreshold:        time.Duration(cfg.Engine.PauseThresholdMs) * time.Millisecond,
			ConversationWindow:    cfg.Engine.ConversationWindow,
			MinQuestionLength:     cfg.Engine.MinQuestionLength,
			MinAnswerLength:       cfg.Engine.MinAnswerLength,
			TranscriptionProvider: cfg.Engine.TranscriptionProvider,
			DeepgramAPIKey:        cfg.Keys.Deepgram,
			OpenAIAPIKey:          cfg.Keys.OpenAI,
		},
		sysLogger,
	)

	// Audit trail worker
	auditService := service.NewAuditService(uowFactory, natsSub, sysLogger)
	if natsSub != nil {
		auditService.Start()
	}

	// Handler
	sessionHandler := handler.NewSessionHandler(wsHub, sessionService, wsLogger)

	// 5. Controllers
	return &Container{
		HealthController:   controller.NewHealthController(db, rdb, wsHub),
		DocumentController: controller.NewDocumentController(documentService),
		SessionController:  controller.NewSessionController(sessionService),

		ConsumerService: consumerService,

		SessionHandler: sessionHandler,
		WebSocketHub:   wsHub,
	}
}
