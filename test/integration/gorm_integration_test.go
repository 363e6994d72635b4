package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/SLatz18/thoughtsAI/internal/entity"
	"github.com/SLatz18/thoughtsAI/internal/repository/specification"
	"github.com/SLatz18/thoughtsAI/internal/repository/unitofwork"
	"github.com/SLatz18/thoughtsAI/pkg/database"
	"github.com/SLatz18/thoughtsAI/pkg/outline"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.ThinkingSessionRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Document Round Trip With Sections", func(t *testing.T) {
		ctx := context.Background()
		docId := uuid.New()
		doc := &entity.Document{
			Id:     docId,
			UserId: "integration-test-" + uuid.New().String(),
			Title:  "Integration Test Document",
			Sections: []outline.SectionData{
				{Title: "Goals", Content: "- ship the integration suite"},
			},
			ContentMarkdown: "## Goals\n\n- ship the integration suite",
			CreatedAt:       time.Now(),
		}

		err := uow.DocumentRepository().Create(ctx, doc)
		assert.NoError(t, err)

		found, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: docId})
		assert.NoError(t, err)
		if assert.NotNil(t, found) {
			assert.Equal(t, doc.Title, found.Title)
			if assert.Len(t, found.Sections, 1) {
				assert.Equal(t, "Goals", found.Sections[0].Title)
			}
		}
	})

	t.Run("Transactional Session With Turns And Version", func(t *testing.T) {
		ctx := context.Background()

		docId := uuid.New()
		doc := &entity.Document{
			Id:        docId,
			UserId:    "integration-test-" + uuid.New().String(),
			Title:     "Transaction Test Document",
			Sections:  []outline.SectionData{},
			CreatedAt: time.Now(),
		}
		err := uow.DocumentRepository().Create(ctx, doc)
		assert.NoError(t, err)

		// Transaction Test
		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		sessId := uuid.New()
		sess := &entity.ThinkingSession{
			Id:         sessId,
			UserId:     doc.UserId,
			DocumentId: docId,
			Status:     entity.SessionStatusActive,
			StartedAt:  time.Now(),
		}
		err = uow.ThinkingSessionRepository().Create(ctx, sess)
		assert.NoError(t, err)

		now := time.Now()
		turns := []*entity.ConversationTurn{
			{Id: uuid.New(), SessionId: sessId, Role: entity.TurnRoleUser, Content: "I want to plan the launch.", CreatedAt: now},
			{Id: uuid.New(), SessionId: sessId, Role: entity.TurnRoleAssistant, Content: "What does done look like?", CreatedAt: now},
		}
		err = uow.ConversationTurnRepository().CreateBatch(ctx, turns)
		assert.NoError(t, err)

		version := &entity.DocumentVersion{
			Id:         uuid.New(),
			DocumentId: docId,
			Version:    1,
			Sections: []outline.SectionData{
				{Title: "Launch", Content: "- plan it"},
			},
			ContentMarkdown: "## Launch\n\n- plan it",
			CreatedAt:       now,
		}
		err = uow.DocumentVersionRepository().Create(ctx, version)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		latest, err := uow.DocumentVersionRepository().LatestVersion(ctx, docId)
		assert.NoError(t, err)
		assert.Equal(t, 1, latest)

		stored, err := uow.ConversationTurnRepository().FindAll(ctx,
			specification.BySessionID{SessionID: sessId},
			specification.OrderBy{Field: "created_at"},
		)
		assert.NoError(t, err)
		assert.Len(t, stored, 2)

		t.Log("Successfully created Session with Turns and Version in Transaction")
	})
}
