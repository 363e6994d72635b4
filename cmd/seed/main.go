package main

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/SLatz18/thoughtsAI/internal/model"
	"github.com/SLatz18/thoughtsAI/pkg/database"
	"github.com/SLatz18/thoughtsAI/pkg/outline"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/datatypes"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding demo thinking document...")

	const demoTitle = "Beta Launch Planning"

	// Skip when the demo document already exists
	var existing model.Document
	if err := db.Where("title = ?", demoTitle).First(&existing).Error; err == nil {
		log.Printf("Document '%s' already exists, skipping...", demoTitle)
		return
	}

	sections := []outline.SectionData{
		{
			Title:   "Goals",
			Content: "- Ship the beta to the first fifty users next month\n- Keep the onboarding flow under five minutes",
		},
		{
			Title:   "Risks",
			Content: "- Onboarding is still confusing for new users\n- The team invite flow is not ready",
		},
		{
			Title:   "Decisions",
			Content: "- Cut the team invite flow from the first release",
		},
	}
	sectionsJSON, err := json.Marshal(sections)
	if err != nil {
		log.Fatalf("Error: Failed to marshal sections: %v", err)
	}

	markdown := "## Goals\n\n- Ship the beta to the first fifty users next month\n- Keep the onboarding flow under five minutes\n\n" +
		"## Risks\n\n- Onboarding is still confusing for new users\n- The team invite flow is not ready\n\n" +
		"## Decisions\n\n- Cut the team invite flow from the first release"

	doc := model.Document{
		Id:              uuid.New(),
		UserId:          "default_user",
		Title:           demoTitle,
		Content:         datatypes.JSON(sectionsJSON),
		ContentMarkdown: markdown,
	}
	if err := db.Create(&doc).Error; err != nil {
		log.Fatalf("Error: Failed to create document: %v", err)
	}
	log.Printf("Created document: %s (%s)", doc.Title, doc.Id)

	// One finished session with its turn history
	startedAt := time.Now().Add(-30 * time.Minute)
	endedAt := startedAt.Add(12 * time.Minute)
	sess := model.ThinkingSession{
		Id:         uuid.New(),
		UserId:     "default_user",
		DocumentId: doc.Id,
		Status:     "ended",
		Transcript: "I want to figure out how to launch the beta next month. The biggest risk is that onboarding is still too confusing for new users.",
		StartedAt:  startedAt,
		EndedAt:    &endedAt,
	}
	if err := db.Create(&sess).Error; err != nil {
		log.Fatalf("Error: Failed to create session: %v", err)
	}
	log.Printf("Created session: %s", sess.Id)

	turns := []model.ConversationTurn{
		{
			Id:        uuid.New(),
			SessionId: sess.Id,
			Role:      "user",
			Content:   "I want to figure out how to launch the beta next month.",
			CreatedAt: startedAt.Add(1 * time.Minute),
		},
		{
			Id:        uuid.New(),
			SessionId: sess.Id,
			Role:      "assistant",
			Content:   "What would a successful beta look like for you?",
			CreatedAt: startedAt.Add(1*time.Minute + 5*time.Second),
		},
		{
			Id:        uuid.New(),
			SessionId: sess.Id,
			Role:      "user",
			Content:   "The biggest risk is that onboarding is still too confusing for new users.",
			CreatedAt: startedAt.Add(4 * time.Minute),
		},
		{
			Id:        uuid.New(),
			SessionId: sess.Id,
			Role:      "assistant",
			Content:   "Which single onboarding step loses the most people today?",
			CreatedAt: startedAt.Add(4*time.Minute + 5*time.Second),
		},
	}
	for _, t := range turns {
		if err := db.Create(&t).Error; err != nil {
			log.Printf("Error creating turn: %v", err)
		}
	}
	log.Printf("Created %d conversation turns", len(turns))

	// One earlier version so the history endpoint has something to show
	version := model.DocumentVersion{
		Id:              uuid.New(),
		DocumentId:      doc.Id,
		Version:         1,
		Content:         datatypes.JSON([]byte(`[{"title":"Goals","content":"- Ship the beta next month","subsections":null}]`)),
		ContentMarkdown: "## Goals\n\n- Ship the beta next month",
		CreatedAt:       startedAt.Add(6 * time.Minute),
	}
	if err := db.Create(&version).Error; err != nil {
		log.Printf("Error creating version: %v", err)
	}

	log.Println("Seeding completed!")
}
