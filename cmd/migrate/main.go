package main

import (
	"log"
	"os"

	"github.com/SLatz18/thoughtsAI/internal/model"
	"github.com/SLatz18/thoughtsAI/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		// gen_random_uuid() lives in pgcrypto
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models (The Core Task)
	log.Println("Step 2: Running AutoMigrate for 5 Tables...")

	models := []interface{}{
		&model.Document{},
		&model.DocumentVersion{},
		&model.ThinkingSession{},
		&model.ConversationTurn{},
		&model.SystemLog{},
	}

	// Migrate strictly
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Views & Functions
	log.Println("Step 3: Creating Views and Functions...")

	postMigrationSQL := []string{
		// Function: set_current_timestamp_updated_at
		`CREATE OR REPLACE FUNCTION set_current_timestamp_updated_at() RETURNS trigger LANGUAGE plpgsql AS $$
		DECLARE _new_value TIMESTAMP WITH TIME ZONE;
		BEGIN
		  _new_value := now();
		  IF NEW.updated_at IS DISTINCT FROM _new_value THEN NEW.updated_at = _new_value; END IF;
		  RETURN NEW;
		END; $$;`,

		// Keep updated_at honest for writes that bypass GORM
		`DROP TRIGGER IF EXISTS set_documents_updated_at ON documents;`,
		`CREATE TRIGGER set_documents_updated_at BEFORE UPDATE ON documents
		 FOR EACH ROW EXECUTE FUNCTION set_current_timestamp_updated_at();`,

		// View: document_session_activity
		`CREATE OR REPLACE VIEW document_session_activity AS
		 SELECT d.id AS document_id, d.title, d.user_id, s.id AS session_id, s.status, s.started_at, s.ended_at
		 FROM documents d
		 LEFT JOIN thinking_sessions s ON s.document_id = d.id
		 ORDER BY s.started_at DESC NULLS LAST;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Migration finished.")
}
