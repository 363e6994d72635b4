package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Keys     APIKeys
	Engine   EngineConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	Anthropic    string
	Deepgram     string
	OpenAI       string
	PersistTopic string // Persistence queue topic
}

type EngineConfig struct {
	PauseThresholdMs      int
	ConversationWindow    int
	MinQuestionLength     int
	MinAnswerLength       int
	LLMProvider           string // "anthropic" or "ollama"
	LLMMaxRetries         int
	LLMModel              string
	LLMBaseURL            string
	TranscriptionProvider string // "whisper" or "deepgram"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "ThoughtsAI"),
		},
		Keys: APIKeys{
			Anthropic:    getEnv("ANTHROPIC_API_KEY", ""),
			Deepgram:     getEnv("DEEPGRAM_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			PersistTopic: getEnv("PERSIST_SESSION_TOPIC_NAME", "PERSIST_SESSION"),
		},
		Engine: EngineConfig{
			PauseThresholdMs:      getEnvAsInt("PAUSE_THRESHOLD_MS", 2000),
			ConversationWindow:    getEnvAsInt("CONVERSATION_WINDOW", 10),
			MinQuestionLength:     getEnvAsInt("MIN_QUESTION_LENGTH", 10),
			MinAnswerLength:       getEnvAsInt("MIN_ANSWER_LENGTH", 20),
			LLMProvider:           getEnv("LLM_PROVIDER", "anthropic"),
			LLMMaxRetries:         getEnvAsInt("LLM_MAX_RETRIES", 3),
			LLMModel:              getEnv("LLM_MODEL", ""),
			LLMBaseURL:            getEnv("LLM_BASE_URL", ""),
			TranscriptionProvider: getEnv("TRANSCRIPTION_PROVIDER", "whisper"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
