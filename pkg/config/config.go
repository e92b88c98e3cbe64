package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	// Display name of the CRM owner, used when prompting the summarizer
	// ("refer to <owner> as you").
	OwnerName string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	OpenAIAPIKey         string
	OpenAIModel          string
	OpenAIEmbeddingModel string

	ApifyAPIKey  string
	ApifyActorID string

	ChromaAPIKey   string
	ChromaTenant   string
	ChromaDatabase string

	// Key used to encrypt OAuth tokens at rest.
	EncryptionKey string

	// Upper bound on messages pulled from Gmail per sync request.
	SyncMaxMessages int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	syncMax := 200
	if v := os.Getenv("SYNC_MAX_MESSAGES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			syncMax = parsed
		}
	}

	return &Config{
		Port:                 getEnv("PORT", "8080"),
		DatabaseURL:          getEnv("DATABASE_URL", "postgres://localhost:5432/crm?sslmode=disable"),
		OwnerName:            getEnv("OWNER_NAME", ""),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:    getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8080/api/auth/google/callback"),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIEmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		ApifyAPIKey:          getEnv("APIFY_API_KEY", ""),
		ApifyActorID:         getEnv("APIFY_ACTOR_ID", "apify~linkedin-profile-scraper"),
		ChromaAPIKey:         getEnv("CHROMA_API_KEY", ""),
		ChromaTenant:         getEnv("CHROMA_TENANT", ""),
		ChromaDatabase:       getEnv("CHROMA_DATABASE", ""),
		EncryptionKey:        getEnv("ENCRYPTION_KEY", ""),
		SyncMaxMessages:      syncMax,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
