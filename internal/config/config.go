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
	Keys     APIKeys
	Ai       AIConfig
	Ingest   IngestConfig
	Storage  StorageConfig
	Summary  SummaryConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	OpenAI       string
	GoogleGemini string
}

type AIConfig struct {
	EmbeddingModel string // "text-embedding-3-small" or "text-embedding-3-large"
	LLMProvider    string // "gemini"
	LLMModel       string // e.g. "gemini-2.5-pro"
}

type IngestConfig struct {
	TopicName         string
	Workers           int
	ChunkSize         int
	ChunkOverlap      int
	MaxNativeTokens   int
	MaxNativePDFBytes int64
	MaxNativePDFPages int
}

type StorageConfig struct {
	DataRoot string
}

type SummaryConfig struct {
	// CacheBackend is "redis" or "memory". Redis survives restarts;
	// memory is for single-node and test setups.
	CacheBackend string
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
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "pipeline_audit.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			LLMProvider:    getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:       getEnv("LLM_MODEL", "gemini-2.5-pro"),
		},
		Ingest: IngestConfig{
			TopicName:         getEnv("INGEST_TOPIC_NAME", "INGEST_DOCUMENT"),
			Workers:           getEnvAsInt("INGEST_WORKERS", 4),
			ChunkSize:         getEnvAsInt("CHUNK_SIZE", 1000),
			ChunkOverlap:      getEnvAsInt("CHUNK_OVERLAP", 100),
			MaxNativeTokens:   getEnvAsInt("MAX_NATIVE_TOKENS", 25000),
			MaxNativePDFBytes: int64(getEnvAsInt("MAX_NATIVE_PDF_BYTES", 10*1024*1024)),
			MaxNativePDFPages: getEnvAsInt("MAX_NATIVE_PDF_PAGES", 100),
		},
		Storage: StorageConfig{
			DataRoot: getEnv("STORAGE_DATA_ROOT", "./data"),
		},
		Summary: SummaryConfig{
			CacheBackend: getEnv("SUMMARY_CACHE_BACKEND", "memory"),
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
