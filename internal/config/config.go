package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	TablePrefix string
	BaseURL     string // External URL used to build onboarding callback links
	CORSOrigins string

	// Storage
	DatabaseURL string
	RedisURL    string // Empty selects the in-memory session stores

	// Auth
	JWTSecretKey  string
	JWKSURL       string // Optional federated identity provider
	SecureCookies bool

	// LLM Configuration
	OpenAIAPIKey     string
	GeminiAPIKey     string
	GeminiBaseURL    string
	OpenRouterAPIKey string
	DefaultModel     string
	EmbeddingModel   string

	// Document search
	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string
	QdrantUseTLS bool

	// Tenants
	CompaniesDir string

	// Logging
	LogDir      string
	LogMaxFiles int

	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		TablePrefix: tablePrefix,
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		JWTSecretKey:  getEnv("JWT_SECRET_KEY", ""),
		JWKSURL:       getEnv("JWKS_URL", ""),
		SecureCookies: getEnv("SECURE_COOKIES", getDefaultSecureCookies(env)) == "true",

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		DefaultModel:     getEnv("DEFAULT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		QdrantHost:   getEnv("QDRANT_HOST", ""),
		QdrantPort:   getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),
		QdrantUseTLS: getEnv("QDRANT_USE_TLS", "false") == "true",

		CompaniesDir: getEnv("COMPANIES_DIR", "./companies"),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvInt("LOG_MAX_FILES", 10),

		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getDefaultSecureCookies only marks cookies Secure outside local development
func getDefaultSecureCookies(env string) string {
	if env == "prod" {
		return "true"
	}
	return "false"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
