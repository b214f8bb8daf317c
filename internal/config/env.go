package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	SslCertPath string

	RedisAddr string // empty disables the embedding cache

	AIAPIKey   string
	EmbedModel string
	EmbedDim   int
	GenModel   string

	DefaultTopK      int
	MinSimilarity    float64
	ExplainTopN      int
	BackfillCronSpec string
	BackfillBatch    int

	JWTSecret string
	Port      string
	LogJSON   bool
	Debug     bool
}

// LoadConfig loads the environment variables and returns the config.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SslCertPath: getEnv("SSL_CERT_PATH", ""),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		AIAPIKey:   getEnv("GEMINI_API_KEY", ""),
		EmbedModel: getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:   getEnvInt("EMBED_DIM", 768),
		GenModel:   getEnv("GEN_MODEL", "gemini-1.5-flash"),

		DefaultTopK:      getEnvInt("MATCH_TOP_K", 10),
		MinSimilarity:    getEnvFloat("MATCH_MIN_SIMILARITY", 0),
		ExplainTopN:      getEnvInt("MATCH_EXPLAIN_TOP_N", 5),
		BackfillCronSpec: getEnv("EMBED_BACKFILL_CRON", "@every 10m"),
		BackfillBatch:    getEnvInt("EMBED_BACKFILL_BATCH", 16),

		JWTSecret: getEnv("JWT_SECRET", ""),
		Port:      getEnv("PORT", "8080"),
		LogJSON:   getEnvBool("LOG_JSON", false),
		Debug:     getEnvBool("DEBUG", false),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("WARN: %s=%q not a float, using default %g", key, v, def)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}
