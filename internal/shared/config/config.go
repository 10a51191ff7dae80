package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string

	TemplatesDir string
	OutputPrefix string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	DatabaseURL string

	LLMProvider   string
	LLMModel      string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAITimeout time.Duration

	AdvisoryMaxAttempts int
	AdvisoryBaseDelay   time.Duration
	AdvisoryRPS         float64
	AdvisoryBurst       int
	AdvisoryCacheTTL    time.Duration

	BudgetCeiling int
	BudgetFloor   int
	FallbackSeed  int64

	RenderEngine      string
	RenderURL         string
	RenderTimeout     time.Duration
	RenderConcurrency int

	MaxUploadBytes int64
	MaxUploadFiles int

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	for _, path := range []string{".env", "cmd/.env"} {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			log.Printf("config: skip %s: %v", path, err)
		}
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "3001"),
		Env:             env,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		TemplatesDir: getEnv("TEMPLATES_PATH", "./templates"),
		OutputPrefix: strings.Trim(getEnv("OUTPUT_PREFIX", "output"), "/"),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		DatabaseURL: dbURL,

		LLMProvider:   strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMModel:      getEnv("LLM_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAITimeout: time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 120)) * time.Second,

		AdvisoryMaxAttempts: getEnvInt("ADVISORY_MAX_ATTEMPTS", 3),
		AdvisoryBaseDelay:   getEnvDuration("ADVISORY_BASE_DELAY", time.Second),
		AdvisoryRPS:         getEnvFloat("ADVISORY_RPS", 2),
		AdvisoryBurst:       getEnvInt("ADVISORY_BURST", 4),
		AdvisoryCacheTTL:    getEnvDuration("ADVISORY_CACHE_TTL", 10*time.Minute),

		BudgetCeiling: getEnvInt("BUDGET_CEILING", 1000),
		BudgetFloor:   getEnvInt("BUDGET_FLOOR", 300),
		FallbackSeed:  int64(getEnvInt("FALLBACK_SEED", 0)),

		RenderEngine:      normalizeRenderEngine(getEnv("RENDER_ENGINE", "canvas")),
		RenderURL:         getEnv("RENDER_URL", ""),
		RenderTimeout:     getEnvDuration("RENDER_TIMEOUT", 60*time.Second),
		RenderConcurrency: getEnvInt("RENDER_CONCURRENCY", 1),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 50<<20)),
		MaxUploadFiles: getEnvInt("MAX_UPLOAD_FILES", 10),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 100.0/900.0),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 100),
	}
}

// IsDevLike reports whether env allows in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: %s invalid float %q, using %v", key, raw, def)
		return def
	}
	return v
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("config: %s invalid duration %q, using %s", key, raw, def)
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeRenderEngine(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "remote":
		return "remote"
	default:
		return "canvas"
	}
}
