package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Keys      APIKeys
	Ai        AIConfig
	Workflow  WorkflowConfig
	Auth      AuthConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
	SessionTTL         time.Duration
}

type APIKeys struct {
	GoogleGemini string
}

type AIConfig struct {
	Provider       string // "gemini" or "ollama"
	ChatModel      string
	ImageModel     string
	Temperature    float64
	RequestsPerSec float64
	Burst          int
	GeminiBaseURL  string
	OllamaBaseURL  string
	OllamaModel    string
}

// WorkflowConfig holds the pacing knobs of the orchestrator.
type WorkflowConfig struct {
	ImagePacing      time.Duration
	ProgressTick     time.Duration
	LoginNoticeDelay time.Duration
}

type AuthConfig struct {
	VerificationDelay  time.Duration
	LocalEmail         string
	LocalName          string
	LocalPassword      string // hashed at startup when LocalPasswordHash is empty
	LocalPasswordHash  string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// TelemetryConfig drives the OTLP exporter. Tracing is off unless Enabled.
type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	ServiceName string
	Environment string
	SampleRatio float64
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
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JWTSecret:          getEnv("JWT_SECRET", "aether-dev-secret"),
			SessionTTL:         getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			Provider:       getEnv("LLM_PROVIDER", "gemini"),
			ChatModel:      getEnv("LLM_MODEL", "gemini-2.5-flash"),
			ImageModel:     getEnv("LLM_IMAGE_MODEL", "gemini-2.5-flash-image"),
			Temperature:    getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			RequestsPerSec: getEnvAsFloat("GEMINI_RPS", 1),
			Burst:          getEnvAsInt("GEMINI_BURST", 2),
			GeminiBaseURL:  getEnv("GEMINI_BASE_URL", ""),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:    getEnv("OLLAMA_MODEL", "llama3"),
		},
		Workflow: WorkflowConfig{
			ImagePacing:      getEnvAsDuration("IMAGE_PACING", 30*time.Second),
			ProgressTick:     getEnvAsDuration("PROGRESS_TICK", time.Second),
			LoginNoticeDelay: getEnvAsDuration("LOGIN_NOTICE_DELAY", 500*time.Millisecond),
		},
		Auth: AuthConfig{
			VerificationDelay:  getEnvAsDuration("AUTH_VERIFICATION_DELAY", 2*time.Second),
			LocalEmail:         getEnv("AUTH_LOCAL_EMAIL", "usuario@exemplo.com"),
			LocalName:          getEnv("AUTH_LOCAL_NAME", "Usuário Aether"),
			LocalPassword:      getEnv("AUTH_LOCAL_PASSWORD", "aether"),
			LocalPasswordHash:  getEnv("AUTH_LOCAL_PASSWORD_HASH", ""),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:3000/api/auth/google/callback"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			Insecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "aether-base-be"),
			Environment: getEnv("GO_ENV", "development"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
