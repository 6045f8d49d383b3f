package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Mailjet  MailjetConfig
	Redis    RedisConfig
	Oracle   OracleConfig
	Gateway  GatewayConfig
	Signal   SignalConfig
	Plan     PlanConfig
}

type MailjetConfig struct {
	MailjetBaseUrl           string
	MailjetBasicAuthUsername string
	MailjetBasicAuthPassword string
	MailjetSenderEmail       string
	MailjetSenderName        string
	CareTeamEmail            string
	CareTeamName             string
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port        string
	AllowOrigin []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	PoolSize      int
	MinIdleConns  int
}

// OracleConfig lists the language-model providers in rank order. A provider
// without credentials is left out of the chain.
type OracleConfig struct {
	Timeout time.Duration

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	GeminiKey   string
	GeminiModel string

	OllamaURL   string
	OllamaModel string
}

type GatewayConfig struct {
	RateLimit       int
	RateWindow      time.Duration
	MaxPayloadBytes int
}

type SignalConfig struct {
	EventWindow     time.Duration
	MaxEvents       int
	MaxChatTurns    int
	InteractionDays int
	MaxInteractions int
	RecencyWindow   time.Duration
}

type PlanConfig struct {
	Timezone          string
	DefaultFrequency  int
	DefaultMaxLength  int
	RenderConcurrency int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Maternity Signal API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			AllowOrigin: []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "maternity_care"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Mailjet: MailjetConfig{
			MailjetBaseUrl:           getEnv("MAILJET_BASE_URL", "https://api.mailjet.com"),
			MailjetBasicAuthUsername: getEnv("MAILJET_BASIC_AUTH_USERNAME", ""),
			MailjetBasicAuthPassword: getEnv("MAILJET_BASIC_AUTH_PASSWORD", ""),
			MailjetSenderEmail:       getEnv("MAILJET_SENDER_EMAIL", ""),
			MailjetSenderName:        getEnv("MAILJET_SENDER_NAME", "Maternity Care"),
			CareTeamEmail:            getEnv("CARE_TEAM_EMAIL", ""),
			CareTeamName:             getEnv("CARE_TEAM_NAME", "Care Team"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			DialTimeout:   getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:   getDuration("REDIS_READ_TIMEOUT", 2*time.Second),
			WriteTimeout:  getDuration("REDIS_WRITE_TIMEOUT", 2*time.Second),
			PoolSize:      getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:  getInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		Oracle: OracleConfig{
			Timeout:       getDuration("ORACLE_TIMEOUT", 20*time.Second),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			GeminiKey:     getEnv("GEMINI_API_KEY", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			OllamaURL:     getEnv("OLLAMA_URL", ""),
			OllamaModel:   getEnv("OLLAMA_MODEL", "llama3.1"),
		},
		Gateway: GatewayConfig{
			RateLimit:       getInt("EVENT_RATE_LIMIT", 100),
			RateWindow:      getDuration("EVENT_RATE_WINDOW", time.Minute),
			MaxPayloadBytes: getInt("EVENT_MAX_PAYLOAD_BYTES", 5120),
		},
		Signal: SignalConfig{
			EventWindow:     getDuration("SIGNAL_EVENT_WINDOW", 14*24*time.Hour),
			MaxEvents:       getInt("SIGNAL_MAX_EVENTS", 200),
			MaxChatTurns:    getInt("SIGNAL_MAX_CHAT_TURNS", 30),
			InteractionDays: getInt("PREFERENCE_LOOKBACK_DAYS", 30),
			MaxInteractions: getInt("PREFERENCE_MAX_INTERACTIONS", 50),
			RecencyWindow:   getDuration("SWEEP_RECENCY_WINDOW", 7*24*time.Hour),
		},
		Plan: PlanConfig{
			Timezone:          getEnv("PLAN_TIMEZONE", "UTC"),
			DefaultFrequency:  getInt("PLAN_DEFAULT_FREQUENCY", 4),
			DefaultMaxLength:  getInt("COPY_DEFAULT_MAX_LENGTH", 240),
			RenderConcurrency: getInt("PLAN_RENDER_CONCURRENCY", 2),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Oracle.Timeout <= 0 {
		return nil, errors.New("oracle timeout must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}

	return defaultVal
}
