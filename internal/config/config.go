package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full server configuration, loaded from environment
// variables with sensible defaults for local development.
type Config struct {
	Port     string
	LogLevel string
	TempDir  string

	// Per-type upload limits, in bytes.
	MaxImageBytes int64
	MaxVideoBytes int64
	MaxAudioBytes int64

	// Remote fetch limits.
	MaxDownloadBytes int64
	DownloadTimeout  time.Duration

	// Frame sampling.
	MaxFramesPerVideo int
	FrameSize         int

	// History listing.
	HistoryLimit int

	MetricsEnabled bool

	// Database.
	DBType     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	// AI providers.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	BedrockRegion string
	NovaProModel  string
	NovaLiteModel string
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		TempDir:  getEnv("TEMP_DIR", os.TempDir()+"/medialens"),

		MaxImageBytes: getEnvInt64("MAX_IMAGE_SIZE", 10*1024*1024),
		MaxVideoBytes: getEnvInt64("MAX_VIDEO_SIZE", 100*1024*1024),
		MaxAudioBytes: getEnvInt64("MAX_AUDIO_SIZE", 50*1024*1024),

		MaxDownloadBytes: getEnvInt64("MAX_DOWNLOAD_SIZE", 100*1024*1024),
		DownloadTimeout:  getEnvDuration("DOWNLOAD_TIMEOUT", 60*time.Second),

		MaxFramesPerVideo: getEnvInt("MAX_FRAMES_PER_VIDEO", 5),
		FrameSize:         getEnvInt("FRAME_SIZE", 512),

		HistoryLimit: getEnvInt("HISTORY_LIMIT", 50),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),

		DBType:     getEnv("DB_TYPE", "sqlite"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "medialens"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "medialens"),
		SQLitePath: getEnv("DB_PATH", "./medialens.db"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),
		BedrockRegion: getEnv("AWS_REGION", "us-east-1"),
		NovaProModel:  getEnv("BEDROCK_MODEL_PRO", "amazon.nova-pro-v1:0"),
		NovaLiteModel: getEnv("BEDROCK_MODEL_LITE", "amazon.nova-lite-v1:0"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
