package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	AssemblyAPIKey   string
	AssemblyBaseURL  string
	SpeakersExpected int
	UploadDir        string
	MaxUploadBytes   int64
	RetentionTTL     time.Duration
	SweepInterval    time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. A missing provider credential is a configuration
// fault and fails the load rather than surfacing at request time.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "3000"),
		AssemblyAPIKey:   os.Getenv("ASSEMBLY_API_KEY"),
		AssemblyBaseURL:  getEnv("ASSEMBLY_BASE_URL", "https://api.assemblyai.com/v2"),
		SpeakersExpected: getEnvInt("SPEAKERS_EXPECTED", 2),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 100)) << 20,
		RetentionTTL:     time.Minute * time.Duration(getEnvInt("RETENTION_TTL_MINUTES", 60)),
		SweepInterval:    time.Minute * time.Duration(getEnvInt("SWEEP_INTERVAL_MINUTES", 10)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 120)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		ShutdownTimeout:  time.Second * time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 15)),
	}

	if cfg.AssemblyAPIKey == "" {
		return nil, fmt.Errorf("ASSEMBLY_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
