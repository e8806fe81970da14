package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Index  IndexConfig
	Build  BuildConfig
	App    AppConfig
}

type ServerConfig struct {
	Port string
}

type IndexConfig struct {
	BaseURL      string
	FetchTimeout time.Duration
	UserAgent    string
}

type BuildConfig struct {
	DataDir   string
	PipBin    string
	PythonBin string
	Timeout   time.Duration
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Index: IndexConfig{
			BaseURL:      getEnv("INDEX_URL", "https://pypi.org"),
			FetchTimeout: getEnvAsDuration("FETCH_TIMEOUT", 5*time.Minute),
			UserAgent:    getEnv("USER_AGENT", "wheelforge/1.0"),
		},
		Build: BuildConfig{
			DataDir:   getEnv("DATA_DIR", "/mnt/data"),
			PipBin:    getEnv("PIP_BIN", "pip"),
			PythonBin: getEnv("PYTHON_BIN", "python"),
			Timeout:   getEnvAsDuration("BUILD_TIMEOUT", 15*time.Minute),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Build.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if c.Index.BaseURL == "" {
		return fmt.Errorf("INDEX_URL is required")
	}

	if c.Build.Timeout <= 0 {
		return fmt.Errorf("BUILD_TIMEOUT must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
