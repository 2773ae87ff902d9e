package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL        string   `yaml:"database_url"`
	RedisURL           string   `yaml:"redis_url"` // Empty disables the user list cache
	JWTSecret          string   `yaml:"jwt_secret"`
	JWTTTL             int      `yaml:"jwt_ttl_hours"`
	SaltRounds         int      `yaml:"salt"` // bcrypt cost used when hashing passwords
	Port               int      `yaml:"port"`
	LogLevel           string   `yaml:"log_level"`
	LogFormat          string   `yaml:"log_format"` // "json" or "console"
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	UserCacheTTL       int      `yaml:"user_cache_ttl_seconds"`
}

func defaults() Config {
	return Config{
		JWTTTL:             24,
		SaltRounds:         10,
		Port:               8080,
		LogLevel:           "info",
		LogFormat:          "console",
		CORSAllowedOrigins: []string{"*"},
		UserCacheTTL:       60,
	}
}

// Load builds the configuration: defaults, then the optional YAML file, then .env and the environment.
func Load() *Config {
	cfg := defaults()

	configFile := getEnv("CONFIG_FILE", "config.yaml")
	// A missing file is the common case and not worth reporting.
	if err := LoadFromFile(configFile, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Config file %s not loaded (%v), using defaults", configFile, err)
	}

	// Try to load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	applyEnv(&cfg)
	return &cfg
}

// LoadFromFile merges YAML values over cfg.
func LoadFromFile(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTTTL = getEnvInt("JWT_TTL_HOURS", cfg.JWTTTL)
	cfg.SaltRounds = getEnvInt("SALT", cfg.SaltRounds)
	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.UserCacheTTL = getEnvInt("USER_CACHE_TTL_SECONDS", cfg.UserCacheTTL)

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = splitList(origins)
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
