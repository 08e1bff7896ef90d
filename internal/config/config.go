package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted in BACKEND
const (
	BackendSQL      = "sql"
	BackendRealtime = "realtime"
)

// Config holds application configuration
type Config struct {
	Backend string

	// SQL backend
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	// Realtime Database backend
	FirebaseURL             string
	FirebaseCredentialsFile string

	PrefsPath       string
	ServerPort      string
	SessionSecret   string
	SessionDuration time.Duration
	RequestTimeout  time.Duration
	ConfigMerge     string
	TrustProxy      bool

	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first; real environment
// variables always win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Backend:                 strings.ToLower(getEnv("BACKEND", BackendSQL)),
		DatabaseType:            getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:            getEnv("DB_PATH", "./wagonquiz.db"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		FirebaseURL:             strings.TrimSuffix(getEnv("FIREBASE_DATABASE_URL", ""), "/"),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		PrefsPath:               getEnv("PREFS_PATH", DefaultPrefsPath()),
		ServerPort:              getEnv("PORT", "8080"),
		SessionSecret:           getEnv("SESSION_SECRET", ""),
		SessionDuration:         getDuration("SESSION_DURATION", 24*time.Hour),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 10*time.Second),
		ConfigMerge:             strings.ToLower(getEnv("CONFIG_MERGE", "strict")),
		TrustProxy:              getBool("TRUST_PROXY", false),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFile:                 getEnv("LOG_FILE", ""),
	}
}

// DefaultPrefsPath returns the XDG location of the local session prefs file.
func DefaultPrefsPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return filepath.Join(".", "prefs.toml")
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "wagonquiz", "prefs.toml")
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBool parses values such as "true", "1" or "false"
func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

// getDuration parses a Go duration string such as "30s" or "2h"
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
