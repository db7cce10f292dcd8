package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Ordering modes for bot replies.
const (
	OrderingArrival    = "arrival"
	OrderingSubmission = "submission"
)

// Config holds all configuration values.
type Config struct {
	// Banking AI Engine
	ServerURL     string
	ClientTimeout time.Duration

	// Documents
	MaxFileBytes int64

	// Chat
	Ordering string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig mirrors Config in the optional YAML file.
type fileConfig struct {
	ServerURL     string `yaml:"server_url"`
	ClientTimeout string `yaml:"client_timeout"`
	MaxFileBytes  int64  `yaml:"max_file_bytes"`
	Ordering      string `yaml:"ordering"`
	LogFile       string `yaml:"log_file"`
	LogLevel      string `yaml:"log_level"`
}

// Load reads configuration from a .env file in the working directory, the
// YAML file named by BANKCHAT_CONFIG and environment variables.
// Environment variables win over the file, the file wins over defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	path := getEnv("BANKCHAT_CONFIG", defaultConfigPath())
	fc, err := readFile(path)
	if err != nil {
		return Config{}, err
	}
	return build(fc)
}

func build(fc fileConfig) (Config, error) {
	cfg := Config{
		ServerURL:     strings.TrimRight(getEnv("BANKCHAT_SERVER_URL", or(fc.ServerURL, "http://127.0.0.1:8000")), "/"),
		ClientTimeout: 30 * time.Second,
		MaxFileBytes:  20 << 20,
		Ordering:      strings.ToLower(getEnv("BANKCHAT_ORDERING", or(fc.Ordering, OrderingArrival))),
		LogFile:       getEnv("BANKCHAT_LOG_FILE", or(fc.LogFile, "/tmp/bankchat.log")),
		LogLevel:      parseLogLevel(getEnv("BANKCHAT_LOG_LEVEL", or(fc.LogLevel, "INFO"))),
	}

	if t := getEnv("BANKCHAT_CLIENT_TIMEOUT", fc.ClientTimeout); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid client timeout %q", t)
		}
		cfg.ClientTimeout = d
	}

	if fc.MaxFileBytes > 0 {
		cfg.MaxFileBytes = fc.MaxFileBytes
	}
	if v := os.Getenv("BANKCHAT_MAX_FILE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid BANKCHAT_MAX_FILE_BYTES %q", v)
		}
		cfg.MaxFileBytes = n
	}

	if err := ValidateOrdering(cfg.Ordering); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ValidateOrdering rejects unknown ordering modes.
func ValidateOrdering(s string) error {
	switch s {
	case OrderingArrival, OrderingSubmission:
		return nil
	default:
		return fmt.Errorf("invalid ordering %q (want %s or %s)", s, OrderingArrival, OrderingSubmission)
	}
}

// readFile decodes the YAML config file. A missing file is not an error.
func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fc, nil
	}
	if err != nil {
		return fc, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "bankchat", "config.yaml")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func or(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
