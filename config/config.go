// Package config loads settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/mo"
)

const (
	DefaultEndpoint    = "https://router.huggingface.co/v1/chat/completions"
	DefaultModel       = "google/gemma-2-9b-it"
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.7
	DefaultTimeout     = 30 * time.Second
)

type Config struct {
	Completion CompletionConfig
	Remote     RemoteConfig
	Web        WebConfig
	Journal    JournalConfig
	Log        LogConfig
}

// CompletionConfig describes the upstream chat completion endpoint.
type CompletionConfig struct {
	APIKey      string
	Endpoint    string
	Model       string
	MaxTokens   int
	Temperature mo.Option[float64]
	Timeout     time.Duration
}

// RemoteConfig covers the gRPC completion service: Addr is dialled by the
// front-ends (empty means call the endpoint directly), ServePort is where
// cmd/completion listens.
type RemoteConfig struct {
	Addr      string
	ServePort string
}

type WebConfig struct {
	Addr string
}

// JournalConfig enables the Redis exchange journal when RedisAddr is set.
type JournalConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Stream        string
	MaxLen        int64
	Workers       int
	BufferSize    int
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads envFilePath (if it exists) and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	p := &parser{}
	cfg := &Config{
		Completion: CompletionConfig{
			APIKey:      strings.TrimSpace(os.Getenv("HUGGINGFACE_API_KEY")),
			Endpoint:    getEnv("COMPL_ENDPOINT", DefaultEndpoint),
			Model:       getEnv("COMPL_MODEL", DefaultModel),
			MaxTokens:   p.getInt("COMPL_MAX_TOKENS", DefaultMaxTokens),
			Temperature: p.getTemperature("COMPL_TEMPERATURE", DefaultTemperature),
			Timeout:     p.getDuration("COMPL_TIMEOUT", DefaultTimeout),
		},
		Remote: RemoteConfig{
			Addr:      getEnv("COMPL_ADDR", ""),
			ServePort: getEnv("SERVE_PORT", "50053"),
		},
		Web: WebConfig{
			Addr: getEnv("WEB_ADDR", ":8080"),
		},
		Journal: JournalConfig{
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       p.getInt("REDIS_DB", 0),
			Stream:        getEnv("JOURNAL_STREAM", "nlpqa:exchanges"),
			MaxLen:        int64(p.getInt("JOURNAL_MAXLEN", 10000)),
			Workers:       p.getInt("JOURNAL_WORKERS", 2),
			BufferSize:    p.getInt("JOURNAL_BUFFER", 100),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "INFO"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser collects every malformed variable so Load reports them together.
type parser struct {
	errs []error
}

func (p *parser) getInt(key string, defaultValue int) int {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s %q: %w", key, valueStr, err))
		return defaultValue
	}
	return value
}

// getDuration accepts Go durations ("45s") or plain seconds ("45").
func (p *parser) getDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	p.errs = append(p.errs, fmt.Errorf("invalid %s %q: want a duration like 30s", key, valueStr))
	return defaultValue
}

// getTemperature returns None for "off"/"none" so the field is left out of the
// request entirely.
func (p *parser) getTemperature(key string, defaultValue float64) mo.Option[float64] {
	valueStr := strings.TrimSpace(os.Getenv(key))
	switch strings.ToLower(valueStr) {
	case "":
		return mo.Some(defaultValue)
	case "off", "none":
		return mo.None[float64]()
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s %q: %w", key, valueStr, err))
		return mo.None[float64]()
	}
	return mo.Some(value)
}
