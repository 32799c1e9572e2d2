package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"PerfumeBot/model"
	"PerfumeBot/quiz"
)

const (
	SourceFile     = "file"
	SourceFirebase = "firebase"
)

// Config holds process settings read from the environment.
type Config struct {
	BotToken string

	SurveyFile   string
	SurveySource string

	LogLevel  string
	LogPretty bool

	// MetricsAddr is the listen address of the metrics server; empty disables it.
	MetricsAddr string

	// RedisAddr enables cross-replica conversation locking when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FirebaseKeyPath     string
	FirebaseDatabaseURL string

	// RenderTimeout bounds each call to the chat platform.
	RenderTimeout time.Duration
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		SurveyFile:    "survey.yaml",
		SurveySource:  SourceFile,
		LogLevel:      "info",
		RenderTimeout: 10 * time.Second,
	}
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := Default()

	cfg.BotToken = os.Getenv("BOT_TOKEN")
	setString(&cfg.SurveyFile, "SURVEY_FILE")
	setString(&cfg.SurveySource, "SURVEY_SOURCE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.FirebaseKeyPath = os.Getenv("FIREBASE_SERVICE_ACCOUNT_KEY_PATH")
	cfg.FirebaseDatabaseURL = os.Getenv("FIREBASE_DATABASE_URL")

	if v := os.Getenv("LOG_PRETTY"); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_PRETTY %q: %w", v, err)
		}
		cfg.LogPretty = pretty
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = n
	}
	if v := os.Getenv("RENDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RENDER_TIMEOUT %q: %w", v, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("RENDER_TIMEOUT must be positive, got %s", d)
		}
		cfg.RenderTimeout = d
	}

	switch cfg.SurveySource {
	case SourceFile, SourceFirebase:
	default:
		return nil, fmt.Errorf("invalid SURVEY_SOURCE %q: want %q or %q", cfg.SurveySource, SourceFile, SourceFirebase)
	}
	return cfg, nil
}

// FirebaseEnabled reports whether both Firebase settings are present.
func (c *Config) FirebaseEnabled() bool {
	return c.FirebaseKeyPath != "" && c.FirebaseDatabaseURL != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// LoadSurvey reads and validates a YAML survey file.
func LoadSurvey(path string) (*model.Survey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey file: %w", err)
	}
	return ParseSurvey(data)
}

// ParseSurvey decodes and validates a YAML survey.
func ParseSurvey(data []byte) (*model.Survey, error) {
	var survey model.Survey
	if err := yaml.Unmarshal(data, &survey); err != nil {
		return nil, fmt.Errorf("failed to parse survey: %w", err)
	}
	if err := ValidateSurvey(&survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

// ValidateSurvey applies the structural checks plus the limit imposed by
// button payload size.
func ValidateSurvey(survey *model.Survey) error {
	return survey.Validate(quiz.PurchaseNameLimit())
}
