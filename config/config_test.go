package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PerfumeBot/model"
)

const sampleSurvey = `
welcome: Hi there
questions:
  - text: Season?
    options: [Winter, Summer]
  - text: Mood?
    options: [Calm, Bold]
catalog:
  - name: Noir
    description: Smoky and deep
    price: "120 EUR"
    tags:
      0: [0]
      1: [1]
  - name: Bloom
    description: Light florals
    price: "80 EUR"
    tags:
      0: [1]
`

func TestParseSurvey(t *testing.T) {
	survey, err := ParseSurvey([]byte(sampleSurvey))
	require.NoError(t, err)

	assert.Equal(t, "Hi there", survey.Welcome)
	require.Len(t, survey.Questions, 2)
	assert.Equal(t, []string{"Calm", "Bold"}, survey.Questions[1].Options)
	require.Len(t, survey.Catalog, 2)
	assert.Equal(t, model.CatalogItem{
		Name:        "Noir",
		Description: "Smoky and deep",
		Price:       "120 EUR",
		Tags:        map[int][]int{0: {0}, 1: {1}},
	}, survey.Catalog[0])
}

func TestParseSurvey_Invalid(t *testing.T) {
	_, err := ParseSurvey([]byte("questions: ["))
	assert.ErrorContains(t, err, "failed to parse survey")

	_, err = ParseSurvey([]byte("questions: []"))
	assert.ErrorIs(t, err, model.ErrInvalidSurvey)

	long := strings.Replace(sampleSurvey, "name: Noir", "name: "+strings.Repeat("N", 60), 1)
	_, err = ParseSurvey([]byte(long))
	assert.ErrorIs(t, err, model.ErrInvalidSurvey)
}

func TestLoadSurvey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSurvey), 0o600))

	survey, err := LoadSurvey(path)
	require.NoError(t, err)
	assert.Len(t, survey.Catalog, 2)

	_, err = LoadSurvey(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read survey file")
}

func TestDefaultSurveyFileIsValid(t *testing.T) {
	survey, err := LoadSurvey(filepath.Join("..", "survey.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, survey.Questions)
	assert.NotEmpty(t, survey.Catalog)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"BOT_TOKEN", "SURVEY_FILE", "SURVEY_SOURCE", "LOG_LEVEL", "LOG_PRETTY", "METRICS_ADDR",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "RENDER_TIMEOUT",
		"FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "FIREBASE_DATABASE_URL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.FirebaseEnabled())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("SURVEY_FILE", "/etc/perfume.yaml")
	t.Setenv("SURVEY_SOURCE", SourceFirebase)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("METRICS_ADDR", ":2112")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RENDER_TIMEOUT", "3s")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "key.json")
	t.Setenv("FIREBASE_DATABASE_URL", "https://example.firebaseio.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "/etc/perfume.yaml", cfg.SurveyFile)
	assert.Equal(t, SourceFirebase, cfg.SurveySource)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, ":2112", cfg.MetricsAddr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 3*time.Second, cfg.RenderTimeout)
	assert.True(t, cfg.FirebaseEnabled())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"LOG_PRETTY":     "maybe",
		"REDIS_DB":       "first",
		"RENDER_TIMEOUT": "-1s",
		"SURVEY_SOURCE":  "s3",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.ErrorContains(t, err, key)
		})
	}
}
