package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/quiz-service/internal/events"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "")
	t.Setenv("ATTEMPT_CACHE_TTL", "")
	t.Setenv("QUIZ_CACHE_TTL", "")
	t.Setenv("EVENTS_ENABLED", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.AttemptCacheTTL)
	assert.Equal(t, time.Minute, cfg.QuizCacheTTL)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, "quiz-events", cfg.Events.QuizTopic)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("ATTEMPT_CACHE_TTL", "15m")
	t.Setenv("QUIZ_CACHE_TTL", "30s")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("EVENTS_PUBLISHER", "mock")
	t.Setenv("CASDOOR_CLIENT_ID", "client")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://lms.example.com, https://admin.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AttemptCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.QuizCacheTTL)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, "mock", cfg.Events.Publisher)
	assert.Equal(t, "client", cfg.Casdoor.ClientID)
	assert.Equal(t, []string{"https://lms.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
}

func TestLoadConfig_InvalidDurationFallsBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ATTEMPT_CACHE_TTL", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.AttemptCacheTTL)
}

func TestEventConfig_GetKafkaBrokers(t *testing.T) {
	c := EventConfig{KafkaBrokers: "k1:9092, k2:9092,,"}
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.GetKafkaBrokers())
}

func TestEventConfig_CreateEventPublisherFallsBackToMock(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, c := range []EventConfig{
		{Enabled: false, Publisher: "kafka"},
		{Enabled: true, Publisher: "mock"},
		{Enabled: true, Publisher: "carrier-pigeon"},
	} {
		pub, err := c.CreateEventPublisher(logger)
		require.NoError(t, err)
		assert.IsType(t, &events.MockEventPublisher{}, pub)
	}
}
