package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "testdata/nonexistent.yaml")
	t.Setenv("OPENAI_API_KEY", "oa-key")
	t.Setenv("DID_API_KEY", "did-key")
	t.Setenv("ELEVENLABS_API_KEY", "el-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.Chat.DefaultProvider)
	assert.Equal(t, "gpt-4o", cfg.Chat.OpenAI.Model)
	assert.Equal(t, 150, cfg.Chat.MaxTokens)
	assert.Equal(t, 0.7, cfg.Chat.Temperature)
	assert.Equal(t, time.Second, cfg.Chat.WelcomeDelay)
	assert.Equal(t, "https://api.d-id.com", cfg.Video.BaseURL)
	assert.Equal(t, "amy-jcwCkr1grs", cfg.Video.PresenterID)
	assert.Equal(t, 3*time.Second, cfg.Video.PollInterval)
	assert.Equal(t, 60, cfg.Video.MaxAttempts)
	assert.Equal(t, "21m00Tcm4TlvDq8ikWAM", cfg.Voice.VoiceID)

	assert.Equal(t, "oa-key", cfg.Chat.OpenAI.APIKey)
	assert.Equal(t, "did-key", cfg.Video.APIKey)
	assert.Equal(t, "el-key", cfg.Voice.APIKey)

	assert.NoError(t, cfg.Validate())
}

func TestValidate_NamesEveryMissingKey(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Contains(t, err.Error(), "DID_API_KEY")
	assert.Contains(t, err.Error(), "ELEVENLABS_API_KEY")
}

func TestValidate_PartialMissing(t *testing.T) {
	cfg := &Config{}
	cfg.Chat.OpenAI.APIKey = "set"
	cfg.Voice.APIKey = "set"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DID_API_KEY")
	assert.NotContains(t, err.Error(), "OPENAI_API_KEY")
	assert.NotContains(t, err.Error(), "ELEVENLABS_API_KEY")
}

func TestValidate_VoiceIDOptional(t *testing.T) {
	cfg := &Config{}
	cfg.Chat.OpenAI.APIKey = "a"
	cfg.Video.APIKey = "b"
	cfg.Voice.APIKey = "c"

	assert.NoError(t, cfg.Validate())
}
