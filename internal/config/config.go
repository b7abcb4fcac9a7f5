package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Video   VideoConfig   `mapstructure:"video"`
	Voice   VoiceConfig   `mapstructure:"voice"`
	Static  StaticConfig  `mapstructure:"static"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ChatConfig struct {
	DefaultProvider string        `mapstructure:"default_provider"`
	SystemPrompt    string        `mapstructure:"system_prompt"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Temperature     float64       `mapstructure:"temperature"`
	WelcomeDelay    time.Duration `mapstructure:"welcome_delay"`
	OpenAI          OpenAIConfig  `mapstructure:"openai"`
	Gemini          GeminiConfig  `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key" validate:"required"`
	Model  string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type VideoConfig struct {
	APIKey       string        `mapstructure:"api_key" validate:"required"`
	BaseURL      string        `mapstructure:"base_url"`
	PresenterID  string        `mapstructure:"presenter_id"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

type VoiceConfig struct {
	APIKey  string `mapstructure:"api_key" validate:"required"`
	VoiceID string `mapstructure:"voice_id"`
}

type StaticConfig struct {
	Dir             string `mapstructure:"dir"`
	WelcomeVideoURL string `mapstructure:"welcome_video_url"`
	LoadingImageURL string `mapstructure:"loading_image_url"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// envNames maps required config fields to the environment variables
// that supply them, for startup error reporting.
var envNames = map[string]string{
	"Config.Chat.OpenAI.APIKey": "OPENAI_API_KEY",
	"Config.Video.APIKey":       "DID_API_KEY",
	"Config.Voice.APIKey":       "ELEVENLABS_API_KEY",
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	// Override with environment variables
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate fails fast when required secrets are absent, naming every
// missing environment variable.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if name, known := envNames[fe.Namespace()]; known {
			missing = append(missing, name)
		} else {
			missing = append(missing, fe.Namespace())
		}
	}
	return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Chat
	v.SetDefault("chat.default_provider", "openai")
	v.SetDefault("chat.system_prompt", "You are a friendly AI. Keep replies short.")
	v.SetDefault("chat.max_tokens", 150)
	v.SetDefault("chat.temperature", 0.7)
	v.SetDefault("chat.welcome_delay", "1s")
	v.SetDefault("chat.openai.model", "gpt-4o")
	v.SetDefault("chat.gemini.model", "gemini-2.5-flash")

	// Video
	v.SetDefault("video.base_url", "https://api.d-id.com")
	v.SetDefault("video.presenter_id", "amy-jcwCkr1grs")
	v.SetDefault("video.poll_interval", "3s")
	v.SetDefault("video.max_attempts", 60)

	// Voice
	v.SetDefault("voice.voice_id", "21m00Tcm4TlvDq8ikWAM")

	// Static assets
	v.SetDefault("static.dir", "./web/static")
	v.SetDefault("static.welcome_video_url", "/static/welcome.mp4")
	v.SetDefault("static.loading_image_url", "/static/loading-avatar.png")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	// Upstream secrets
	v.BindEnv("chat.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("chat.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("video.api_key", "DID_API_KEY")
	v.BindEnv("voice.api_key", "ELEVENLABS_API_KEY")
	v.BindEnv("voice.voice_id", "ELEVENLABS_VOICE_ID")

	// Server
	v.BindEnv("server.port", "SERVER_PORT")
}
