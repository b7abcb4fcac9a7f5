package api

import (
	"net/http"
	"path/filepath"

	"github.com/avatarly/avatar-relay/internal/api/handler"
	customMiddleware "github.com/avatarly/avatar-relay/internal/api/middleware"
	"github.com/avatarly/avatar-relay/internal/config"
	"github.com/avatarly/avatar-relay/internal/conversation"
	"github.com/avatarly/avatar-relay/internal/llm"
	"github.com/avatarly/avatar-relay/internal/llm/gemini"
	"github.com/avatarly/avatar-relay/internal/llm/openai"
	"github.com/avatarly/avatar-relay/internal/service"
	"github.com/avatarly/avatar-relay/internal/session"
	"github.com/avatarly/avatar-relay/internal/video"
	"github.com/avatarly/avatar-relay/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Initialize LLM router with providers
	llmRouter := llm.NewRouter(cfg.Chat.DefaultProvider)

	log.Info().Msgf("Initializing text providers. Default: %s", cfg.Chat.DefaultProvider)

	if cfg.Chat.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.Chat.OpenAI.APIKey, cfg.Chat.OpenAI.Model))
	}
	if cfg.Chat.Gemini.APIKey != "" {
		llmRouter.RegisterProvider(gemini.NewProvider(cfg.Chat.Gemini.APIKey, cfg.Chat.Gemini.Model))
	}

	// Conversation store and pipeline services
	store := conversation.NewMemoryStore(cfg.Chat.SystemPrompt)
	replyService := service.NewReplyService(
		store,
		llmRouter,
		cfg.Chat.DefaultProvider,
		cfg.Chat.MaxTokens,
		cfg.Chat.Temperature,
	)
	videoClient := video.NewClient(video.Config{
		BaseURL:      cfg.Video.BaseURL,
		APIKey:       cfg.Video.APIKey,
		VoiceID:      cfg.Voice.VoiceID,
		PresenterID:  cfg.Video.PresenterID,
		PollInterval: cfg.Video.PollInterval,
		MaxAttempts:  cfg.Video.MaxAttempts,
	})

	// Websocket transport
	wsServer := ws.NewServer(
		session.Config{
			WelcomeVideoURL: cfg.Static.WelcomeVideoURL,
			LoadingImageURL: cfg.Static.LoadingImageURL,
			WelcomeDelay:    cfg.Chat.WelcomeDelay,
		},
		store,
		replyService,
		videoClient,
		log.Logger,
	)

	r.Get("/ws", wsServer.Handle)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/providers", handler.ListProviders(llmRouter))
	})

	// Entry page and static assets
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(cfg.Static.Dir, "index.html"))
	})

	fileServer := http.FileServer(http.Dir(cfg.Static.Dir))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	return r
}
