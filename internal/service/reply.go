package service

import (
	"context"
	"fmt"

	"github.com/avatarly/avatar-relay/internal/conversation"
	"github.com/avatarly/avatar-relay/internal/domain"
	"github.com/avatarly/avatar-relay/internal/llm"
	"github.com/rs/zerolog/log"
)

// ReplyService generates assistant replies and keeps the conversation
// history current. The upstream is stateless, so the full accumulated
// turn sequence is sent on every call.
type ReplyService struct {
	store       conversation.Store
	llmRouter   *llm.Router
	provider    string
	maxTokens   int
	temperature float64
}

// NewReplyService creates a new reply service
func NewReplyService(store conversation.Store, llmRouter *llm.Router, provider string, maxTokens int, temperature float64) *ReplyService {
	return &ReplyService{
		store:       store,
		llmRouter:   llmRouter,
		provider:    provider,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Generate appends the user turn, asks the provider for a completion
// over the full history, and appends the assistant turn on success.
// A failed upstream call fails the whole turn; the user turn stays
// appended either way.
func (s *ReplyService) Generate(ctx context.Context, sessionID, userText string) (string, error) {
	turns := s.store.GetOrCreate(sessionID)
	s.store.Append(sessionID, domain.RoleUser, userText)
	turns = append(turns, domain.Turn{Role: domain.RoleUser, Content: userText})

	provider, err := s.llmRouter.GetProvider(s.provider)
	if err != nil {
		return "", fmt.Errorf("failed to resolve provider: %w", err)
	}

	resp, err := provider.Complete(ctx, llm.Request{
		Turns:       turns,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("text generation failed: %w", err)
	}

	log.Debug().
		Str("session_id", sessionID).
		Str("model", resp.Model).
		Int("tokens", resp.TokensUsed).
		Int64("latency_ms", resp.LatencyMs).
		Msg("reply generated")

	s.store.Append(sessionID, domain.RoleAssistant, resp.Text)
	return resp.Text, nil
}
