package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avatarly/avatar-relay/internal/domain"
	"github.com/avatarly/avatar-relay/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Provider implements llm.Provider for Google Gemini
type Provider struct {
	apiKey string
	model  string
}

// NewProvider creates a new Gemini provider
func NewProvider(apiKey, model string) *Provider {
	return &Provider{
		apiKey: apiKey,
		model:  model,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.5-flash"
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

// Complete generates a reply for the given turn history
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("gemini provider is not configured (missing API key)")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	generativeModel := client.GenerativeModel(p.DefaultModel())
	temperature := float32(req.Temperature)
	generativeModel.Temperature = &temperature
	if req.MaxTokens > 0 {
		maxTokens := int32(req.MaxTokens)
		generativeModel.MaxOutputTokens = &maxTokens
	}

	// Gemini carries the system instruction out of band and names the
	// assistant role "model".
	var history []*genai.Content
	var last string
	for _, t := range req.Turns {
		switch t.Role {
		case domain.RoleSystem:
			generativeModel.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(t.Content)},
			}
		case domain.RoleAssistant:
			history = append(history, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(t.Content)},
			})
		case domain.RoleUser:
			history = append(history, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(t.Content)},
			})
		}
	}
	if n := len(history); n > 0 && history[n-1].Role == "user" {
		if text, ok := history[n-1].Parts[0].(genai.Text); ok {
			last = string(text)
		}
		history = history[:n-1]
	}
	if last == "" {
		return nil, fmt.Errorf("no user turn to complete")
	}

	chat := generativeModel.StartChat()
	chat.History = history

	start := time.Now()
	resp, err := chat.SendMessage(ctx, genai.Text(last))
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	var output string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			output += string(text)
		}
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &llm.Response{
		Text:       strings.TrimSpace(output),
		Model:      p.DefaultModel(),
		TokensUsed: tokensUsed,
		LatencyMs:  latency,
	}, nil
}
