package handler

import (
	"net/http"

	"github.com/avatarly/avatar-relay/internal/api/response"
	"github.com/avatarly/avatar-relay/internal/llm"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ListProviders returns the configured text-generation providers
func ListProviders(llmRouter *llm.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        llmRouter.ListProviders(),
			"default_provider": llmRouter.DefaultProvider(),
		})
	}
}
