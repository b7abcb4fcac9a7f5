package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avatarly/avatar-relay/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.Chat.DefaultProvider = "openai"
	cfg.Chat.OpenAI.APIKey = "test-key"
	cfg.Chat.SystemPrompt = "sys"
	cfg.Video.APIKey = "did-key"
	cfg.Voice.APIKey = "el-key"
	cfg.Static.Dir = t.TempDir()

	return NewRouter(cfg)
}

func TestRouter_Health(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRouter_Providers(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest("GET", "/api/v1/providers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openai")
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest("GET", "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
