package advisor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type geminiCall struct {
	path   string
	apiKey string
	body   map[string]any
}

func newGeminiServer(t *testing.T, status int, reply string) (*httptest.Server, *[]geminiCall) {
	t.Helper()
	var calls []geminiCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		call := geminiCall{path: r.URL.Path, apiKey: r.Header.Get("x-goog-api-key")}
		assert.NoError(t, json.Unmarshal(raw, &call.body))
		calls = append(calls, call)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestGeminiModel(t *testing.T, baseURL string) *GeminiModel {
	t.Helper()
	m, err := NewGeminiModel(context.Background(), GeminiConfig{
		Backend: BackendGemini,
		APIKey:  "test-key",
		BaseURL: baseURL,
	})
	require.NoError(t, err)
	return m
}

func TestGeminiModel_Generate(t *testing.T) {
	srv, calls := newGeminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"1. Pay down the card."}]}}]}`)
	m := newTestGeminiModel(t, srv.URL)

	text, err := m.Generate(context.Background(), GenerateRequest{
		Model:           "gemini-2.5-flash",
		Prompt:          "Give me advice",
		MaxOutputTokens: 1000,
		Temperature:     0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "1. Pay down the card.", text)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.True(t, strings.HasSuffix(call.path, "/v1/models/gemini-2.5-flash:generateContent"), call.path)
	assert.Equal(t, "test-key", call.apiKey)

	gen, ok := call.body["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing from %v", call.body)
	assert.EqualValues(t, 1000, gen["maxOutputTokens"])
	assert.NotContains(t, gen, "responseMimeType")

	raw, err := json.Marshal(call.body["contents"])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Give me advice")
}

func TestGeminiModel_EmptyReply(t *testing.T) {
	srv, _ := newGeminiServer(t, http.StatusOK, `{"candidates":[]}`)
	m := newTestGeminiModel(t, srv.URL)

	_, err := m.Generate(context.Background(), GenerateRequest{Model: "gemini-2.5-flash", Prompt: "hi", MaxOutputTokens: 10})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGeminiModel_APIError(t *testing.T) {
	srv, _ := newGeminiServer(t, http.StatusUnauthorized,
		`{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`)
	m := newTestGeminiModel(t, srv.URL)

	_, err := m.Generate(context.Background(), GenerateRequest{Model: "gemini-2.5-flash", Prompt: "hi", MaxOutputTokens: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestNewGeminiModel_MissingCredentials(t *testing.T) {
	_, err := NewGeminiModel(context.Background(), GeminiConfig{Backend: BackendGemini})
	assert.ErrorContains(t, err, "API key")

	_, err = NewGeminiModel(context.Background(), GeminiConfig{Backend: BackendVertex})
	assert.ErrorContains(t, err, "project")

	_, err = NewGeminiModel(context.Background(), GeminiConfig{Backend: "openai"})
	assert.ErrorContains(t, err, "unknown genai backend")
}
