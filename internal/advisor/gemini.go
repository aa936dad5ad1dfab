package advisor

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"
)

// GeminiConfig selects between the Gemini Developer API (APIKey) and
// Vertex AI (Project and Location). BaseURL overrides the service endpoint,
// for proxies and local fakes.
type GeminiConfig struct {
	Backend  string
	APIKey   string
	Project  string
	Location string
	BaseURL  string
}

// GeminiModel adapts a genai client to Model.
type GeminiModel struct {
	client *genai.Client
}

func NewGeminiModel(ctx context.Context, cfg GeminiConfig) (*GeminiModel, error) {
	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1", BaseURL: cfg.BaseURL},
	}
	switch cfg.Backend {
	case BackendVertex:
		if cfg.Project == "" {
			return nil, errors.New("vertex backend requires a project")
		}
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	case BackendGemini, "":
		if cfg.APIKey == "" {
			return nil, errors.New("gemini backend requires an API key")
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	default:
		return nil, fmt.Errorf("unknown genai backend %q", cfg.Backend)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiModel{client: client}, nil
}

// Generate sends a single-turn text prompt. Plain text is the default
// response type, so no MIME type is requested; the v1 endpoint rejects it.
func (m *GeminiModel) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	temperature := req.Temperature
	gc := &genai.GenerateContentConfig{
		MaxOutputTokens: req.MaxOutputTokens,
		Temperature:     &temperature,
	}

	resp, err := m.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), gc)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
