package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wealth/internal/log"
)

const probePrompt = "Say 'Connection successful' if you can read this."

const probeMaxOutputTokens = 50

// InferenceConfig describes how to reach the hosted model. It is built once
// at startup and passed to NewInferenceClient.
type InferenceConfig struct {
	Provider        string
	Model           string
	Region          string
	MaxOutputTokens int32
	Temperature     float32
	Timeout         time.Duration
}

// DefaultInferenceConfig returns the defaults used when nothing is configured.
func DefaultInferenceConfig() InferenceConfig {
	return InferenceConfig{
		Provider:        "Google Gemini",
		Model:           "gemini-2.5-flash",
		Region:          "us-central1",
		MaxOutputTokens: 1000,
		Temperature:     0.7,
		Timeout:         30 * time.Second,
	}
}

// GenerateRequest is one single-turn text generation call.
type GenerateRequest struct {
	Model           string
	Prompt          string
	MaxOutputTokens int32
	Temperature     float32
}

// Model is a hosted text-generation model.
type Model interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Outcome is the tagged result of an inference call: exactly one of Text
// or Err is meaningful.
type Outcome struct {
	Text string
	Err  error
}

// OK reports whether the call produced text.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// ProbeResult is the connectivity check payload.
type ProbeResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Model    string `json:"model,omitempty"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

var ErrEmptyResponse = errors.New("empty response from model")

// InferenceClient sends prompts to a Model using one InferenceConfig.
type InferenceClient struct {
	model Model
	cfg   InferenceConfig
}

func NewInferenceClient(model Model, cfg InferenceConfig) *InferenceClient {
	return &InferenceClient{model: model, cfg: cfg}
}

// Config returns the configuration the client was built with.
func (c *InferenceClient) Config() InferenceConfig {
	return c.cfg
}

// Infer sends prompt to the model. It never panics and never returns the
// fallback itself; callers decide what to do with a failed Outcome.
func (c *InferenceClient) Infer(ctx context.Context, prompt string) Outcome {
	logger := log.FromContext(ctx).WithComponent(log.ComponentInference)

	text, err := c.generate(ctx, GenerateRequest{
		Model:           c.cfg.Model,
		Prompt:          prompt,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
		Temperature:     c.cfg.Temperature,
	})
	if err != nil {
		logger.WarnContext(ctx, "Inference call failed",
			log.FieldModel, c.cfg.Model,
			log.FieldOperation, log.OpInfer,
			log.FieldError, err.Error(),
		)
		return Outcome{Err: err}
	}

	logger.InfoContext(ctx, "Inference call succeeded",
		log.FieldModel, c.cfg.Model,
		log.FieldOperation, log.OpInfer,
		"response_chars", len(text),
	)
	return Outcome{Text: text}
}

// Probe checks connectivity with a trivial prompt.
func (c *InferenceClient) Probe(ctx context.Context) ProbeResult {
	text, err := c.generate(ctx, GenerateRequest{
		Model:           c.cfg.Model,
		Prompt:          probePrompt,
		MaxOutputTokens: probeMaxOutputTokens,
		Temperature:     c.cfg.Temperature,
	})
	if err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentInference).WarnContext(ctx, "Inference probe failed",
			log.FieldModel, c.cfg.Model,
			log.FieldOperation, log.OpProbe,
			log.FieldError, err.Error(),
		)
		return ProbeResult{
			Success: false,
			Message: c.providerName() + " connection failed",
			Error:   err.Error(),
		}
	}
	return ProbeResult{
		Success:  true,
		Message:  c.providerName() + " connection successful",
		Model:    c.cfg.Model,
		Response: text,
	}
}

func (c *InferenceClient) generate(ctx context.Context, req GenerateRequest) (string, error) {
	if c == nil || c.model == nil {
		return "", errors.New("inference model not configured")
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	text, err := c.model.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate with %s: %w", req.Model, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *InferenceClient) providerName() string {
	if c.cfg.Provider == "" {
		return "model provider"
	}
	return c.cfg.Provider
}
