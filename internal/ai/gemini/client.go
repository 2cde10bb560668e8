package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/spigell/drive-extractor/internal/ai"
)

const (
	defaultModel     = "gemini-2.5-flash"
	temperature      = 0.1
	maxOutputTokens  = 1024
	responseMIMEType = "application/json"
)

type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client to provide simple prompt-based interactions.
// It is safe for concurrent use; calls share one rate limiter.
type Generator struct {
	models    models
	modelName string
	limiter   *rate.Limiter
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
// A positive requestsPerSecond paces every call made through the generator.
func NewGenerator(ctx context.Context, apiKey, model string, requestsPerSecond float64) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, model, requestsPerSecond), nil
}

func newGenerator(m models, model string, requestsPerSecond float64) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &Generator{models: m, modelName: model, limiter: limiter}
}

// GenerateContent sends the prompt to Gemini in JSON response mode and returns the textual response.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	temp := float32(temperature)
	config := &genai.GenerateContentConfig{
		Temperature:      &temp,
		CandidateCount:   1,
		MaxOutputTokens:  maxOutputTokens,
		ResponseMIMEType: responseMIMEType,
	}

	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", classifyErr(err)
	}
	if resp == nil {
		return "", &ai.ServiceError{Message: "gemini api returned no response"}
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", &ai.ServiceError{Message: "gemini api returned empty response"}
	}

	return output, nil
}

func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ai.ServiceError{StatusCode: apiErr.Code, Message: apiErr.Status, Cause: err}
	}
	return &ai.ServiceError{Message: "generate content", Cause: err}
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
