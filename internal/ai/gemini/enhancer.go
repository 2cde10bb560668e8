package gemini

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/drive-extractor/internal/ai"
	"github.com/spigell/drive-extractor/internal/logger"
	"github.com/spigell/drive-extractor/internal/utils"
)

// Provider is the provider name reported in logs.
const Provider = "gemini"

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Enhancer asks Gemini for the drive fields of a message.
type Enhancer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewEnhancer(generator contentGenerator, log *zap.Logger, maxLogLength int) *Enhancer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Enhancer{
		generator: generator,
		logger:    logger.WithCommonFields(log, Provider, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (e *Enhancer) Enhance(ctx context.Context, req ai.Request) (*ai.Enhancement, error) {
	prompt := buildPrompt(req.Subject, req.Body())

	e.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	enh, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	enh.Raw = raw
	return enh, nil
}

func buildPrompt(subject, body string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Subject: {{SUBJECT}}\n\n{{EMAIL}}\n\nJSON keys: {{FIELDS}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{SUBJECT}}", strings.TrimSpace(subject))
	prompt = strings.ReplaceAll(prompt, "{{FIELDS}}", strings.Join(ai.FieldNames, ", "))
	// The body goes last so placeholders inside the email are left alone.
	prompt = strings.ReplaceAll(prompt, "{{EMAIL}}", body)
	return prompt
}

func parseResponse(raw string) (*ai.Enhancement, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, &ai.ParseError{Message: "gemini response is not a JSON object", Cause: err}
	}

	fields, err := ai.DecodeFields(data)
	if err != nil {
		return nil, err
	}

	return &ai.Enhancement{
		Fields:     fields,
		Confidence: ai.Confidence(fields),
	}, nil
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSON strips markdown fences and any prose around the outermost object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		raw = raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}
