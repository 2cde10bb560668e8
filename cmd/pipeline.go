package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/drive-extractor/internal/ai"
	"github.com/spigell/drive-extractor/internal/ai/gemini"
	"github.com/spigell/drive-extractor/internal/ai/remote"
	"github.com/spigell/drive-extractor/internal/intake"
	"github.com/spigell/drive-extractor/internal/normalize"
	"github.com/spigell/drive-extractor/internal/pipeline"
	"github.com/spigell/drive-extractor/internal/secrets"
)

// newPipeline wires the pipeline from the config. A broken enhancement setup
// is logged and the pipeline runs rule-based only.
func newPipeline(ctx context.Context, config *Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	chain, err := intake.Default(config.Intake, logger)
	if err != nil {
		return nil, fmt.Errorf("building intake filters: %w", err)
	}

	var normOpts normalize.Options
	if config.Normalize != nil {
		normOpts = *config.Normalize
	}

	opts := pipeline.Options{
		Intake:     chain,
		Normalizer: normalize.New(normOpts, logger),
		Logger:     logger,
	}

	enhancer, err := newEnhancer(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("skipping enhancement", zap.Error(err))
	}
	if enhancer != nil {
		opts.Enhancer = enhancer
		opts.EnhanceTimeout = config.AI.Timeout
	}

	return pipeline.New(opts), nil
}

// newEnhancer returns nil without an error when enhancement is disabled.
func newEnhancer(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Enhancer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	switch provider := strings.TrimSpace(strings.ToLower(cfg.Provider)); provider {
	case "", gemini.Provider:
		return newGeminiEnhancer(ctx, cfg.Gemini, logger)
	case remote.Provider:
		return newRemoteEnhancer(cfg.HTTP, logger)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func newGeminiEnhancer(ctx context.Context, cfg *GeminiConfig, logger *zap.Logger) (ai.Enhancer, error) {
	if cfg == nil {
		cfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.RequestsPerSecond)
	if err != nil {
		return nil, err
	}

	genLogger := logger.With(zap.Float64("ai_requests_per_second", cfg.RequestsPerSecond))

	return gemini.NewEnhancer(generator, genLogger, cfg.MaxLogLength), nil
}

func newRemoteEnhancer(cfg *HTTPConfig, logger *zap.Logger) (ai.Enhancer, error) {
	if cfg == nil || strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("ai.http.url is required for the http provider")
	}

	var credential string
	if cfg.CredentialFile != "" || cfg.Credential != "" {
		var err error
		credential, err = secrets.Load(secrets.Source{
			Name:  "enhancement service credential",
			File:  cfg.CredentialFile,
			Value: cfg.Credential,
		})
		if err != nil {
			return nil, err
		}
	}

	return remote.New(logger, cfg.URL, credential), nil
}
