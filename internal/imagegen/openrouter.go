package imagegen

import (
	"context"
	"encoding/base64"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/marketforge/marketforge/internal/metrics"
	"github.com/marketforge/marketforge/pkg/models"
)

// defaultOpenRouterModels is the preference-ordered model list tried per
// request. Not every routed model supports image output; unusable responses
// just advance to the next model.
var defaultOpenRouterModels = []string{
	"black-forest-labs/flux-1.1-pro",
	"black-forest-labs/flux-pro",
	"black-forest-labs/flux-dev",
	"stability-ai/stable-diffusion-3-5-large",
}

var urlPattern = regexp.MustCompile(`https?://[^\s"')\]]+`)

// OpenRouterProvider generates images through OpenRouter's chat completions
// endpoint, falling through a list of image-capable models
type OpenRouterProvider struct {
	apiKey    string
	baseURL   string
	models    []string
	rpm       int
	client    *restClient
	limiters  *RateLimiterPool
	collector *metrics.Collector
	logger    *slog.Logger
}

type openRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenRouterProvider creates an adapter for the OpenRouter API
func NewOpenRouterProvider(apiKey, baseURL string, modelList []string, rpm int, limiters *RateLimiterPool, collector *metrics.Collector, logger *slog.Logger) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if len(modelList) == 0 {
		modelList = defaultOpenRouterModels
	}
	if rpm <= 0 {
		rpm = 20
	}
	return &OpenRouterProvider{
		apiKey:    apiKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		models:    modelList,
		rpm:       rpm,
		client:    newRESTClient(logger),
		limiters:  limiters,
		collector: collector,
		logger:    logger,
	}
}

// Name identifies this adapter in GenerationResult.Method
func (p *OpenRouterProvider) Name() string { return "openrouter" }

// TryGenerate walks the model list under one shared timeout and returns the
// first usable artifact
func (p *OpenRouterProvider) TryGenerate(ctx context.Context, req models.GenerationRequest, timeout time.Duration) ([]byte, bool) {
	if p.apiKey == "" {
		p.logger.Debug("OpenRouter API key not configured, skipping provider")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, model := range p.models {
		if ctx.Err() != nil {
			return nil, false
		}
		raw, ok := p.tryModel(ctx, model, req)
		if ok {
			return raw, true
		}
	}

	p.logger.Warn("All OpenRouter models failed", "models", len(p.models))
	return nil, false
}

func (p *OpenRouterProvider) tryModel(ctx context.Context, model string, req models.GenerationRequest) ([]byte, bool) {
	if err := p.limiters.Wait(ctx, p.Name(), p.rpm); err != nil {
		p.logger.Warn("Rate limiter wait failed", "provider", p.Name(), "error", err)
		return nil, false
	}

	start := time.Now()
	var resp openRouterResponse
	err := p.client.postJSON(ctx, p.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + p.apiKey},
		openRouterRequest{
			Model: model,
			Messages: []openRouterMessage{
				{Role: "user", Content: "Generate an image: " + req.Prompt},
			},
			MaxTokens:   1000,
			Temperature: 0.7,
		},
		&resp)
	p.collector.RecordProviderRequest(p.Name(), time.Since(start))

	if err != nil {
		p.logger.Warn("OpenRouter model failed", "model", model, "error", err)
		return nil, false
	}
	if len(resp.Choices) == 0 {
		p.logger.Warn("OpenRouter returned no choices", "model", model)
		return nil, false
	}

	content := resp.Choices[0].Message.Content
	return p.extractArtifact(ctx, model, content)
}

// extractArtifact handles the two payload shapes routed models return:
// an image URL embedded in the text, or an inline data URL
func (p *OpenRouterProvider) extractArtifact(ctx context.Context, model, content string) ([]byte, bool) {
	if strings.HasPrefix(content, "data:image") {
		if idx := strings.Index(content, ","); idx >= 0 {
			raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content[idx+1:]))
			if err != nil {
				p.logger.Warn("Failed to decode inline image data", "model", model, "error", err)
				return nil, false
			}
			return raw, true
		}
		return nil, false
	}

	if url := urlPattern.FindString(content); url != "" {
		raw, err := p.client.download(ctx, url)
		if err != nil {
			p.logger.Warn("Failed to download generated image", "model", model, "error", err)
			return nil, false
		}
		p.logger.Info("Image generated via OpenRouter", "model", model)
		return raw, true
	}

	p.logger.Debug("Model response contained no image", "model", model,
		"content_prefix", content[:min(len(content), 80)])
	return nil, false
}
