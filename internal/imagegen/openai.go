package imagegen

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"github.com/marketforge/marketforge/internal/metrics"
	"github.com/marketforge/marketforge/pkg/models"
)

// OpenAIProvider generates images through the OpenAI image generation
// endpoint. A missing API key makes every attempt fail fast so the chain
// advances without a network round trip.
type OpenAIProvider struct {
	apiKey    string
	baseURL   string
	model     string
	rpm       int
	client    *restClient
	limiters  *RateLimiterPool
	collector *metrics.Collector
	logger    *slog.Logger
}

type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality,omitempty"`
	ResponseFormat string `json:"response_format"`
}

type openAIImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

// NewOpenAIProvider creates an adapter for the OpenAI images API
func NewOpenAIProvider(apiKey, baseURL, model string, rpm int, limiters *RateLimiterPool, collector *metrics.Collector, logger *slog.Logger) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "dall-e-3"
	}
	if rpm <= 0 {
		rpm = 15
	}
	return &OpenAIProvider{
		apiKey:    apiKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		model:     model,
		rpm:       rpm,
		client:    newRESTClient(logger),
		limiters:  limiters,
		collector: collector,
		logger:    logger,
	}
}

// Name identifies this adapter in GenerationResult.Method
func (p *OpenAIProvider) Name() string { return "openai_" + p.model }

// TryGenerate requests one image under the given timeout. Any failure is
// logged and reported as (nil, false); the chain decides what happens next.
func (p *OpenAIProvider) TryGenerate(ctx context.Context, req models.GenerationRequest, timeout time.Duration) ([]byte, bool) {
	if p.apiKey == "" {
		p.logger.Debug("OpenAI API key not configured, skipping provider")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.limiters.Wait(ctx, p.Name(), p.rpm); err != nil {
		p.logger.Warn("Rate limiter wait failed", "provider", p.Name(), "error", err)
		return nil, false
	}

	start := time.Now()
	var resp openAIImageResponse
	err := p.client.postJSON(ctx, p.baseURL+"/images/generations",
		map[string]string{"Authorization": "Bearer " + p.apiKey},
		openAIImageRequest{
			Model:          p.model,
			Prompt:         req.Prompt,
			N:              1,
			Size:           "1024x1024",
			Quality:        "hd",
			ResponseFormat: "b64_json",
		},
		&resp)
	p.collector.RecordProviderRequest(p.Name(), time.Since(start))

	if err != nil {
		p.logger.Warn("OpenAI image generation failed", "model", p.model, "error", err)
		return nil, false
	}
	if len(resp.Data) == 0 {
		p.logger.Warn("OpenAI returned no image data", "model", p.model)
		return nil, false
	}

	if b64 := resp.Data[0].B64JSON; b64 != "" {
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			p.logger.Warn("Failed to decode OpenAI image payload", "error", err)
			return nil, false
		}
		return raw, true
	}

	if url := resp.Data[0].URL; url != "" {
		raw, err := p.client.download(ctx, url)
		if err != nil {
			p.logger.Warn("Failed to download OpenAI image", "error", err)
			return nil, false
		}
		return raw, true
	}

	return nil, false
}
