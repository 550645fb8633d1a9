package gateway

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIGenerator implements Generator over the OpenAI image API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	size   string
	logger *zap.Logger
}

func NewOpenAIGenerator(apiKey, model, size string, logger *zap.Logger) *OpenAIGenerator {
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	if size == "" {
		size = openai.CreateImageSize1024x1024
	}
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
		size:   size,
		logger: logger,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		Size:           g.size,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		g.logger.Error("Image generation failed", zap.Error(err))
		return "", fmt.Errorf("error generating image: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("image backend returned no data")
	}
	return resp.Data[0].URL, nil
}
