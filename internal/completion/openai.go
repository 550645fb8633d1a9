package completion

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/aidekit/aide/internal/models"
)

// ProviderOpenAI is the provider name recorded on messages produced here.
const ProviderOpenAI = "openai"

// OpenAIBackend implements Backend over the OpenAI chat completion API.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

func NewOpenAIBackend(apiKey, model string, maxTokens int, temperature float64, logger *zap.Logger) *OpenAIBackend {
	return &OpenAIBackend{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
		logger:      logger,
	}
}

func (b *OpenAIBackend) Complete(ctx context.Context, messages []models.UserMessage, opts *Options) *models.UserMessage {
	resp, err := b.client.CreateChatCompletion(ctx, b.buildRequest(messages, opts))
	if err != nil {
		if isRateLimit(err) {
			b.logger.Warn("Completion backend rate limited", zap.Error(err))
		} else {
			b.logger.Error("Completion backend request failed", zap.Error(err))
		}
		return nil
	}
	if len(resp.Choices) == 0 {
		b.logger.Error("Completion backend returned no choices",
			zap.String("model", b.model))
		return nil
	}

	return &models.UserMessage{
		Role:     models.RoleAssistant,
		Content:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Provider: ProviderOpenAI,
	}
}

func (b *OpenAIBackend) buildRequest(messages []models.UserMessage, opts *Options) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    toChatMessages(messages),
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
	}
	if opts != nil {
		if opts.MaxTokens > 0 {
			req.MaxTokens = opts.MaxTokens
		}
		if opts.Temperature != nil {
			req.Temperature = *opts.Temperature
		}
		if opts.JSONOnly {
			req.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			}
		}
	}
	return req
}

func toChatMessages(messages []models.UserMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}

func isRateLimit(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}
