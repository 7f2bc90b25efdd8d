package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"mdchat/pkg/ai"
	"mdchat/pkg/config"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	openRouterDefaultAPIURL  = "https://openrouter.ai/api/v1"
	openRouterDefaultTimeout = 60
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOpenRouter,
		Name:        "OpenRouter",
		Description: "Access many LLM models through the OpenRouter API",
		RequiresKey: true,
	}, NewOpenRouterProvider)
}

// OpenRouterProvider implements the Provider interface using the
// OpenRouter API, which speaks the OpenAI chat-completions dialect.
type OpenRouterProvider struct {
	client             openai.Client
	defaultModel       string
	defaultTemperature float64
	defaultMaxTokens   int
}

// NewOpenRouterProvider creates a new OpenRouter provider from config.
func NewOpenRouterProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	providerCfg := cfg.Config.Providers.OpenRouter
	httpClient := newProviderHTTPClient(providerCfg.APITimeoutSeconds, openRouterDefaultTimeout)
	return newOpenRouterProvider(providerCfg, httpClient)
}

func newOpenRouterProvider(cfg config.OpenRouterConfig, httpClient *http.Client) (*OpenRouterProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		slog.Debug("openrouter_provider_missing_key")
		return nil, fmt.Errorf("openrouter api_key is required: %w", ai.ErrMissingCredentials)
	}

	apiURL := strings.TrimSpace(cfg.APIURL)
	if apiURL == "" {
		apiURL = openRouterDefaultAPIURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("openrouter model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(apiURL),
		option.WithHTTPClient(httpClient),
	}
	if strings.TrimSpace(cfg.HTTPReferer) != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.HTTPReferer))
	}
	if strings.TrimSpace(cfg.XTitle) != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.XTitle))
	}

	client := openai.NewClient(opts...)

	slog.Debug("openrouter_provider_ready", "api_url", apiURL, "model", model)
	return &OpenRouterProvider{
		client:             client,
		defaultModel:       model,
		defaultTemperature: cfg.Temperature,
		defaultMaxTokens:   cfg.MaxTokens,
	}, nil
}

// CreateChatCompletion sends a non-streaming chat completion request.
func (p *OpenRouterProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	params, err := buildChatParams(req, p.defaultModel, p.defaultTemperature, p.defaultMaxTokens)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	slog.Debug("openrouter_chat_request",
		"model", string(params.Model),
		"message_count", len(req.Messages),
	)
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ai.ChatResponse{}, fmt.Errorf("openrouter: %w", err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return ai.ChatResponse{
		Content: content,
		Model:   resp.Model,
	}, nil
}

// CreateChatCompletionStream sends a streaming chat completion request.
func (p *OpenRouterProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	params, err := buildChatParams(req, p.defaultModel, p.defaultTemperature, p.defaultMaxTokens)
	if err != nil {
		return nil, err
	}

	slog.Debug("openrouter_chat_stream_request",
		"model", string(params.Model),
		"message_count", len(req.Messages),
	)
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}

	return &completionStream{stream: stream}, nil
}

// Ensure interface compliance
var _ ai.Provider = (*OpenRouterProvider)(nil)
