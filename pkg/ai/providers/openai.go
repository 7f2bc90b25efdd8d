// Package providers contains the concrete chat-completion providers. Each
// provider registers itself with the ai registry in init().
package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mdchat/pkg/ai"
	"mdchat/pkg/config"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

const (
	openAIDefaultAPIURL  = "https://api.openai.com/v1"
	openAIDefaultModel   = "gpt-4o"
	openAIDefaultTimeout = 60
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOpenAI,
		Name:        "OpenAI",
		Description: "Direct OpenAI API access",
		RequiresKey: true,
	}, NewOpenAIProvider)
}

// OpenAIProvider implements the Provider interface using the OpenAI API.
type OpenAIProvider struct {
	client             openai.Client
	defaultModel       string
	defaultTemperature float64
	defaultMaxTokens   int
}

// NewOpenAIProvider creates a new OpenAI provider from config.
func NewOpenAIProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	providerCfg := cfg.Config.Providers.OpenAI
	httpClient := newProviderHTTPClient(providerCfg.APITimeoutSeconds, openAIDefaultTimeout)
	return newOpenAIProvider(providerCfg, httpClient)
}

func newOpenAIProvider(cfg config.ProviderConfig, httpClient *http.Client) (*OpenAIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		slog.Debug("openai_provider_missing_key")
		return nil, fmt.Errorf("openai api_key is required: %w", ai.ErrMissingCredentials)
	}

	apiURL := strings.TrimSpace(cfg.APIURL)
	if apiURL == "" {
		apiURL = openAIDefaultAPIURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openAIDefaultModel
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(apiURL),
		option.WithHTTPClient(httpClient),
	)

	slog.Debug("openai_provider_ready", "api_url", apiURL, "model", model)
	return &OpenAIProvider{
		client:             client,
		defaultModel:       model,
		defaultTemperature: cfg.Temperature,
		defaultMaxTokens:   cfg.MaxTokens,
	}, nil
}

// CreateChatCompletion sends a non-streaming chat completion request.
func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	params, err := buildChatParams(req, p.defaultModel, p.defaultTemperature, p.defaultMaxTokens)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	slog.Debug("openai_chat_request",
		"model", string(params.Model),
		"message_count", len(req.Messages),
	)
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ai.ChatResponse{}, fmt.Errorf("openai: %w", err)
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
func (p *OpenAIProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	params, err := buildChatParams(req, p.defaultModel, p.defaultTemperature, p.defaultMaxTokens)
	if err != nil {
		return nil, err
	}

	slog.Debug("openai_chat_stream_request",
		"model", string(params.Model),
		"message_count", len(req.Messages),
	)
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	return &completionStream{stream: stream}, nil
}

func newProviderHTTPClient(timeoutSeconds, fallback int) *http.Client {
	if timeoutSeconds <= 0 {
		timeoutSeconds = fallback
	}
	return &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}
}

// buildChatParams converts a normalized request into openai-go params. It
// is shared by every provider speaking the OpenAI chat-completions dialect.
func buildChatParams(req ai.ChatRequest, defaultModel string, defaultTemperature float64, defaultMaxTokens int) (openai.ChatCompletionNewParams, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = defaultModel
	}
	if strings.TrimSpace(model) == "" {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("messages are required")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		param, err := toChatMessageParam(msg)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, param)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}

	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	params.Temperature = openai.Float(temperature)

	maxTokens := defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	return params, nil
}

func toChatMessageParam(msg ai.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Role)) {
	case "system":
		return openai.SystemMessage(msg.Content), nil
	case "user":
		return openai.UserMessage(msg.Content), nil
	case "assistant":
		return openai.AssistantMessage(msg.Content), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role: %s", msg.Role)
	}
}

// completionStream adapts an openai-go SSE stream to the ai.ChatStream
// interface. Shared by the OpenAI and OpenRouter providers.
type completionStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *completionStream) Next() bool {
	return s.stream.Next()
}

func (s *completionStream) Content() string {
	chunk := s.stream.Current()
	if len(chunk.Choices) == 0 {
		return ""
	}
	return chunk.Choices[0].Delta.Content
}

func (s *completionStream) Err() error {
	return s.stream.Err()
}

func (s *completionStream) Close() error {
	return s.stream.Close()
}

// Ensure interface compliance
var _ ai.Provider = (*OpenAIProvider)(nil)
