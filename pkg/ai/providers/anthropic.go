package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"mdchat/pkg/ai"
	"mdchat/pkg/config"
)

const (
	anthropicDefaultAPIURL  = "https://api.anthropic.com/v1"
	anthropicDefaultModel   = "claude-3-5-sonnet-20241022"
	anthropicDefaultTimeout = 60
	anthropicAPIVersion     = "2023-06-01"
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderAnthropic,
		Name:        "Anthropic",
		Description: "Direct Anthropic Claude API access",
		RequiresKey: true,
	}, NewAnthropicProvider)
}

// AnthropicProvider implements the Provider interface using the Anthropic
// Messages API.
type AnthropicProvider struct {
	apiKey             string
	apiURL             string
	httpClient         *http.Client
	defaultModel       string
	defaultTemperature float64
	defaultMaxTokens   int
}

// NewAnthropicProvider creates a new Anthropic provider from config.
func NewAnthropicProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	providerCfg := cfg.Config.Providers.Anthropic
	httpClient := newProviderHTTPClient(providerCfg.APITimeoutSeconds, anthropicDefaultTimeout)
	return newAnthropicProvider(providerCfg, httpClient)
}

func newAnthropicProvider(cfg config.ProviderConfig, httpClient *http.Client) (*AnthropicProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		slog.Debug("anthropic_provider_missing_key")
		return nil, fmt.Errorf("anthropic api_key is required: %w", ai.ErrMissingCredentials)
	}

	apiURL := strings.TrimSpace(cfg.APIURL)
	if apiURL == "" {
		apiURL = anthropicDefaultAPIURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = anthropicDefaultModel
	}

	slog.Debug("anthropic_provider_ready", "api_url", apiURL, "model", model)
	return &AnthropicProvider{
		apiKey:             cfg.APIKey,
		apiURL:             apiURL,
		httpClient:         httpClient,
		defaultModel:       model,
		defaultTemperature: cfg.Temperature,
		defaultMaxTokens:   cfg.MaxTokens,
	}, nil
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
}

type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta,omitempty"`
}

// CreateChatCompletion sends a non-streaming chat completion request.
func (p *AnthropicProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	resp, err := p.send(ctx, req, false)
	if err != nil {
		return ai.ChatResponse{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ai.ChatResponse{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return ai.ChatResponse{}, fmt.Errorf("anthropic API error (status %d): %s: %w",
			resp.StatusCode, string(respBody), ai.ErrRequestFailed)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return ai.ChatResponse{}, fmt.Errorf("parse response: %w", err)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return ai.ChatResponse{
		Content: sb.String(),
		Model:   parsed.Model,
	}, nil
}

// CreateChatCompletionStream sends a streaming chat completion request.
func (p *AnthropicProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	resp, err := p.send(ctx, req, true)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("anthropic API error (status %d): %s: %w",
			resp.StatusCode, string(body), ai.ErrRequestFailed)
	}

	return &anthropicStream{
		reader: bufio.NewReader(resp.Body),
		body:   resp.Body,
	}, nil
}

func (p *AnthropicProvider) send(ctx context.Context, req ai.ChatRequest, stream bool) (*http.Response, error) {
	anthropicReq, err := p.buildRequest(req, stream)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	slog.Debug("anthropic_chat_request",
		"model", anthropicReq.Model,
		"message_count", len(anthropicReq.Messages),
		"stream", stream,
	)
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}
	return resp, nil
}

func (p *AnthropicProvider) buildRequest(req ai.ChatRequest, stream bool) (*anthropicRequest, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	var systemPrompt string
	messages := make([]anthropicMessage, 0, len(req.Messages))

	for _, msg := range req.Messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		if role == "system" {
			// The Messages API takes the system prompt out of band.
			systemPrompt = msg.Content
			continue
		}
		if role != "user" && role != "assistant" {
			role = "user"
		}
		messages = append(messages, anthropicMessage{Role: role, Content: msg.Content})
	}

	if len(messages) == 0 {
		return nil, fmt.Errorf("at least one user or assistant message is required")
	}

	temperature := p.defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	maxTokens := p.defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &anthropicRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      systemPrompt,
		Stream:      stream,
	}, nil
}

type anthropicStream struct {
	reader  *bufio.Reader
	body    io.ReadCloser
	current string
	err     error
	done    bool
}

func (s *anthropicStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				s.done = true
			} else {
				s.err = err
			}
			return false
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			s.done = true
			return false
		}

		var event anthropicStreamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			continue
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Type == "text_delta" {
				s.current = event.Delta.Text
				return true
			}
		case "message_stop":
			s.done = true
			return false
		}
	}
}

func (s *anthropicStream) Content() string {
	return s.current
}

func (s *anthropicStream) Err() error {
	return s.err
}

func (s *anthropicStream) Close() error {
	return s.body.Close()
}

// Ensure interface compliance
var _ ai.Provider = (*AnthropicProvider)(nil)
