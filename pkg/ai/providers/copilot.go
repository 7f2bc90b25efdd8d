package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mdchat/pkg/ai"

	copilot "github.com/github/copilot-sdk/go"
)

const (
	copilotDefaultModel   = "gpt-4o"
	copilotDefaultTimeout = 60
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderCopilot,
		Name:        "GitHub Copilot",
		Description: "GitHub Copilot via the official SDK (requires Copilot CLI authentication)",
		RequiresKey: false,
	}, NewCopilotProvider)
}

// CopilotProvider implements the Provider interface using the Copilot SDK.
// The SDK drives the locally installed Copilot CLI, so a failure to start
// it is an external-process failure rather than a network one.
type CopilotProvider struct {
	defaultModel string
	timeout      time.Duration
}

// NewCopilotProvider creates a new GitHub Copilot provider from config.
func NewCopilotProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	providerCfg := cfg.Config.Providers.Copilot

	model := strings.TrimSpace(providerCfg.Model)
	if model == "" {
		model = copilotDefaultModel
	}

	timeout := providerCfg.APITimeoutSeconds
	if timeout <= 0 {
		timeout = copilotDefaultTimeout
	}

	slog.Debug("copilot_provider_ready", "model", model, "timeout_seconds", timeout)
	return &CopilotProvider{
		defaultModel: model,
		timeout:      time.Duration(timeout) * time.Second,
	}, nil
}

// CreateChatCompletion sends the conversation through a one-shot Copilot
// session and waits for the reply.
func (p *CopilotProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	systemMsg, prompt, err := buildCopilotPrompt(req)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}

	callCtx, cancel := withCallTimeout(ctx, p.timeout)
	defer cancel()

	client := copilot.NewClient(nil)
	if err := client.Start(callCtx); err != nil {
		return ai.ChatResponse{}, fmt.Errorf("copilot client start: %w", err)
	}
	defer stopCopilotClient(client)

	status, err := client.GetAuthStatus(callCtx)
	if err != nil {
		return ai.ChatResponse{}, fmt.Errorf("copilot auth status: %w", err)
	}
	if status == nil || !status.IsAuthenticated {
		msg := "Copilot CLI is not authenticated"
		if status != nil && status.StatusMessage != nil && strings.TrimSpace(*status.StatusMessage) != "" {
			msg = strings.TrimSpace(*status.StatusMessage)
		}
		return ai.ChatResponse{}, fmt.Errorf("%s: %w", msg, ai.ErrMissingCredentials)
	}

	var sysCfg *copilot.SystemMessageConfig
	if strings.TrimSpace(systemMsg) != "" {
		sysCfg = &copilot.SystemMessageConfig{Mode: "append", Content: systemMsg}
	}

	session, err := client.CreateSession(callCtx, &copilot.SessionConfig{
		Model:         model,
		Streaming:     false,
		SystemMessage: sysCfg,
	})
	if err != nil {
		return ai.ChatResponse{}, fmt.Errorf("copilot session create: %w", err)
	}
	defer session.Destroy()

	slog.Debug("copilot_session_send", "model", model, "prompt_chars", len(prompt))
	resp, err := session.SendAndWait(callCtx, copilot.MessageOptions{Prompt: prompt})
	if err != nil {
		return ai.ChatResponse{}, fmt.Errorf("copilot send: %w", err)
	}

	return ai.ChatResponse{
		Content: copilotReplyContent(resp),
		Model:   model,
	}, nil
}

// CreateChatCompletionStream is not supported by the one-shot session
// setup; callers get the full reply as a single-chunk stream.
func (p *CopilotProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	resp, err := p.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	return &singleChunkStream{content: resp.Content}, nil
}

func stopCopilotClient(client *copilot.Client) {
	if err := client.Stop(); err != nil {
		slog.Debug("copilot_client_stop_error", "error", err)
	}
}

// withCallTimeout applies the provider timeout unless the caller already
// carries a deadline.
func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline || timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// copilotReplyContent extracts the assistant text from a session event.
// Events carrying any other payload yield an empty reply.
func copilotReplyContent(resp *copilot.SessionEvent) string {
	if resp == nil {
		return ""
	}
	if data, ok := resp.Data.(*copilot.AssistantMessageData); ok {
		return data.Content
	}
	return ""
}

// buildCopilotPrompt flattens the conversation into one prompt string,
// since a fresh Copilot session carries no message history of its own.
func buildCopilotPrompt(req ai.ChatRequest) (string, string, error) {
	if len(req.Messages) == 0 {
		return "", "", errors.New("messages are required")
	}

	var systemParts []string
	var promptParts []string

	for _, msg := range req.Messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		if role == "system" {
			systemParts = append(systemParts, content)
			continue
		}
		label := "User"
		if role == "assistant" {
			label = "Assistant"
		}
		promptParts = append(promptParts, fmt.Sprintf("%s: %s", label, content))
	}

	if len(promptParts) == 0 {
		return "", "", errors.New("at least one user or assistant message is required")
	}

	return strings.Join(systemParts, "\n\n"), strings.Join(promptParts, "\n\n"), nil
}

// singleChunkStream yields one content chunk and then reports completion.
type singleChunkStream struct {
	content string
	emitted bool
}

func (s *singleChunkStream) Next() bool {
	if s.emitted {
		return false
	}
	s.emitted = true
	return true
}

func (s *singleChunkStream) Content() string {
	return s.content
}

func (s *singleChunkStream) Err() error {
	return nil
}

func (s *singleChunkStream) Close() error {
	return nil
}

// Ensure interface compliance
var _ ai.Provider = (*CopilotProvider)(nil)
