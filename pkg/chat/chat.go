// Package chat continues a Markdown conversation document by one turn:
// segment the document, send the messages to a provider, and append the
// reply as a blockquote.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mdchat/pkg/ai"
	"mdchat/pkg/segment"
)

// Options control a single conversation turn.
type Options struct {
	SystemPrompt string
	Model        string
	Temperature  *float64
	MaxTokens    *int
	DryRun       bool
}

// BuildMessages converts a document into provider messages with the
// system prompt prepended.
func BuildMessages(doc, systemPrompt string) []ai.Message {
	parts := segment.Segment(doc)

	messages := make([]ai.Message, 0, len(parts)+1)
	messages = append(messages, ai.Message{Role: "system", Content: systemPrompt})
	for _, part := range parts {
		messages = append(messages, ai.Message{
			Role:    string(part.Role),
			Content: part.Content,
		})
	}
	return messages
}

// ShouldReply reports whether a completion request is warranted for the
// message list: there must be conversation content beyond the system
// prompt, and the last message must not already belong to the assistant.
func ShouldReply(messages []ai.Message) bool {
	if len(messages) < 2 {
		return false
	}
	return messages[len(messages)-1].Role != string(segment.RoleAssistant)
}

// Continue runs one conversation turn against the provider and returns
// the updated document. The second return reports whether a reply was
// appended; when it is false the document comes back unchanged.
func Continue(ctx context.Context, provider ai.Provider, opts Options, doc string) (string, bool, error) {
	messages := BuildMessages(doc, opts.SystemPrompt)

	if !ShouldReply(messages) {
		slog.Debug("chat_skip", "message_count", len(messages))
		return doc, false, nil
	}

	if opts.DryRun {
		slog.Info("chat_dry_run", "message_count", len(messages))
		return doc, false, nil
	}

	slog.Debug("chat_request",
		"model", opts.Model,
		"message_count", len(messages),
	)
	resp, err := provider.CreateChatCompletion(ctx, ai.ChatRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return doc, false, fmt.Errorf("chat completion: %w", err)
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return doc, false, fmt.Errorf("empty reply from provider: %w", ai.ErrRequestFailed)
	}

	slog.Debug("chat_reply", "model", resp.Model, "reply_chars", len(reply))
	return segment.AppendReply(doc, reply), true, nil
}
