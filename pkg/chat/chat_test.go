package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mdchat/pkg/ai"
)

type stubProvider struct {
	resp    ai.ChatResponse
	err     error
	called  bool
	gotReq  ai.ChatRequest
	gotCtx  context.Context
	streams int
}

func (s *stubProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	s.called = true
	s.gotReq = req
	s.gotCtx = ctx
	return s.resp, s.err
}

func (s *stubProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	s.streams++
	return nil, errors.New("not implemented")
}

func TestBuildMessages(t *testing.T) {
	doc := "# Chat\n\nHello\n\n> Hi there\n\nHow are you?\n"
	msgs := BuildMessages(doc, "system prompt")

	wantRoles := []string{"system", "user", "assistant", "user"}
	if len(msgs) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(msgs))
	}
	for i, role := range wantRoles {
		if msgs[i].Role != role {
			t.Errorf("message %d: expected role %q, got %q", i, role, msgs[i].Role)
		}
	}
	if msgs[0].Content != "system prompt" {
		t.Errorf("expected system prompt first, got %q", msgs[0].Content)
	}
}

func TestShouldReply(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want bool
	}{
		{"ends with user", "Hello\n", true},
		{"ends with assistant", "Hello\n\n> Hi\n", false},
		{"empty document", "", false},
		{"headers only", "# Title\n\n", false},
		{"assistant then user", "> Hi\n\nHello back\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := BuildMessages(tt.doc, "sys")
			if got := ShouldReply(msgs); got != tt.want {
				t.Fatalf("ShouldReply(%q) = %v, want %v", tt.doc, got, tt.want)
			}
		})
	}
}

func TestContinue_AppendsReply(t *testing.T) {
	provider := &stubProvider{resp: ai.ChatResponse{Content: "About 3 pounds.", Model: "test-model"}}

	doc := "What's a henweigh?\n"
	got, replied, err := Continue(context.Background(), provider, Options{SystemPrompt: "sys"}, doc)
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if !replied {
		t.Fatal("expected a reply to be appended")
	}

	want := "What's a henweigh?\n\n> About 3 pounds.\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	if !provider.called {
		t.Fatal("expected provider to be called")
	}
	if provider.gotReq.Messages[0].Role != "system" {
		t.Errorf("expected system message first, got %q", provider.gotReq.Messages[0].Role)
	}
}

func TestContinue_SkipsWhenLastIsAssistant(t *testing.T) {
	provider := &stubProvider{resp: ai.ChatResponse{Content: "should not be used"}}

	doc := "Q\n\n> A\n"
	got, replied, err := Continue(context.Background(), provider, Options{SystemPrompt: "sys"}, doc)
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if replied {
		t.Fatal("expected no reply")
	}
	if got != doc {
		t.Fatalf("expected document unchanged, got %q", got)
	}
	if provider.called {
		t.Fatal("expected no provider call")
	}
}

func TestContinue_SkipsEmptyDocument(t *testing.T) {
	provider := &stubProvider{}

	doc := "# Title only\n"
	got, replied, err := Continue(context.Background(), provider, Options{SystemPrompt: "sys"}, doc)
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if replied || got != doc {
		t.Fatalf("expected unchanged document and no reply, got replied=%v doc=%q", replied, got)
	}
	if provider.called {
		t.Fatal("expected no provider call")
	}
}

func TestContinue_DryRun(t *testing.T) {
	provider := &stubProvider{}

	doc := "Question?\n"
	got, replied, err := Continue(context.Background(), provider, Options{SystemPrompt: "sys", DryRun: true}, doc)
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if replied || got != doc {
		t.Fatalf("expected dry run to leave document unchanged, got replied=%v doc=%q", replied, got)
	}
	if provider.called {
		t.Fatal("expected no provider call in dry run")
	}
}

func TestContinue_ProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("boom")}

	doc := "Question?\n"
	got, replied, err := Continue(context.Background(), provider, Options{SystemPrompt: "sys"}, doc)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if replied || got != doc {
		t.Fatalf("expected unchanged document on error, got replied=%v doc=%q", replied, got)
	}
}

func TestContinue_EmptyReply(t *testing.T) {
	provider := &stubProvider{resp: ai.ChatResponse{Content: "   \n"}}

	_, _, err := Continue(context.Background(), provider, Options{SystemPrompt: "sys"}, "Q\n")
	if !errors.Is(err, ai.ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed for empty reply, got %v", err)
	}
}
