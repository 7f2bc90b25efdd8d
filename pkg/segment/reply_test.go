package segment

import "testing"

func TestFormatReply(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single line", "About 3 pounds.", "> About 3 pounds."},
		{"multi line", "first\nsecond", "> first\n> second"},
		{"trailing newline dropped", "done\n", "> done"},
		{"inner blank line kept", "a\n\nb", "> a\n> \n> b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatReply(tt.in); got != tt.want {
				t.Fatalf("FormatReply(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAppendReply(t *testing.T) {
	doc := "# Chat\n\nQuestion?\n"
	got := AppendReply(doc, "Answer.")
	want := "# Chat\n\nQuestion?\n\n> Answer.\n"
	if got != want {
		t.Fatalf("AppendReply = %q, want %q", got, want)
	}
}

func TestAppendReply_TrailingWhitespaceCollapsed(t *testing.T) {
	doc := "Question?\n\n\n\n"
	got := AppendReply(doc, "Answer.")
	want := "Question?\n\n> Answer.\n"
	if got != want {
		t.Fatalf("AppendReply = %q, want %q", got, want)
	}
}

// Appending a formatted reply and re-segmenting the document must recover
// the reply as the final assistant message, modulo blank-line collapsing.
func TestAppendReply_RoundTrip(t *testing.T) {
	doc := "# Chat\n\nTell me a story.\n"
	reply := "Once upon a time.\n\nThe end."

	msgs := Segment(AppendReply(doc, reply))
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	last := msgs[len(msgs)-1]
	if last.Role != RoleAssistant {
		t.Fatalf("expected final role %q, got %q", RoleAssistant, last.Role)
	}
	if last.Content != reply {
		t.Fatalf("expected round-tripped reply %q, got %q", reply, last.Content)
	}
}
