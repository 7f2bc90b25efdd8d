// Package segment turns a Markdown conversation document into an ordered
// list of chat messages. User paragraphs are plain text, assistant replies
// are blockquotes, headings are ignored.
package segment

import (
	"regexp"
	"strings"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one normalized conversation message.
type Message struct {
	Role    Role
	Content string
}

// Kind classifies a single document line.
type Kind int

const (
	// KindUndefined is the accumulator state before the first content
	// line. Classify never returns it.
	KindUndefined Kind = iota
	KindHeader
	KindAssistant
	KindBlank
	KindUser
)

// String returns a short label for logging and test failure output.
func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindAssistant:
		return "assistant"
	case KindBlank:
		return "blank"
	case KindUser:
		return "user"
	default:
		return "undefined"
	}
}

// Classify returns the kind of one document line. The checks are ordered:
// a "#" line is a header even when the rest of it is blank, a ">" line is
// assistant content, an all-whitespace line is blank, anything else is
// user content. Every line matches exactly one kind.
func Classify(line string) Kind {
	if strings.HasPrefix(line, "#") {
		return KindHeader
	}
	if strings.HasPrefix(line, ">") {
		return KindAssistant
	}
	if strings.TrimSpace(line) == "" {
		return KindBlank
	}
	return KindUser
}

func (k Kind) role() Role {
	if k == KindAssistant {
		return RoleAssistant
	}
	return RoleUser
}

// run is a maximal stretch of consecutive lines sharing one kind.
type run struct {
	kind  Kind
	lines []string
}

// splitRuns run-length groups the document lines by their classification.
func splitRuns(lines []string) []run {
	var runs []run
	for _, line := range lines {
		kind := Classify(line)
		if len(runs) == 0 || runs[len(runs)-1].kind != kind {
			runs = append(runs, run{kind: kind})
		}
		last := len(runs) - 1
		runs[last].lines = append(runs[last].lines, line)
	}
	return runs
}

var blankRuns = regexp.MustCompile(`\n\n+`)

// normalize joins a block's raw lines into message content: blockquote
// markers stripped, each line trimmed, runs of blank lines collapsed to a
// single paragraph break, outer whitespace removed. Idempotent.
func normalize(lines []string) string {
	parts := make([]string, len(lines))
	for i, line := range lines {
		parts[i] = strings.TrimSpace(strings.TrimLeft(line, ">"))
	}
	joined := strings.TrimSpace(strings.Join(parts, "\n"))
	return blankRuns.ReplaceAllString(joined, "\n\n")
}

// Segment parses a conversation document into its ordered message list.
//
// The pass walks the classified runs with two pieces of state: the role of
// the currently open block and the block's raw lines. Leading headers and
// blank lines before the first content run are discarded, headers after it
// are dropped entirely, and blank runs are absorbed into the open block so
// that a paragraph break never splits a message. A run of the opposite
// content kind flushes the open block and starts the next one, which keeps
// adjacent output messages strictly alternating between roles.
//
// Segment is total: any input yields a (possibly empty) message list.
func Segment(doc string) []Message {
	var msgs []Message
	current := KindUndefined
	var block []string

	flush := func() {
		// A block that never accumulated lines is not a message.
		if len(block) == 0 {
			return
		}
		msgs = append(msgs, Message{Role: current.role(), Content: normalize(block)})
		block = nil
	}

	for _, r := range splitRuns(strings.Split(doc, "\n")) {
		if current == KindUndefined {
			if r.kind != KindUser && r.kind != KindAssistant {
				continue
			}
			current = r.kind
		}

		if r.kind == KindHeader {
			continue
		}

		if r.kind == current || r.kind == KindBlank {
			block = append(block, r.lines...)
			continue
		}

		flush()
		current = r.kind
		block = append(block, r.lines...)
	}

	flush()
	return msgs
}
