package segment

import (
	"strings"
	"unicode"
)

// FormatReply rewrites a completion reply as a Markdown blockquote, with
// every line prefixed by "> ".
func FormatReply(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// AppendReply appends a blockquoted reply to the document, separated from
// the existing text by exactly one blank line. The result ends with a
// newline so the file stays friendly to editors and further appends.
func AppendReply(doc, reply string) string {
	trimmed := strings.TrimRightFunc(doc, unicode.IsSpace)
	return trimmed + "\n\n" + FormatReply(reply) + "\n"
}
