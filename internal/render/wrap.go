package render

import "strings"

// NormalizeNewlines rewrites CRLF and lone CR line breaks to a single LF
// convention so that annex pagination sees one physical line per source line.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Wrap splits text on whitespace runs and greedily accumulates words into
// lines of at most width characters: while the candidate line stays within
// the width the next word is appended, otherwise the line is flushed and the
// word starts a new one. A word wider than the width still emits as its own
// line, unbroken. Empty or whitespace-only input yields exactly one empty
// line, so every wrapped source line occupies vertical space.
func Wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) >= width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, current)
}

// WrapLines normalizes newlines and wraps each physical line of the input
// independently, preserving the source's line structure in the output.
func WrapLines(text string, width int) []string {
	var out []string
	for _, line := range strings.Split(NormalizeNewlines(text), "\n") {
		out = append(out, Wrap(line, width)...)
	}
	return out
}
