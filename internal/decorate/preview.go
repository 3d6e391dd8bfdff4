package decorate

import "strings"

// DefaultPreviewLines is how many output lines the markdown preview shows.
const DefaultPreviewLines = 5

const noOutput = "(no output)"

// Preview is the bounded head of a command's output.
type Preview struct {
	Text      string
	Truncated bool
}

// BuildPreview returns at most maxLines lines of text, after normalizing line
// endings and dropping trailing empty lines. maxLines below 1 counts as 1.
func BuildPreview(text string, maxLines int) Preview {
	if maxLines < 1 {
		maxLines = 1
	}
	lines := splitLines(text)
	if len(lines) == 0 {
		return Preview{Text: noOutput}
	}
	if len(lines) <= maxLines {
		return Preview{Text: strings.Join(lines, "\n")}
	}
	return Preview{Text: strings.Join(lines[:maxLines], "\n"), Truncated: true}
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// splitLines splits normalized text into lines without trailing empty ones.
func splitLines(s string) []string {
	lines := strings.Split(normalizeNewlines(s), "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
