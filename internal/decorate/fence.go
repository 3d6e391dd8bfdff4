package decorate

import "strings"

// longestBacktickRun returns the length of the longest run of '`' in s.
func longestBacktickRun(s string) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	return longest
}

// fence returns a backtick fence one longer than any run inside content and
// never shorter than three.
func fence(content string) string {
	n := longestBacktickRun(content) + 1
	if n < 3 {
		n = 3
	}
	return strings.Repeat("`", n)
}

// fencedBlock wraps content in a fenced code block tagged with lang.
func fencedBlock(lang, content string) string {
	f := fence(content)
	return f + lang + "\n" + content + "\n" + f
}

// inlineCode wraps s in a code span that cannot be closed early by backticks
// inside s.
func inlineCode(s string) string {
	ticks := strings.Repeat("`", longestBacktickRun(s)+1)
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return ticks + " " + s + " " + ticks
	}
	return ticks + s + ticks
}
