package decorate

import (
	"bytes"
	"encoding/json"
	"strings"

	"chatdeck/internal/blocks"
)

// MarkdownStrategy renders finished terminal.exec calls as a markdown
// document: command, execution facts, an output preview and a collapsible
// section with the full output. In-flight calls are left alone.
type MarkdownStrategy struct {
	// PreviewLines bounds the preview; zero means DefaultPreviewLines.
	PreviewLines int
}

func (s MarkdownStrategy) Synthesize(call *blocks.ToolCall) (blocks.Block, bool) {
	if call == nil || call.ToolName != TerminalExecTool {
		return nil, false
	}
	if call.Status != blocks.ToolSuccess && call.Status != blocks.ToolError {
		return nil, false
	}
	lines := s.PreviewLines
	if lines == 0 {
		lines = DefaultPreviewLines
	}
	return &blocks.Markdown{Content: markdownContent(call, ExtractFacts(call), lines)}, true
}

func markdownContent(call *blocks.ToolCall, f ExecFacts, previewLines int) string {
	var sections []string

	command := f.Command
	if strings.TrimSpace(command) == "" {
		command = "(no command)"
	}
	sections = append(sections, fencedBlock("bash", command))

	if line := executionLine(call.Status, f); line != "" {
		sections = append(sections, line)
	}
	if strings.TrimSpace(f.Cwd) != "" {
		sections = append(sections, "**Working directory**: "+inlineCode(f.Cwd))
	}
	if f.TimeoutMs != nil && *f.TimeoutMs > 0 {
		sections = append(sections, "**Timeout**: "+formatNumber(*f.TimeoutMs)+"ms")
	}

	source := f.Stdout
	if call.Status != blocks.ToolSuccess && strings.TrimSpace(f.Stderr) != "" {
		source = f.Stderr
	}
	preview := BuildPreview(source, previewLines)
	sections = append(sections, "**Output preview**\n\n"+fencedBlock("text", preview.Text))
	if preview.Truncated || f.Truncated {
		sections = append(sections, "_Output truncated._")
	}

	details := []string{
		"<details>\n<summary>Full output</summary>",
		"**stdout**\n\n" + fencedBlock("text", fullOutput(f.Stdout)),
		"**stderr**\n\n" + fencedBlock("text", fullOutput(f.Stderr)),
		"**metadata**\n\n" + fencedBlock("json", metadataJSON(call, f)),
		"</details>",
	}
	sections = append(sections, strings.Join(details, "\n\n"))

	return strings.Join(sections, "\n\n")
}

// statusWord maps a finished call to the word shown to users. A timeout
// wins over the tool status.
func statusWord(status blocks.ToolStatus, timedOut bool) string {
	switch {
	case timedOut:
		return "timed out"
	case status == blocks.ToolSuccess:
		return "success"
	default:
		return "failed"
	}
}

func executionLine(status blocks.ToolStatus, f ExecFacts) string {
	var parts []string
	if status != "" {
		parts = append(parts, "status "+statusWord(status, f.TimedOut))
	}
	if f.ExitCode != nil {
		parts = append(parts, "exit "+formatNumber(*f.ExitCode))
	}
	if f.DurationMs != nil {
		parts = append(parts, formatNumber(*f.DurationMs)+"ms")
	}
	if len(parts) == 0 {
		return ""
	}
	return "**Execution**: " + strings.Join(parts, " · ")
}

func fullOutput(s string) string {
	s = strings.TrimRight(normalizeNewlines(s), "\n")
	if strings.TrimSpace(s) == "" {
		return "(empty)"
	}
	return s
}

type execMetadata struct {
	Status     string   `json:"status"`
	ToolID     *string  `json:"tool_id,omitempty"`
	ExitCode   *float64 `json:"exit_code,omitempty"`
	DurationMs *float64 `json:"duration_ms,omitempty"`
	TimedOut   bool     `json:"timed_out"`
	Truncated  bool     `json:"truncated"`
}

func metadataJSON(call *blocks.ToolCall, f ExecFacts) string {
	meta := execMetadata{
		Status:     string(call.Status),
		ExitCode:   f.ExitCode,
		DurationMs: f.DurationMs,
		TimedOut:   f.TimedOut,
		Truncated:  f.Truncated,
	}
	if id := strings.TrimSpace(call.ToolID); id != "" {
		meta.ToolID = &call.ToolID
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}
