package decorate

import (
	"math"
	"strings"

	"chatdeck/internal/blocks"
)

// ShellStrategy renders terminal.exec calls as shell transcript blocks,
// including calls that are still running.
type ShellStrategy struct{}

func (ShellStrategy) Synthesize(call *blocks.ToolCall) (blocks.Block, bool) {
	if call == nil || call.ToolName != TerminalExecTool {
		return nil, false
	}
	f := ExtractFacts(call)
	out := &blocks.Shell{
		Command:  f.Command,
		ExitCode: roundExitCode(f.ExitCode),
		Status:   shellStatus(call.Status),
	}
	if output := shellOutput(call.Status, f); output != "" {
		out.Output = &output
	}
	return out, true
}

func shellStatus(s blocks.ToolStatus) blocks.ShellStatus {
	switch s {
	case blocks.ToolSuccess:
		return blocks.ShellSuccess
	case blocks.ToolError:
		return blocks.ShellError
	default:
		return blocks.ShellRunning
	}
}

// roundExitCode rounds half up (-2.5 becomes -2). Codes that do not fit a
// 32-bit int are dropped.
func roundExitCode(n *float64) *int {
	if n == nil {
		return nil
	}
	r := math.Floor(*n + 0.5)
	if r > math.MaxInt32 || r < math.MinInt32 {
		return nil
	}
	code := int(r)
	return &code
}

// cleanRun reports a successful, prompt run whose timing is not worth showing.
func cleanRun(status blocks.ToolStatus, f ExecFacts) bool {
	if status != blocks.ToolSuccess || f.TimedOut {
		return false
	}
	return f.ExitCode == nil || *f.ExitCode == 0
}

func shellOutput(status blocks.ToolStatus, f ExecFacts) string {
	var info []string
	if cwd := strings.TrimSpace(f.Cwd); cwd != "" {
		info = append(info, "[cwd] "+cwd)
	}
	if f.TimeoutMs != nil {
		info = append(info, "[timeout] "+formatNumber(*f.TimeoutMs)+"ms")
	}
	if f.DurationMs != nil && !cleanRun(status, f) {
		info = append(info, "[duration] "+formatNumber(*f.DurationMs)+"ms")
	}
	if f.TimedOut {
		info = append(info, "[status] timed out")
	}
	if f.Truncated {
		info = append(info, "[notice] output truncated")
	}

	var parts []string
	if len(info) > 0 {
		parts = append(parts, strings.Join(info, "\n"))
	}
	stdout := strings.TrimSpace(f.Stdout)
	if stdout != "" {
		parts = append(parts, stdout)
	}
	if stderr := strings.TrimSpace(f.Stderr); stderr != "" {
		if stdout != "" {
			stderr = "[stderr]\n" + stderr
		}
		parts = append(parts, stderr)
	}
	// a tool error already echoed on stderr is not repeated
	if msg := strings.TrimSpace(f.ToolError); msg != "" && !strings.Contains(f.Stderr, msg) {
		parts = append(parts, "[error] "+msg)
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}
