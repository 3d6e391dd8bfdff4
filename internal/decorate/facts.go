package decorate

import (
	"math"
	"strconv"
	"strings"

	"chatdeck/internal/blocks"
	"chatdeck/internal/decorate/fields"
)

// TerminalExecTool is the only tool name the decorator rewrites.
const TerminalExecTool = "terminal.exec"

// Key lists, canonical snake_case before the camelCase alias.
var (
	commandKeys   = []string{"command", "cmd"}
	cwdKeys       = []string{"cwd", "working_dir", "workingDir", "workdir"}
	timeoutKeys   = []string{"timeout_ms", "timeoutMs", "timeout"}
	stdoutKeys    = []string{"stdout", "output"}
	stderrKeys    = []string{"stderr"}
	exitCodeKeys  = []string{"exit_code", "exitCode", "code"}
	durationKeys  = []string{"duration_ms", "durationMs"}
	timedOutKeys  = []string{"timed_out", "timedOut"}
	truncatedKeys = []string{"truncated"}
	errorKeys     = []string{"error"}
)

// ExecFacts is what could be recovered about one terminal execution.
// Optional numbers are nil when absent.
type ExecFacts struct {
	Command    string
	Cwd        string
	TimeoutMs  *float64
	Stdout     string
	Stderr     string
	ExitCode   *float64
	DurationMs *float64
	TimedOut   bool
	Truncated  bool
	ToolError  string
}

// ExtractFacts reads execution facts from a tool call's args and result.
func ExtractFacts(call *blocks.ToolCall) ExecFacts {
	if call == nil {
		return ExecFacts{}
	}
	args := fields.AsRecord(call.Args)
	result := fields.AsRecord(call.Result)

	f := ExecFacts{
		Command:    fields.ReadString(args, commandKeys...),
		Cwd:        fields.ReadString(args, cwdKeys...),
		TimeoutMs:  optNumber(args, timeoutKeys),
		Stdout:     fields.ReadString(result, stdoutKeys...),
		Stderr:     fields.ReadString(result, stderrKeys...),
		ExitCode:   optNumber(result, exitCodeKeys),
		DurationMs: optNumber(result, durationKeys),
		TimedOut:   fields.ReadBoolean(result, timedOutKeys...),
		Truncated:  fields.ReadBoolean(result, truncatedKeys...),
	}
	f.ToolError = call.Error
	if strings.TrimSpace(f.ToolError) == "" {
		f.ToolError = fields.ReadString(result, errorKeys...)
	}
	return f
}

func optNumber(bag fields.Bag, keys []string) *float64 {
	n, ok := fields.ReadNumber(bag, keys...)
	if !ok {
		return nil
	}
	return &n
}

// formatNumber prints integral values without a fraction and everything else
// in the shortest form that round-trips.
func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
