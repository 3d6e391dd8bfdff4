package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"chatdeck/internal/blocks"
	"chatdeck/internal/decorate"
)

const demoCommand = "ls -la"

// chatHandler implements a demo AI SDK UI message stream (SSE) at POST /api/chat.
// It streams `data: {json}\n\n` lines that the DefaultChatTransport parses on
// the client: a short text part, then a terminal.exec tool call as two
// block-set events (pending, then success), each decorated before writing.
//
// Request body (subset):
//
//	{
//	  "id": "chat_123",
//	  "messages": [ { id, role, parts: [ {type: "text", text}, ... ] }, ... ],
//	  "command": "optional command to show"
//	}
//
// A last user message of the form "$ cmd" also selects the command. Nothing
// is executed; the result is canned.
func (s *Server) chatHandler(c *gin.Context) {
	d, err := s.decorator(c)
	if err != nil {
		writeJSON(c.Writer, http.StatusBadRequest, errJSON(err))
		return
	}
	body, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
	command := requestedCommand(body)

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("x-vercel-ai-ui-message-stream", "v1")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	defer bw.Flush()

	write := func(v any) {
		_, _ = bw.WriteString("data: ")
		_, _ = bw.Write(encodeCompact(v))
		_, _ = bw.WriteString("\n\n")
		_ = bw.Flush()
		w.Flush()
	}
	pause := func() {
		if s.chatDelay > 0 {
			time.Sleep(s.chatDelay)
		}
	}

	messageID := uuid.NewString()
	write(map[string]any{"type": "start", "messageId": messageID})
	write(map[string]any{"type": "start-step"})

	write(map[string]any{"type": "text-start", "id": "text-1"})
	for _, ch := range []string{"Running ", "`" + command + "`", " in the workspace."} {
		write(map[string]any{"type": "text-delta", "id": "text-1", "delta": ch})
		pause()
	}
	write(map[string]any{"type": "text-end", "id": "text-1"})

	for _, call := range demoToolCalls(uuid.NewString(), command) {
		write(d.Event(&blocks.BlockSet{Block: call}))
		pause()
	}

	write(map[string]any{"type": "finish-step"})
	write(map[string]any{"type": "finish"})
}

// chatReconnectHandler answers 204 No Content: there is never a stream to
// resume.
func chatReconnectHandler(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// requestedCommand picks the command for the demo stream.
func requestedCommand(body []byte) string {
	if cmd := strings.TrimSpace(gjson.GetBytes(body, "command").String()); cmd != "" {
		return cmd
	}
	msgs := gjson.GetBytes(body, "messages").Array()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Get("role").String() != "user" {
			continue
		}
		for _, part := range msgs[i].Get("parts").Array() {
			if part.Get("type").String() != "text" {
				continue
			}
			if cmd, ok := strings.CutPrefix(strings.TrimSpace(part.Get("text").String()), "$ "); ok && strings.TrimSpace(cmd) != "" {
				return strings.TrimSpace(cmd)
			}
		}
		break
	}
	return demoCommand
}

// demoToolCalls returns the pending and finished states of one call.
func demoToolCalls(id, command string) []*blocks.ToolCall {
	args := map[string]any{"command": command, "cwd": "/workspace", "timeout_ms": 30000}
	pending := &blocks.ToolCall{
		ToolName: decorate.TerminalExecTool,
		ToolID:   id,
		Status:   blocks.ToolPending,
		Args:     args,
	}
	done := &blocks.ToolCall{
		ToolName: decorate.TerminalExecTool,
		ToolID:   id,
		Status:   blocks.ToolSuccess,
		Args:     args,
		Result: map[string]any{
			"stdout":      "README.md\ngo.mod\ninternal\nmain.go\n",
			"stderr":      "",
			"exit_code":   0,
			"duration_ms": 12,
		},
	}
	return []*blocks.ToolCall{pending, done}
}

func encodeCompact(v any) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		b, _ := json.Marshal(errJSON(err))
		return b
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}
