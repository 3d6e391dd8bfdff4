package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdeck/internal/config"
	"chatdeck/internal/decorate"
)

const lsMessage = `{"id":"m1","role":"assistant","blocks":[{"type":"tool-call","toolName":"terminal.exec","toolId":"t1","status":"success","args":{"command":"ls -la","cwd":"/tmp"},"result":{"stdout":"a\nb\n","exit_code":0,"duration_ms":12}}]}`

func newTestServer(style decorate.Style) *Server {
	gin.SetMode(gin.TestMode)
	st := config.Defaults()
	st.Style = style
	s := New("127.0.0.1:0", st)
	s.chatDelay = 0
	return s
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndVersion(t *testing.T) {
	h := newTestServer(decorate.StyleMarkdown).Handler()
	rec := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/version", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}

func TestDecorate_ShellAndStyleOverride(t *testing.T) {
	h := newTestServer(decorate.StyleShell).Handler()
	rec := do(t, h, http.MethodPost, "/api/decorate", lsMessage)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		ID     string           `json:"id"`
		Blocks []map[string]any `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Blocks, 1)
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, "shell", got.Blocks[0]["type"])
	assert.Equal(t, "[cwd] /tmp\n\na\nb", got.Blocks[0]["output"])
	assert.EqualValues(t, 0, got.Blocks[0]["exitCode"])

	rec = do(t, h, http.MethodPost, "/api/decorate?style=markdown", lsMessage)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"markdown"`)
	assert.Contains(t, rec.Body.String(), "<details>")

	rec = do(t, h, http.MethodPost, "/api/decorate?style=html", lsMessage)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecorate_BadBody(t *testing.T) {
	h := newTestServer(decorate.StyleMarkdown).Handler()
	rec := do(t, h, http.MethodPost, "/api/decorate", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestDecorateEvents(t *testing.T) {
	h := newTestServer(decorate.StyleShell).Handler()
	body := `[{"type":"start"},{"type":"block-set","block":` + toolBlock + `}]`
	rec := do(t, h, http.MethodPost, "/api/decorate/events", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "start", got[0]["type"])
	blk := got[1]["block"].(map[string]any)
	assert.Equal(t, "shell", blk["type"])

	rec = do(t, h, http.MethodPost, "/api/decorate/events", `{"type":"start"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

const (
	toolBlock = `{"type":"tool-call","toolName":"terminal.exec","toolId":"t1","status":"running","args":{"command":"make"}}`
	doneBlock = `{"type":"tool-call","toolName":"terminal.exec","toolId":"t2","status":"success","args":{"command":"make"},"result":{"stdout":"ok\n","exit_code":0}}`
)

func TestChat_StreamsDecoratedToolCall(t *testing.T) {
	h := newTestServer(decorate.StyleMarkdown).Handler()
	rec := do(t, h, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","parts":[{"type":"text","text":"$ go test ./..."}]}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var types []string
	var blockTypes []string
	sc := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for sc.Scan() {
		line, ok := strings.CutPrefix(sc.Text(), "data: ")
		if !ok {
			continue
		}
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev), line)
		types = append(types, ev["type"].(string))
		if blk, ok := ev["block"].(map[string]any); ok {
			blockTypes = append(blockTypes, blk["type"].(string))
		}
	}
	assert.Equal(t, "start", types[0])
	assert.Equal(t, "finish", types[len(types)-1])
	// the in-flight call passes through; the finished one becomes markdown
	assert.Equal(t, []string{"tool-call", "markdown"}, blockTypes)
	assert.Contains(t, rec.Body.String(), "go test ./...")
	assert.Contains(t, rec.Body.String(), "status success")
}

func TestChat_ShellStyleShowsRunningBlock(t *testing.T) {
	h := newTestServer(decorate.StyleShell).Handler()
	rec := do(t, h, http.MethodPost, "/api/chat", `{"command":"pwd"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"status":"running"`)
	assert.Contains(t, body, `"status":"success"`)
	assert.NotContains(t, body, `"type":"tool-call"`)
}

func TestRequestedCommand(t *testing.T) {
	assert.Equal(t, "pwd", requestedCommand([]byte(`{"command":" pwd "}`)))
	assert.Equal(t, demoCommand, requestedCommand([]byte(`{"messages":[{"role":"user","parts":[{"type":"text","text":"hello"}]}]}`)))
	assert.Equal(t, demoCommand, requestedCommand(nil))
}

func TestSessions_Lifecycle(t *testing.T) {
	s := newTestServer(decorate.StyleShell)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/sessions", `{"title":"demo"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sess struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Len(t, sess.ID, 36)
	assert.Equal(t, "demo", sess.Title)

	rec = do(t, h, http.MethodPost, "/api/sessions", "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+sess.ID+"/messages", `{"blocks":[`+doneBlock+`]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"type":"shell"`)
	assert.Contains(t, rec.Body.String(), `"role":"user"`)

	// stored raw, served decorated
	rec = do(t, h, http.MethodGet, "/api/sessions/"+sess.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"tool-call"`)

	rec = do(t, h, http.MethodGet, "/api/sessions/"+sess.ID+"/transcript?style=markdown", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"markdown"`)

	rec = do(t, h, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = do(t, h, http.MethodGet, "/api/sessions/nope/transcript", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/sessions/nope/messages", `{"blocks":[]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessions_BroadcastDecorated(t *testing.T) {
	s := newTestServer(decorate.StyleShell)
	sess := s.sessions.create("")
	ch := s.sessions.subscribe(sess.ID)
	defer s.sessions.unsubscribe(sess.ID, ch)

	rec := do(t, s.Handler(), http.MethodPost, "/api/sessions/"+sess.ID+"/messages", `{"id":"x","blocks":[`+toolBlock+`]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	select {
	case line := <-ch:
		assert.True(t, strings.HasPrefix(line, "event: message\ndata: "))
		assert.Contains(t, line, `"type":"shell"`)
	case <-time.After(time.Second):
		t.Fatal("no broadcast")
	}
}

func TestStream_SendsConnected(t *testing.T) {
	s := newTestServer(decorate.StyleShell)
	sess := s.sessions.create("")
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		s.Handler().ServeHTTP(rec, req)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done
	assert.Contains(t, rec.Body.String(), `"state":"connected"`)
}

func TestEmbeddedUI_Fallback(t *testing.T) {
	h := newTestServer(decorate.StyleMarkdown).Handler()
	rec := do(t, h, http.MethodGet, "/some/spa/route", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chatdeck")

	rec = do(t, h, http.MethodGet, "/api/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
