package blocks

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalMessage_Variants(t *testing.T) {
	in := `{
		"id": "m1",
		"role": "assistant",
		"createdAt": 1700000000,
		"blocks": [
			{"type": "text", "text": "hello"},
			{"type": "markdown", "content": "# Title"},
			{"type": "tool-call", "toolName": "terminal.exec", "toolId": "t1", "status": "success",
			 "args": {"command": "ls", "timeout_ms": 5000},
			 "result": {"stdout": "a\n", "exit_code": 0},
			 "children": [{"type": "text", "text": "nested"}]},
			{"type": "shell", "command": "pwd", "output": "/tmp", "exitCode": 0, "status": "success"},
			{"type": "image", "url": "x.png"}
		]
	}`
	m, err := UnmarshalMessage([]byte(in))
	require.NoError(t, err)

	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "assistant", m.Role)
	require.Contains(t, m.Extra, "createdAt")
	require.Len(t, m.Blocks, 5)

	txt, ok := m.Blocks[0].(*Text)
	require.True(t, ok)
	assert.Equal(t, "hello", txt.Text)

	md, ok := m.Blocks[1].(*Markdown)
	require.True(t, ok)
	assert.Equal(t, "# Title", md.Content)

	call, ok := m.Blocks[2].(*ToolCall)
	require.True(t, ok)
	assert.Equal(t, "terminal.exec", call.ToolName)
	assert.Equal(t, "t1", call.ToolID)
	assert.Equal(t, ToolSuccess, call.Status)
	args, ok := call.Args.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("5000"), args["timeout_ms"])
	require.Len(t, call.Children, 1)
	assert.Equal(t, TypeText, call.Children[0].Type())

	sh, ok := m.Blocks[3].(*Shell)
	require.True(t, ok)
	require.NotNil(t, sh.Output)
	require.NotNil(t, sh.ExitCode)
	assert.Equal(t, "/tmp", *sh.Output)
	assert.Equal(t, 0, *sh.ExitCode)
	assert.Equal(t, ShellSuccess, sh.Status)

	unk, ok := m.Blocks[4].(*Unknown)
	require.True(t, ok)
	assert.Equal(t, "image", unk.Type())
}

func TestUnknownBlock_RoundTripsUnchanged(t *testing.T) {
	raw := `{"type":"image","url":"x.png","meta":{"w":10}}`
	b, err := UnmarshalBlock([]byte(raw))
	require.NoError(t, err)

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestKnownBlock_KeepsExtraFields(t *testing.T) {
	raw := `{"type":"markdown","content":"hi","id":"b7","final":true}`
	b, err := UnmarshalBlock([]byte(raw))
	require.NoError(t, err)

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestShell_OmitsAbsentOutputAndExitCode(t *testing.T) {
	out, err := json.Marshal(&Shell{Command: "sleep 1", Status: ShellRunning})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"shell","command":"sleep 1","status":"running"}`, string(out))
}

func TestUnmarshalEvent(t *testing.T) {
	ev, err := UnmarshalEvent([]byte(`{"type":"block-set","index":2,"block":{"type":"text","text":"x"}}`))
	require.NoError(t, err)
	bs, ok := ev.(*BlockSet)
	require.True(t, ok)
	assert.Equal(t, TypeText, bs.Block.Type())
	assert.Contains(t, bs.Extra, "index")

	raw := `{"type":"text-delta","id":"t","delta":"hi"}`
	ev, err = UnmarshalEvent([]byte(raw))
	require.NoError(t, err)
	other, ok := ev.(*OtherEvent)
	require.True(t, ok)
	assert.Equal(t, "text-delta", other.EventType())
	out, err := json.Marshal(other)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestUnmarshal_Errors(t *testing.T) {
	_, err := UnmarshalBlock([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = UnmarshalMessage([]byte(`{"blocks":[{"type":"text"`))
	assert.Error(t, err)

	_, err = UnmarshalMessage([]byte(`{"blocks":[{"type":"tool-call","children":["nope"]}]}`))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "children"), err.Error())
}

func TestMessage_BlocksKeyFollowsInput(t *testing.T) {
	out, err := json.Marshal(&Message{ID: "m"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"m"}`, string(out))

	for _, raw := range []string{`{"id":"m","blocks":[]}`, `{"id":"m","blocks":null}`} {
		m, err := UnmarshalMessage([]byte(raw))
		require.NoError(t, err)
		out, err = json.Marshal(m)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	}
}

func TestToolCall_RoundTripAddsNoFields(t *testing.T) {
	for _, raw := range []string{
		`{"type":"tool-call","toolName":"fs.read"}`,
		`{"type":"tool-call","toolName":"fs.read","toolId":"x","status":"success"}`,
		`{"type":"tool-call","toolName":"fs.read","toolId":"","status":"running","args":null,"result":{"n":1.50}}`,
		`{"type":"tool-call","toolName":"fs.read","error":"","children":null}`,
	} {
		b, err := UnmarshalBlock([]byte(raw))
		require.NoError(t, err, raw)
		out, err := json.Marshal(b)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	}
}

func TestShell_NullOutputRoundTrips(t *testing.T) {
	raw := `{"type":"shell","command":"true","status":"success","output":null,"exitCode":null}`
	b, err := UnmarshalBlock([]byte(raw))
	require.NoError(t, err)
	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestUnmarshalEvent_BlockSetWithoutObject(t *testing.T) {
	for _, raw := range []string{
		`{"type":"block-set","block":null}`,
		`{"type":"block-set","block":"pending"}`,
		`{"type":"block-set"}`,
	} {
		ev, err := UnmarshalEvent([]byte(raw))
		require.NoError(t, err, raw)
		bs, ok := ev.(*BlockSet)
		require.True(t, ok)
		assert.Nil(t, bs.Block)
		out, err := json.Marshal(bs)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	}
}

func TestSchemas(t *testing.T) {
	b, err := MarshalSchema(MessageSchema())
	require.NoError(t, err)
	assert.Contains(t, string(b), "tool-call")
	assert.Contains(t, string(b), "blocks")

	b, err = MarshalSchema(EventSchema())
	require.NoError(t, err)
	assert.Contains(t, string(b), "block")
}
