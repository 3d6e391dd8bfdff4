package blocks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrNotObject is returned when a block, message or event is not a JSON object.
var ErrNotObject = errors.New("expected a JSON object")

// fields is a decoded JSON object whose known keys are consumed one by one.
// Whatever remains afterwards becomes the Extra of the decoded value.
type fields map[string]json.RawMessage

func splitObject(data []byte) (fields, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, ErrNotObject
	}
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// str consumes key as a string. Values of another JSON type read as "".
func (f fields) str(key string) string {
	raw, ok := f[key]
	if !ok {
		return ""
	}
	delete(f, key)
	var s string
	_ = json.Unmarshal(raw, &s)
	return s
}

// take consumes key unless it is absent or JSON null. A null stays behind
// in the Extra so it is re-emitted as it was.
func (f fields) take(key string) (json.RawMessage, bool) {
	raw, ok := f[key]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return nil, false
	}
	delete(f, key)
	return raw, true
}

// label consumes key only when it holds a non-empty string. Anything else is
// left for the Extra, so blank or mistyped values round-trip unchanged.
func (f fields) label(key string) string {
	raw, ok := f[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return ""
	}
	delete(f, key)
	return s
}

func (f fields) optStr(key string) *string {
	raw, ok := f.take(key)
	if !ok {
		return nil
	}
	var s *string
	_ = json.Unmarshal(raw, &s)
	return s
}

func (f fields) optInt(key string) *int {
	raw, ok := f.take(key)
	if !ok {
		return nil
	}
	var n *int
	if err := json.Unmarshal(raw, &n); err != nil {
		var fl float64
		if err := json.Unmarshal(raw, &fl); err != nil {
			return nil
		}
		v := int(fl)
		return &v
	}
	return n
}

// value consumes key as arbitrary JSON, keeping numbers as json.Number.
func (f fields) value(key string) any {
	raw, ok := f.take(key)
	if !ok {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func (f fields) extra() Extra {
	delete(f, "type")
	if len(f) == 0 {
		return nil
	}
	return Extra(f)
}

// UnmarshalBlock decodes one block. Unknown types never fail; they decode to
// *Unknown holding the original bytes.
func UnmarshalBlock(data []byte) (Block, error) {
	f, err := splitObject(data)
	if err != nil {
		return nil, err
	}
	kind := gjson.GetBytes(data, "type").String()
	switch kind {
	case TypeToolCall:
		b := &ToolCall{
			ToolName: f.str("toolName"),
			ToolID:   f.label("toolId"),
			Status:   ToolStatus(f.label("status")),
			Args:     f.value("args"),
			Result:   f.value("result"),
			Error:    f.label("error"),
		}
		if raw, ok := f.take("children"); ok {
			children, err := unmarshalBlockList(raw)
			if err != nil {
				return nil, fmt.Errorf("tool-call %q children: %w", b.ToolID, err)
			}
			b.Children = children
		}
		b.Extra = f.extra()
		return b, nil
	case TypeMarkdown:
		b := &Markdown{Content: f.str("content")}
		b.Extra = f.extra()
		return b, nil
	case TypeShell:
		b := &Shell{
			Command:  f.str("command"),
			Output:   f.optStr("output"),
			ExitCode: f.optInt("exitCode"),
			Status:   ShellStatus(f.str("status")),
		}
		b.Extra = f.extra()
		return b, nil
	case TypeText:
		b := &Text{Text: f.str("text")}
		b.Extra = f.extra()
		return b, nil
	default:
		return &Unknown{Kind: kind, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

func unmarshalBlockList(raw json.RawMessage) ([]Block, error) {
	if string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]Block, 0, len(items))
	for i, it := range items {
		b, err := UnmarshalBlock(it)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// object builds an encoded JSON object from extras overlaid with known fields.
// encoding/json sorts map keys, so the output is deterministic.
func object(extra Extra, known map[string]any) ([]byte, error) {
	out := make(map[string]any, len(extra)+len(known))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range known {
		out[k] = v
	}
	return json.Marshal(out)
}

// MarshalJSON writes only the fields that are set, so a decoded call is
// re-encoded with exactly the keys it arrived with.
func (b *ToolCall) MarshalJSON() ([]byte, error) {
	known := map[string]any{
		"type":     TypeToolCall,
		"toolName": b.ToolName,
	}
	if b.ToolID != "" {
		known["toolId"] = b.ToolID
	}
	if b.Status != "" {
		known["status"] = b.Status
	}
	if b.Args != nil {
		known["args"] = b.Args
	}
	if b.Result != nil {
		known["result"] = b.Result
	}
	if b.Error != "" {
		known["error"] = b.Error
	}
	if b.Children != nil {
		known["children"] = b.Children
	}
	return object(b.Extra, known)
}

func (b *Markdown) MarshalJSON() ([]byte, error) {
	return object(b.Extra, map[string]any{"type": TypeMarkdown, "content": b.Content})
}

func (b *Shell) MarshalJSON() ([]byte, error) {
	known := map[string]any{
		"type":    TypeShell,
		"command": b.Command,
		"status":  b.Status,
	}
	if b.Output != nil {
		known["output"] = *b.Output
	}
	if b.ExitCode != nil {
		known["exitCode"] = *b.ExitCode
	}
	return object(b.Extra, known)
}

func (b *Text) MarshalJSON() ([]byte, error) {
	return object(b.Extra, map[string]any{"type": TypeText, "text": b.Text})
}

func (b *Unknown) MarshalJSON() ([]byte, error) {
	if len(b.Raw) == 0 {
		return json.Marshal(map[string]string{"type": b.Kind})
	}
	return b.Raw, nil
}

func (m *Message) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if m.Blocks != nil {
		known["blocks"] = m.Blocks
	}
	if m.ID != "" {
		known["id"] = m.ID
	}
	if m.Role != "" {
		known["role"] = m.Role
	}
	return object(m.Extra, known)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	f, err := splitObject(data)
	if err != nil {
		return err
	}
	m.ID = f.str("id")
	m.Role = f.str("role")
	m.Blocks = nil
	if raw, ok := f.take("blocks"); ok {
		list, err := unmarshalBlockList(raw)
		if err != nil {
			return fmt.Errorf("message blocks: %w", err)
		}
		m.Blocks = list
	}
	if len(f) > 0 {
		m.Extra = Extra(f)
	} else {
		m.Extra = nil
	}
	return nil
}

// UnmarshalMessage decodes a message.
func UnmarshalMessage(data []byte) (*Message, error) {
	m := &Message{}
	if err := m.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return m, nil
}

// UnmarshalEvent decodes one stream event. Only block-set events are
// modelled; every other type decodes to *OtherEvent with the original bytes.
// A block-set whose block is not an object keeps it in Extra and has a nil
// Block.
func UnmarshalEvent(data []byte) (StreamEvent, error) {
	f, err := splitObject(data)
	if err != nil {
		return nil, err
	}
	kind := gjson.GetBytes(data, "type").String()
	if kind != EventTypeBlockSet {
		return &OtherEvent{Kind: kind, Raw: append(json.RawMessage(nil), data...)}, nil
	}
	ev := &BlockSet{}
	if raw := f["block"]; gjson.ParseBytes(raw).IsObject() {
		delete(f, "block")
		b, err := UnmarshalBlock(raw)
		if err != nil {
			return nil, fmt.Errorf("block-set: %w", err)
		}
		ev.Block = b
	}
	ev.Extra = f.extra()
	return ev, nil
}

func (e *BlockSet) MarshalJSON() ([]byte, error) {
	known := map[string]any{"type": EventTypeBlockSet}
	if e.Block != nil {
		known["block"] = e.Block
	}
	return object(e.Extra, known)
}

func (e *OtherEvent) MarshalJSON() ([]byte, error) {
	if len(e.Raw) == 0 {
		return json.Marshal(map[string]string{"type": e.Kind})
	}
	return e.Raw, nil
}
