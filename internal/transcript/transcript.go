// Package transcript reads and writes chat transcripts on disk and on pipes.
//
// Three shapes are accepted: a single message object, a JSON array of
// messages (a thread), or JSON Lines of stream events.
package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"chatdeck/internal/blocks"
	"chatdeck/internal/decorate"
)

// maxLine bounds a single JSONL event line.
const maxLine = 16 << 20

// Transcript is a decoded input. Exactly one of Messages or Events is set.
type Transcript struct {
	Messages []*blocks.Message
	Events   []blocks.StreamEvent
	// Single is true when the input was one message object rather than an array.
	Single bool
}

// IsEvents reports whether the transcript is a stream of events.
func (t Transcript) IsEvents() bool { return t.Events != nil }

// Decorate returns a decorated copy of t; messages and events that did not
// change are shared with t.
func (t Transcript) Decorate(d *decorate.Decorator) Transcript {
	out := Transcript{Single: t.Single}
	if t.Events != nil {
		out.Events = d.Events(t.Events)
	}
	if t.Messages != nil {
		out.Messages = make([]*blocks.Message, len(t.Messages))
		for i, m := range t.Messages {
			out.Messages[i] = d.Message(m)
		}
	}
	return out
}

// ReadMessage reads one message object.
func ReadMessage(r io.Reader) (*blocks.Message, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m, err := blocks.UnmarshalMessage(b)
	if err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return m, nil
}

// ReadMessages reads a message object or an array of message objects.
func ReadMessages(r io.Reader) (Transcript, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Transcript{}, err
	}
	return parseMessages(b)
}

func parseMessages(b []byte) (Transcript, error) {
	root := gjson.ParseBytes(b)
	if !root.IsArray() {
		m, err := blocks.UnmarshalMessage(b)
		if err != nil {
			return Transcript{}, fmt.Errorf("decode message: %w", err)
		}
		return Transcript{Messages: []*blocks.Message{m}, Single: true}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return Transcript{}, fmt.Errorf("decode messages: %w", err)
	}
	out := make([]*blocks.Message, 0, len(items))
	for i, it := range items {
		m, err := blocks.UnmarshalMessage(it)
		if err != nil {
			return Transcript{}, fmt.Errorf("message %d: %w", i, err)
		}
		out = append(out, m)
	}
	return Transcript{Messages: out}, nil
}

// ReadEvents reads JSON Lines of stream events. Blank lines are skipped and
// decode errors name the offending line.
func ReadEvents(r io.Reader) ([]blocks.StreamEvent, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	events := []blocks.StreamEvent{}
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		ev, err := blocks.UnmarshalEvent(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Read decodes r as events when events is true, otherwise as messages.
func Read(r io.Reader, events bool) (Transcript, error) {
	if events {
		evs, err := ReadEvents(r)
		if err != nil {
			return Transcript{}, err
		}
		return Transcript{Events: evs}, nil
	}
	return ReadMessages(r)
}

// IsEventsPath reports whether path names a JSON Lines event stream.
func IsEventsPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return true
	}
	return false
}

// LoadFile reads a transcript file, choosing the shape from its extension.
func LoadFile(path string) (Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return Transcript{}, err
	}
	defer f.Close()
	t, err := Read(f, IsEventsPath(path))
	if err != nil {
		return Transcript{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Write encodes t in the shape it was read in: JSON Lines for events, a
// single object or an array for messages.
func Write(w io.Writer, t Transcript, pretty bool) error {
	if t.IsEvents() {
		return WriteEvents(w, t.Events)
	}
	var v any = t.Messages
	if t.Single && len(t.Messages) == 1 {
		v = t.Messages[0]
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteEvents writes one compact JSON event per line.
func WriteEvents(w io.Writer, events []blocks.StreamEvent) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}
