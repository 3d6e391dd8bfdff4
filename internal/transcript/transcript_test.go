package transcript

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chatdeck/internal/blocks"
	"chatdeck/internal/decorate"
)

const lsMessage = `{"id":"m1","role":"assistant","blocks":[
	{"type":"text","text":"running"},
	{"type":"tool-call","toolName":"terminal.exec","toolId":"t1","status":"success",
	 "args":{"command":"ls -la","cwd":"/tmp"},
	 "result":{"stdout":"a\nb\n","exit_code":0,"duration_ms":12}}
]}`

func TestReadMessages_SingleAndArray(t *testing.T) {
	tr, err := ReadMessages(strings.NewReader(lsMessage))
	if err != nil {
		t.Fatalf("ReadMessages error: %v", err)
	}
	if !tr.Single || len(tr.Messages) != 1 || len(tr.Messages[0].Blocks) != 2 {
		t.Fatalf("unexpected single transcript: %+v", tr)
	}

	tr, err = ReadMessages(strings.NewReader("[" + lsMessage + "," + lsMessage + "]"))
	if err != nil {
		t.Fatalf("ReadMessages array error: %v", err)
	}
	if tr.Single || len(tr.Messages) != 2 {
		t.Fatalf("unexpected array transcript: %+v", tr)
	}

	if _, err := ReadMessages(strings.NewReader(`[{"blocks":[1]}]`)); err == nil || !strings.Contains(err.Error(), "message 0") {
		t.Fatalf("expected indexed error, got %v", err)
	}
}

func TestReadEvents_SkipsBlankLinesAndReportsLine(t *testing.T) {
	in := "{\"type\":\"start\"}\n\n{\"type\":\"block-set\",\"block\":{\"type\":\"text\",\"text\":\"x\"}}\n"
	evs, err := ReadEvents(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadEvents error: %v", err)
	}
	if len(evs) != 2 || evs[1].EventType() != blocks.EventTypeBlockSet {
		t.Fatalf("unexpected events: %+v", evs)
	}

	_, err = ReadEvents(strings.NewReader("{\"type\":\"start\"}\n{oops\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
}

func TestDecorateAndWrite_Shell(t *testing.T) {
	tr, err := ReadMessages(strings.NewReader(lsMessage))
	if err != nil {
		t.Fatal(err)
	}
	out := tr.Decorate(decorate.ForStyle(decorate.StyleShell, 5))
	if out.Messages[0] == tr.Messages[0] {
		t.Fatalf("expected a decorated copy")
	}
	if out.Messages[0].Blocks[0] != tr.Messages[0].Blocks[0] {
		t.Fatalf("expected the text block to be shared")
	}
	var buf bytes.Buffer
	if err := Write(&buf, out, false); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	got := buf.String()
	if !strings.HasPrefix(got, "{") {
		t.Fatalf("single message should encode as an object, got %s", got)
	}
	for _, want := range []string{`"type":"shell"`, `"command":"ls -la"`, `"exitCode":0`, `"output":"[cwd] /tmp\n\na\nb"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %s in %s", want, got)
		}
	}
}

func TestWriteEvents_OnePerLine(t *testing.T) {
	evs := []blocks.StreamEvent{
		&blocks.OtherEvent{Kind: "start", Raw: []byte(`{"type":"start"}`)},
		&blocks.BlockSet{Block: &blocks.Text{Text: "x"}},
	}
	var buf bytes.Buffer
	if err := Write(&buf, Transcript{Events: evs}, true); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != `{"type":"start"}` {
		t.Fatalf("unexpected JSONL output: %q", buf.String())
	}
}

func TestLoadFile_ByExtension(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "run.jsonl")
	if err := os.WriteFile(p, []byte(`{"type":"finish"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if !tr.IsEvents() || len(tr.Events) != 1 {
		t.Fatalf("expected one event, got %+v", tr)
	}
	if IsEventsPath("a.JSON") || !IsEventsPath("b.ndjson") {
		t.Fatalf("unexpected extension detection")
	}
}

func TestWatch_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "chat.json")
	if err := os.WriteFile(p, []byte(lsMessage), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, p, func() { changed <- struct{}{} })
	}()

	// give the watcher a moment to register, then keep writing until seen
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-changed:
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("Watch error: %v", err)
			}
			return
		case <-tick.C:
			_ = os.WriteFile(p, []byte(lsMessage), 0o644)
		case <-ctx.Done():
			t.Fatalf("no change reported")
		}
	}
}
