// Package decorate rewrites terminal.exec tool-call blocks in chat
// transcripts into readable presentation blocks.
//
// Decoration is pure: inputs are never mutated, and when nothing in a tree
// matches, the very same pointer is returned so callers can detect no-ops
// with ==. Only the ancestors of a rewritten block are copied; untouched
// siblings are shared with the input.
package decorate

import (
	"fmt"
	"strings"

	"chatdeck/internal/blocks"
)

// Strategy turns one tool call into a presentation block. It returns false
// to decline, in which case the call's children are visited instead.
type Strategy interface {
	Synthesize(call *blocks.ToolCall) (blocks.Block, bool)
}

// Style selects the presentation format of a deployment.
type Style string

const (
	StyleMarkdown Style = "markdown"
	StyleShell    Style = "shell"
)

// ParseStyle accepts "markdown" or "shell" (case-insensitive).
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleMarkdown:
		return StyleMarkdown, nil
	case StyleShell:
		return StyleShell, nil
	}
	return "", fmt.Errorf("unknown decoration style %q (want markdown or shell)", s)
}

// Decorator applies a Strategy across messages, stream events and blocks.
// It holds no state between calls and is safe for concurrent use.
type Decorator struct {
	strategy Strategy
}

// New returns a Decorator using s.
func New(s Strategy) *Decorator {
	return &Decorator{strategy: s}
}

// ForStyle returns the Decorator for a configured style. previewLines only
// affects the markdown style.
func ForStyle(style Style, previewLines int) *Decorator {
	if style == StyleShell {
		return New(ShellStrategy{})
	}
	return New(MarkdownStrategy{PreviewLines: previewLines})
}

// Message decorates every block of m. It returns m itself when nothing
// changed, otherwise a shallow copy with a new block slice.
func (d *Decorator) Message(m *blocks.Message) *blocks.Message {
	if m == nil || len(m.Blocks) == 0 {
		return m
	}
	next, changed := d.list(m.Blocks)
	if !changed {
		return m
	}
	out := *m
	out.Blocks = next
	return &out
}

// Event decorates the block carried by a block-set event. Every other event
// is returned unchanged.
func (d *Decorator) Event(e blocks.StreamEvent) blocks.StreamEvent {
	set, ok := e.(*blocks.BlockSet)
	if !ok || set == nil || set.Block == nil {
		return e
	}
	b, changed := d.Block(set.Block)
	if !changed {
		return e
	}
	out := *set
	out.Block = b
	return &out
}

// Events decorates a batch of events, returning in itself when nothing changed.
func (d *Decorator) Events(in []blocks.StreamEvent) []blocks.StreamEvent {
	var out []blocks.StreamEvent
	for i, e := range in {
		ne := d.Event(e)
		if ne != e && out == nil {
			out = make([]blocks.StreamEvent, len(in))
			copy(out, in[:i])
		}
		if out != nil {
			out[i] = ne
		}
	}
	if out == nil {
		return in
	}
	return out
}

// Block rewrites one block and reports whether the result differs from b.
// A synthesized block replaces the tool call outright, children included.
// Every block other than a tool call passes through as is.
func (d *Decorator) Block(b blocks.Block) (blocks.Block, bool) {
	if call, ok := b.(*blocks.ToolCall); ok {
		return d.toolCall(call)
	}
	return b, false
}

func (d *Decorator) toolCall(call *blocks.ToolCall) (blocks.Block, bool) {
	if call == nil {
		return call, false
	}
	if d.strategy != nil {
		if rep, ok := d.strategy.Synthesize(call); ok && rep != nil {
			return rep, true
		}
	}
	if len(call.Children) == 0 {
		return call, false
	}
	children, changed := d.list(call.Children)
	if !changed {
		return call, false
	}
	out := *call
	out.Children = children
	return &out, true
}

// list rewrites a block slice, allocating a new one only once the first
// changed element is seen.
func (d *Decorator) list(in []blocks.Block) ([]blocks.Block, bool) {
	var out []blocks.Block
	for i, b := range in {
		nb, changed := d.Block(b)
		if changed && out == nil {
			out = make([]blocks.Block, len(in))
			copy(out, in[:i])
		}
		if out != nil {
			out[i] = nb
		}
	}
	if out == nil {
		return in, false
	}
	return out, true
}
