// Package blocks models chat messages as typed blocks and stream events, and
// encodes them to and from JSON without losing fields it does not model.
package blocks

import "encoding/json"

// Block type discriminants as they appear on the wire.
const (
	TypeToolCall = "tool-call"
	TypeMarkdown = "markdown"
	TypeShell    = "shell"
	TypeText     = "text"
)

// ToolStatus is the lifecycle state of a tool invocation.
// Unrecognized values are kept verbatim.
type ToolStatus string

const (
	ToolPending ToolStatus = "pending"
	ToolRunning ToolStatus = "running"
	ToolSuccess ToolStatus = "success"
	ToolError   ToolStatus = "error"
)

// ShellStatus is the state shown on a shell transcript block.
type ShellStatus string

const (
	ShellRunning ShellStatus = "running"
	ShellSuccess ShellStatus = "success"
	ShellError   ShellStatus = "error"
)

// Extra carries JSON fields a known block variant does not model.
// They are re-emitted unchanged when the block is encoded.
type Extra map[string]json.RawMessage

// Block is one renderable unit of a message.
//
// The set of variants is closed: ToolCall, Markdown, Shell, Text and Unknown.
// Any discriminant without a dedicated variant decodes to Unknown and is
// passed through untouched.
type Block interface {
	Type() string
	isBlock()
}

// ToolCall is an invocation of a named tool. Args and Result hold decoded
// JSON of any shape; numbers are json.Number when produced by this package.
type ToolCall struct {
	ToolName string
	ToolID   string
	Status   ToolStatus
	Args     any
	Result   any
	Error    string
	Children []Block
	Extra    Extra
}

// Markdown is a markdown document block.
type Markdown struct {
	Content string
	Extra   Extra
}

// Shell is a compact shell transcript: a command, its combined output and
// exit status. Output and ExitCode are nil when absent.
type Shell struct {
	Command  string
	Output   *string
	ExitCode *int
	Status   ShellStatus
	Extra    Extra
}

// Text is a plain text block.
type Text struct {
	Text  string
	Extra Extra
}

// Unknown is any block whose type has no dedicated variant. Raw is the
// original encoding.
type Unknown struct {
	Kind string
	Raw  json.RawMessage
}

func (*ToolCall) Type() string  { return TypeToolCall }
func (*Markdown) Type() string  { return TypeMarkdown }
func (*Shell) Type() string     { return TypeShell }
func (*Text) Type() string      { return TypeText }
func (u *Unknown) Type() string { return u.Kind }

func (*ToolCall) isBlock() {}
func (*Markdown) isBlock() {}
func (*Shell) isBlock()    {}
func (*Text) isBlock()     {}
func (*Unknown) isBlock()  {}

// Message is an ordered sequence of blocks plus identifying metadata.
type Message struct {
	ID     string
	Role   string
	Blocks []Block
	Extra  Extra
}

// EventTypeBlockSet is the only stream event the decorator inspects.
const EventTypeBlockSet = "block-set"

// StreamEvent is an incremental update of a live response.
// Variants: BlockSet and OtherEvent.
type StreamEvent interface {
	EventType() string
	isEvent()
}

// BlockSet replaces the latest state of one block.
type BlockSet struct {
	Block Block
	Extra Extra
}

// OtherEvent is any non block-set event, kept in its original encoding.
type OtherEvent struct {
	Kind string
	Raw  json.RawMessage
}

func (*BlockSet) EventType() string     { return EventTypeBlockSet }
func (o *OtherEvent) EventType() string { return o.Kind }

func (*BlockSet) isEvent()   {}
func (*OtherEvent) isEvent() {}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }
