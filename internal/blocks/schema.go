package blocks

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// blockDoc mirrors the wire shape of every block variant for schema generation.
type blockDoc struct {
	Type     string         `json:"type" jsonschema:"required,enum=tool-call,enum=markdown,enum=shell,enum=text"`
	ToolName string         `json:"toolName,omitempty" jsonschema:"description=tool-call only"`
	ToolID   string         `json:"toolId,omitempty"`
	Status   string         `json:"status,omitempty" jsonschema:"description=tool-call: pending|running|success|error; shell: running|success|error"`
	Args     map[string]any `json:"args,omitempty"`
	Result   any            `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
	Children []blockDoc     `json:"children,omitempty"`
	Content  string         `json:"content,omitempty" jsonschema:"description=markdown only"`
	Command  string         `json:"command,omitempty" jsonschema:"description=shell only"`
	Output   string         `json:"output,omitempty"`
	ExitCode *int           `json:"exitCode,omitempty"`
	Text     string         `json:"text,omitempty" jsonschema:"description=text only"`
}

type messageDoc struct {
	ID     string     `json:"id,omitempty"`
	Role   string     `json:"role,omitempty" jsonschema:"enum=user,enum=assistant,enum=system"`
	Blocks []blockDoc `json:"blocks"`
}

type eventDoc struct {
	Type  string    `json:"type" jsonschema:"required"`
	Block *blockDoc `json:"block,omitempty" jsonschema:"description=present when type is block-set"`
}

// MessageSchema returns a JSON Schema for a transcript message.
func MessageSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{AllowAdditionalProperties: true}
	sch := r.Reflect(&messageDoc{})
	sch.Title = "chatdeck message"
	sch.Description = "A chat message: an ordered list of blocks. Unknown block types pass through."
	return sch
}

// EventSchema returns a JSON Schema for one stream event.
func EventSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{AllowAdditionalProperties: true}
	sch := r.Reflect(&eventDoc{})
	sch.Title = "chatdeck stream event"
	sch.Description = "An incremental update. Only block-set events are decorated."
	return sch
}

// MarshalSchema indents the schema to JSON bytes.
func MarshalSchema(sch *jsonschema.Schema) ([]byte, error) {
	return json.MarshalIndent(sch, "", "  ")
}
