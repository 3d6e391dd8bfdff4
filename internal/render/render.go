// Package render turns decorated messages into styled terminal text.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"chatdeck/internal/blocks"
)

// minWidth keeps wrapping sane on very narrow terminals.
const minWidth = 20

// glamour adds a two column gutter around documents.
const glamourGutter = 2

// Renderer renders blocks at a fixed width. The zero value is not usable;
// call New.
type Renderer struct {
	width int
	md    *glamour.TermRenderer
	plain bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// Plain disables ANSI styling. Markdown is then emitted as-is.
func Plain() Option { return func(r *Renderer) { r.plain = true } }

// New returns a renderer wrapping at width columns.
func New(width int, opts ...Option) (*Renderer, error) {
	if width < minWidth {
		width = minWidth
	}
	r := &Renderer{width: width}
	for _, o := range opts {
		o(r)
	}
	if r.plain {
		return r, nil
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStyles(glamourStyle()),
		glamour.WithWordWrap(width-glamourGutter),
	)
	if err != nil {
		return nil, fmt.Errorf("markdown renderer: %w", err)
	}
	r.md = md
	return r, nil
}

// Width is the wrap width in columns.
func (r *Renderer) Width() int { return r.width }

// Messages renders a thread, separating messages with a rule.
func (r *Renderer) Messages(ms []*blocks.Message) string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		parts = append(parts, r.Message(m))
	}
	return strings.Join(parts, "\n"+r.rule()+"\n\n")
}

// Message renders a role header followed by every block.
func (r *Renderer) Message(m *blocks.Message) string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(r.roleHeader(m.Role, m.ID))
	b.WriteString("\n\n")
	for i, blk := range m.Blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Block(blk, 0))
		b.WriteString("\n")
	}
	return b.String()
}

// Events renders the blocks carried by block-set events and one muted line
// per other event.
func (r *Renderer) Events(events []blocks.StreamEvent) string {
	var b strings.Builder
	for _, ev := range events {
		switch e := ev.(type) {
		case *blocks.BlockSet:
			b.WriteString(r.Block(e.Block, 0))
		default:
			b.WriteString(r.muted("· " + ev.EventType()))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Block renders one block, indenting nested tool-call children by depth.
func (r *Renderer) Block(blk blocks.Block, depth int) string {
	var out string
	switch v := blk.(type) {
	case *blocks.Text:
		out = r.wrap(v.Text)
	case *blocks.Markdown:
		out = r.markdown(v.Content)
	case *blocks.Shell:
		out = r.shell(v)
	case *blocks.ToolCall:
		out = r.toolCall(v)
	case *blocks.Unknown:
		out = r.muted(fmt.Sprintf("[%s block]", v.Kind))
	case nil:
		return ""
	}
	if depth == 0 {
		return out
	}
	return indent(out, depth*2)
}

func (r *Renderer) roleHeader(role, id string) string {
	if role == "" {
		role = "message"
	}
	if r.plain {
		if id != "" {
			return fmt.Sprintf("%s (%s)", role, id)
		}
		return role
	}
	bg := Vitesse.Blue
	if role == "user" {
		bg = Vitesse.Primary
	}
	head := Chip(role, bg)
	if id != "" {
		head += " " + r.muted(id)
	}
	return head
}

func (r *Renderer) markdown(content string) string {
	if r.plain || r.md == nil {
		return strings.TrimRight(content, "\n")
	}
	out, err := r.md.Render(content)
	if err != nil {
		return strings.TrimRight(content, "\n")
	}
	return trimEdgeBlankLines(out)
}

func (r *Renderer) shell(s *blocks.Shell) string {
	var b strings.Builder
	prompt := "$ " + s.Command
	if s.Command == "" {
		prompt = "$ (no command)"
	}
	status := string(s.Status)
	if s.ExitCode != nil {
		status = fmt.Sprintf("%s · exit %d", status, *s.ExitCode)
	}
	if r.plain {
		b.WriteString(prompt + "  [" + status + "]")
	} else {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(Vitesse.Primary).Render(r.clip(prompt)))
		b.WriteString(" ")
		b.WriteString(Chip(status, shellColor(s.Status)))
	}
	if s.Output != nil && *s.Output != "" {
		b.WriteString("\n")
		body := r.clipLines(*s.Output, r.width-2)
		if r.plain {
			b.WriteString(body)
		} else {
			box := lipgloss.NewStyle().
				Foreground(Vitesse.Secondary).
				BorderStyle(lipgloss.NormalBorder()).
				BorderLeft(true).
				BorderForeground(Vitesse.Border).
				PaddingLeft(1)
			b.WriteString(box.Render(body))
		}
	}
	return b.String()
}

func (r *Renderer) toolCall(tc *blocks.ToolCall) string {
	var b strings.Builder
	head := "⚙ " + tc.ToolName
	if tc.ToolName == "" {
		head = "⚙ (tool)"
	}
	if r.plain {
		b.WriteString(head + "  [" + string(tc.Status) + "]")
	} else {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(Vitesse.Cyan).Render(head))
		b.WriteString(" ")
		b.WriteString(Chip(string(tc.Status), toolColor(tc.Status)))
	}
	if args := compactJSON(tc.Args); args != "" {
		b.WriteString("\n")
		b.WriteString(r.muted(r.clip("args " + args)))
	}
	if tc.Error != "" {
		b.WriteString("\n")
		line := r.clip("error " + tc.Error)
		if r.plain {
			b.WriteString(line)
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(Vitesse.Red).Render(line))
		}
	}
	for _, child := range tc.Children {
		b.WriteString("\n")
		b.WriteString(r.Block(child, 1))
	}
	return b.String()
}

func (r *Renderer) wrap(s string) string {
	if r.plain {
		return s
	}
	return lipgloss.NewStyle().Foreground(Vitesse.Text).Width(r.width).Render(s)
}

func (r *Renderer) muted(s string) string {
	if r.plain {
		return s
	}
	return lipgloss.NewStyle().Foreground(Vitesse.Muted).Render(s)
}

func (r *Renderer) rule() string {
	line := strings.Repeat("─", r.width)
	if r.plain {
		return line
	}
	return lipgloss.NewStyle().Foreground(Vitesse.Border).Render(line)
}

// clip truncates a single line to the render width.
func (r *Renderer) clip(s string) string {
	return ansi.Truncate(s, r.width, "…")
}

// clipLines truncates every line of s to w display columns.
func (r *Renderer) clipLines(s string, w int) string {
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = ansi.Truncate(ln, w, "…")
	}
	return strings.Join(lines, "\n")
}

func shellColor(s blocks.ShellStatus) lipgloss.Color {
	switch s {
	case blocks.ShellSuccess:
		return Vitesse.Primary
	case blocks.ShellError:
		return Vitesse.Red
	}
	return Vitesse.Yellow
}

func toolColor(s blocks.ToolStatus) lipgloss.Color {
	switch s {
	case blocks.ToolSuccess:
		return Vitesse.Primary
	case blocks.ToolError:
		return Vitesse.Red
	case blocks.ToolRunning:
		return Vitesse.Yellow
	}
	return Vitesse.Secondary
}

func compactJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	s := string(b)
	if s == "null" || s == "{}" {
		return ""
	}
	return s
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		if ln != "" {
			lines[i] = pad + ln
		}
	}
	return strings.Join(lines, "\n")
}

func trimEdgeBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(ansi.Strip(lines[start])) == "" {
		start++
	}
	for end > start && strings.TrimSpace(ansi.Strip(lines[end-1])) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
