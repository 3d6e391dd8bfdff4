package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	gansi "github.com/charmbracelet/glamour/ansi"
)

// palette holds the terminal colors used for transcripts, after Vitesse Dark Soft:
// https://github.com/antfu/vscode-theme-vitesse/blob/main/themes/vitesse-dark-soft.json
type palette struct {
	Primary lipgloss.Color
	Blue    lipgloss.Color
	Yellow  lipgloss.Color
	Magenta lipgloss.Color
	Cyan    lipgloss.Color
	Red     lipgloss.Color

	Text      lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color

	Bg       lipgloss.Color
	BgSoft   lipgloss.Color
	Border   lipgloss.Color
	OnAccent lipgloss.Color

	BarFG lipgloss.AdaptiveColor
	BarBG lipgloss.AdaptiveColor
}

// Vitesse is the palette shared by the renderer and the viewer.
var Vitesse = palette{
	Primary: lipgloss.Color("#4d9375"),
	Blue:    lipgloss.Color("#6394bf"),
	Yellow:  lipgloss.Color("#e6cc77"),
	Magenta: lipgloss.Color("#d9739f"),
	Cyan:    lipgloss.Color("#5eaab5"),
	Red:     lipgloss.Color("#cb7676"),

	Text:      lipgloss.Color("#dbd7caee"),
	Secondary: lipgloss.Color("#bfbaaa"),
	Muted:     lipgloss.Color("#dedcd590"),

	Bg:       lipgloss.Color("#181818"),
	BgSoft:   lipgloss.Color("#292929"),
	Border:   lipgloss.Color("#3a3a3a"),
	OnAccent: lipgloss.Color("#222"),

	BarFG: lipgloss.AdaptiveColor{Light: "#343433", Dark: "#bfbaaa"},
	BarBG: lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#222"},
}

// Chip renders a short label on an accent background.
func Chip(label string, bg lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(Vitesse.OnAccent).Background(bg).Padding(0, 1).Render(label)
}

// StatusBar returns the base style of the viewer status line.
func StatusBar() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Vitesse.BarFG).Background(Vitesse.BarBG)
}

// hex drops the alpha channel from #RRGGBBAA colors; glamour wants #RRGGBB.
func hex(c lipgloss.Color) string {
	s := string(c)
	if strings.HasPrefix(s, "#") && len(s) == 9 {
		return s[:7]
	}
	return s
}

// glamourStyle maps the palette onto a glamour style so markdown blocks
// match the rest of the transcript.
func glamourStyle() gansi.StyleConfig {
	sp := func(s string) *string { return &s }
	bp := func(b bool) *bool { return &b }
	up := func(u uint) *uint { return &u }

	text := hex(Vitesse.Text)
	secondary := hex(Vitesse.Secondary)
	muted := hex(Vitesse.Muted)
	primary := hex(Vitesse.Primary)
	blue := hex(Vitesse.Blue)
	yellow := hex(Vitesse.Yellow)
	magenta := hex(Vitesse.Magenta)
	red := hex(Vitesse.Red)
	bgSoft := hex(Vitesse.BgSoft)

	heading := gansi.StyleBlock{StylePrimitive: gansi.StylePrimitive{Color: sp(blue), Bold: bp(true)}}

	return gansi.StyleConfig{
		Document: gansi.StyleBlock{
			StylePrimitive: gansi.StylePrimitive{Color: sp(text)},
		},
		Paragraph:  gansi.StyleBlock{StylePrimitive: gansi.StylePrimitive{Color: sp(text)}},
		BlockQuote: gansi.StyleBlock{StylePrimitive: gansi.StylePrimitive{Color: sp(secondary), Italic: bp(true)}, Indent: up(1)},
		Heading:    heading,
		H1:         heading,
		H2:         heading,
		H3:         heading,
		H4:         heading,
		H5:         heading,
		H6:         heading,

		Text:           gansi.StylePrimitive{Color: sp(text)},
		Emph:           gansi.StylePrimitive{Italic: bp(true)},
		Strong:         gansi.StylePrimitive{Bold: bp(true)},
		Strikethrough:  gansi.StylePrimitive{CrossedOut: bp(true)},
		HorizontalRule: gansi.StylePrimitive{Color: sp(secondary)},
		Link:           gansi.StylePrimitive{Color: sp(blue), Underline: bp(true)},
		LinkText:       gansi.StylePrimitive{Color: sp(blue), Underline: bp(true)},

		Code: gansi.StyleBlock{
			StylePrimitive: gansi.StylePrimitive{Color: sp(yellow), BackgroundColor: sp(bgSoft)},
		},
		CodeBlock: gansi.StyleCodeBlock{
			StyleBlock: gansi.StyleBlock{
				StylePrimitive: gansi.StylePrimitive{Color: sp(text)},
				Margin:         up(1),
			},
			Chroma: &gansi.Chroma{
				Text:            gansi.StylePrimitive{Color: sp(text)},
				Comment:         gansi.StylePrimitive{Color: sp(muted), Italic: bp(true)},
				Keyword:         gansi.StylePrimitive{Color: sp(primary), Bold: bp(true)},
				NameFunction:    gansi.StylePrimitive{Color: sp(blue)},
				NameBuiltin:     gansi.StylePrimitive{Color: sp(magenta)},
				LiteralString:   gansi.StylePrimitive{Color: sp(yellow)},
				LiteralNumber:   gansi.StylePrimitive{Color: sp(magenta)},
				NameAttribute:   gansi.StylePrimitive{Color: sp(blue)},
				Operator:        gansi.StylePrimitive{Color: sp(secondary)},
				Punctuation:     gansi.StylePrimitive{Color: sp(secondary)},
				GenericDeleted:  gansi.StylePrimitive{Color: sp(red)},
				GenericInserted: gansi.StylePrimitive{Color: sp(primary)},
				Background:      gansi.StylePrimitive{BackgroundColor: sp(bgSoft)},
			},
		},

		Table: gansi.StyleTable{
			StyleBlock:      gansi.StyleBlock{StylePrimitive: gansi.StylePrimitive{Color: sp(text)}},
			CenterSeparator: sp("│"),
			ColumnSeparator: sp("│"),
			RowSeparator:    sp("─"),
		},
		Item:        gansi.StylePrimitive{BlockPrefix: "• "},
		Enumeration: gansi.StylePrimitive{BlockPrefix: ". "},
	}
}
