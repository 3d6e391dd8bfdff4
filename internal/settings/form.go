package settings

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"chatdeck/internal/config"
	"chatdeck/internal/decorate"
)

// Run launches an interactive form for ~/.chatdeck/config.yaml. It preloads
// the current settings and saves them on submit.
func Run() error {
	cur, _ := config.Load()
	next, err := Edit(cur, nil)
	if err != nil {
		return err // form canceled or failed
	}
	if err := config.Save(next); err != nil {
		return err
	}
	p, _ := config.Path()
	fmt.Printf("\n✓ saved %s (style %s, preview %d lines)\n\n", p, next.Style, next.PreviewLines)
	return nil
}

// Edit shows the form seeded with cur and returns the edited settings.
// run executes the form; nil means huh's interactive Run.
func Edit(cur config.Settings, run func(*huh.Form) error) (config.Settings, error) {
	cur = cur.Normalize()
	style := string(cur.Style)
	preview := strconv.Itoa(cur.PreviewLines)
	level := cur.LogLevel

	form := newForm(&style, &preview, &level)
	if run == nil {
		run = (*huh.Form).Run
	}
	if err := run(form); err != nil {
		return cur, err
	}
	return apply(cur, style, preview, level)
}

func newForm(style, preview, level *string) *huh.Form {
	green := lipgloss.Color("#4d9375")
	theme := huh.ThemeCharm()
	theme.FieldSeparator = lipgloss.NewStyle()
	theme.Blurred.Title = theme.Blurred.Title.Width(18).Foreground(lipgloss.Color("7"))
	theme.Focused.Title = theme.Focused.Title.Width(18).Foreground(green).Bold(true)
	theme.Blurred.SelectedOption = theme.Blurred.SelectedOption.Foreground(lipgloss.Color("243"))
	theme.Focused.SelectedOption = lipgloss.NewStyle().Foreground(green)
	theme.Focused.Base = theme.Focused.Base.BorderForeground(green)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("Settings").Description("How terminal.exec tool calls are shown"),
			huh.NewSelect[string]().
				Title("Style").
				Options(
					huh.NewOption("markdown (fenced summary)", string(decorate.StyleMarkdown)),
					huh.NewOption("shell (terminal block)", string(decorate.StyleShell)),
				).
				Value(style),
			huh.NewInput().
				Title("Preview lines").
				Value(preview).
				Validate(validatePreview),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(level),
		),
	).WithTheme(theme).WithWidth(60)
}

func validatePreview(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}

func apply(cur config.Settings, style, preview, level string) (config.Settings, error) {
	if err := cur.Set("style", style); err != nil {
		return cur, err
	}
	if err := cur.Set("preview_lines", preview); err != nil {
		return cur, err
	}
	if err := cur.Set("log_level", level); err != nil {
		return cur, err
	}
	return cur.Normalize(), nil
}
