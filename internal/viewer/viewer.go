// Package viewer is a full-screen pager for transcripts. It decorates the
// file with the chosen style, renders it for the terminal and reloads it
// when the file changes.
package viewer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"

	"chatdeck/internal/decorate"
	"chatdeck/internal/render"
	"chatdeck/internal/system"
	"chatdeck/internal/transcript"
)

// Options configures the pager.
type Options struct {
	Path         string
	Style        decorate.Style
	PreviewLines int
	// Watch reloads the transcript whenever the file changes on disk.
	Watch bool
}

// Run opens the pager and blocks until the user quits.
func Run(opts Options) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := newModel(opts)
	if opts.Watch {
		go func() {
			err := transcript.Watch(ctx, opts.Path, func() {
				select {
				case m.changes <- struct{}{}:
				default:
				}
			})
			if err != nil {
				system.Logger.Warn("watch unavailable", "path", opts.Path, "err", err)
			}
		}()
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

type loadedMsg struct {
	t   transcript.Transcript
	err error
	at  time.Time
}

type fileChangedMsg struct{}

type model struct {
	opts    Options
	vp      viewport.Model
	spin    spinner.Model
	changes chan struct{}

	ready   bool
	loading bool
	width   int
	height  int

	doc      transcript.Transcript
	loadErr  error
	loadedAt time.Time
	// raw shows the transcript without decoration.
	raw bool
}

func newModel(opts Options) *model {
	if opts.PreviewLines < 1 {
		opts.PreviewLines = decorate.DefaultPreviewLines
	}
	if _, err := decorate.ParseStyle(string(opts.Style)); err != nil {
		opts.Style = decorate.StyleMarkdown
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(render.Vitesse.Primary)
	return &model{
		opts:    opts,
		spin:    sp,
		changes: make(chan struct{}, 1),
		loading: true,
	}
}

func loadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		t, err := transcript.LoadFile(path)
		return loadedMsg{t: t, err: err, at: time.Now()}
	}
}

func waitChangeCmd(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return fileChangedMsg{}
	}
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, loadCmd(m.opts.Path)}
	if m.opts.Watch {
		cmds = append(cmds, waitChangeCmd(m.changes))
	}
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s":
			if m.opts.Style == decorate.StyleMarkdown {
				m.opts.Style = decorate.StyleShell
			} else {
				m.opts.Style = decorate.StyleMarkdown
			}
			m.refresh()
			return m, nil
		case "d":
			m.raw = !m.raw
			m.refresh()
			return m, nil
		case "+", "=":
			m.opts.PreviewLines++
			m.refresh()
			return m, nil
		case "-":
			if m.opts.PreviewLines > 1 {
				m.opts.PreviewLines--
				m.refresh()
			}
			return m, nil
		case "r":
			m.loading = true
			return m, tea.Batch(m.spin.Tick, loadCmd(m.opts.Path))
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := msg.Height - 1
		if h < 1 {
			h = 1
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.vp.Width, m.vp.Height = msg.Width, h
		}
		m.refresh()
		return m, nil
	case loadedMsg:
		m.loading = false
		m.loadErr = msg.err
		if msg.err == nil {
			m.doc = msg.t
			m.loadedAt = msg.at
		} else {
			system.Logger.Debug("load failed", "path", m.opts.Path, "err", msg.err)
		}
		m.refresh()
		return m, nil
	case fileChangedMsg:
		m.loading = true
		return m, tea.Batch(m.spin.Tick, loadCmd(m.opts.Path), waitChangeCmd(m.changes))
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	if m.ready {
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// refresh re-renders the document into the viewport, keeping the scroll
// position when possible.
func (m *model) refresh() {
	if !m.ready {
		return
	}
	if m.loadErr != nil && m.doc.Messages == nil && m.doc.Events == nil {
		m.vp.SetContent(lipgloss.NewStyle().Foreground(render.Vitesse.Red).Render(m.loadErr.Error()))
		return
	}
	m.vp.SetContent(m.content())
}

func (m *model) content() string {
	r, err := render.New(m.width)
	if err != nil {
		return err.Error()
	}
	doc := m.doc
	if !m.raw {
		doc = doc.Decorate(decorate.ForStyle(m.opts.Style, m.opts.PreviewLines))
	}
	if doc.IsEvents() {
		return r.Events(doc.Events)
	}
	return r.Messages(doc.Messages)
}

func (m *model) View() string {
	if !m.ready {
		return m.spin.View() + " loading " + m.opts.Path
	}
	return m.vp.View() + "\n" + m.statusBar()
}

func (m *model) statusBar() string {
	mode := string(m.opts.Style)
	if m.raw {
		mode = "raw"
	}
	left := fmt.Sprintf(" %s · %s · preview %d", filepath.Base(m.opts.Path), mode, m.opts.PreviewLines)
	if m.loadErr != nil {
		left += " · error"
	}
	right := fmt.Sprintf("%3.f%% ", m.vp.ScrollPercent()*100)
	if m.loading {
		right = m.spin.View() + " " + right
	} else if !m.loadedAt.IsZero() {
		right = m.loadedAt.Format("15:04:05") + "  " + right
	}
	chip := render.Chip("chatdeck", render.Vitesse.Primary)
	avail := m.width - lipgloss.Width(chip)
	return chip + render.StatusBar().Render(statusLine(avail, left, right))
}

// statusLine lays out left and right within width cells, truncating left
// first.
func statusLine(width int, left, right string) string {
	if width <= 0 {
		return ""
	}
	rw := lipgloss.Width(right)
	if rw >= width {
		return runewidth.Truncate(left, width, "…")
	}
	left = runewidth.Truncate(left, width-rw, "…")
	return runewidth.FillRight(left, width-rw) + right
}
