// Package tui implements an interactive chunk browser for inspecting
// split output before sending it anywhere.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/promptprep/promptprep/internal/chunk"
)

type keyMap struct {
	Prev key.Binding
	Next key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Prev: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev chunk")),
	Next: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next chunk")),
	Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	prefixStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

// Browser is a bubbletea model paging through chunks.
type Browser struct {
	chunks   []chunk.Chunk
	index    int
	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

// NewBrowser creates a browser over the given chunks.
func NewBrowser(chunks []chunk.Chunk) *Browser {
	return &Browser{chunks: chunks}
}

// Init implements tea.Model.
func (m *Browser) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Prev):
			if m.index > 0 {
				m.index--
				m.setContent()
			}
			return m, nil
		case key.Matches(msg, keys.Next):
			if m.index < len(m.chunks)-1 {
				m.index++
				m.setContent()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.setContent()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Browser) setContent() {
	if !m.ready || len(m.chunks) == 0 {
		return
	}
	c := m.chunks[m.index]
	content := c.Content
	if c.HasContextOverlap && c.ContextPrefix != "" {
		content = prefixStyle.Render(c.ContextPrefix) + content
	}
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

// View implements tea.Model.
func (m *Browser) View() string {
	if !m.ready {
		return "loading..."
	}
	if len(m.chunks) == 0 {
		return titleStyle.Render("promptprep") + "\n\nno chunks to browse\n"
	}

	c := m.chunks[m.index]
	header := titleStyle.Render(fmt.Sprintf("promptprep chunk %d/%d", m.index+1, len(m.chunks)))

	status := fmt.Sprintf("%d chars", len(c.Content))
	if c.HasContextOverlap {
		status += fmt.Sprintf(" • %d overlap", len(c.ContextPrefix))
	}
	if n := chunk.CountFences(c.Content); n%2 != 0 {
		status += " • " + warnStyle.Render("unbalanced fences")
	}
	footer := statusStyle.Render(status + "  " + keys.Prev.Help().Key + "/" + keys.Next.Help().Key + " navigate, q quit")

	return header + "\n\n" + m.viewport.View() + "\n" + footer
}

// Run launches the browser in the alternate screen.
func Run(chunks []chunk.Chunk) error {
	p := tea.NewProgram(NewBrowser(chunks), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
