package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type menuKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Cancel key.Binding
}

var menuKeys = menuKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c", "q"),
		key.WithHelp("esc", "cancel"),
	),
}

var (
	menuItemNormal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	menuItemSelected = lipgloss.NewStyle().
				Foreground(lipgloss.Color("220")).
				Bold(true)
)

// menuModel is a single-column arrow-key selection list.
type menuModel struct {
	title     string
	options   []string
	sel       int
	offset    int
	height    int // visible rows
	chosen    int
	cancelled bool
}

func newMenuModel(title string, options []string) menuModel {
	return menuModel{title: title, options: options, chosen: -1, height: 15}
}

func (m menuModel) Init() tea.Cmd { return nil }

func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if h := msg.Height - 4; h > 3 {
			m.height = h
		}
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, menuKeys.Up):
			if m.sel > 0 {
				m.sel--
			}
		case key.Matches(msg, menuKeys.Down):
			if m.sel < len(m.options)-1 {
				m.sel++
			}
		case key.Matches(msg, menuKeys.Select):
			m.chosen = m.sel
			return m, tea.Quit
		case key.Matches(msg, menuKeys.Cancel):
			m.cancelled = true
			return m, tea.Quit
		}
	}

	if m.sel < m.offset {
		m.offset = m.sel
	}
	if m.sel >= m.offset+m.height {
		m.offset = m.sel - m.height + 1
	}
	return m, nil
}

func (m menuModel) View() string {
	if m.chosen >= 0 || m.cancelled {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(primaryStyle.Render("? "+m.title) + "\n")
	end := m.offset + m.height
	if end > len(m.options) {
		end = len(m.options)
	}
	for i := m.offset; i < end; i++ {
		if i == m.sel {
			sb.WriteString(menuItemSelected.Render("❯ "+m.options[i]) + "\n")
		} else {
			sb.WriteString(menuItemNormal.Render("  "+m.options[i]) + "\n")
		}
	}
	sb.WriteString(hintStyle.Render(fmt.Sprintf("%s • %s • %s",
		menuKeys.Up.Help().Key+"/"+menuKeys.Down.Help().Key,
		menuKeys.Select.Help().Key+" "+menuKeys.Select.Help().Desc,
		menuKeys.Cancel.Help().Key+" "+menuKeys.Cancel.Help().Desc)))
	return sb.String()
}

// runMenu shows an interactive menu on the terminal.
func runMenu(in io.Reader, out io.Writer, title string, options []string) (int, error) {
	p := tea.NewProgram(newMenuModel(title, options), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return -1, fmt.Errorf("menu: %w", err)
	}
	m := final.(menuModel)
	if m.cancelled || m.chosen < 0 {
		return -1, ErrCancelled
	}
	return m.chosen, nil
}
