package ui

import (
	"fmt"
	"os"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"
	"github.com/mattn/go-isatty"
	"github.com/sahilm/fuzzy"
)

// PluginChoice is one selectable plugin in the activation picker.
type PluginChoice struct {
	Name        string
	Description string
	Active      bool
}

// SelectorResult contains the outcome of the picker. Active holds the
// chosen plugin names in catalog order.
type SelectorResult struct {
	Active    []string
	Cancelled bool
}

// IsInteractive reports whether the picker can run: both stdin and
// stderr must be terminals.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stderr.Fd())
}

// choiceSource implements fuzzy.Source over plugin choices.
type choiceSource []PluginChoice

func (s choiceSource) String(i int) string { return s[i].Name }
func (s choiceSource) Len() int            { return len(s) }

// selectorModel is the bubbletea model for the plugin picker.
type selectorModel struct {
	choices   []PluginChoice
	filtered  []fuzzy.Match
	input     textinput.Model
	cursor    int
	selected  map[int]bool
	confirmed bool
	cancelled bool
	maxHeight int
}

func newSelectorModel(choices []PluginChoice) selectorModel {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.CharLimit = 100
	ti.SetWidth(40)
	ti.Focus()

	filtered := make([]fuzzy.Match, len(choices))
	selected := make(map[int]bool)
	for i, c := range choices {
		filtered[i] = fuzzy.Match{Str: c.Name, Index: i}
		if c.Active {
			selected[i] = true
		}
	}

	return selectorModel{
		choices:   choices,
		filtered:  filtered,
		input:     ti,
		selected:  selected,
		maxHeight: 10,
	}
}

func (m selectorModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m selectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			m.confirmed = true
			return m, tea.Quit

		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "ctrl+n":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil

		case "space", " ":
			if len(m.filtered) > 0 && m.cursor < len(m.filtered) {
				idx := m.filtered[m.cursor].Index
				if m.selected[idx] {
					delete(m.selected, idx)
				} else {
					m.selected[idx] = true
				}
			}
			return m, nil
		}
	}

	// Let the text input handle other keys and refilter
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.applyFilter()

	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}

	return m, cmd
}

func (m *selectorModel) applyFilter() {
	query := m.input.Value()
	if query == "" {
		m.filtered = make([]fuzzy.Match, len(m.choices))
		for i := range m.choices {
			m.filtered[i] = fuzzy.Match{Str: m.choices[i].Name, Index: i}
		}
		return
	}
	m.filtered = fuzzy.FindFrom(query, choiceSource(m.choices))
}

func (m selectorModel) View() tea.View {
	return tea.NewView(m.render())
}

func (m selectorModel) render() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Select plugins (%d active):\n", len(m.selected)))
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")

	if len(m.filtered) == 0 {
		sb.WriteString(dimStyle.Render("  No matches found"))
		sb.WriteString("\n")
	} else {
		start := 0
		end := len(m.filtered)
		if end > m.maxHeight {
			halfHeight := m.maxHeight / 2
			start = m.cursor - halfHeight
			if start < 0 {
				start = 0
			}
			end = start + m.maxHeight
			if end > len(m.filtered) {
				end = len(m.filtered)
				start = max(0, end-m.maxHeight)
			}
		}

		for i := start; i < end; i++ {
			choice := m.choices[m.filtered[i].Index]

			checkbox := "[ ] "
			if m.selected[m.filtered[i].Index] {
				checkbox = "[x] "
			}

			line := choice.Name
			if choice.Description != "" {
				line = fmt.Sprintf("%s (%s)", choice.Name, choice.Description)
			}

			if i == m.cursor {
				sb.WriteString(cursorStyle.Render("> "))
				sb.WriteString(checkbox)
				sb.WriteString(selectedStyle.Render(line))
			} else {
				sb.WriteString("  ")
				sb.WriteString(checkbox)
				sb.WriteString(unselectedStyle.Render(line))
			}
			sb.WriteString("\n")
		}

		if len(m.filtered) > m.maxHeight {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  %d/%d", m.cursor+1, len(m.filtered))))
		}
	}

	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("↑/↓ navigate • space toggle • enter confirm • esc cancel"))

	return sb.String()
}

// active returns the chosen plugin names in catalog order.
func (m selectorModel) active() []string {
	var names []string
	for i, c := range m.choices {
		if m.selected[i] {
			names = append(names, c.Name)
		}
	}
	return names
}

// RunPluginSelector shows an interactive multi-select picker over the
// plugin catalog, seeded with the currently active set. The TUI
// renders to stderr so stdout stays clean for scripted use.
func RunPluginSelector(choices []PluginChoice) (*SelectorResult, error) {
	if len(choices) == 0 {
		return &SelectorResult{Cancelled: true}, nil
	}

	profile := colorprofile.Detect(os.Stderr, os.Environ())

	model := newSelectorModel(choices)
	p := tea.NewProgram(model,
		tea.WithOutput(os.Stderr),
		tea.WithColorProfile(profile),
	)

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	m := finalModel.(selectorModel)
	if m.cancelled || !m.confirmed {
		return &SelectorResult{Cancelled: true}, nil
	}
	return &SelectorResult{Active: m.active()}, nil
}
