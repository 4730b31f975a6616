package tui

import (
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// View types that support TUI mode.
const (
	ViewInspectReport   = "inspect_report"
	ViewInspectFrames   = "inspect_frames"
	ViewStatsValidation = "stats_validation"
)

// viewFunc renders a payload. It reports false when the payload has the
// wrong type for the view.
type viewFunc func(data any) (string, bool)

var views = map[string]viewFunc{
	ViewInspectReport:   reportView,
	ViewInspectFrames:   framesView,
	ViewStatsValidation: validationView,
}

// IsTUISupported reports whether viewType has a TUI rendering.
func IsTUISupported(viewType string) bool {
	_, ok := views[viewType]
	return ok
}

// SupportedTUIViews returns the view types with a TUI rendering, sorted.
func SupportedTUIViews() []string {
	return slices.Sorted(maps.Keys(views))
}

// Run starts an interactive program for viewType.
func Run(viewType string, data any) error {
	if !IsTUISupported(viewType) {
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
	_, err := tea.NewProgram(NewModel(viewType, data), tea.WithAltScreen()).Run()
	return err
}

// RenderStatic renders a view once, without starting a program.
func RenderStatic(viewType string, data any) string {
	return pageStyle.Render(NewModel(viewType, data).View())
}

type keyMap struct {
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Quit} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Model is the Bubble Tea model shared by all views.
type Model struct {
	viewType string
	data     any
	help     help.Model
	quitting bool
}

// NewModel creates a model for viewType over data.
func NewModel(viewType string, data any) Model {
	return Model{viewType: viewType, data: data, help: help.New()}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	render, ok := views[m.viewType]
	if !ok {
		return fmt.Sprintf("Unknown view type: %s", m.viewType)
	}
	body, ok := render(m.data)
	if !ok {
		body = fmt.Sprintf("Invalid data type for %s", m.viewType)
	}
	return body + "\n\n" + m.help.View(keys)
}
