package ui

import (
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Status is the state of one component in the dashboard
type Status int

const (
	StatusPending Status = iota
	StatusOK
	StatusWarning
	StatusFailed
)

// FileResult is the outcome of compiling one component
type FileResult struct {
	Path     string
	Output   string
	Status   Status
	Cached   bool
	Messages []string
}

// Messages sent by the watch loop
type (
	// BuildStartedMsg announces a rebuild of Files
	BuildStartedMsg struct{ Files []string }

	// BuildFinishedMsg carries the results of a rebuild
	BuildFinishedMsg struct {
		Results []FileResult
		Elapsed time.Duration
	}

	// RemovedMsg drops deleted components from the list
	RemovedMsg struct{ Files []string }

	// LogMsg appends a line to the activity log
	LogMsg string
)

const maxLogLines = 50

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Clear key.Binding
	Help  key.Binding
	Quit  key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear log"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
}

// Model is the watch dashboard state
type Model struct {
	// Window dimensions
	width  int
	height int

	title string

	// Components, sorted by path
	files    []FileResult
	selected int

	// Build state
	building bool
	builds   int
	elapsed  time.Duration
	lastAt   time.Time

	logs []string

	// UI components
	spinner spinner.Model
	detail  viewport.Model

	showHelp bool
	quitting bool
}

// NewModel creates the dashboard for the project rooted at dir
func NewModel(dir string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		title:   dir,
		spinner: s,
		detail:  viewport.New(80, 8),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = max(msg.Width-6, 20)
		m.detail.Height = max(msg.Height/3, 4)
		m.refreshDetail()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, DefaultKeyMap.Help):
			m.showHelp = !m.showHelp
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.selected > 0 {
				m.selected--
				m.refreshDetail()
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.selected < len(m.files)-1 {
				m.selected++
				m.refreshDetail()
			}
		case key.Matches(msg, DefaultKeyMap.Clear):
			m.logs = nil
		}
		return m, nil

	case BuildStartedMsg:
		m.building = true
		m.log("building %d component(s)", len(msg.Files))
		return m, nil

	case BuildFinishedMsg:
		m.building = false
		m.builds++
		m.elapsed = msg.Elapsed
		m.lastAt = time.Now()
		failed := 0
		for _, r := range msg.Results {
			m.upsert(r)
			if r.Status == StatusFailed {
				failed++
			}
		}
		if failed > 0 {
			m.log("%d of %d component(s) failed", failed, len(msg.Results))
		} else {
			m.log("built %d component(s) in %v", len(msg.Results), msg.Elapsed.Round(time.Millisecond))
		}
		m.refreshDetail()
		return m, nil

	case RemovedMsg:
		for _, path := range msg.Files {
			m.remove(path)
			m.log("removed %s", path)
		}
		m.refreshDetail()
		return m, nil

	case LogMsg:
		m.log("%s", string(msg))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// upsert replaces the entry for r.Path or inserts it in path order.
func (m *Model) upsert(r FileResult) {
	i := sort.Search(len(m.files), func(i int) bool { return m.files[i].Path >= r.Path })
	if i < len(m.files) && m.files[i].Path == r.Path {
		m.files[i] = r
		return
	}
	m.files = append(m.files, FileResult{})
	copy(m.files[i+1:], m.files[i:])
	m.files[i] = r
}

func (m *Model) remove(path string) {
	for i, f := range m.files {
		if f.Path == path {
			m.files = append(m.files[:i], m.files[i+1:]...)
			break
		}
	}
	if m.selected >= len(m.files) {
		m.selected = max(len(m.files)-1, 0)
	}
}

// Selected returns the highlighted component.
func (m Model) Selected() (FileResult, bool) {
	if m.selected < len(m.files) {
		return m.files[m.selected], true
	}
	return FileResult{}, false
}

// Files returns the components in display order.
func (m Model) Files() []FileResult {
	return m.files
}

// Quitting reports whether the user asked to exit.
func (m Model) Quitting() bool {
	return m.quitting
}
