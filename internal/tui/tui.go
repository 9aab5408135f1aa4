// Package tui provides a Bubble Tea terminal user interface for tlc-downloader.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/tlc-downloader/internal/config"
	"github.com/handiism/tlc-downloader/internal/download"
	"github.com/handiism/tlc-downloader/internal/model"
	tlcprogress "github.com/handiism/tlc-downloader/internal/progress"
)

// State represents the current UI state.
type State int

const (
	StateType State = iota
	StateMode
	StateStart
	StateEnd
	StateOutput
	StateInitializing
	StateDownloading
	StateComplete
	StateError
)

// Mode selects between a single month and a range.
type Mode int

const (
	ModeSingle Mode = iota
	ModeRange
)

var modeChoices = []string{"Single month", "Date range"}

const maxLogs = 10

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// eventBuffer collects progress events from worker goroutines until the
// next tick drains them.
type eventBuffer struct {
	mu     sync.Mutex
	events []download.ProgressEvent
}

func (b *eventBuffer) push(e download.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *eventBuffer) drain() []download.ProgressEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.events
	b.events = nil
	return out
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	fileBar   progress.Model
	settings  *config.Settings
	logs      []LogEntry
	events    *eventBuffer
	err       error
	inputErr  string

	// Wizard selections
	cursor   int
	dataType string
	mode     Mode
	start    model.DateKey
	end      model.DateKey
	output   string

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	// Download manager reference
	manager    *download.Manager
	cancelling bool

	// Download progress
	snapshot tlcprogress.Snapshot
	files    []tlcprogress.TaskSnapshot
	summary  *download.Summary

	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model. settings supplies the defaults offered
// by the wizard; nil means config.DefaultSettings.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7C948"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	fileBar := progress.New(progress.WithSolidFill("#4ECDC4"), progress.WithoutPercentage())
	fileBar.Width = 20

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		state:     StateType,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		fileBar:   fileBar,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		events:    &eventBuffer{},
		ctx:       ctx,
		cancel:    cancel,
	}
	for i, t := range model.DataTypes {
		if t == settings.Type {
			m.cursor = i
		}
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// InitDoneMsg is sent when planning and size probing complete.
	InitDoneMsg struct {
		Manager *download.Manager
		Err     error
	}

	// DownloadDoneMsg is sent when every task reached a terminal state.
	DownloadDoneMsg struct {
		Summary *download.Summary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case InitDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.manager = msg.Manager
			m.state = StateDownloading
			// Start the actual download and tick for progress updates
			cmds = append(cmds, m.startDownload(), m.tickProgress())
		}
		m.collectEvents()

	case DownloadDoneMsg:
		m.collectEvents()
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			break
		}
		m.summary = msg.Summary
		m.snapshot = m.manager.GetProgress()
		m.files = m.manager.Tasks()
		m.state = StateComplete
		cmds = append(cmds, m.progress.SetPercent(m.snapshot.Percent()))

	case TickMsg:
		// Update progress from manager
		if m.manager != nil && m.state == StateDownloading {
			m.snapshot = m.manager.GetProgress()
			m.files = m.manager.Tasks()
			m.collectEvents()
			cmds = append(cmds, m.progress.SetPercent(m.snapshot.Percent()), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.inputActive() {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes key presses. handled reports whether Update should
// return immediately.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		if m.manager != nil {
			m.manager.Cancel()
		}
		return m, tea.Quit, true

	case "esc":
		switch m.state {
		case StateType:
			return m, tea.Quit, true
		case StateMode, StateStart, StateEnd, StateOutput:
			m.back()
			return m, nil, true
		case StateInitializing, StateDownloading:
			m.cancel()
			if m.manager != nil {
				m.manager.Cancel()
			}
			m.cancelling = true
			return m, nil, true
		}

	case "up", "k":
		if m.state == StateType || m.state == StateMode {
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil, true
		}

	case "down", "j":
		if m.state == StateType || m.state == StateMode {
			if m.cursor < len(m.choices())-1 {
				m.cursor++
			}
			return m, nil, true
		}

	case "enter":
		return m.advance()

	case "v":
		if m.state == StateType || m.state == StateMode {
			m.verbose = !m.verbose
			return m, nil, true
		}

	case "q":
		if m.state == StateComplete || m.state == StateError {
			return m, tea.Quit, true
		}

	case "r":
		if m.state == StateComplete || m.state == StateError {
			m.reset()
			return m, nil, true
		}
	}
	return m, nil, false
}

// advance validates the current wizard step and moves to the next one.
func (m Model) advance() (Model, tea.Cmd, bool) {
	m.inputErr = ""

	switch m.state {
	case StateType:
		m.dataType = model.DataTypes[m.cursor]
		m.state = StateMode
		m.cursor = int(m.mode)

	case StateMode:
		m.mode = Mode(m.cursor)
		m.state = StateStart
		m.focusInput("2023-01", "")

	case StateStart:
		key, err := model.ParseDateKey(strings.TrimSpace(m.textInput.Value()))
		if err != nil {
			m.inputErr = err.Error()
			return m, nil, true
		}
		m.start = key
		if m.mode == ModeSingle {
			m.end = key
			m.state = StateOutput
			m.focusInput("./data", m.settings.Output)
		} else {
			m.state = StateEnd
			m.focusInput(key.String(), "")
		}

	case StateEnd:
		key, err := model.ParseDateKey(strings.TrimSpace(m.textInput.Value()))
		if err != nil {
			m.inputErr = err.Error()
			return m, nil, true
		}
		if key.Before(m.start) {
			m.inputErr = fmt.Sprintf("end month must not be before %s", m.start)
			return m, nil, true
		}
		m.end = key
		m.state = StateOutput
		m.focusInput("./data", m.settings.Output)

	case StateOutput:
		out := strings.TrimSpace(m.textInput.Value())
		if out == "" {
			m.inputErr = "output directory is required"
			return m, nil, true
		}
		m.output = out
		m.textInput.Blur()
		m.state = StateInitializing
		return m, tea.Batch(m.initializeDownload(), m.spinner.Tick), true

	default:
		return m, nil, false
	}
	return m, nil, true
}

// back returns to the previous wizard step.
func (m *Model) back() {
	m.inputErr = ""
	switch m.state {
	case StateMode:
		m.state = StateType
		for i, t := range model.DataTypes {
			if t == m.dataType {
				m.cursor = i
			}
		}
	case StateStart:
		m.textInput.Blur()
		m.state = StateMode
		m.cursor = int(m.mode)
	case StateEnd:
		m.state = StateStart
		m.focusInput("2023-01", m.start.String())
	case StateOutput:
		if m.mode == ModeRange {
			m.state = StateEnd
			m.focusInput(m.start.String(), m.end.String())
		} else {
			m.state = StateStart
			m.focusInput("2023-01", m.start.String())
		}
	}
}

func (m *Model) focusInput(placeholder, value string) {
	m.textInput.Placeholder = placeholder
	m.textInput.SetValue(value)
	m.textInput.CursorEnd()
	m.textInput.Focus()
}

func (m Model) inputActive() bool {
	return m.state == StateStart || m.state == StateEnd || m.state == StateOutput
}

func (m Model) choices() []string {
	if m.state == StateMode {
		return modeChoices
	}
	return model.DataTypes
}

// reset prepares the model for a new download, keeping the previous answers
// as defaults.
func (m *Model) reset() {
	m.state = StateType
	m.logs = nil
	m.events.drain()
	m.err = nil
	m.inputErr = ""
	m.manager = nil
	m.cancelling = false
	m.snapshot = tlcprogress.Snapshot{}
	m.files = nil
	m.summary = nil
	m.ctx, m.cancel = context.WithCancel(context.Background())
	for i, t := range model.DataTypes {
		if t == m.dataType {
			m.cursor = i
		}
	}
}

// collectEvents moves buffered progress events into the visible log.
func (m *Model) collectEvents() {
	for _, e := range m.events.drain() {
		// Filter verbose messages if not in verbose mode
		if e.Level == download.LevelVerbose && !m.verbose {
			continue
		}
		m.logs = append(m.logs, LogEntry{Message: e.Message, Level: e.Level})
	}
	// Keep only the most recent logs
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// runOptions returns the download options chosen in the wizard.
func (m Model) runOptions() download.Options {
	settings := *m.settings
	settings.Type = m.dataType
	settings.Output = m.output
	return settings.ToOptions(m.start.String(), m.end.String())
}

// initializeDownload plans the run and probes file sizes.
func (m Model) initializeDownload() tea.Cmd {
	opts := m.runOptions()
	ctx := m.ctx
	events := m.events
	managerOpts := m.settings.ManagerOptions()

	return func() tea.Msg {
		manager := download.NewManager(opts, events.push, managerOpts...)
		if err := manager.Initialize(ctx); err != nil {
			return InitDoneMsg{Err: err}
		}
		return InitDoneMsg{Manager: manager}
	}
}

// startDownload starts the actual download in background.
func (m Model) startDownload() tea.Cmd {
	manager := m.manager
	ctx := m.ctx

	return func() tea.Msg {
		if manager == nil {
			return DownloadDoneMsg{Err: errors.New("no manager")}
		}
		summary, err := manager.StartDownloads(ctx)
		return DownloadDoneMsg{Summary: summary, Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
