package ui

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/sunface/internal/face"
	"github.com/five82/sunface/internal/logtail"
	"github.com/five82/sunface/internal/prefs"
	"github.com/five82/sunface/internal/state"
)

// Surface is the render engine as seen from the terminal. Implementations
// marshal every call onto the engine's loop; Draw blocks until the frame is
// ready or ctx is done.
type Surface interface {
	Draw(ctx context.Context, bounds image.Rectangle) (face.Frame, error)
	SetVisible(visible bool)
	SetAmbient(on bool)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Surface   Surface
	Status    func() state.Status
	LogPath   string
	PrefsPath string
	ThemeName string
	Interval  time.Duration // status refresh; zero uses DefaultInterval
}

// DefaultInterval is the default status and log refresh interval.
const DefaultInterval = time.Second

const (
	drawTimeout = time.Second
	footerLogs  = 3
	chromeRows  = 2 // footer + help bar
)

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	surface   Surface
	statusFn  func() state.Status
	logPath   string
	prefsPath string
	interval  time.Duration

	theme Theme
	keys  keyMap
	help  help.Model

	width    int
	height   int
	ready    bool
	showHelp bool

	visible bool
	ambient bool
	frame   []string

	status state.Status
	logs   []logtail.Entry
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	return Model{
		ctx:       ctx,
		surface:   opts.Surface,
		statusFn:  opts.Status,
		logPath:   opts.LogPath,
		prefsPath: prefsPath,
		interval:  interval,
		theme:     GetTheme(opts.ThemeName),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		visible:   true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(m.interval),
		m.refreshCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, m.drawCmd()

	case InvalidateMsg:
		return m, m.drawCmd()

	case frameMsg:
		// A frame drawn for an older size is dropped; the resize already
		// requested a new one.
		if msg.cols == m.width && msg.rows == m.faceRows() {
			m.frame = msg.lines
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), tickCmd(m.interval))

	case refreshMsg:
		m.status = msg.status
		m.logs = msg.logs
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderFace())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Ambient):
		m.ambient = !m.ambient
		if m.surface != nil {
			m.surface.SetAmbient(m.ambient)
		}
		return m, nil

	case key.Matches(msg, m.keys.Visibility):
		m.visible = !m.visible
		if m.surface != nil {
			m.surface.SetVisible(m.visible)
		}
		if !m.visible {
			m.frame = nil
			return m, nil
		}
		return m, m.drawCmd()

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.prefsPath != "" {
			saved, _ := prefs.Load(m.prefsPath)
			saved.Theme = m.theme.Name
			_ = prefs.Save(m.prefsPath, saved)
		}
		return m, nil
	}
	return m, nil
}

// faceRows is the number of text rows given to the face.
func (m Model) faceRows() int {
	return max(m.height-chromeRows, 0)
}

func (m Model) renderFace() string {
	rows := m.faceRows()
	if rows == 0 {
		return ""
	}
	if !m.visible || len(m.frame) == 0 {
		styles := m.theme.Styles()
		msg := "display off · v to wake"
		if m.visible {
			msg = "waiting for first frame"
		}
		return lipgloss.Place(m.width, rows, lipgloss.Center, lipgloss.Center,
			styles.FaintText.Render(msg),
			lipgloss.WithWhitespaceBackground(lipgloss.Color(m.theme.Background)))
	}
	return strings.Join(m.frame, "\n")
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")
	full := m.help
	full.ShowAll = true
	b.WriteString(full.View(m.keys))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)))
}

// Messages

// InvalidateMsg asks the model to fetch a fresh frame. Hosts send it with
// Program.Send when the engine requests a redraw.
type InvalidateMsg struct{}

type tickMsg time.Time

type frameMsg struct {
	cols, rows int
	lines      []string
}

type refreshMsg struct {
	status state.Status
	logs   []logtail.Entry
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) drawCmd() tea.Cmd {
	if m.surface == nil || !m.visible || !m.ready {
		return nil
	}
	cols, rows := m.width, m.faceRows()
	bounds := pixelBounds(cols, rows)
	if bounds.Empty() {
		return nil
	}
	surface, parent := m.surface, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, drawTimeout)
		defer cancel()
		frame, err := surface.Draw(ctx, bounds)
		if err != nil || frame.Empty() {
			return nil
		}
		return frameMsg{cols: cols, rows: rows, lines: renderRaster(frame.Raster(), rows)}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	statusFn, logPath := m.statusFn, m.logPath
	return func() tea.Msg {
		var msg refreshMsg
		if statusFn != nil {
			msg.status = statusFn()
		}
		if logPath != "" {
			msg.logs, _ = logtail.Recent(logPath, footerLogs)
		}
		return msg
	}
}

// NewProgram builds the Bubble Tea program for opts. Callers keep the
// program to Send InvalidateMsg.
func NewProgram(opts Options) *tea.Program {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
}
