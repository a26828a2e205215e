package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akyairhashvil/marathon/internal/config"
)

// SessionState defines the high-level mode of the application.
type SessionState int

const (
	StateLocked SessionState = iota
	StateConsole
)

type Options struct {
	// PassphraseHash locks the console behind a bcrypt-hashed passphrase when set.
	PassphraseHash string
	// ExportDir receives snapshot exports and PDF reports.
	ExportDir string
	Theme     string
	// AutoLock relocks an unlocked console after this much inactivity.
	// Defaults to config.AutoLockAfter.
	AutoLock time.Duration
	Now      func() time.Time
}

type lockTickMsg time.Time

// MainModel is the root bubbletea model: a lock screen in front of the console.
type MainModel struct {
	state     SessionState
	auth      *authHandler
	textInput textinput.Model
	message   string
	console   ConsoleModel
	autoLock  time.Duration
	lastInput time.Time
	width     int
	height    int
}

func NewMainModel(ctx context.Context, backend Backend, snap Snapshotter, opts Options) MainModel {
	if opts.Theme != "" {
		SetTheme(opts.Theme)
	}
	if opts.AutoLock <= 0 {
		opts.AutoLock = config.AutoLockAfter
	}
	m := MainModel{
		auth:     newAuthHandler(opts.PassphraseHash, opts.Now),
		console:  NewConsoleModel(ctx, backend, snap, opts),
		autoLock: opts.AutoLock,
	}
	ti := textinput.New()
	ti.Placeholder = "passphrase"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Width = 30
	m.textInput = ti

	if !m.auth.Required() {
		m.state = StateConsole
		return m
	}
	m.state = StateLocked
	m.textInput.Focus()
	return m
}

func lockTick() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg { return lockTickMsg(t) })
}

func (m MainModel) Init() tea.Cmd {
	if m.state == StateConsole {
		return m.console.Init()
	}
	return textinput.Blink
}

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		m.lastInput = m.auth.now()
	case lockTickMsg:
		return m.checkAutoLock()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	switch m.state {
	case StateLocked:
		return m.updateLocked(msg)
	case StateConsole:
		next, cmd := m.console.Update(msg)
		m.console = next.(ConsoleModel)
		return m, cmd
	}
	return m, nil
}

func (m MainModel) updateLocked(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		entered := strings.TrimSpace(m.textInput.Value())
		result := m.auth.ValidatePassphrase(entered)
		m.textInput.Reset()
		if !result.Success {
			m.message = result.Message
			if !result.ShouldRetry {
				return m, tea.Quit
			}
			return m, nil
		}
		m.state = StateConsole
		m.message = ""
		// The unlock passphrase also seals exported snapshots.
		m.console.exportKey = entered
		m.console.width, m.console.height = m.width, m.height
		return m, tea.Batch(m.console.Init(), lockTick())
	}
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// checkAutoLock relocks the console once it has been idle for autoLock.
func (m MainModel) checkAutoLock() (tea.Model, tea.Cmd) {
	if m.state != StateConsole || !m.auth.Required() {
		return m, nil
	}
	if m.auth.now().Sub(m.lastInput) < m.autoLock {
		return m, lockTick()
	}
	m.state = StateLocked
	m.message = "Locked after inactivity"
	m.console.exportKey = ""
	m.textInput.Reset()
	return m, m.textInput.Focus()
}

func (m MainModel) View() string {
	if m.state == StateConsole {
		return m.console.View()
	}
	var b strings.Builder
	b.WriteString(CurrentTheme.Header.Render("🔒 Marathon Admin Console"))
	b.WriteString("\n\n  Enter the admin passphrase to continue.\n\n  ")
	b.WriteString(m.textInput.View())
	if m.message != "" {
		b.WriteString("\n\n  ")
		b.WriteString(CurrentTheme.Error.Render(m.message))
	}
	b.WriteString("\n\n")
	b.WriteString(CurrentTheme.Dim.Render("  ctrl+c to quit"))
	return CurrentTheme.Base.Render(b.String())
}
