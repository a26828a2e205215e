package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/lifecycle"
	"github.com/akyairhashvil/marathon/internal/models"
	"github.com/akyairhashvil/marathon/internal/util"
)

// View modes.
const (
	viewQueue = iota
	viewUsers
	viewTasks
	viewStats
	viewCount
)

var viewNames = [viewCount]string{"Review Queue", "Users", "Tasks", "Stats"}

type (
	dataMsg struct {
		data consoleData
		err  error
	}
	reviewedMsg struct {
		id       int64
		decision models.Decision
		result   lifecycle.ReviewResult
		err      error
	}
	approvedMsg struct {
		result lifecycle.UserResult
		err    error
	}
	fileMsg struct {
		kind string
		path string
		err  error
	}
)

// ConsoleModel is the administrator console: review queue, users with
// progress, the task catalog and aggregate stats.
type ConsoleModel struct {
	ctx       context.Context
	backend   Backend
	snap      Snapshotter
	exportDir string
	exportKey string
	now       func() time.Time
	keys      *HandlerRegistry

	viewMode int
	cursor   int
	data     consoleData
	loaded   bool

	reviewing bool
	reviewID  int64
	decision  models.Decision
	feedback  textinput.Model

	bar         progress.Model
	Message     string
	statusError string
	width       int
	height      int
}

func NewConsoleModel(ctx context.Context, backend Backend, snap Snapshotter, opts Options) ConsoleModel {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportDir == "" {
		opts.ExportDir = util.ExportsDir(config.AppName)
	}
	ti := textinput.New()
	ti.Placeholder = "feedback for the participant"
	ti.CharLimit = 500
	ti.Width = 56

	return ConsoleModel{
		ctx:       ctx,
		backend:   backend,
		snap:      snap,
		exportDir: opts.ExportDir,
		now:       opts.Now,
		keys:      defaultKeys(),
		feedback:  ti,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(20), progress.WithoutPercentage()),
	}
}

func (m ConsoleModel) Init() tea.Cmd {
	return m.refresh()
}

func (m ConsoleModel) refresh() tea.Cmd {
	ctx, b := m.ctx, m.backend
	return func() tea.Msg {
		data, err := loadConsoleData(ctx, b)
		return dataMsg{data: data, err: err}
	}
}

func (m ConsoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case dataMsg:
		if msg.err != nil {
			m.setStatusError(fmt.Sprintf("Load failed: %v", msg.err))
			return m, nil
		}
		m.data, m.loaded = msg.data, true
		m.clampCursor()
		return m, nil
	case reviewedMsg:
		return m.handleReviewed(msg)
	case approvedMsg:
		if msg.err != nil {
			m.setStatusError(fmt.Sprintf("Approve failed: %v", msg.err))
			return m, nil
		}
		m.setMessage(fmt.Sprintf("Approved @%s", msg.result.User.Username), msg.result.Warnings)
		return m, m.refresh()
	case fileMsg:
		if msg.err != nil {
			m.setStatusError(fmt.Sprintf("%s failed: %v", msg.kind, msg.err))
			return m, nil
		}
		m.setMessage(fmt.Sprintf("%s written to %s", msg.kind, msg.path), nil)
		return m, nil
	case tea.KeyMsg:
		if m.reviewing {
			return m.updateReviewing(msg)
		}
		next, cmd, _ := m.keys.Handle(m, msg.String())
		return next, cmd
	}
	return m, nil
}

func (m ConsoleModel) updateReviewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.reviewing = false
		m.feedback.Blur()
		m.feedback.Reset()
		m.Message = "Review cancelled"
		return m, nil
	case tea.KeyEnter:
		id, d, text := m.reviewID, m.decision, m.feedback.Value()
		m.reviewing = false
		m.feedback.Blur()
		m.feedback.Reset()
		ctx, b := m.ctx, m.backend
		return m, func() tea.Msg {
			res, err := b.Review(ctx, id, d, text)
			return reviewedMsg{id: id, decision: d, result: res, err: err}
		}
	}
	var cmd tea.Cmd
	m.feedback, cmd = m.feedback.Update(msg)
	return m, cmd
}

func (m ConsoleModel) handleReviewed(msg reviewedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setStatusError(fmt.Sprintf("Review of #%d failed: %v", msg.id, msg.err))
		return m, m.refresh()
	}
	text := fmt.Sprintf("Submission #%d: %s", msg.id, msg.decision)
	switch {
	case msg.result.Advanced:
		text += fmt.Sprintf(", @%s moved to day %d", msg.result.User.Username, msg.result.User.CurrentTask)
	case msg.result.Exhausted:
		text += fmt.Sprintf(", @%s has completed every task", msg.result.User.Username)
	}
	m.setMessage(text, msg.result.Warnings)
	return m, m.refresh()
}

func (m *ConsoleModel) setMessage(text string, warnings []error) {
	m.statusError = ""
	m.Message = text
	if len(warnings) > 0 {
		m.Message += fmt.Sprintf(" (%d notification(s) failed)", len(warnings))
	}
}

func (m *ConsoleModel) setStatusError(text string) {
	m.Message = ""
	m.statusError = text
}

func (m ConsoleModel) listLen() int {
	switch m.viewMode {
	case viewQueue:
		return len(m.data.Queue)
	case viewUsers:
		return len(m.data.Users)
	case viewTasks:
		return len(m.data.Tasks)
	}
	return 0
}

func (m *ConsoleModel) clampCursor() {
	n := m.listLen()
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = util.Clamp(m.cursor, 0, n-1)
}

// page returns the page the cursor sits on.
func (m ConsoleModel) page() util.Page {
	return util.Paginate(m.listLen(), m.cursor/config.PageSize, config.PageSize)
}

func defaultKeys() *HandlerRegistry {
	r := NewHandlerRegistry()
	all := []int{viewQueue, viewUsers, viewTasks, viewStats}
	lists := []int{viewQueue, viewUsers, viewTasks}

	r.Register(KeyBinding{Key: "q", Handler: quit, Description: "quit", ViewModes: all})
	r.Register(KeyBinding{Key: "tab", Handler: switchView(1), Description: "next view", ViewModes: all})
	r.Register(KeyBinding{Key: "shift+tab", Handler: switchView(-1), ViewModes: all})
	r.Register(KeyBinding{Key: "ctrl+r", Handler: reload, Description: "refresh", ViewModes: all})
	r.Register(KeyBinding{Key: "j", Handler: moveCursor(1), Description: "down", ViewModes: lists})
	r.Register(KeyBinding{Key: "down", Handler: moveCursor(1), ViewModes: lists})
	r.Register(KeyBinding{Key: "k", Handler: moveCursor(-1), Description: "up", ViewModes: lists})
	r.Register(KeyBinding{Key: "up", Handler: moveCursor(-1), ViewModes: lists})
	r.Register(KeyBinding{Key: "right", Handler: moveCursor(config.PageSize), Description: "next page", ViewModes: lists})
	r.Register(KeyBinding{Key: "left", Handler: moveCursor(-config.PageSize), Description: "prev page", ViewModes: lists})

	r.Register(KeyBinding{Key: "a", Handler: startReview(models.DecisionApprove), Description: "approve", ViewModes: []int{viewQueue}, Priority: 1})
	r.Register(KeyBinding{Key: "r", Handler: startReview(models.DecisionReject), Description: "reject", ViewModes: []int{viewQueue}, Priority: 1})
	r.Register(KeyBinding{Key: "d", Handler: startReview(models.DecisionRedo), Description: "redo", ViewModes: []int{viewQueue}, Priority: 1})
	r.Register(KeyBinding{Key: "a", Handler: approveSelectedUser, Description: "approve user", ViewModes: []int{viewUsers}, Priority: 1})

	r.Register(KeyBinding{Key: "e", Handler: exportSnapshot, Description: "export", ViewModes: all})
	r.Register(KeyBinding{Key: "p", Handler: exportReport, Description: "pdf report", ViewModes: all})
	return r
}

func quit(m ConsoleModel, _ string) (ConsoleModel, tea.Cmd, bool) {
	return m, tea.Quit, true
}

func reload(m ConsoleModel, _ string) (ConsoleModel, tea.Cmd, bool) {
	return m, m.refresh(), true
}

func switchView(delta int) KeyHandler {
	return func(m ConsoleModel, _ string) (ConsoleModel, tea.Cmd, bool) {
		m.viewMode = (m.viewMode + delta + viewCount) % viewCount
		m.cursor = 0
		return m, nil, true
	}
}

func moveCursor(delta int) KeyHandler {
	return func(m ConsoleModel, _ string) (ConsoleModel, tea.Cmd, bool) {
		m.cursor += delta
		m.clampCursor()
		return m, nil, true
	}
}

func startReview(d models.Decision) KeyHandler {
	return func(m ConsoleModel, _ string) (ConsoleModel, tea.Cmd, bool) {
		if len(m.data.Queue) == 0 {
			m.Message = "Nothing to review"
			return m, nil, true
		}
		item := m.data.Queue[m.cursor]
		m.reviewing = true
		m.reviewID = item.Submission.ID
		m.decision = d
		m.feedback.Reset()
		return m, m.feedback.Focus(), true
	}
}

func approveSelectedUser(m ConsoleModel, _ string) (ConsoleModel, tea.Cmd, bool) {
	if len(m.data.Users) == 0 {
		return m, nil, true
	}
	u := m.data.Users[m.cursor].User
	if u.Approved {
		m.Message = fmt.Sprintf("@%s is already approved", u.Username)
		return m, nil, true
	}
	ctx, b := m.ctx, m.backend
	return m, func() tea.Msg {
		res, err := b.ApproveUser(ctx, u.ID)
		return approvedMsg{result: res, err: err}
	}, true
}

func exportSnapshot(m ConsoleModel, _ string) (ConsoleModel, tea.Cmd, bool) {
	if m.snap == nil {
		m.setStatusError("Export unavailable")
		return m, nil, true
	}
	ctx, snap, dir, key, now := m.ctx, m.snap, m.exportDir, m.exportKey, m.now()
	return m, func() tea.Msg {
		path, err := ExportSnapshot(ctx, snap, dir, key, now)
		return fileMsg{kind: "Export", path: path, err: err}
	}, true
}

func exportReport(m ConsoleModel, _ string) (ConsoleModel, tea.Cmd, bool) {
	if !m.loaded {
		m.setStatusError("Data not loaded yet")
		return m, nil, true
	}
	data, dir, now := m.data, m.exportDir, m.now()
	return m, func() tea.Msg {
		path, err := GenerateProgressReport(data, dir, now)
		return fileMsg{kind: "Report", path: path, err: err}
	}, true
}
