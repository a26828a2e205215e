package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/akyairhashvil/marathon/internal/config"
	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/lifecycle"
	"github.com/akyairhashvil/marathon/internal/models"
	"github.com/akyairhashvil/marathon/internal/notify"
	"github.com/akyairhashvil/marathon/internal/util"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

type consoleEnv struct {
	ctx    context.Context
	db     *database.Database
	engine *lifecycle.Engine
	alice  models.User
	subID  int64
}

func setupConsoleEnv(t *testing.T) *consoleEnv {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, filepath.Join(t.TempDir(), "console.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("db close failed: %v", err)
		}
	})
	quiet := notify.SenderFunc(func(context.Context, notify.Message) error { return nil })
	engine, err := lifecycle.New(lifecycle.Deps{
		Store:    db,
		Notifier: notify.NewDispatcher(quiet, time.Second, util.Discard()),
		Admins:   config.NewAdmins("900"),
		Logger:   util.Discard(),
	})
	if err != nil {
		t.Fatalf("lifecycle.New failed: %v", err)
	}

	for day, text := range map[int]string{1: "Introduce yourself", 2: "Describe your city"} {
		if _, err := engine.AddTask(ctx, day, text); err != nil {
			t.Fatalf("AddTask failed: %v", err)
		}
	}
	alice, _, err := engine.RegisterUser(ctx, "101", "alice")
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	if _, err := engine.ApproveUser(ctx, alice.ID); err != nil {
		t.Fatalf("ApproveUser failed: %v", err)
	}
	if _, _, err := engine.SelectTask(ctx, alice.ID, 1); err != nil {
		t.Fatalf("SelectTask failed: %v", err)
	}
	res, err := engine.Submit(ctx, alice.ID, "voice/alice-1.ogg")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, _, err := engine.RegisterUser(ctx, "102", "bob"); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	return &consoleEnv{ctx: ctx, db: db, engine: engine, alice: alice, subID: res.Submission.ID}
}

func (e *consoleEnv) console(t *testing.T, exportKey string) ConsoleModel {
	t.Helper()
	m := NewConsoleModel(e.ctx, e.engine, e.db, Options{ExportDir: t.TempDir(), Now: func() time.Time { return fixedNow }})
	m.exportKey = exportKey
	return apply(t, m, m.Init()())
}

func apply(t *testing.T, m ConsoleModel, msg tea.Msg) ConsoleModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(ConsoleModel)
}

// run feeds msg to m and then delivers the command's result back to m.
func run(t *testing.T, m ConsoleModel, msg tea.Msg) ConsoleModel {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(ConsoleModel)
	if cmd == nil {
		t.Fatalf("expected a command for %v", msg)
	}
	return apply(t, m, cmd())
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConsoleLoadsData(t *testing.T) {
	env := setupConsoleEnv(t)
	m := env.console(t, "")
	if !m.loaded {
		t.Fatalf("expected data loaded, status error %q", m.statusError)
	}
	if len(m.data.Queue) != 1 || m.data.Queue[0].Username != "alice" || m.data.Queue[0].Day != 1 {
		t.Fatalf("unexpected queue %+v", m.data.Queue)
	}
	if len(m.data.Users) != 2 || m.data.Users[0].Progress.Total != 2 {
		t.Fatalf("unexpected users %+v", m.data.Users)
	}
	view := m.View()
	if !strings.Contains(view, "Review Queue") || !strings.Contains(view, "@alice") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestConsoleReviewApproves(t *testing.T) {
	env := setupConsoleEnv(t)
	m := env.console(t, "")

	m = apply(t, m, key("a"))
	if !m.reviewing || m.decision != models.DecisionApprove || m.reviewID != env.subID {
		t.Fatalf("expected approve prompt, got reviewing=%v decision=%s id=%d", m.reviewing, m.decision, m.reviewID)
	}
	m = apply(t, m, key("Well done"))
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.statusError != "" {
		t.Fatalf("unexpected error %q", m.statusError)
	}
	if !strings.Contains(m.Message, "moved to day 2") {
		t.Fatalf("unexpected message %q", m.Message)
	}

	sub, err := env.engine.Submission(env.ctx, env.subID)
	if err != nil {
		t.Fatalf("Submission failed: %v", err)
	}
	if sub.Status != models.SubmissionApproved || sub.FeedbackText != "Well done" {
		t.Fatalf("unexpected submission %+v", sub)
	}

	// The refresh command reloads the queue.
	next, cmd := m.Update(key("x"))
	m = next.(ConsoleModel)
	if cmd != nil {
		t.Fatalf("unbound key should not produce a command")
	}
	m = run(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if len(m.data.Queue) != 0 {
		t.Fatalf("expected empty queue after review, got %d", len(m.data.Queue))
	}
}

func TestConsoleReviewCancel(t *testing.T) {
	env := setupConsoleEnv(t)
	m := env.console(t, "")
	m = apply(t, m, key("d"))
	m = apply(t, m, key("try again"))
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.reviewing || m.Message != "Review cancelled" {
		t.Fatalf("expected cancelled review, got reviewing=%v message=%q", m.reviewing, m.Message)
	}
	sub, _ := env.engine.Submission(env.ctx, env.subID)
	if sub.Status != models.SubmissionPending {
		t.Fatalf("cancel must not change the submission, got %s", sub.Status)
	}
}

func TestConsoleReviewConflictReported(t *testing.T) {
	env := setupConsoleEnv(t)
	m := env.console(t, "")
	if _, err := env.engine.Review(env.ctx, env.subID, models.DecisionReject, "elsewhere"); err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	m = apply(t, m, key("a"))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = apply(t, next.(ConsoleModel), cmd())
	if !strings.Contains(m.statusError, "failed") {
		t.Fatalf("expected review failure, got %q", m.statusError)
	}
}

func TestConsoleApproveUser(t *testing.T) {
	env := setupConsoleEnv(t)
	m := env.console(t, "")
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.viewMode != viewUsers {
		t.Fatalf("expected users view, got %d", m.viewMode)
	}

	m = apply(t, m, key("a"))
	if !strings.Contains(m.Message, "already approved") {
		t.Fatalf("expected already approved message, got %q", m.Message)
	}

	m = apply(t, m, key("j"))
	m = run(t, m, key("a"))
	if !strings.Contains(m.Message, "Approved @bob") {
		t.Fatalf("unexpected message %q (error %q)", m.Message, m.statusError)
	}
	bob, err := env.engine.UserByHandle(env.ctx, "102")
	if err != nil || !bob.Approved {
		t.Fatalf("expected bob approved, got %+v (%v)", bob, err)
	}
}

func TestConsoleNavigation(t *testing.T) {
	env := setupConsoleEnv(t)
	m := env.console(t, "")
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.viewMode != viewStats {
		t.Fatalf("shift+tab from the queue should wrap to stats, got %d", m.viewMode)
	}
	if view := m.View(); !strings.Contains(view, "Submissions:  1") {
		t.Fatalf("unexpected stats view:\n%s", view)
	}
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = apply(t, m, key("j"))
	m = apply(t, m, key("j"))
	if m.viewMode != viewTasks || m.cursor != 1 {
		t.Fatalf("cursor must stop at the last task, got view=%d cursor=%d", m.viewMode, m.cursor)
	}
	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Fatalf("q should quit")
	}
}

func TestConsoleExportSnapshot(t *testing.T) {
	env := setupConsoleEnv(t)

	m := env.console(t, "")
	m = run(t, m, key("e"))
	path := strings.TrimPrefix(m.Message, "Export written to ")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("export not written (%q): %v", m.Message, err)
	}
	if !strings.Contains(string(data), `"alice"`) {
		t.Fatalf("plain export should contain usernames")
	}

	m = env.console(t, "marathon2026")
	m = run(t, m, key("e"))
	sealed, err := os.ReadFile(strings.TrimPrefix(m.Message, "Export written to "))
	if err != nil {
		t.Fatalf("sealed export not written: %v", err)
	}
	if strings.Contains(string(sealed), "alice") || !strings.Contains(string(sealed), `"encrypted":true`) {
		t.Fatalf("expected sealed export, got %s", sealed)
	}

	other, err := database.Open(env.ctx, filepath.Join(t.TempDir(), "restore.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer other.Close()
	if err := other.ImportSnapshot(env.ctx, sealed, "marathon2026"); err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}
	if u, err := other.GetUserByUsername(env.ctx, "alice"); err != nil || !u.Approved {
		t.Fatalf("restored user mismatch %+v (%v)", u, err)
	}
}

func TestConsoleReport(t *testing.T) {
	env := setupConsoleEnv(t)
	m := env.console(t, "")
	m = run(t, m, key("p"))
	path := strings.TrimPrefix(m.Message, "Report written to ")
	if filepath.Base(path) != "marathon_report_20260301_093000.pdf" {
		t.Fatalf("unexpected report path %q (error %q)", path, m.statusError)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.HasPrefix(string(data), "%PDF") {
		t.Fatalf("expected PDF report: %v", err)
	}
}

func TestKeyRegistryHelp(t *testing.T) {
	r := defaultKeys()
	queue := r.HelpForView(viewQueue)
	if !strings.Contains(queue, "[a]approve") || strings.Contains(queue, "approve user") {
		t.Fatalf("unexpected queue help %q", queue)
	}
	if users := r.HelpForView(viewUsers); !strings.Contains(users, "[a]approve user") || strings.Contains(users, "[d]redo") {
		t.Fatalf("unexpected users help %q", users)
	}
	if stats := r.HelpForView(viewStats); strings.Contains(stats, "[j]") {
		t.Fatalf("stats view has no list keys, got %q", stats)
	}
}
