package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/akyairhashvil/marathon/internal/models"
)

const labelWidth = 40

func (m ConsoleModel) View() string {
	var b strings.Builder
	b.WriteString(CurrentTheme.Header.Render("🏃 Marathon Admin Console"))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if !m.loaded && m.statusError == "" {
		b.WriteString(CurrentTheme.Dim.Render("Loading..."))
	} else {
		switch m.viewMode {
		case viewQueue:
			b.WriteString(m.renderQueue())
		case viewUsers:
			b.WriteString(m.renderUsers())
		case viewTasks:
			b.WriteString(m.renderTasks())
		case viewStats:
			b.WriteString(m.renderStats())
		}
	}

	if m.reviewing {
		b.WriteString("\n\n")
		title := fmt.Sprintf("%s submission #%d", strings.ToUpper(string(m.decision)), m.reviewID)
		b.WriteString(CurrentTheme.Input.Render(title + "\n" + m.feedback.View()))
		b.WriteString("\n")
		b.WriteString(CurrentTheme.Dim.Render("[enter]submit|[esc]cancel"))
	}

	b.WriteString("\n\n")
	switch {
	case m.statusError != "":
		b.WriteString(CurrentTheme.Error.Render(m.statusError))
		b.WriteString("\n")
	case m.Message != "":
		b.WriteString(CurrentTheme.Highlight.Render(m.Message))
		b.WriteString("\n")
	}
	if !m.reviewing {
		b.WriteString(CurrentTheme.Dim.Render(m.keys.HelpForView(m.viewMode)))
	}
	return CurrentTheme.Base.Render(b.String())
}

func (m ConsoleModel) renderTabs() string {
	tabs := make([]string, 0, viewCount)
	for i, name := range viewNames {
		if i == m.viewMode {
			tabs = append(tabs, CurrentTheme.ActiveTab.Render(name))
		} else {
			tabs = append(tabs, CurrentTheme.Tab.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderRows draws the cursor's page of n rows using line(i) for each index.
func (m ConsoleModel) renderRows(n int, line func(i int) string) string {
	p := m.page()
	end := p.Offset + p.Size
	if end > n {
		end = n
	}
	var b strings.Builder
	for i := p.Offset; i < end; i++ {
		if i == m.cursor {
			b.WriteString(CurrentTheme.Selected.Render("> " + line(i)))
		} else {
			b.WriteString(CurrentTheme.Row.Render("  " + line(i)))
		}
		b.WriteString("\n")
	}
	b.WriteString(CurrentTheme.Dim.Render(fmt.Sprintf("Page %d/%d", p.Number+1, p.Count)))
	return b.String()
}

func (m ConsoleModel) renderQueue() string {
	if len(m.data.Queue) == 0 {
		return CurrentTheme.Dim.Render("No pending submissions.")
	}
	return m.renderRows(len(m.data.Queue), func(i int) string {
		q := m.data.Queue[i]
		return fmt.Sprintf("#%-4d @%-16s Day %-3d %s  %s",
			q.Submission.ID, truncateLabel(q.Username, 16), q.Day,
			truncateLabel(q.TaskText, labelWidth), q.Submission.CreatedAt.Format("2006-01-02 15:04"))
	})
}

func (m ConsoleModel) renderUsers() string {
	if len(m.data.Users) == 0 {
		return CurrentTheme.Dim.Render("No users yet.")
	}
	return m.renderRows(len(m.data.Users), func(i int) string {
		r := m.data.Users[i]
		if !r.User.Approved {
			return fmt.Sprintf("%-4d @%-16s %s", r.User.ID, truncateLabel(r.User.Username, 16),
				CurrentTheme.Pending.Render("awaiting approval"))
		}
		return fmt.Sprintf("%-4d @%-16s day %-3d %s %s finished:%s",
			r.User.ID, truncateLabel(r.User.Username, 16), r.User.CurrentTask,
			m.bar.ViewAs(r.Progress.Percentage/100), FormatProgress(r.Progress), yesNo(r.User.Finished))
	})
}

func (m ConsoleModel) renderTasks() string {
	if len(m.data.Tasks) == 0 {
		return CurrentTheme.Dim.Render("No tasks in the catalog.")
	}
	return m.renderRows(len(m.data.Tasks), func(i int) string {
		t := m.data.Tasks[i]
		return fmt.Sprintf("Day %-3d %s", t.DayNumber, truncateLabel(t.Text, labelWidth+20))
	})
}

func (m ConsoleModel) renderStats() string {
	d := m.data.Dashboard
	var b strings.Builder
	fmt.Fprintf(&b, "Users:        %d (approved %d, waiting %d)\n", d.Users, d.ApprovedUsers, d.PendingUsers)
	fmt.Fprintf(&b, "Tasks:        %d\n", d.Tasks)
	fmt.Fprintf(&b, "Submissions:  %d\n", d.Submissions)
	for _, s := range []models.SubmissionStatus{
		models.SubmissionPending, models.SubmissionApproved,
		models.SubmissionRejected, models.SubmissionNeedsRedo,
	} {
		fmt.Fprintf(&b, "  %-20s %d\n", statusBadge(s), d.ByStatus[s])
	}
	return strings.TrimRight(b.String(), "\n")
}
