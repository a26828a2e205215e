package bot

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/akyairhashvil/marathon/internal/database"
	"github.com/akyairhashvil/marathon/internal/lifecycle"
	"github.com/akyairhashvil/marathon/internal/models"
	"github.com/akyairhashvil/marathon/internal/testutil"
	"github.com/akyairhashvil/marathon/internal/util"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestParseCallback(t *testing.T) {
	cases := []struct {
		data string
		want callback
	}{
		{"participate", callback{Kind: cbParticipate}},
		{"select_task_3", callback{Kind: cbSelectTask, N: 3}},
		{"suggested_reply_question_4", callback{Kind: cbSuggestedReply, Arg: "question", N: 4}},
		{"view_users_2", callback{Kind: cbViewUsers, N: 2}},
		{"view_subs_0", callback{Kind: cbViewSubs, N: 0}},
		{"approve_17", callback{Kind: cbApprove, N: 17}},
		{"redo_5", callback{Kind: cbRedo, N: 5}},
	}
	for _, tc := range cases {
		got, err := parseCallback(tc.data)
		if err != nil {
			t.Fatalf("parseCallback(%q) failed: %v", tc.data, err)
		}
		if got != tc.want {
			t.Fatalf("parseCallback(%q) = %+v, want %+v", tc.data, got, tc.want)
		}
	}
	for _, bad := range []string{"", "nope", "select_task_x", "view_users_-1", "suggested_reply_confirm", "approve_"} {
		if _, err := parseCallback(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestCallbackDataRoundTrip(t *testing.T) {
	cb, err := parseCallback(suggestedReplyData(string(lifecycle.ReplyConfirm), 9))
	if err != nil || cb.Arg != "confirm" || cb.N != 9 {
		t.Fatalf("unexpected suggested reply parse %+v (%v)", cb, err)
	}
	cb, err = parseCallback(pageData(cbViewTasks, 3))
	if err != nil || cb.Kind != cbViewTasks || cb.N != 3 {
		t.Fatalf("unexpected page parse %+v (%v)", cb, err)
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("unexpected split %q", got)
	}
	text := strings.Repeat("line of text\n", 10)
	parts := splitMessage(text, 30)
	if strings.Join(parts, "") != text {
		t.Fatalf("split must preserve content")
	}
	for _, p := range parts {
		if len([]rune(p)) > 30 {
			t.Fatalf("chunk too long: %d", len([]rune(p)))
		}
	}
	long := strings.Repeat("é", 25)
	parts = splitMessage(long, 10)
	if len(parts) != 3 || strings.Join(parts, "") != long {
		t.Fatalf("unexpected split of a single long line: %q", parts)
	}
}

func TestFormatPages(t *testing.T) {
	users := make([]models.User, 0, 7)
	for i := int64(1); i <= 7; i++ {
		users = append(users, testutil.NewUser().WithID(i).WithUsername("u"+itoa(i)).Build())
	}
	p := util.Paginate(len(users), 1, 5)
	text := formatUsersPage(users, p)
	if !strings.Contains(text, "Page 2/2") || !strings.Contains(text, "@u6") || strings.Contains(text, "@u1 ") {
		t.Fatalf("unexpected users page:\n%s", text)
	}
	kb := paginationKeyboard(cbViewUsers, p)
	if kb == nil || len(kb.InlineKeyboard[0]) != 1 || *kb.InlineKeyboard[0][0].CallbackData != "view_users_0" {
		t.Fatalf("expected only a prev button, got %+v", kb)
	}
	if paginationKeyboard(cbViewUsers, util.Paginate(3, 0, 5)) != nil {
		t.Fatalf("single page must not paginate")
	}

	tasks := testutil.Catalog(3)
	if got := formatTasksPage(tasks, util.Paginate(3, 0, 5)); !strings.Contains(got, "Day 3") {
		t.Fatalf("unexpected tasks page:\n%s", got)
	}
	quoted := []models.Task{testutil.NewTask(1).WithText("Read <b>aloud</b> & record").Build()}
	if got := formatTasksPage(quoted, util.Paginate(1, 0, 5)); !strings.Contains(got, "Read &lt;b&gt;aloud&lt;/b&gt; &amp; record") {
		t.Fatalf("task text not escaped:\n%s", got)
	}
	kb = pendingTasksKeyboard(tasks)
	if len(kb.InlineKeyboard) != 4 {
		t.Fatalf("expected 3 task rows and a menu row, got %d", len(kb.InlineKeyboard))
	}

	rows := []submissionRow{{
		Submission: testutil.NewSubmission(1, 1).WithID(4).WithStatus(models.SubmissionNeedsRedo).Build(),
		Username:   "alice",
		Day:        2,
	}}
	if got := formatSubmissionsPage(rows, util.Paginate(1, 0, 5)); !strings.Contains(got, "🆔 4 | 👤 @alice | 📅 Day 2 | 🟠 Needs Redo") {
		t.Fatalf("unexpected submissions page:\n%s", got)
	}
}

func TestFormatDashboard(t *testing.T) {
	d := models.Dashboard{
		Users: 5, ApprovedUsers: 3, PendingUsers: 2, Tasks: 4, Submissions: 6,
		ByStatus: map[models.SubmissionStatus]int{
			models.SubmissionPending:  1,
			models.SubmissionApproved: 5,
		},
	}
	got := formatDashboard(d)
	for _, want := range []string{"Users: 5 (✅ 3, ⏳ 2)", "Tasks: 4", "Approved: 5", "Needs Redo: 0"} {
		if !strings.Contains(got, want) {
			t.Fatalf("dashboard missing %q:\n%s", want, got)
		}
	}
}

func TestFormatUserStatus(t *testing.T) {
	u := testutil.NewUser().WithUsername("bob").Approved(2).Build()
	got := formatUserStatus(u, models.Progress{Completed: 1, Total: 4, Percentage: 25})
	if !strings.Contains(got, "@bob") || !strings.Contains(got, "1/4 (25%)") || !strings.Contains(got, "Current task: 2") {
		t.Fatalf("unexpected status:\n%s", got)
	}
	if statusKeyboard(u) == nil {
		t.Fatalf("approved unfinished user should get task buttons")
	}
	if statusKeyboard(testutil.NewUser().Approved(1).Finished().Build()) != nil {
		t.Fatalf("finished user should get no buttons")
	}
}

func TestErrorText(t *testing.T) {
	b := &Bot{support: "@help"}
	notFound := &database.OpError{Op: "get", Entity: database.EntityUser, ID: 1, Err: database.ErrNotFound}
	if got := b.errorText(notFound); !strings.HasPrefix(got, "❌ Not found.") || !strings.Contains(got, "@help") {
		t.Fatalf("unexpected text %q", got)
	}
	pre := &lifecycle.Error{Op: "submit", Kind: lifecycle.ErrPreconditionFailed, Msg: "user 1 is not approved"}
	if got := b.errorText(pre); !strings.HasPrefix(got, "⚠️ user 1 is not approved") {
		t.Fatalf("unexpected text %q", got)
	}
	if got := (&Bot{}).errorText(errors.New("disk")); got != "❌ Something went wrong. Please try again later." {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestReviewSessions(t *testing.T) {
	s := newReviewSessions()
	if _, ok := s.take("1"); ok {
		t.Fatalf("empty sessions must not yield a review")
	}
	s.start("1", pendingReview{submissionID: 3, decision: models.DecisionRedo})
	p, ok := s.take("1")
	if !ok || p.submissionID != 3 || p.decision != models.DecisionRedo {
		t.Fatalf("unexpected pending review %+v", p)
	}
	if s.cancel("1") {
		t.Fatalf("take must clear the session")
	}
}
